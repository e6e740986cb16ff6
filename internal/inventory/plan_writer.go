package inventory

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/xuri/excelize/v2"
)

const planSheet = "Distribution Plan"

var planHeader = []interface{}{
	"rank", domain.ColFoodItem, domain.ColFoodType, domain.ColDaysUntilExpiry,
	domain.ColCurrentQuantity, "recommended_quantity", "priority_score",
}

// WritePlan writes the full ordered plan to an xlsx workbook at path.
func WritePlan(path string, plan []domain.PlanEntry) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	f, err := planWorkbook(plan)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write plan %s: %w", path, err)
	}
	return nil
}

// PlanBytes renders the plan workbook in memory, for uploads.
func PlanBytes(plan []domain.PlanEntry) ([]byte, error) {
	f, err := planWorkbook(plan)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to render plan: %w", err)
	}
	return buf.Bytes(), nil
}

func planWorkbook(plan []domain.PlanEntry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), planSheet); err != nil {
		f.Close()
		return nil, err
	}

	header := planHeader
	if err := f.SetSheetRow(planSheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, e := range plan {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := []interface{}{
			e.Rank, e.FoodItem, e.FoodType, e.DaysUntilExpiry,
			e.CurrentQuantity, e.RecommendedQuantity, e.PriorityScore,
		}
		if err := f.SetSheetRow(planSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write plan row %d: %w", i, err)
		}
	}
	return f, nil
}
