// Package inventory keeps per-user inventory snapshots in xlsx workbooks.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const (
	filePrefix = "inventory_"
	fileExt    = ".xlsx"
	dateLayout = "2006-01-02"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store reads and appends inventory rows in <dataDir>/inventory_<user>.xlsx.
type Store struct {
	dataDir         string
	weeklyCustomers int
	now             func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store rooted at dataDir. weeklyCustomers is written for
// items added through AddItem; values below 1 fall back to the default.
func NewStore(dataDir string, weeklyCustomers int) *Store {
	if weeklyCustomers < 1 {
		weeklyCustomers = domain.DefaultWeeklyCustomers
	}
	return &Store{
		dataDir:         dataDir,
		weeklyCustomers: weeklyCustomers,
		now:             time.Now,
		locks:           make(map[string]*sync.Mutex),
	}
}

// DataDir returns the directory holding the workbooks.
func (s *Store) DataDir() string {
	return s.dataDir
}

// Path returns the workbook path for a user.
func (s *Store) Path(userID string) (string, error) {
	if !userIDPattern.MatchString(userID) {
		return "", &domain.RequestError{Reason: fmt.Sprintf("invalid user_id %q", userID)}
	}
	return filepath.Join(s.dataDir, filePrefix+userID+fileExt), nil
}

func (s *Store) lock(userID string) func() {
	s.mu.Lock()
	m, ok := s.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[userID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// EnsureUserFile creates the user's workbook with the canonical header when it
// does not exist yet, and returns its path.
func (s *Store) EnsureUserFile(ctx context.Context, userID string) (string, error) {
	path, err := s.Path(userID)
	if err != nil {
		return "", err
	}
	unlock := s.lock(userID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return path, s.ensureFile(path)
}

func (s *Store) ensureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(domain.RequiredColumns))
	for i, c := range domain.RequiredColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(f.GetSheetName(0), "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("Created inventory workbook")
	return nil
}

// AddItem appends one item to the user's workbook. The nutrition facts must be
// resolved by the caller.
func (s *Store) AddItem(ctx context.Context, userID string, item domain.NewItem) (domain.InventoryRecord, error) {
	rec, err := s.recordFromItem(item)
	if err != nil {
		return rec, err
	}

	path, err := s.Path(userID)
	if err != nil {
		return rec, err
	}
	unlock := s.lock(userID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return rec, err
	}
	if err := s.ensureFile(path); err != nil {
		return rec, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return rec, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetList()[0]
	rows, err := f.GetRows(sheet)
	if err != nil {
		return rec, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	columns := domain.RequiredColumns
	if len(rows) > 0 {
		columns = normalizeHeader(rows[0])
	}

	values := recordValues(rec)
	row := make([]interface{}, len(columns))
	for i, c := range columns {
		row[i] = values[c]
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return rec, err
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return rec, fmt.Errorf("failed to append row: %w", err)
	}
	if err := f.Save(); err != nil {
		return rec, fmt.Errorf("failed to save %s: %w", path, err)
	}

	log.Info().Str("user_id", userID).Str("food_item", rec.FoodItem).Msg("Added inventory item")
	return rec, nil
}

func (s *Store) recordFromItem(item domain.NewItem) (domain.InventoryRecord, error) {
	var rec domain.InventoryRecord
	if item.NutritionalValue == nil {
		return rec, &domain.RequestError{Reason: "item_data.nutritional_value is required"}
	}
	exp, err := domain.ParseDate(item.ExpirationDate)
	if err != nil {
		return rec, &domain.FieldError{Row: 0, Field: domain.ColExpirationDate, Reason: err.Error()}
	}

	rec = domain.InventoryRecord{
		FoodItem:        strings.TrimSpace(item.Type),
		FoodType:        strings.TrimSpace(item.Category),
		CurrentQuantity: item.Quantity,
		ExpirationDate:  exp,
		DaysUntilExpiry: domain.DaysUntil(exp, s.now()),
		Calories:        item.NutritionalValue.Calories,
		Sugars:          item.NutritionalValue.Sugars,
		WeeklyCustomers: s.weeklyCustomers,
	}
	rec.Derive()
	return rec, rec.Validate(0)
}

func recordValues(rec domain.InventoryRecord) map[string]interface{} {
	return map[string]interface{}{
		domain.ColFoodItem:         rec.FoodItem,
		domain.ColFoodType:         rec.FoodType,
		domain.ColCurrentQuantity:  rec.CurrentQuantity,
		domain.ColExpirationDate:   rec.ExpirationDate.Format(dateLayout),
		domain.ColDaysUntilExpiry:  rec.DaysUntilExpiry,
		domain.ColCalories:         rec.Calories,
		domain.ColSugars:           rec.Sugars,
		domain.ColNutritionalRatio: rec.NutritionalRatio,
		domain.ColWeeklyCustomers:  rec.WeeklyCustomers,
	}
}

// Load reads the user's workbook. A missing workbook is created and yields an
// empty table.
func (s *Store) Load(ctx context.Context, userID string) (domain.InventoryTable, error) {
	path, err := s.Path(userID)
	if err != nil {
		return domain.InventoryTable{}, err
	}
	unlock := s.lock(userID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return domain.InventoryTable{}, err
	}
	if err := s.ensureFile(path); err != nil {
		return domain.InventoryTable{}, err
	}
	return LoadFile(path)
}

// Users lists the user ids that have a workbook in the data dir, sorted.
func (s *Store) Users() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dataDir, filePrefix+"*"+fileExt))
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(matches))
	for _, m := range matches {
		if id, ok := UserFromPath(m); ok {
			users = append(users, id)
		}
	}
	sort.Strings(users)
	return users, nil
}

// UserFromPath extracts the user id from an inventory workbook path.
func UserFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, filePrefix) || !strings.HasSuffix(base, fileExt) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(base, filePrefix), fileExt)
	return id, userIDPattern.MatchString(id)
}

// LoadFile reads the first sheet of an inventory workbook into a table.
// Headers are normalised through the alias table, missing required columns
// yield a SchemaError and unparsable cells a FieldError.
func LoadFile(path string) (domain.InventoryTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.InventoryTable{}, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.InventoryTable{}, fmt.Errorf("xlsx file %s has no sheets", path)
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return domain.InventoryTable{}, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var (
		table   domain.InventoryTable
		columns []string
	)
	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return table, fmt.Errorf("failed to read row from %s: %w", path, err)
		}
		if columns == nil {
			columns = normalizeHeader(cells)
			table.Columns = columns
			if err := table.CheckSchema(); err != nil {
				return table, err
			}
			continue
		}
		if blank(cells) {
			continue
		}

		values := make(map[string]any, len(columns))
		for i, c := range columns {
			if i < len(cells) && strings.TrimSpace(cells[i]) != "" {
				values[c] = cells[i]
			}
		}
		rec, err := domain.RecordFromMap(len(table.Records), values)
		if err != nil {
			return table, err
		}
		table.Records = append(table.Records, rec)
	}
	if err := rows.Error(); err != nil {
		return table, fmt.Errorf("error iterating rows in %s: %w", path, err)
	}
	if columns == nil {
		// no header row
		return table, table.CheckSchema()
	}
	return table, nil
}

func normalizeHeader(cells []string) []string {
	columns := make([]string, len(cells))
	for i, c := range cells {
		columns[i] = domain.NormalizeColumn(strings.ToLower(c))
	}
	return columns
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
