package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/foodbank-planner/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const noInventoryMessage = "No inventory data available"

type DistributionHandler struct {
	service *service.DistributionService
}

func NewDistributionHandler(service *service.DistributionService) *DistributionHandler {
	return &DistributionHandler{service: service}
}

type predictRequest struct {
	UserID string `json:"user_id"`
	TopN   int    `json:"top_n"`
}

type planRequest struct {
	Inventory []map[string]any `json:"inventory"`
	TopN      int              `json:"top_n"`
}

type addItemRequest struct {
	UserID   string          `json:"user_id"`
	ItemData *domain.NewItem `json:"item_data"`
}

// Health reports liveness.
func (h *DistributionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Predict plans the stored inventory of a user.
func (h *DistributionHandler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		failure(c, http.StatusBadRequest, "user_id is required")
		return
	}

	result, err := h.service.PlanForUser(c.Request.Context(), req.UserID)
	if err != nil {
		planError(c, err)
		return
	}
	h.respondPlan(c, result, req.TopN)
}

// Plan plans an inventory table supplied in the request body.
func (h *DistributionHandler) Plan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	table := domain.NewInventoryTable(nil)
	if len(req.Inventory) > 0 {
		var err error
		if table, err = domain.TableFromMaps(req.Inventory); err != nil {
			planError(c, err)
			return
		}
	}

	result, err := h.service.PlanTable(c.Request.Context(), table)
	if err != nil {
		planError(c, err)
		return
	}
	h.respondPlan(c, result, req.TopN)
}

func (h *DistributionHandler) respondPlan(c *gin.Context, result *service.PlanResult, topN int) {
	if len(result.Plan) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success":           true,
			"distribution_plan": []domain.PlanItem{},
			"message":           noInventoryMessage,
		})
		return
	}

	body := gin.H{
		"success":           true,
		"distribution_plan": domain.PlanItems(result.Plan, topN),
		"cached":            result.Cached,
	}
	if result.RunID != "" {
		body["run_id"] = result.RunID
	}
	if result.ExportKey != "" {
		body["export_key"] = result.ExportKey
	}
	c.JSON(http.StatusOK, body)
}

// AddItem appends an item to a user's inventory.
func (h *DistributionHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" || req.ItemData == nil {
		failure(c, http.StatusBadRequest, "user_id and item_data are required")
		return
	}

	rec, err := h.service.AddItem(c.Request.Context(), strings.TrimSpace(req.UserID), *req.ItemData)
	if err != nil {
		planError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "item": rec})
}

// GetInventory returns the stored inventory of a user.
func (h *DistributionHandler) GetInventory(c *gin.Context) {
	table, err := h.service.Inventory(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		planError(c, err)
		return
	}
	records := table.Records
	if records == nil {
		records = []domain.InventoryRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "inventory": records})
}

// Search returns food name suggestions for autocompletion.
func (h *DistributionHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	suggestions, err := h.service.Suggest(c.Request.Context(), query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("nutrition search failed")
		failure(c, http.StatusBadGateway, "failed to fetch suggestions")
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

// History lists recent plan runs of a user.
func (h *DistributionHandler) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	runs, err := h.service.History(c.Request.Context(), c.Param("user_id"), limit)
	if errors.Is(err, service.ErrHistoryDisabled) {
		failure(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		planError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "runs": runs})
}

func planError(c *gin.Context, err error) {
	if domain.IsUserError(err) {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	failure(c, http.StatusInternalServerError, err.Error())
}

func failure(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}
