package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/insight"
	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/internal/storage/sqlite"
	"github.com/horizonbi/backend/pkg/logger"
)

type InsightHandler struct {
	db  *sqlite.Client
	svc *insight.Service
}

func NewInsightHandler(db *sqlite.Client, svc *insight.Service) *InsightHandler {
	return &InsightHandler{
		db:  db,
		svc: svc,
	}
}

func (h *InsightHandler) GetCompanyInsights(c *fiber.Ctx) error {
	companyID := c.Params("id")

	insights, err := h.svc.ComputeInsights(c.Context(), companyID)
	if err != nil {
		logger.Error("Failed to compute insights", zap.String("company_id", companyID), zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Company not found or insights unavailable",
		})
	}

	return c.JSON(insights)
}

func (h *InsightHandler) UpsertCompany(c *fiber.Ctx) error {
	companyID := c.Params("id")

	var req struct {
		Name               string             `json:"name"`
		Industry           string             `json:"industry"`
		BusinessScale      string             `json:"business_scale"`
		Dependencies       map[string]float64 `json:"dependencies"`
		Sensitivities      map[string]float64 `json:"sensitivities"`
		RiskTolerance      float64            `json:"risk_tolerance"`
		GeographicExposure []string           `json:"geographic_exposure"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Company name is required",
		})
	}

	profile := models.CompanyProfile{
		CompanyID:          companyID,
		Name:               req.Name,
		Industry:           req.Industry,
		BusinessScale:      req.BusinessScale,
		Dependencies:       req.Dependencies,
		Sensitivities:      req.Sensitivities,
		RiskTolerance:      req.RiskTolerance,
		GeographicExposure: req.GeographicExposure,
	}

	err := h.db.UpsertCompanyProfile(&profile)
	if err != nil {
		logger.Error("Failed to upsert company profile", zap.String("company_id", companyID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save company profile",
		})
	}

	return c.JSON(fiber.Map{
		"company_id": companyID,
		"message":    "Company profile saved",
	})
}

func (h *InsightHandler) GetCompany(c *fiber.Ctx) error {
	companyID := c.Params("id")

	profile, err := h.db.GetCompanyProfile(companyID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Company not found",
		})
	}

	return c.JSON(profile)
}

// GetDashboard summarizes the national picture: latest value and category
// average per PESTEL category.
func (h *InsightHandler) GetDashboard(c *fiber.Ctx) error {
	definitions, err := h.db.GetDefinitions()
	if err != nil {
		logger.Error("Failed to load definitions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load dashboard",
		})
	}

	latest, err := h.db.GetLatestValues()
	if err != nil {
		logger.Error("Failed to load latest values", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load dashboard",
		})
	}

	type categorySummary struct {
		Category   string  `json:"category"`
		Average    float64 `json:"average"`
		Indicators int     `json:"indicators"`
	}

	sums := make(map[models.Category]float64)
	counts := make(map[models.Category]int)
	for _, def := range definitions {
		value, ok := latest[def.ID]
		if !ok {
			continue
		}
		sums[def.Category] += value
		counts[def.Category]++
	}

	summaries := make([]categorySummary, 0, len(counts))
	for _, category := range []models.Category{
		models.CategoryPolitical,
		models.CategoryEconomic,
		models.CategorySocial,
		models.CategoryTechnological,
		models.CategoryEnvironmental,
		models.CategoryLegal,
	} {
		count := counts[category]
		if count == 0 {
			continue
		}
		summaries = append(summaries, categorySummary{
			Category:   string(category),
			Average:    sums[category] / float64(count),
			Indicators: count,
		})
	}

	return c.JSON(fiber.Map{
		"categories":      summaries,
		"indicator_count": len(latest),
	})
}
