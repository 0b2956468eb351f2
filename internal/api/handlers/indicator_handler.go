package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/insight"
	"github.com/horizonbi/backend/internal/pipeline"
	"github.com/horizonbi/backend/internal/storage/sqlite"
	"github.com/horizonbi/backend/pkg/logger"
)

type IndicatorHandler struct {
	db     *sqlite.Client
	svc    *insight.Service
	runner *pipeline.Runner
	hub    *EventHub
}

func NewIndicatorHandler(db *sqlite.Client, svc *insight.Service, runner *pipeline.Runner, hub *EventHub) *IndicatorHandler {
	return &IndicatorHandler{
		db:     db,
		svc:    svc,
		runner: runner,
		hub:    hub,
	}
}

func (h *IndicatorHandler) ListIndicators(c *fiber.Ctx) error {
	definitions, err := h.db.GetDefinitions()
	if err != nil {
		logger.Error("Failed to load definitions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load indicators",
		})
	}

	latest, err := h.db.GetLatestValues()
	if err != nil {
		logger.Error("Failed to load latest values", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load indicators",
		})
	}

	type indicatorView struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Category    string   `json:"category"`
		LatestValue *float64 `json:"latest_value"`
	}

	views := make([]indicatorView, 0, len(definitions))
	for _, def := range definitions {
		view := indicatorView{
			ID:       def.ID,
			Name:     def.Name,
			Category: string(def.Category),
		}
		if value, ok := latest[def.ID]; ok {
			v := value
			view.LatestValue = &v
		}
		views = append(views, view)
	}

	return c.JSON(fiber.Map{
		"indicators": views,
	})
}

func (h *IndicatorHandler) GetSeries(c *fiber.Ctx) error {
	indicatorID := c.Params("id")

	days := c.QueryInt("days", 90)
	if days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "days must be positive",
		})
	}

	now := time.Now().UTC()
	series, err := h.db.GetSeries(indicatorID, now.AddDate(0, 0, -days), now)
	if err != nil {
		logger.Error("Failed to load series", zap.String("indicator_id", indicatorID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load series",
		})
	}

	return c.JSON(fiber.Map{
		"indicator_id": indicatorID,
		"series":       series,
	})
}

func (h *IndicatorHandler) GetAnalysis(c *fiber.Ctx) error {
	indicatorID := c.Params("id")

	result, err := h.svc.AnalyzeIndicator(c.Context(), indicatorID)
	if err != nil {
		logger.Error("Failed to analyze indicator", zap.String("indicator_id", indicatorID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to analyze indicator",
		})
	}

	return c.JSON(result)
}

func (h *IndicatorHandler) SimulateCascade(c *fiber.Ctx) error {
	indicatorID := c.Params("id")

	var req struct {
		Delta    float64 `json:"delta"`
		MaxDepth int     `json:"max_depth"`
		MinDelta float64 `json:"min_delta"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Delta == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "delta is required and must be non-zero",
		})
	}

	effects, err := h.svc.SimulateShock(c.Context(), indicatorID, req.Delta, req.MaxDepth, req.MinDelta)
	if err != nil {
		logger.Error("Cascade simulation failed", zap.String("indicator_id", indicatorID), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cascade simulation failed",
		})
	}

	return c.JSON(fiber.Map{
		"origin":  indicatorID,
		"delta":   req.Delta,
		"effects": effects,
	})
}

func (h *IndicatorHandler) RunPipeline(c *fiber.Ctx) error {
	report, err := h.runner.Run(c.Context())
	if err != nil {
		logger.Error("Pipeline run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Pipeline run failed",
		})
	}

	h.hub.Publish("pipeline_completed", fiber.Map{
		"articles":       report.Articles,
		"values_written": report.ValuesWritten,
		"duration_ms":    report.Duration.Milliseconds(),
	})

	return c.JSON(fiber.Map{
		"articles":           report.Articles,
		"mappings":           report.Mappings,
		"values_written":     report.ValuesWritten,
		"composites_written": report.CompositesWritten,
		"duration_ms":        report.Duration.Milliseconds(),
	})
}
