package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/fetch"
	"github.com/horizonbi/backend/internal/ingestion"
	"github.com/horizonbi/backend/internal/metrics"
	"github.com/horizonbi/backend/pkg/logger"
)

type ArticleHandler struct {
	processor *ingestion.Processor
	fetcher   *fetch.Fetcher
	hub       *EventHub
}

func NewArticleHandler(processor *ingestion.Processor, fetcher *fetch.Fetcher, hub *EventHub) *ArticleHandler {
	return &ArticleHandler{
		processor: processor,
		fetcher:   fetcher,
		hub:       hub,
	}
}

type articleRequest struct {
	Title             string  `json:"title"`
	Body              string  `json:"body"`
	SourceName        string  `json:"source_name"`
	SourceCredibility float64 `json:"source_credibility"`
	PublishedAt       string  `json:"published_at"`
}

func (r articleRequest) toInput() (ingestion.ArticleInput, error) {
	input := ingestion.ArticleInput{
		Title:             r.Title,
		Body:              r.Body,
		SourceName:        r.SourceName,
		SourceCredibility: r.SourceCredibility,
	}

	if r.PublishedAt != "" {
		t, err := time.Parse(time.RFC3339, r.PublishedAt)
		if err != nil {
			return input, err
		}
		input.PublishedAt = &t
	}

	return input, nil
}

func (h *ArticleHandler) IngestArticle(c *fiber.Ctx) error {
	var req articleRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Article body is required",
		})
	}

	input, err := req.toInput()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "published_at must be RFC3339",
		})
	}

	result, err := h.processor.ProcessArticle(c.Context(), input)
	if err != nil {
		metrics.ArticlesIngested.WithLabelValues("error").Inc()
		logger.Error("Failed to process article", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process article",
		})
	}

	metrics.ArticlesIngested.WithLabelValues("success").Inc()
	metrics.ClassificationMatches.Observe(float64(len(result.Mappings)))
	for _, m := range result.Mappings {
		metrics.ClassificationConfidence.Observe(m.MatchConfidence)
	}

	h.hub.Publish("article_ingested", fiber.Map{
		"article_id": result.Article.ID,
		"source":     result.Article.SourceName,
		"category":   result.Article.Category,
		"mappings":   len(result.Mappings),
	})

	return c.JSON(fiber.Map{
		"article_id": result.Article.ID,
		"category":   result.Article.Category,
		"mappings":   result.Mappings,
	})
}

func (h *ArticleHandler) IngestFromURL(c *fiber.Ctx) error {
	var req struct {
		URL               string  `json:"url"`
		SourceName        string  `json:"source_name"`
		SourceCredibility float64 `json:"source_credibility"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url is required",
		})
	}

	fetched, err := h.fetcher.FetchArticle(c.Context(), req.URL)
	if err != nil {
		logger.Error("Failed to fetch article", zap.String("url", req.URL), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to fetch article",
		})
	}

	sourceName := req.SourceName
	if sourceName == "" {
		sourceName = req.URL
	}

	result, err := h.processor.ProcessArticle(c.Context(), ingestion.ArticleInput{
		Title:             fetched.Title,
		Body:              fetched.Body,
		SourceName:        sourceName,
		SourceCredibility: req.SourceCredibility,
	})
	if err != nil {
		metrics.ArticlesIngested.WithLabelValues("error").Inc()
		logger.Error("Failed to process fetched article", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process article",
		})
	}

	metrics.ArticlesIngested.WithLabelValues("success").Inc()
	metrics.ClassificationMatches.Observe(float64(len(result.Mappings)))

	h.hub.Publish("article_ingested", fiber.Map{
		"article_id": result.Article.ID,
		"source":     result.Article.SourceName,
		"category":   result.Article.Category,
		"mappings":   len(result.Mappings),
	})

	return c.JSON(fiber.Map{
		"article_id": result.Article.ID,
		"url":        req.URL,
		"category":   result.Article.Category,
		"mappings":   result.Mappings,
	})
}

func (h *ArticleHandler) IngestBatch(c *fiber.Ctx) error {
	var req struct {
		Articles []articleRequest `json:"articles"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.Articles) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one article is required",
		})
	}

	processed := 0
	failed := 0
	for _, item := range req.Articles {
		input, err := item.toInput()
		if err != nil {
			failed++
			continue
		}

		result, err := h.processor.ProcessArticle(c.Context(), input)
		if err != nil {
			metrics.ArticlesIngested.WithLabelValues("error").Inc()
			logger.Warn("Batch item failed", zap.String("title", item.Title), zap.Error(err))
			failed++
			continue
		}

		metrics.ArticlesIngested.WithLabelValues("success").Inc()
		metrics.ClassificationMatches.Observe(float64(len(result.Mappings)))
		processed++
	}

	h.hub.Publish("batch_ingested", fiber.Map{
		"processed": processed,
		"failed":    failed,
	})

	return c.JSON(fiber.Map{
		"processed": processed,
		"failed":    failed,
	})
}
