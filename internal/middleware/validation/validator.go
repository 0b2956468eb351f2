package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxArticleSize      int
	MaxTitleLength      int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware enforces cheap request-shape checks before handlers run:
// content type, article size bounds and credibility/tolerance ranges.
// Semantic validation stays in the handlers.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxArticleSize == 0 {
		cfg.MaxArticleSize = 1 * 1024 * 1024
	}
	if cfg.MaxTitleLength == 0 {
		cfg.MaxTitleLength = 500
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == "POST" || c.Method() == "PUT" {
			contentType := c.Get("Content-Type")
			if contentType != "" {
				allowed := false
				for _, allowedType := range cfg.AllowedContentTypes {
					if strings.Contains(contentType, allowedType) {
						allowed = true
						break
					}
				}
				if !allowed {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "Unsupported content type",
					})
				}
			}
		}

		path := c.Path()

		if c.Method() == "POST" && strings.HasSuffix(path, "/api/v1/articles") {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			if err := validateArticle(req, cfg, c.IP()); err != "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": err,
				})
			}
		}

		if c.Method() == "PUT" && strings.Contains(path, "/api/v1/companies/") {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			if tolerance, ok := req["risk_tolerance"].(float64); ok {
				if tolerance < 0 || tolerance > 1 {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": "risk_tolerance must be between 0 and 1",
					})
				}
			}
		}

		return c.Next()
	}
}

func validateArticle(req map[string]interface{}, cfg Config, ip string) string {
	body, ok := req["body"].(string)
	if !ok || body == "" {
		return "Article body is required and must be a string"
	}
	if len(body) > cfg.MaxArticleSize {
		cfg.Logger.Warn("Oversized article rejected",
			zap.String("ip", ip),
			zap.Int("size", len(body)),
		)
		return "Article body exceeds maximum size"
	}

	if title, ok := req["title"].(string); ok && len(title) > cfg.MaxTitleLength {
		return "Article title exceeds maximum length"
	}

	if credibility, ok := req["source_credibility"].(float64); ok {
		if credibility < 0 || credibility > 1 {
			return "source_credibility must be between 0 and 1"
		}
	}

	return ""
}
