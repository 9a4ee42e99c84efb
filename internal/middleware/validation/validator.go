package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Classification inputs are free text, so keyword filtering would reject
// legitimate tickets ("cannot delete my account"). Only markup that could
// execute when the ticket is rendered later is rejected.
var markupPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)

type Config struct {
	MaxSubjectLength     int
	MaxDescriptionLength int
	AllowedContentTypes  []string
	Logger               *zap.Logger
}

func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxSubjectLength == 0 {
		cfg.MaxSubjectLength = 500
	}
	if cfg.MaxDescriptionLength == 0 {
		cfg.MaxDescriptionLength = 10000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			contentType := c.Get("Content-Type")
			if contentType != "" && !contentTypeAllowed(contentType, cfg.AllowedContentTypes) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		if strings.Contains(c.Path(), "/classify") && c.Method() == fiber.MethodPost {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			// Single and smart requests carry the fields at the top level;
			// batch requests nest them under "tickets".
			inputs := []map[string]interface{}{req}
			if rawTickets, ok := req["tickets"].([]interface{}); ok {
				inputs = inputs[:0]
				for _, raw := range rawTickets {
					if item, ok := raw.(map[string]interface{}); ok {
						inputs = append(inputs, item)
					}
				}
			}

			for _, input := range inputs {
				if err := validateTicketInput(c, input, cfg); err != nil {
					return err
				}
			}
		}

		return c.Next()
	}
}

// validateTicketInput checks types, lengths, and markup. Empty subject and
// description are allowed; the pipeline handles them as legitimate empty
// text.
func validateTicketInput(c *fiber.Ctx, input map[string]interface{}, cfg Config) error {
	subject, ok := stringField(input, "subject")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Subject must be a string",
		})
	}
	description, ok := stringField(input, "description")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Description must be a string",
		})
	}

	if len(subject) > cfg.MaxSubjectLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Subject exceeds maximum length",
		})
	}
	if len(description) > cfg.MaxDescriptionLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Description exceeds maximum length",
		})
	}

	if markupPattern.MatchString(subject) || markupPattern.MatchString(description) {
		if cfg.Logger != nil {
			cfg.Logger.Warn("Rejected ticket containing active markup",
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
			)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Ticket text contains disallowed markup",
		})
	}

	return nil
}

// stringField reports whether the key is absent or holds a string. A missing
// field is treated as the empty string.
func stringField(input map[string]interface{}, key string) (string, bool) {
	raw, present := input[key]
	if !present || raw == nil {
		return "", true
	}
	s, ok := raw.(string)
	return s, ok
}

func contentTypeAllowed(contentType string, allowed []string) bool {
	for _, allowedType := range allowed {
		if strings.Contains(contentType, allowedType) {
			return true
		}
	}
	return false
}
