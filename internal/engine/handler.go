package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"entrykit/internal/conditions"
	"entrykit/internal/metadata"
	"entrykit/internal/store"
)

const defaultLimit = 100

// Handler serves entries of the registered entry types.
type Handler struct {
	entries  *store.EntryRepository
	registry *metadata.Registry
	picker   conditions.PickerRenderer
	logger   *zap.Logger
}

func NewHandler(entries *store.EntryRepository, reg *metadata.Registry, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{entries: entries, registry: reg, picker: conditions.HTMLPicker{}, logger: logger}
}

type createEntryRequest struct {
	Type      string                `json:"type"`
	Title     string                `json:"title"`
	Content   map[string]any        `json:"content"`
	Relations []store.RelationInput `json:"relations"`
}

// List handles GET /api/entries?type=&relatedTo=&limit=
func (h *Handler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	q := h.entries.NewQuery().Limit(limit)

	if handle := c.Query("type"); handle != "" {
		et, err := h.resolveEntryType(handle)
		if err != nil {
			return err
		}
		q.TypeID(*et.ID)
	}

	rule := relatedToRule(c.Query("relatedTo"))
	cond := conditions.Condition{Rules: []conditions.Rule{rule}}
	cond.ModifyQuery(q)

	entries, err := h.entries.Query(c.Context(), q)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	return c.JSON(fiber.Map{
		"data": entries,
		"meta": fiber.Map{
			"condition": cond.Config(),
			"limit":     limit,
		},
	})
}

// Create handles POST /api/entries
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return RespondError(c, InvalidPayloadError("Invalid JSON body"))
	}
	if req.Type == "" {
		return RespondError(c, InvalidPayloadError("type is required"))
	}

	et, err := h.resolveEntryType(req.Type)
	if err != nil {
		return err
	}

	record := make(map[string]any, len(req.Content)+1)
	for k, v := range req.Content {
		record[k] = v
	}
	record["title"] = req.Title

	title, err := et.RenderTitle(record)
	if err != nil {
		return RespondError(c, NewAppError("INVALID_TITLE_FORMAT", fiber.StatusUnprocessableEntity, err.Error()))
	}

	entry, err := h.entries.Create(c.Context(), *et.ID, title, req.Content, req.Relations)
	if err != nil {
		return HandleWriteError(c, err)
	}

	h.logger.Info("Created entry",
		zap.Int("id", entry.ID), zap.String("type", et.Handle), zap.Int("relations", len(req.Relations)))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": entry})
}

// Picker handles GET /api/entries/picker?elementIds=&namespace=
func (h *Handler) Picker(c *fiber.Ctx) error {
	rule := relatedToRule(c.Query("elementIds"))
	html, err := rule.HTML(c.Context(), h.entries, h.picker, conditions.PickerOptions{
		Namespace: c.Query("namespace"),
	})
	if err != nil {
		return fmt.Errorf("render picker: %w", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

func (h *Handler) resolveEntryType(handle string) (*metadata.EntryType, error) {
	et := h.registry.GetByHandle(handle)
	if et == nil || et.ID == nil {
		return nil, UnknownEntryTypeError(handle)
	}
	return et, nil
}

// relatedToRule builds the rule from a query value: "5" or "5,7".
func relatedToRule(raw string) *conditions.RelatedToRule {
	rule := conditions.NewRelatedToRule()
	if !strings.Contains(raw, ",") {
		rule.SetElementIDs(raw)
		return rule
	}
	rule.SetElementIDs(splitAndTrim(raw))
	return rule
}

func splitAndTrim(s string) []string {
	parts := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// ParseID reads the integer :id route parameter.
func ParseID(c *fiber.Ctx) (int, error) {
	raw := c.Params("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, InvalidPayloadError("Invalid id: " + raw)
	}
	return id, nil
}
