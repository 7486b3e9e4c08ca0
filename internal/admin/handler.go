package admin

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"entrykit/internal/engine"
	"entrykit/internal/metadata"
	"entrykit/internal/projectconfig"
	"entrykit/internal/store"
)

type Handler struct {
	repo     *store.EntryTypeRepository
	registry *metadata.Registry
	deps     metadata.Deps
	exporter *projectconfig.Writer
	logger   *zap.Logger
}

// NewHandler wires the admin API. deps.Unique defaults to repo. exporter may
// be nil to skip project config sync.
func NewHandler(repo *store.EntryTypeRepository, reg *metadata.Registry, deps metadata.Deps, exporter *projectconfig.Writer, logger *zap.Logger) *Handler {
	if deps.Unique == nil {
		deps.Unique = repo
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, registry: reg, deps: deps, exporter: exporter, logger: logger}
}

func RegisterAdminRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	admin := app.Group("/api/_admin", middleware...)

	admin.Get("/entry-types", h.ListEntryTypes)
	admin.Post("/entry-types/validate", h.ValidateEntryType)
	admin.Get("/entry-types/:id", h.GetEntryType)
	admin.Get("/entry-types/:id/config", h.GetEntryTypeConfig)
	admin.Post("/entry-types", h.CreateEntryType)
	admin.Put("/entry-types/:id", h.UpdateEntryType)
	admin.Delete("/entry-types/:id", h.DeleteEntryType)
}

// entryTypeView is the API form of an entry type.
type entryTypeView struct {
	*metadata.EntryType
	FieldLayout *metadata.FieldLayout `json:"fieldLayout"`
	EditURL     string                `json:"editUrl"`
}

func (h *Handler) view(et *metadata.EntryType) entryTypeView {
	bound := et.Clone(h.deps)
	return entryTypeView{EntryType: bound, FieldLayout: bound.FieldLayout(), EditURL: bound.EditURL()}
}

func (h *Handler) ListEntryTypes(c *fiber.Ctx) error {
	types := h.registry.All()
	views := make([]entryTypeView, 0, len(types))
	for _, et := range types {
		views = append(views, h.view(et))
	}
	return c.JSON(fiber.Map{"data": views})
}

func (h *Handler) GetEntryType(c *fiber.Ctx) error {
	et, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.view(et)})
}

func (h *Handler) GetEntryTypeConfig(c *fiber.Ctx) error {
	et, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": et.Config(),
		"meta": fiber.Map{"file": projectconfig.FileName(et)},
	})
}

// ValidateEntryType runs validation without saving.
func (h *Handler) ValidateEntryType(c *fiber.Ctx) error {
	var attrs metadata.Attributes
	if err := c.BodyParser(&attrs); err != nil {
		return engine.RespondError(c, engine.InvalidPayloadError("Invalid JSON body"))
	}

	et := h.deps.NewEntryType()
	et.SetAttributes(attrs)
	errs, err := et.Validate(c.Context())
	if err != nil {
		return fmt.Errorf("validate entry type: %w", err)
	}
	if errs == nil {
		errs = map[string][]string{}
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"valid": !errs.HasErrors(), "errors": errs}})
}

func (h *Handler) CreateEntryType(c *fiber.Ctx) error {
	var attrs metadata.Attributes
	if err := c.BodyParser(&attrs); err != nil {
		return engine.RespondError(c, engine.InvalidPayloadError("Invalid JSON body"))
	}
	attrs.ID = nil
	attrs.FieldLayoutID = nil
	if attrs.FieldLayout != nil {
		attrs.FieldLayout.ID = nil
	}

	et := h.deps.NewEntryType()
	et.SetAttributes(attrs)
	if err := h.save(c, et); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": h.view(et)})
}

func (h *Handler) UpdateEntryType(c *fiber.Ctx) error {
	existing, err := h.load(c)
	if err != nil {
		return err
	}

	var attrs metadata.Attributes
	if err := c.BodyParser(&attrs); err != nil {
		return engine.RespondError(c, engine.InvalidPayloadError("Invalid JSON body"))
	}
	attrs.ID = *existing.ID
	attrs.FieldLayoutID = nil
	if l := attrs.FieldLayout; l != nil {
		// a submitted layout replaces the stored one in place
		current := existing.FieldLayout()
		l.ID = current.ID
		if l.UID == "" {
			l.UID = current.UID
		}
	}

	et := existing.Clone(h.deps)
	et.SetAttributes(attrs)
	if err := h.save(c, et); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.view(et)})
}

func (h *Handler) DeleteEntryType(c *fiber.Ctx) error {
	et, err := h.load(c)
	if err != nil {
		return err
	}
	if err := h.repo.Delete(c.Context(), *et.ID); err != nil {
		return engine.HandleWriteError(c, err)
	}
	if err := h.reload(c); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": *et.ID, "handle": et.Handle, "deleted": true}})
}

// save validates et, persists it and refreshes the registry. A unique
// violation that slipped past validation surfaces as 409.
func (h *Handler) save(c *fiber.Ctx, et *metadata.EntryType) error {
	errs, err := et.Validate(c.Context())
	if err != nil {
		return fmt.Errorf("validate entry type: %w", err)
	}
	if errs.HasErrors() {
		return engine.ValidationError(errs)
	}

	if err := h.repo.Save(c.Context(), et); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return engine.ConflictError(fmt.Sprintf("Entry type %q conflicts with an existing entry type", et.Handle))
		}
		return engine.HandleWriteError(c, err)
	}
	return h.reload(c)
}

func (h *Handler) reload(c *fiber.Ctx) error {
	if err := metadata.Reload(c.Context(), h.repo, h.registry, h.logger); err != nil {
		return fmt.Errorf("reload registry: %w", err)
	}
	if h.exporter == nil {
		return nil
	}
	if _, err := h.exporter.WriteEntryTypes(h.registry.All()); err != nil {
		h.logger.Warn("Project config export failed", zap.Error(err))
	}
	return nil
}

func (h *Handler) load(c *fiber.Ctx) (*metadata.EntryType, error) {
	id, err := engine.ParseID(c)
	if err != nil {
		return nil, err
	}
	et, err := h.repo.FindByID(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, engine.NotFoundError("Entry type", strconv.Itoa(id))
	}
	if err != nil {
		return nil, fmt.Errorf("get entry type %d: %w", id, err)
	}
	return et, nil
}
