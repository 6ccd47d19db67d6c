package entity

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RegisterMedicalRoutes wires the medical record endpoints. They live beside
// the entity routes on the same handler because a medical record is keyed by
// its entity id.
func (h *Handler) RegisterMedicalRoutes(api *echo.Group) {
	api.GET("/medical/casualties", h.ListCasualties)
	api.GET("/medical/triage/:class", h.ListByTriage)
	api.GET("/medical/evac-stage/:stage", h.ListByEvacStage)
	api.GET("/medical/:id", h.GetMedical)
	api.PUT("/medical/:id", h.UpsertMedical)
	api.POST("/medical/:id/vitals", h.AppendVital)
	api.GET("/medical/:id/nine-line", h.GetNineLine)
	api.POST("/medical/:id/nine-line", h.SetNineLine)
	api.DELETE("/medical/:id", h.RemoveMedical)
}

func (h *Handler) ListCasualties(c echo.Context) error {
	items, err := h.svc.Casualties(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListByTriage(c echo.Context) error {
	items, err := h.svc.ByTriage(c.Request().Context(), Triage(c.Param("class")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListByEvacStage(c echo.Context) error {
	items, err := h.svc.ByEvacStage(c.Request().Context(), EvacStage(c.Param("stage")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetMedical(c echo.Context) error {
	id, err := entityID(c)
	if err != nil {
		return writeError(c, err)
	}
	rec, err := h.svc.GetMedical(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) UpsertMedical(c echo.Context) error {
	id, err := entityID(c)
	if err != nil {
		return writeError(c, err)
	}
	var p MedicalPatch
	if err := c.Bind(&p); err != nil {
		return writeError(c, &ValidationError{Violations: []string{"malformed request body"}})
	}
	rec, err := h.svc.UpsertMedical(c.Request().Context(), id, &p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) AppendVital(c echo.Context) error {
	id, err := entityID(c)
	if err != nil {
		return writeError(c, err)
	}
	var v VitalReading
	if err := c.Bind(&v); err != nil {
		return writeError(c, &ValidationError{Violations: []string{"malformed request body"}})
	}
	rec, err := h.svc.AppendVital(c.Request().Context(), id, &v)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// GetNineLine returns just the stored 9-Line document for an entity. An
// entity that has no document yet serves null rather than 404.
func (h *Handler) GetNineLine(c echo.Context) error {
	id, err := entityID(c)
	if err != nil {
		return writeError(c, err)
	}
	doc, err := h.svc.GetNineLine(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// SetNineLine submits a complete 9-Line document: every required line must
// be present and the stored document is replaced wholesale. Incremental
// line-by-line edits go through the medical PUT instead.
func (h *Handler) SetNineLine(c echo.Context) error {
	id, err := entityID(c)
	if err != nil {
		return writeError(c, err)
	}
	var doc map[string]interface{}
	if err := c.Bind(&doc); err != nil {
		return writeError(c, &ValidationError{Violations: []string{"malformed request body"}})
	}
	rec, err := h.svc.SetNineLine(c.Request().Context(), id, doc, true)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) RemoveMedical(c echo.Context) error {
	id, err := entityID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.svc.RemoveMedical(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
