package entity

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/entities", h.ListEntities)
	api.GET("/entities/categories", h.ListCategories)
	api.GET("/entities/nearby", h.ListNearby)
	api.GET("/entities/category/:category", h.ListByCategory)
	api.GET("/entities/:id", h.GetEntity)
	api.POST("/entities", h.CreateEntity)
	api.POST("/entities/batch", h.CreateEntityBatch)
	api.PUT("/entities/:id", h.UpdateEntity)
	api.DELETE("/entities/:id", h.DeleteEntity)

	api.GET("/schema", h.GetSchema)
}

// writeError maps the domain error taxonomy onto HTTP responses. Validation
// failures carry the full violations list so a client can fix everything in
// one round trip.
func writeError(c echo.Context, err error) error {
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]interface{}{"error": "not found"})
	}
	if ve, ok := AsValidation(err); ok {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":      "validation failed",
			"violations": ve.Violations,
		})
	}
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
}

func entityID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Violations: []string{"id must be a positive integer"}}
	}
	return id, nil
}

func (h *Handler) ListEntities(c echo.Context) error {
	items, err := h.svc.GetAll(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetEntity(c echo.Context) error {
	id, err := entityID(c)
	if err != nil {
		return writeError(c, err)
	}
	e, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListByCategory(c echo.Context) error {
	items, err := h.svc.GetByCategory(c.Request().Context(), Category(c.Param("category")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListNearby(c echo.Context) error {
	lon, lonErr := strconv.ParseFloat(c.QueryParam("lon"), 64)
	lat, latErr := strconv.ParseFloat(c.QueryParam("lat"), 64)

	var violations []string
	if lonErr != nil {
		violations = append(violations, "lon query parameter is required and must be a number")
	}
	if latErr != nil {
		violations = append(violations, "lat query parameter is required and must be a number")
	}

	var radius float64
	if raw := c.QueryParam("radius"); raw != "" {
		var err error
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			violations = append(violations, "radius must be a number")
		}
	}
	if len(violations) > 0 {
		return writeError(c, &ValidationError{Violations: violations})
	}

	items, err := h.svc.GetNearby(c.Request().Context(), lon, lat, radius)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListCategories(c echo.Context) error {
	cats, err := h.svc.Categories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *Handler) CreateEntity(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return writeError(c, &ValidationError{Violations: []string{"malformed request body"}})
	}
	e, err := h.svc.Create(c.Request().Context(), &in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) CreateEntityBatch(c echo.Context) error {
	var ins []*CreateInput
	if err := c.Bind(&ins); err != nil {
		return writeError(c, &ValidationError{Violations: []string{"malformed request body"}})
	}
	if len(ins) == 0 {
		return writeError(c, &ValidationError{Violations: []string{"batch must not be empty"}})
	}
	items, err := h.svc.CreateBatch(c.Request().Context(), ins)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, items)
}

func (h *Handler) UpdateEntity(c echo.Context) error {
	id, err := entityID(c)
	if err != nil {
		return writeError(c, err)
	}
	var p Patch
	if err := c.Bind(&p); err != nil {
		return writeError(c, &ValidationError{Violations: []string{"malformed request body"}})
	}
	e, err := h.svc.Update(c.Request().Context(), id, &p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteEntity(c echo.Context) error {
	id, err := entityID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetSchema(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Schema())
}
