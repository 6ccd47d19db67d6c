package scenario

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MartinezAgullo/cmop-map/internal/domain/entity"
)

// loadTimeout caps how long a single scenario load may hold its transaction.
const loadTimeout = 15 * time.Second

type Handler struct {
	store  *Store
	loader *Loader
}

func NewHandler(store *Store, loader *Loader) *Handler {
	return &Handler{store: store, loader: loader}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/scenarios", h.ListScenarios)
	api.POST("/scenarios/load/:name", h.LoadScenario)
}

func (h *Handler) ListScenarios(c echo.Context) error {
	metas, err := h.store.List()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
	}
	if metas == nil {
		metas = []Meta{}
	}
	return c.JSON(http.StatusOK, metas)
}

func (h *Handler) LoadScenario(c echo.Context) error {
	name := c.Param("name")

	sc, err := h.store.Load(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"error": "scenario " + name + " not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), loadTimeout)
	defer cancel()

	res, err := h.loader.Load(ctx, sc)
	if err != nil {
		if ve, ok := entity.AsValidation(err); ok {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error":      "validation failed",
				"violations": ve.Violations,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, res)
}
