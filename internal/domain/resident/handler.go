package resident

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carehq/carehq/internal/platform/auth"
	"github.com/carehq/carehq/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts resident CRUD. The :residentId name matches the
// assessment routes nested under the same path segment.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("admin", "manager", "nurse", "carer")

	g := api.Group("", role)
	g.POST("/residents", h.CreateResident)
	g.GET("/residents", h.ListResidents)
	g.GET("/residents/:residentId", h.GetResident)
	g.PUT("/residents/:residentId", h.UpdateResident)
	g.DELETE("/residents/:residentId", h.DeleteResident)
}

func (h *Handler) CreateResident(c echo.Context) error {
	var r Resident
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateResident(c.Request().Context(), &r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) GetResident(c echo.Context) error {
	id, err := uuid.Parse(c.Param("residentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid resident id")
	}
	r, err := h.svc.GetResident(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "resident not found")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListResidents(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListResidents(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateResident(c echo.Context) error {
	id, err := uuid.Parse(c.Param("residentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid resident id")
	}
	var r Resident
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r.ID = id
	if err := h.svc.UpdateResident(c.Request().Context(), &r); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "resident not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteResident(c echo.Context) error {
	id, err := uuid.Parse(c.Param("residentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid resident id")
	}
	if err := h.svc.DeleteResident(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "resident not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
