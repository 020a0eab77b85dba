package assessment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carehq/carehq/internal/platform/auth"
)

// submitBody is the wire shape shared by submit and update requests.
type submitBody[P Payload] struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	TeamID         uuid.UUID `json:"team_id"`
	SavedAsDraft   bool      `json:"saved_as_draft"`
	Payload        P         `json:"payload"`
}

// Handler exposes one form kind's engine over echo. Every kind shares the
// same route shapes; only the :kind segment differs.
type Handler[P Payload] struct {
	engine *Engine[P]
}

func NewHandler[P Payload](engine *Engine[P]) *Handler[P] {
	return &Handler[P]{engine: engine}
}

// RegisterRoutes mounts the kind's routes on the API group. Writes require a
// care role; reads accept the same set.
func (h *Handler[P]) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("admin", "manager", "nurse", "carer")
	kind := h.engine.Kind().Name

	g := api.Group("", role)
	g.POST("/residents/:residentId/assessments/"+kind, h.Submit)
	g.GET("/residents/:residentId/assessments/"+kind, h.ListByResident)
	g.GET("/residents/:residentId/assessments/"+kind+"/archive", h.Archived)
	g.GET("/assessments/"+kind+"/:id", h.GetByID)
	g.PUT("/assessments/"+kind+"/:id", h.Update)
	g.DELETE("/assessments/"+kind+"/:id", h.Delete)
	g.GET("/assessments/"+kind+"/:id/pdf", h.PDF)
	g.POST("/assessments/"+kind+"/:id/review", h.Review)
}

func (h *Handler[P]) Submit(c echo.Context) error {
	residentID, err := uuid.Parse(c.Param("residentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid resident id")
	}
	var body submitBody[P]
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rec, err := h.engine.Submit(c.Request().Context(), residentID, actor(c), SubmitRequest[P]{
		OrganizationID: body.OrganizationID,
		TeamID:         body.TeamID,
		SavedAsDraft:   body.SavedAsDraft,
		Payload:        body.Payload,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler[P]) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body submitBody[P]
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rec, err := h.engine.Update(c.Request().Context(), id, actor(c), SubmitRequest[P]{
		OrganizationID: body.OrganizationID,
		TeamID:         body.TeamID,
		SavedAsDraft:   body.SavedAsDraft,
		Payload:        body.Payload,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler[P]) GetByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.engine.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if rec == nil {
		return echo.NewHTTPError(http.StatusNotFound, "assessment not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler[P]) ListByResident(c echo.Context) error {
	residentID, err := uuid.Parse(c.Param("residentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid resident id")
	}
	items, err := h.engine.ListByResident(c.Request().Context(), residentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Record{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler[P]) Archived(c echo.Context) error {
	residentID, err := uuid.Parse(c.Param("residentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid resident id")
	}
	items, err := h.engine.Archived(c.Request().Context(), residentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Record{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler[P]) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.engine.Delete(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// PDF redirects to the generated document, or 404 when none exists yet.
func (h *Handler[P]) PDF(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	url, err := h.engine.PDFURL(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	if url == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no document generated for this assessment")
	}
	return c.Redirect(http.StatusSeeOther, url)
}

func (h *Handler[P]) Review(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.engine.Review(c.Request().Context(), id, actor(c))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

// actor identifies the caller for created_by/last_modified_by fields.
func actor(c echo.Context) string {
	return auth.EmailFromContext(c.Request().Context())
}

func mapError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "assessment not found")
	case errors.Is(err, ErrResidentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "resident not found")
	case errors.Is(err, ErrTenantMismatch):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotSubmitted):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
