package resident

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *Service) {
	svc := NewService(NewInMemoryRepo())
	return NewHandler(svc), svc
}

func TestHandlerCreateResident(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()

	body := `{"organization_id":"` + uuid.NewString() + `","first_name":"Ada","last_name":"Byron"}`
	req := httptest.NewRequest(http.MethodPost, "/residents", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.CreateResident(e.NewContext(req, rec)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var got Resident
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID == uuid.Nil || got.Status != StatusActive {
		t.Errorf("got id=%s status=%q", got.ID, got.Status)
	}
}

func TestHandlerCreateResidentInvalid(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/residents", strings.NewReader(`{"first_name":"Ada"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.CreateResident(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestHandlerGetResidentNotFound(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("residentId")
	c.SetParamValues(uuid.NewString())

	err := h.GetResident(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestHandlerDeleteResident(t *testing.T) {
	h, svc := newTestHandler()
	e := echo.New()

	r := activeResident()
	if err := svc.CreateResident(httptest.NewRequest(http.MethodGet, "/", nil).Context(), r); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("residentId")
	c.SetParamValues(r.ID.String())

	if err := h.DeleteResident(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}
