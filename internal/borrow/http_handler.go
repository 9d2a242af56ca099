package borrow

import (
	"net/http"

	"libraryapi/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type borrowReq struct {
	BookID string `json:"bookId" validate:"required"`
}

// Borrow handles POST /api/borrow
func (h *HTTPHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	var req borrowReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	d, err := h.service.Borrow(r.Context(), req.BookID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, d)
}

// Return handles PUT /api/borrow/return/{id}
func (h *HTTPHandler) Return(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Return(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, rec, map[string]any{"message": "Book returned"})
}

// History handles GET /api/borrow/history
func (h *HTTPHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, history, map[string]any{"total": len(history)})
}

// MostBorrowed handles GET /api/borrow/report/most-borrowed
func (h *HTTPHandler) MostBorrowed(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.MostBorrowed(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, report, nil)
}

// ActiveMembers handles GET /api/borrow/report/active-members
func (h *HTTPHandler) ActiveMembers(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ActiveMembers(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, report, nil)
}

// Availability handles GET /api/borrow/report/book-availability
func (h *HTTPHandler) Availability(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Availability(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, report, nil)
}
