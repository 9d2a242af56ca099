package book

import (
	"net/http"
	"strconv"
	"strings"

	"libraryapi/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// List handles GET /api/books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	params := Query{
		Page:   page,
		Limit:  limit,
		Genre:  query.Get("genre"),
		Author: query.Get("author"),
	}.Normalize()

	books, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, books, map[string]any{
		"page":        params.Page,
		"limit":       params.Limit,
		"total":       total,
		"total_pages": (total + params.Limit - 1) / params.Limit,
	})
}

// Get handles GET /api/books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

type addBookReq struct {
	Title           string `json:"title" validate:"required,max=255"`
	Author          string `json:"author" validate:"required,max=255"`
	ISBN            string `json:"isbn" validate:"required,isbn"`
	PublicationDate string `json:"publicationDate" validate:"required"`
	Genre           string `json:"genre" validate:"required,max=100"`
	Copies          *int   `json:"copies" validate:"required,gte=0"`
}

// Add handles POST /api/books/add
func (h *HTTPHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addBookReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}
	published, err := ParseDate(req.PublicationDate)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	b, err := h.service.Add(r.Context(), Input{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		PublicationDate: published,
		Genre:           req.Genre,
		Copies:          *req.Copies,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, b)
}

type updateBookReq struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=255"`
	Author          *string `json:"author" validate:"omitempty,min=1,max=255"`
	ISBN            *string `json:"isbn" validate:"omitempty,isbn"`
	PublicationDate *string `json:"publicationDate"`
	Genre           *string `json:"genre" validate:"omitempty,max=100"`
	Copies          *int    `json:"copies" validate:"omitempty,gte=0"`
}

// Update handles PUT /api/books/update/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateBookReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	patch := Patch{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
		Genre:  req.Genre,
		Copies: req.Copies,
	}
	if req.PublicationDate != nil {
		published, err := ParseDate(*req.PublicationDate)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		patch.PublicationDate = &published
	}

	b, err := h.service.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Delete handles DELETE /api/books/delete/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string]string{"message": "Book deleted successfully"}, nil)
}
