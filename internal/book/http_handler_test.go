package book

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func TestHTTPHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo)
	handler := NewHTTPHandler(service)

	testBook := Book{
		ID:    "1",
		ISBN:  "9780441172719",
		Title: "Dune",
	}

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), Query{Page: 2, Limit: 5, Author: "Frank Herbert"}).Return([]Book{testBook}, 6, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/books?page=2&limit=5&author=Frank+Herbert", nil)

		handler.List(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":6`)
		assert.Contains(t, w.Body.String(), `"total_pages":2`)
	})

	t.Run("error", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, 0, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/books", nil)

		handler.List(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHTTPHandler_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), "1").Return(Book{ID: "1", Title: "Dune"}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/books/1", nil)
		r.SetPathValue("id", "1")

		handler.Get(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), "404").Return(Book{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/books/404", nil)
		r.SetPathValue("id", "404")

		handler.Get(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHTTPHandler_Add(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	body := `{"title":"Dune","author":"Frank Herbert","isbn":"9780441172719","publicationDate":"1965-08-01","genre":"Sci-Fi","copies":2}`

	t.Run("created", func(t *testing.T) {
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/books/add", strings.NewReader(body)).WithContext(adminCtx())

		handler.Add(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"totalCopies":2`)
	})

	t.Run("missing copies", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/books/add",
			strings.NewReader(`{"title":"Dune","author":"F","isbn":"9780441172719","publicationDate":"1965-08-01","genre":"Sci-Fi"}`)).
			WithContext(adminCtx())

		handler.Add(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "copies is required")
	})

	t.Run("bad date", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/books/add",
			strings.NewReader(strings.Replace(body, "1965-08-01", "someday", 1))).WithContext(adminCtx())

		handler.Add(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("member forbidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/books/add", strings.NewReader(body)).WithContext(memberCtx())

		handler.Add(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestHTTPHandler_UpdateDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	t.Run("update copies below loaned", func(t *testing.T) {
		mockRepo.EXPECT().Update(gomock.Any(), "b1", Patch{Copies: intPtr(1)}).Return(Book{}, ErrCopiesOnLoan)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/api/books/update/b1", strings.NewReader(`{"copies":1}`)).WithContext(adminCtx())
		r.SetPathValue("id", "b1")

		handler.Update(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("update unknown field", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/api/books/update/b1", strings.NewReader(`{"pages":1}`)).WithContext(adminCtx())
		r.SetPathValue("id", "b1")

		handler.Update(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		mockRepo.EXPECT().Delete(gomock.Any(), "b1").Return(nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/api/books/delete/b1", nil).WithContext(adminCtx())
		r.SetPathValue("id", "b1")

		handler.Delete(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("delete missing", func(t *testing.T) {
		mockRepo.EXPECT().Delete(gomock.Any(), "nope").Return(ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/api/books/delete/nope", nil).WithContext(adminCtx())
		r.SetPathValue("id", "nope")

		handler.Delete(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
