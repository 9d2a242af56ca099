package borrow

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/apperr"
	"libraryapi/internal/authz"
	"libraryapi/internal/book"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func adminCtx() context.Context {
	return authz.WithPrincipal(context.Background(), authz.Principal{UserID: "admin", Role: authz.RoleAdmin})
}

func memberCtx() context.Context {
	return authz.WithPrincipal(context.Background(), authz.Principal{UserID: "member", Role: authz.RoleMember})
}

func newTestService(repo Repository) *Service {
	s := NewService(repo)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestService_Borrow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := newTestService(mockRepo)

	t.Run("member borrows as self", func(t *testing.T) {
		want := Detail{Record: Record{ID: "br1", UserID: "member", BookID: "b1", BorrowDate: fixedNow}}
		mockRepo.EXPECT().Borrow(gomock.Any(), "member", "b1", fixedNow).Return(want, nil)

		got, err := service.Borrow(memberCtx(), " b1 ")

		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("unavailable passes through", func(t *testing.T) {
		mockRepo.EXPECT().Borrow(gomock.Any(), "member", "b1", fixedNow).Return(Detail{}, ErrUnavailable)

		_, err := service.Borrow(memberCtx(), "b1")

		assert.ErrorIs(t, err, apperr.ErrUnavailable)
	})

	t.Run("missing book", func(t *testing.T) {
		mockRepo.EXPECT().Borrow(gomock.Any(), "member", "nope", fixedNow).Return(Detail{}, book.ErrNotFound)

		_, err := service.Borrow(memberCtx(), "nope")

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("empty book id", func(t *testing.T) {
		_, err := service.Borrow(memberCtx(), "  ")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("admin forbidden", func(t *testing.T) {
		_, err := service.Borrow(adminCtx(), "b1")
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("anonymous unauthorized", func(t *testing.T) {
		_, err := service.Borrow(context.Background(), "b1")
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestService_Return(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := newTestService(mockRepo)

	t.Run("member returns own record", func(t *testing.T) {
		returned := fixedNow
		mockRepo.EXPECT().Return(gomock.Any(), "member", "br1", fixedNow).
			Return(Record{ID: "br1", IsReturned: true, ReturnDate: &returned}, nil)

		rec, err := service.Return(memberCtx(), "br1")

		require.NoError(t, err)
		assert.True(t, rec.IsReturned)
		assert.Equal(t, fixedNow, *rec.ReturnDate)
	})

	t.Run("already returned", func(t *testing.T) {
		mockRepo.EXPECT().Return(gomock.Any(), "member", "br1", fixedNow).Return(Record{}, ErrAlreadyReturned)

		_, err := service.Return(memberCtx(), "br1")

		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})

	t.Run("admin forbidden", func(t *testing.T) {
		_, err := service.Return(adminCtx(), "br1")
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})
}

func TestService_History(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := newTestService(mockRepo)

	mockRepo.EXPECT().History(gomock.Any(), "member").Return([]Detail{{Record: Record{ID: "br1"}}}, nil)

	history, err := service.History(memberCtx())
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = service.History(adminCtx())
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestService_Reports(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := newTestService(mockRepo)

	t.Run("admin", func(t *testing.T) {
		mockRepo.EXPECT().MostBorrowed(gomock.Any(), ReportLimit).Return([]BookCount{{Count: 3}}, nil)
		mockRepo.EXPECT().ActiveMembers(gomock.Any(), ReportLimit).Return([]MemberCount{{Count: 2}}, nil)
		mockRepo.EXPECT().Availability(gomock.Any()).Return(NewAvailability(10, 7), nil)

		most, err := service.MostBorrowed(adminCtx())
		require.NoError(t, err)
		assert.Equal(t, 3, most[0].Count)

		active, err := service.ActiveMembers(adminCtx())
		require.NoError(t, err)
		assert.Equal(t, 2, active[0].Count)

		avail, err := service.Availability(adminCtx())
		require.NoError(t, err)
		assert.Equal(t, Availability{TotalBooks: 10, AvailableBooks: 7, BorrowedBooks: 3}, avail)
	})

	t.Run("member forbidden", func(t *testing.T) {
		_, err := service.MostBorrowed(memberCtx())
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		_, err = service.ActiveMembers(memberCtx())
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		_, err = service.Availability(memberCtx())
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("anonymous unauthorized", func(t *testing.T) {
		_, err := service.Availability(context.Background())
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}
