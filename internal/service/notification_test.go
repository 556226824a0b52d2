package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/model"
	"cake-marketplace/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSink struct {
	mu        sync.Mutex
	name      string
	err       error
	hang      bool
	delivered []*model.Notification
}

func (s *stubSink) Name() string {
	return s.name
}

func (s *stubSink) Deliver(ctx context.Context, n *model.Notification) error {
	if s.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, n)
	return s.err
}

func TestNotificationService_EmitStoresAndFansOut(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ok := &stubSink{name: "ok"}
	broken := &stubSink{name: "broken", err: errors.New("down")}
	svc := NewNotificationService(repository.NewNotificationRepository(db), zap.NewNop(), ok, broken)

	svc.Emit(ctx, "user-1", model.NotifyOrder, "hello", map[string]any{"orderId": "o-1"})

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].Message)
	assert.Equal(t, "o-1", list[0].Data["orderId"])
	assert.False(t, list[0].Read)

	assert.Len(t, ok.delivered, 1)
	assert.Len(t, broken.delivered, 1)
	assert.Equal(t, list[0].ID, ok.delivered[0].ID)
}

func TestNotificationService_EmitBoundsSlowSink(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ok := &stubSink{name: "ok"}
	hung := &stubSink{name: "hung", hang: true}
	svc := NewNotificationService(repository.NewNotificationRepository(db), zap.NewNop(), ok, hung)
	svc.(*notificationServiceImpl).sinkTimeout = 20 * time.Millisecond

	done := make(chan struct{})
	go func() {
		svc.Emit(ctx, "user-1", model.NotifyOrder, "hello", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a sink that never answered")
	}

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Len(t, ok.delivered, 1)
}

func TestNotificationService_MarkRead(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewNotificationService(repository.NewNotificationRepository(db), zap.NewNop())

	svc.Emit(ctx, "user-1", model.NotifyOrder, "one", nil)
	svc.Emit(ctx, "user-1", model.NotifyPayment, "two", nil)
	svc.Emit(ctx, "user-2", model.NotifyOrder, "other", nil)

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	err = svc.MarkRead(ctx, "user-2", list[0].ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.MarkRead(ctx, "user-1", list[0].ID))

	n, err := svc.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = svc.List(ctx, "user-1")
	require.NoError(t, err)
	for _, note := range list {
		assert.True(t, note.Read)
	}
}
