package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/notifykit/pkg/inbox"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) List(ctx context.Context, page, limit int) ([]notifications.Notification, error) {
	args := m.Called(ctx, page, limit)
	list, _ := args.Get(0).([]notifications.Notification)
	return list, args.Error(1)
}

func (m *MockAPI) UnreadCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockAPI) MarkRead(context.Context, string) error { return nil }
func (m *MockAPI) MarkAllRead(context.Context) error      { return nil }
func (m *MockAPI) Delete(context.Context, string) error   { return nil }
func (m *MockAPI) DeleteAll(context.Context) error        { return nil }
func (m *MockAPI) Create(context.Context, notifications.CreateRequest) (notifications.Notification, error) {
	return notifications.Notification{}, nil
}

func TestPrime(t *testing.T) {
	ctx := context.Background()

	t.Run("loads list and count", func(t *testing.T) {
		api := new(MockAPI)
		api.On("List", mock.Anything, 1, 10).Return([]notifications.Notification{{
			ID: "a", Title: "t", Message: "m", Type: notifications.TypeSystem,
		}}, nil).Once()
		api.On("UnreadCount", mock.Anything).Return(1, nil).Once()
		store := inbox.New(api, inbox.WithLogger(logger.Discard()))
		defer store.Close()

		prime(ctx, store, 10, logger.Discard())

		assert.Len(t, store.Notifications(), 1)
		assert.Equal(t, 1, store.UnreadCount())
		api.AssertExpectations(t)
	})

	t.Run("failures are logged and not fatal", func(t *testing.T) {
		api := new(MockAPI)
		api.On("List", mock.Anything, 1, 10).Return(nil, errors.New("backend down")).Once()
		api.On("UnreadCount", mock.Anything).Return(3, nil).Once()
		store := inbox.New(api, inbox.WithLogger(logger.Discard()))
		defer store.Close()

		var buf bytes.Buffer
		prime(ctx, store, 10, logger.New(logger.WithOutput(&buf), logger.WithTextFormatter()))

		assert.Empty(t, store.Notifications())
		assert.Equal(t, 3, store.UnreadCount())
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "initial notification fetch failed")
		assert.NotContains(t, buf.String(), "initial unread count fetch failed")
	})
}
