package notifications_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notifications"
)

func validNotification(id string) notifications.Notification {
	return notifications.Notification{
		ID:       id,
		UserID:   "user-1",
		Title:    "Hydrate",
		Message:  "Time for a glass of water",
		Type:     notifications.TypeWaterReminder,
		Priority: notifications.PriorityMedium,
		Active:   true,
	}
}

func TestNotification_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*notifications.Notification)
		wantErr bool
	}{
		{name: "valid", mutate: func(*notifications.Notification) {}},
		{name: "missing id", mutate: func(n *notifications.Notification) { n.ID = "" }, wantErr: true},
		{name: "missing title", mutate: func(n *notifications.Notification) { n.Title = "" }, wantErr: true},
		{name: "missing message", mutate: func(n *notifications.Notification) { n.Message = "" }, wantErr: true},
		{name: "unknown type", mutate: func(n *notifications.Notification) { n.Type = "party" }, wantErr: true},
		{name: "no category is fine", mutate: func(n *notifications.Notification) { n.Category = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validNotification("n-1")
			tt.mutate(&n)
			err := n.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, notifications.ErrInvalidNotification)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotification_MarkAsRead(t *testing.T) {
	n := validNotification("n-1")
	first := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	n.MarkAsRead(first)
	assert.True(t, n.Read)
	assert.Equal(t, first, n.UpdatedAt)

	n.MarkAsRead(first.Add(time.Hour))
	assert.Equal(t, first, n.UpdatedAt, "already read notification is untouched")
}

func TestNotification_IsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	n := validNotification("n-1")
	assert.False(t, n.IsExpired(now))

	past := now.Add(-time.Minute)
	n.ExpiresAt = &past
	assert.True(t, n.IsExpired(now))

	future := now.Add(time.Minute)
	n.ExpiresAt = &future
	assert.False(t, n.IsExpired(now))
}

func TestNotification_Clone(t *testing.T) {
	n := validNotification("n-1")
	n.Metadata = map[string]any{"steps": 10000}

	c := n.Clone()
	c.Metadata["steps"] = 1
	assert.Equal(t, 10000, n.Metadata["steps"])
}

func TestNotification_JSON(t *testing.T) {
	raw := `{
		"id": "n-1",
		"userId": "user-1",
		"title": "Goal",
		"message": "Done",
		"type": "goal_achieved",
		"category": "confetti",
		"priority": "",
		"read": false,
		"active": true,
		"actionLink": "/goals",
		"createdAt": "2026-01-01T10:00:00Z",
		"updatedAt": "2026-01-01T10:00:00Z"
	}`

	var n notifications.Notification
	require.NoError(t, json.Unmarshal([]byte(raw), &n))
	assert.Equal(t, notifications.CategoryNone, n.Category, "unknown category decodes to none")
	assert.Equal(t, notifications.PriorityMedium, n.Priority, "empty priority decodes to medium")
	assert.Equal(t, "/goals", n.ActionLink)

	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"userId":"user-1"`)
	assert.Contains(t, string(out), `"actionLink":"/goals"`)
	assert.NotContains(t, string(out), `"category"`)
}

func TestPriority_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want notifications.Priority
	}{
		{`"high"`, notifications.PriorityHigh},
		{`"low"`, notifications.PriorityLow},
		{`""`, notifications.PriorityMedium},
		{`"urgent"`, notifications.PriorityMedium},
		{`3`, notifications.PriorityMedium},
		{`{"level":"high"}`, notifications.PriorityMedium},
		{`null`, notifications.PriorityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var n notifications.Notification
			raw := `{"id":"a","title":"A","message":"a","type":"system","priority":` + tt.raw + `}`
			require.NoError(t, json.Unmarshal([]byte(raw), &n))
			assert.Equal(t, tt.want, n.Priority)
		})
	}
}

func TestDecodeList(t *testing.T) {
	t.Run("drops invalid items", func(t *testing.T) {
		raw := `[
			{"id":"a","title":"A","message":"a","type":"system"},
			{"id":"","title":"B","message":"b","type":"system"},
			{"id":"c","title":"C","message":"c","type":"unknown"},
			"not an object",
			{"id":"d","title":"D","message":"d","type":"custom","category":"meal"}
		]`

		list, dropped, err := notifications.DecodeList([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, 3, dropped)
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].ID)
		assert.Equal(t, notifications.PriorityMedium, list[0].Priority)
		assert.Equal(t, notifications.CategoryMeal, list[1].Category)
	})

	t.Run("null and empty", func(t *testing.T) {
		for _, raw := range []string{"", "null", "[]"} {
			list, dropped, err := notifications.DecodeList([]byte(raw))
			require.NoError(t, err)
			assert.Empty(t, list)
			assert.NotNil(t, list)
			assert.Zero(t, dropped)
		}
	})

	t.Run("not an array", func(t *testing.T) {
		_, _, err := notifications.DecodeList([]byte(`{"id":"a"}`))
		assert.ErrorIs(t, err, notifications.ErrDecodeList)
	})
}

func TestStyleFor(t *testing.T) {
	tests := []struct {
		name     string
		category notifications.Category
		typ      notifications.Type
		want     notifications.Style
	}{
		{"category wins", notifications.CategoryAlert, notifications.TypeGoalAchieved, notifications.Style{Kind: notifications.KindError, Icon: "alert-circle"}},
		{"type fallback", notifications.CategoryNone, notifications.TypeSleepReminder, notifications.Style{Kind: notifications.KindInfo, Icon: "moon"}},
		{"achievement", notifications.CategoryAchievement, notifications.TypeCustom, notifications.Style{Kind: notifications.KindSuccess, Icon: "trophy"}},
		{"warning", notifications.CategoryWarning, notifications.TypeSystem, notifications.Style{Kind: notifications.KindWarning, Icon: "alert-triangle"}},
		{"default", notifications.CategoryNone, notifications.TypeCustom, notifications.DefaultStyle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validNotification("n")
			n.Category = tt.category
			n.Type = tt.typ
			assert.Equal(t, tt.want, notifications.StyleFor(n))
		})
	}
}

func TestCreateRequest_Build(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	req := notifications.CreateRequest{
		UserID:   "user-1",
		Title:    "Move",
		Message:  "Stand up",
		Type:     notifications.TypeActivityReminder,
		Metadata: map[string]any{"k": "v"},
	}

	n := req.Build("n-1", now)
	require.NoError(t, n.Validate())
	assert.Equal(t, "n-1", n.ID)
	assert.Equal(t, notifications.PriorityMedium, n.Priority)
	assert.True(t, n.Active)
	assert.False(t, n.Read)
	assert.Equal(t, now, n.CreatedAt)
	assert.Equal(t, now, n.UpdatedAt)

	n.Metadata["k"] = "changed"
	assert.Equal(t, "v", req.Metadata["k"])
}

func TestPageOptions(t *testing.T) {
	assert.Equal(t, notifications.ListOptions{Limit: 20, Offset: 0}, notifications.PageOptions(1, 20))
	assert.Equal(t, notifications.ListOptions{Limit: 20, Offset: 40}, notifications.PageOptions(3, 20))
	assert.Equal(t, notifications.ListOptions{Limit: 10, Offset: 0}, notifications.PageOptions(0, 10))
}
