package notifications

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type is what the notification is about.
type Type string

const (
	TypeWorkoutReminder  Type = "workout_reminder"
	TypeSleepReminder    Type = "sleep_reminder"
	TypeGoalAchieved     Type = "goal_achieved"
	TypeWaterReminder    Type = "water_reminder"
	TypeActivityReminder Type = "activity_reminder"
	TypeSystem           Type = "system"
	TypeCustom           Type = "custom"
)

// Valid reports whether t belongs to the known set.
func (t Type) Valid() bool {
	switch t {
	case TypeWorkoutReminder, TypeSleepReminder, TypeGoalAchieved, TypeWaterReminder,
		TypeActivityReminder, TypeSystem, TypeCustom:
		return true
	}
	return false
}

// Category is an optional grouping used for styling. The zero value means no category.
type Category string

const (
	CategoryNone        Category = ""
	CategoryAchievement Category = "achievement"
	CategoryWorkout     Category = "workout"
	CategoryMeal        Category = "meal"
	CategoryWarning     Category = "warning"
	CategoryAlert       Category = "alert"
	CategorySystem      Category = "system"
	CategoryInfo        Category = "info"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryAchievement, CategoryWorkout, CategoryMeal, CategoryWarning,
		CategoryAlert, CategorySystem, CategoryInfo:
		return true
	}
	return false
}

// UnmarshalJSON decodes unknown categories as CategoryNone.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*c = CategoryNone
		return nil
	}
	if cat := Category(s); cat.Valid() {
		*c = cat
	} else {
		*c = CategoryNone
	}
	return nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// UnmarshalJSON decodes empty, unknown or non-string priorities as
// PriorityMedium. A bad priority never rejects the whole notification.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*p = PriorityMedium
		return nil
	}
	if pr := Priority(s); pr.Valid() {
		*p = pr
	} else {
		*p = PriorityMedium
	}
	return nil
}

// Notification is a server-owned notification as it travels over the wire.
type Notification struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId,omitempty"`
	Title        string         `json:"title"`
	Message      string         `json:"message"`
	Type         Type           `json:"type"`
	Category     Category       `json:"category,omitempty"`
	Priority     Priority       `json:"priority"`
	Read         bool           `json:"read"`
	Active       bool           `json:"active"`
	ActionLink   string         `json:"actionLink,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	ScheduledFor *time.Time     `json:"scheduledFor,omitempty"`
	ExpiresAt    *time.Time     `json:"expiresAt,omitempty"`
}

// Validate checks the fields the inbox needs to render the notification.
func (n Notification) Validate() error {
	switch {
	case n.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidNotification)
	case n.Title == "":
		return fmt.Errorf("%w: missing title", ErrInvalidNotification)
	case n.Message == "":
		return fmt.Errorf("%w: missing message", ErrInvalidNotification)
	case !n.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidNotification, n.Type)
	}
	return nil
}

// IsExpired reports whether the notification expired at or before now.
func (n Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && !now.Before(*n.ExpiresAt)
}

// MarkAsRead sets Read. Read never goes back to false.
func (n *Notification) MarkAsRead(now time.Time) {
	if n.Read {
		return
	}
	n.Read = true
	n.UpdatedAt = now
}

// Clone returns a copy that shares no mutable state with n.
func (n Notification) Clone() Notification {
	c := n
	if n.Metadata != nil {
		c.Metadata = make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			c.Metadata[k] = v
		}
	}
	if n.ScheduledFor != nil {
		t := *n.ScheduledFor
		c.ScheduledFor = &t
	}
	if n.ExpiresAt != nil {
		t := *n.ExpiresAt
		c.ExpiresAt = &t
	}
	return c
}

// CreateRequest is the payload for creating a notification.
type CreateRequest struct {
	UserID       string         `json:"userId,omitempty"`
	Title        string         `json:"title"`
	Message      string         `json:"message"`
	Type         Type           `json:"type"`
	Category     Category       `json:"category,omitempty"`
	Priority     Priority       `json:"priority,omitempty"`
	ActionLink   string         `json:"actionLink,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ScheduledFor *time.Time     `json:"scheduledFor,omitempty"`
	ExpiresAt    *time.Time     `json:"expiresAt,omitempty"`
}

// Build turns the request into an unread, active notification.
func (r CreateRequest) Build(id string, now time.Time) Notification {
	priority := r.Priority
	if !priority.Valid() {
		priority = PriorityMedium
	}
	return Notification{
		ID:           id,
		UserID:       r.UserID,
		Title:        r.Title,
		Message:      r.Message,
		Type:         r.Type,
		Category:     r.Category,
		Priority:     priority,
		Active:       true,
		ActionLink:   r.ActionLink,
		Metadata:     r.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: r.ScheduledFor,
		ExpiresAt:    r.ExpiresAt,
	}.Clone()
}
