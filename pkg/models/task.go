package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"easyplan-sync.com/easyplan-sync/pkg/constants"
)

const (
	DefaultColor = "#2196F3"
	DateLayout   = "2006-01-02"
)

type Task struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
	DueTime     *string            `json:"dueTime,omitempty"`
	IsCompleted bool               `json:"isCompleted"`
	Priority    constants.Priority `json:"priority"`
	Category    constants.Category `json:"category"`
	Color       string             `json:"color"`
	CreatedAt   time.Time          `json:"createdAt"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
}

// NewTask returns a task with a fresh id and the default priority, category and color.
// Title is not validated here.
func NewTask(title string) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Title:     title,
		Priority:  constants.PriorityMedium,
		Category:  constants.CategoryPersonal,
		Color:     DefaultColor,
		CreatedAt: Now(),
	}
}

// Now is the UTC wall clock at millisecond precision, which is what the cache stores.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// MarkCompleted is a no-op for a task that is already completed.
func (t *Task) MarkCompleted() {
	if t.IsCompleted && t.CompletedAt != nil {
		return
	}
	now := Now()
	t.IsCompleted = true
	t.CompletedAt = &now
}

func (t *Task) MarkIncomplete() {
	t.IsCompleted = false
	t.CompletedAt = nil
}

func (t *Task) Toggle() {
	if t.IsCompleted {
		t.MarkIncomplete()
		return
	}
	t.MarkCompleted()
}

// IsDueOn reports whether the due date falls on the same calendar day as day in loc.
func (t *Task) IsDueOn(day time.Time, loc *time.Location) bool {
	if t.DueDate == nil {
		return false
	}
	if loc == nil {
		loc = time.Local
	}
	return t.DueDate.In(loc).Format(DateLayout) == day.In(loc).Format(DateLayout)
}

// Normalize fills zero valued fields with their defaults, as documents
// written by older clients may omit them.
func (t *Task) Normalize() {
	t.Priority = constants.ParsePriority(string(t.Priority))
	t.Category = constants.ParseCategory(string(t.Category))
	if t.Color == "" {
		t.Color = DefaultColor
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = Now()
	}
	if !t.IsCompleted {
		t.CompletedAt = nil
	}
}

// HasTitle reports whether the title has any non-space content.
func (t *Task) HasTitle() bool {
	return strings.TrimSpace(t.Title) != ""
}

// Clone returns a deep copy; the coordinator never hands out its own pointers.
func (t *Task) Clone() *Task {
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.DueTime != nil {
		s := *t.DueTime
		c.DueTime = &s
	}
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		c.CompletedAt = &ts
	}
	return &c
}

// ParseDate parses a yyyy-MM-dd calendar date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}
