package validators

import (
	"strings"
	"time"

	"easyplan-sync.com/easyplan-sync/internal/errors"
	"easyplan-sync.com/easyplan-sync/pkg/constants"
	model "easyplan-sync.com/easyplan-sync/pkg/models"
)

type TaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     string  `json:"dueDate"`
	DueTime     *string `json:"dueTime"`
	IsCompleted bool    `json:"isCompleted"`
	Priority    string  `json:"priority"`
	Category    string  `json:"category"`
	Color       string  `json:"color"`
}

func ValidateTaskRequest(r *TaskRequest) error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.ErrEmptyTitle
	}
	if r.DueTime != nil {
		return ValidateDueTime(*r.DueTime)
	}
	return nil
}

// ValidateDueTime accepts "" (no time) or a 24h HH:MM value.
func ValidateDueTime(at string) error {
	if at == "" {
		return nil
	}
	if _, err := time.Parse("15:04", at); err != nil {
		return errors.ErrInvalidDate
	}
	return nil
}

// ToTask builds the task for a validated request. id is kept when set,
// otherwise a new one is generated.
func (r *TaskRequest) ToTask(id string, loc *time.Location) (*model.Task, error) {
	task := model.NewTask(strings.TrimSpace(r.Title))
	if id != "" {
		task.ID = id
		task.CreatedAt = time.Time{}
	}
	task.Description = r.Description
	task.Priority = constants.ParsePriority(r.Priority)
	task.Category = constants.ParseCategory(r.Category)
	if r.Color != "" {
		task.Color = r.Color
	}
	if r.DueDate != "" {
		due, err := ParseDate(r.DueDate, loc)
		if err != nil {
			return nil, err
		}
		task.DueDate = &due
	}
	if r.DueTime != nil && *r.DueTime != "" {
		at := *r.DueTime
		task.DueTime = &at
	}
	if r.IsCompleted {
		task.IsCompleted = true
	}
	return task, nil
}

func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := model.ParseDate(s, loc)
	if err != nil {
		return time.Time{}, errors.ErrInvalidDate
	}
	return d, nil
}
