package services

import (
	"fmt"
	"time"

	"easyplan-sync.com/easyplan-sync/pkg/constants"
	model "easyplan-sync.com/easyplan-sync/pkg/models"
)

type Statistics struct {
	TotalTasks              int                        `json:"totalTasks"`
	CompletedTasks          int                        `json:"completedTasks"`
	PendingTasks            int                        `json:"pendingTasks"`
	CompletionRate          float64                    `json:"completionRate"`
	HighPriorityTasks       int                        `json:"highPriorityTasks"`
	MediumPriorityTasks     int                        `json:"mediumPriorityTasks"`
	LowPriorityTasks        int                        `json:"lowPriorityTasks"`
	TasksByCategory         map[constants.Category]int `json:"tasksByCategory"`
	CompletedToday          int                        `json:"completedToday"`
	CompletedThisWeek       int                        `json:"completedThisWeek"`
	CompletedThisMonth      int                        `json:"completedThisMonth"`
	AverageCompletionMillis int64                      `json:"averageCompletionMillis"`
	ProductivityScore       int                        `json:"productivityScore"`
	ProductivityLevel       string                     `json:"productivityLevel"`
	CompletionStreak        int                        `json:"completionStreak"`
	OverdueTasks            int                        `json:"overdueTasks"`
}

// StatsService computes read-only metrics over a task list. Day boundaries
// are taken in loc.
type StatsService struct {
	loc *time.Location
}

func NewStatsService(loc *time.Location) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatsService{loc: loc}
}

func (s *StatsService) startOfDay(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

func (s *StatsService) Calculate(tasks []*model.Task, now time.Time) Statistics {
	st := Statistics{
		TotalTasks:      len(tasks),
		TasksByCategory: make(map[constants.Category]int),
	}

	today := s.startOfDay(now)
	weekAgo := today.AddDate(0, 0, -7)
	monthAgo := today.AddDate(0, 0, -30)

	var totalCompletion time.Duration
	for _, t := range tasks {
		switch t.Priority {
		case constants.PriorityHigh:
			st.HighPriorityTasks++
		case constants.PriorityLow:
			st.LowPriorityTasks++
		default:
			st.MediumPriorityTasks++
		}
		st.TasksByCategory[t.Category]++

		if !t.IsCompleted || t.CompletedAt == nil {
			continue
		}
		st.CompletedTasks++
		totalCompletion += t.CompletedAt.Sub(t.CreatedAt)
		if t.CompletedAt.After(today) {
			st.CompletedToday++
		}
		if t.CompletedAt.After(weekAgo) {
			st.CompletedThisWeek++
		}
		if t.CompletedAt.After(monthAgo) {
			st.CompletedThisMonth++
		}
	}

	st.PendingTasks = st.TotalTasks - st.CompletedTasks
	if st.TotalTasks > 0 {
		st.CompletionRate = float64(st.CompletedTasks) / float64(st.TotalTasks) * 100
	}
	if st.CompletedTasks > 0 {
		st.AverageCompletionMillis = (totalCompletion / time.Duration(st.CompletedTasks)).Milliseconds()
	}

	st.ProductivityScore = productivityScore(st)
	st.ProductivityLevel = ProductivityLevel(st.ProductivityScore)
	st.CompletionStreak = s.CompletionStreak(tasks, now)
	st.OverdueTasks = len(s.Overdue(tasks, now))
	return st
}

// productivityScore weights: completion rate 40, today 20, week 20,
// high priority 10, total completed 10.
func productivityScore(st Statistics) int {
	score := int(st.CompletionRate * 0.4)
	score += min(st.CompletedToday*5, 20)
	score += min(st.CompletedThisWeek*2, 20)
	score += min(st.HighPriorityTasks*2, 10)
	score += min(st.CompletedTasks, 10)
	return min(score, 100)
}

func ProductivityLevel(score int) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "great"
	case score >= 40:
		return "good"
	case score >= 20:
		return "fair"
	default:
		return "keep going"
	}
}

func FormatCompletionRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}

// Overdue returns open tasks whose due day is before today.
func (s *StatsService) Overdue(tasks []*model.Task, now time.Time) []*model.Task {
	today := s.startOfDay(now)
	out := make([]*model.Task, 0)
	for _, t := range tasks {
		if !t.IsCompleted && t.DueDate != nil && s.startOfDay(*t.DueDate).Before(today) {
			out = append(out, t)
		}
	}
	return out
}

// DueWithin returns tasks due from today up to, not including, today+days.
func (s *StatsService) DueWithin(tasks []*model.Task, now time.Time, days int) []*model.Task {
	from := s.startOfDay(now)
	to := from.AddDate(0, 0, days)
	out := make([]*model.Task, 0)
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		due := s.startOfDay(*t.DueDate)
		if !due.Before(from) && due.Before(to) {
			out = append(out, t)
		}
	}
	return out
}

// CompletionStreak counts consecutive days, ending today, with at least one
// completion. A day without completions today does not break the streak yet.
func (s *StatsService) CompletionStreak(tasks []*model.Task, now time.Time) int {
	days := make(map[string]struct{})
	for _, t := range tasks {
		if t.IsCompleted && t.CompletedAt != nil {
			days[t.CompletedAt.In(s.loc).Format(model.DateLayout)] = struct{}{}
		}
	}
	if len(days) == 0 {
		return 0
	}

	streak := 0
	day := s.startOfDay(now)
	for i := 0; i < 365; i++ {
		if _, ok := days[day.Format(model.DateLayout)]; ok {
			streak++
		} else if i > 0 {
			break
		}
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
