package constants

import "strings"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorityMeta = map[Priority]struct{ name, color string }{
	PriorityHigh:   {"High Priority", "#F44336"},
	PriorityMedium: {"Medium Priority", "#FF9800"},
	PriorityLow:    {"Low Priority", "#4CAF50"},
}

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority maps unknown values to PriorityMedium.
func ParsePriority(s string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := priorityMeta[p]; ok {
		return p
	}
	return PriorityMedium
}

func (p Priority) DisplayName() string { return priorityMeta[ParsePriority(string(p))].name }
func (p Priority) ColorHex() string    { return priorityMeta[ParsePriority(string(p))].color }

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(ParsePriority(string(p))), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	*p = ParsePriority(string(b))
	return nil
}
