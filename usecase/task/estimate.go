package task

import (
	"math"
	"strings"

	"github.com/fastygo/tasktracker/domain"
)

const (
	baseHours         = 2.0
	minimumHours      = 0.25
	wordsPerIncrement = 50
	hoursPerIncrement = 0.5
)

// Estimate computes the effort heuristic in hours. Priority and status are
// compared against the upper-case constants only, so mixed-case values fall
// through to the defaults.
func Estimate(task *domain.Task) float64 {
	hours := baseHours

	switch task.Priority {
	case domain.PriorityHigh:
		hours *= 1.5
	case domain.PriorityLow:
		hours *= 0.75
	}

	if strings.TrimSpace(task.Description) != "" {
		words := len(strings.Fields(task.Description))
		hours += float64(words/wordsPerIncrement) * hoursPerIncrement
	}

	switch {
	case task.IsCompleted():
		hours = 0
	case task.Status == domain.StatusInProgress:
		hours *= 0.7
	}

	return math.Max(minimumHours, hours)
}
