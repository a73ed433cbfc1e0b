package monitor

import "time"

// Component is the last observed state of one probe.
type Component struct {
	Online   bool   `json:"online"`
	Required bool   `json:"required"`
	Detail   string `json:"detail,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Status struct {
	Components map[string]Component `json:"components"`
	LastCheck  time.Time            `json:"last_check"`
}
