package monitor

import "time"

type Status struct {
	Driver    string    `json:"driver"`
	Store     bool      `json:"store"`
	Error     string    `json:"error,omitempty"`
	LastCheck time.Time `json:"last_check"`
}
