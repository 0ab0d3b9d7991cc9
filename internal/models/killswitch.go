package models

import "time"

// KillSwitchState is the persisted global emergency-stop flag. Flipping it
// affects every subsequent gate evaluation immediately.
type KillSwitchState struct {
	Active      bool       `json:"active"`
	Reason      string     `json:"reason"`
	ActivatedAt *time.Time `json:"activated_at"`
}
