package scheduler

import (
	"math"
	"time"
)

// Priority is the urgency class of a task.
type Priority int

const (
	NoPriority Priority = iota
	ImmediatePriority
	UserBlockingPriority
	NormalPriority
	LowPriority
	IdlePriority
)

func (p Priority) String() string {
	switch p {
	case ImmediatePriority:
		return "Immediate"
	case UserBlockingPriority:
		return "UserBlocking"
	case NormalPriority:
		return "Normal"
	case LowPriority:
		return "Low"
	case IdlePriority:
		return "Idle"
	default:
		return "NoPriority"
	}
}

// Timeouts maps each priority to the delay after which its tasks expire.
// An expired task runs even if the current slice is used up.
type Timeouts struct {
	Immediate    time.Duration
	UserBlocking time.Duration
	Normal       time.Duration
	Low          time.Duration
	Idle         time.Duration
}

// DefaultTimeouts mirror the classic browser scheduler values.
var DefaultTimeouts = Timeouts{
	Immediate:    -1 * time.Millisecond,
	UserBlocking: 250 * time.Millisecond,
	Normal:       5000 * time.Millisecond,
	Low:          10000 * time.Millisecond,
	Idle:         math.MaxInt32 * time.Millisecond,
}

func (t Timeouts) forPriority(p Priority) time.Duration {
	switch p {
	case ImmediatePriority:
		return t.Immediate
	case UserBlockingPriority:
		return t.UserBlocking
	case LowPriority:
		return t.Low
	case IdlePriority:
		return t.Idle
	default:
		return t.Normal
	}
}
