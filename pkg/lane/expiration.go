package lane

import "time"

// NoTimestamp marks a lane that has no expiration time yet.
const NoTimestamp time.Duration = -1

// Timeouts controls how long pending lanes may starve before they expire.
type Timeouts struct {
	// Sync applies to sync and continuous-input lanes.
	Sync time.Duration

	// Default applies to default and transition lanes.
	Default time.Duration
}

// DefaultTimeouts are the expiration delays used when none are configured.
var DefaultTimeouts = Timeouts{
	Sync:    250 * time.Millisecond,
	Default: 5000 * time.Millisecond,
}

// ComputeExpirationTime returns when a lane first observed pending at now
// expires, or NoTimestamp for lanes that never expire.
func ComputeExpirationTime(l Lane, now time.Duration, t Timeouts) time.Duration {
	switch {
	case l&(SyncHydrationLane|SyncLane|InputContinuousHydrationLane|InputContinuousLane) != 0:
		return now + t.Sync
	case l&(DefaultHydrationLane|DefaultLane|TransitionHydrationLane|TransitionLanes) != 0:
		return now + t.Default
	default:
		// Retry, idle and offscreen work never starves others out.
		return NoTimestamp
	}
}

// ExpirationTimes stores one expiration time per lane index.
type ExpirationTimes [TotalLanes]time.Duration

// NewExpirationTimes returns a table with every lane unset.
func NewExpirationTimes() ExpirationTimes {
	var e ExpirationTimes
	for i := range e {
		e[i] = NoTimestamp
	}
	return e
}

// MarkStarved assigns expiration times to newly pending lanes and returns
// the pending lanes whose expiration time has passed.
func (e *ExpirationTimes) MarkStarved(pending Lanes, now time.Duration, t Timeouts) Lanes {
	var expired Lanes
	Each(pending, func(l Lane) {
		idx := Index(l)
		switch at := e[idx]; {
		case at == NoTimestamp:
			e[idx] = ComputeExpirationTime(l, now, t)
		case at <= now:
			expired |= l
		}
	})
	return expired
}

// Clear resets the expiration time of every lane in lanes.
func (e *ExpirationTimes) Clear(lanes Lanes) {
	Each(lanes, func(l Lane) {
		e[Index(l)] = NoTimestamp
	})
}

// At returns the expiration time recorded for a single lane.
func (e *ExpirationTimes) At(l Lane) time.Duration {
	return e[Index(l)]
}
