package lane

// EventPriority classifies the context an update originates from. Each
// priority is represented by the lane updates in that context receive.
type EventPriority = Lane

const (
	DiscreteEventPriority   EventPriority = SyncLane
	ContinuousEventPriority EventPriority = InputContinuousLane
	DefaultEventPriority    EventPriority = DefaultLane
	IdleEventPriority       EventPriority = IdleLane
)

// IsHigherEventPriority reports whether a is strictly more urgent than b.
func IsHigherEventPriority(a, b EventPriority) bool {
	return a != NoLane && a < b
}

// LanesToEventPriority maps the highest priority lane of lanes to the event
// priority class it belongs to.
func LanesToEventPriority(lanes Lanes) EventPriority {
	l := HighestPriorityLane(lanes)
	if !IsHigherEventPriority(DiscreteEventPriority, l) {
		return DiscreteEventPriority
	}
	if !IsHigherEventPriority(ContinuousEventPriority, l) {
		return ContinuousEventPriority
	}
	if IncludesNonIdleWork(l) {
		return DefaultEventPriority
	}
	return IdleEventPriority
}
