// Package lane implements the priority-lane bitmask model.
//
// A Lane is one bit of a 31-bit mask; a set of lanes (Lanes) groups updates
// that share an urgency class. Lower bits are more urgent: the highest
// priority lane of a set is its lowest set bit. Union of lanes is
// commutative, associative and idempotent, so pending work can be folded
// together in any order.
package lane

import (
	"math/bits"
	"strconv"
	"strings"
)

// Lanes is a set of priority lanes.
type Lanes uint32

// Lane is a Lanes value with at most one bit set.
type Lane = Lanes

// TotalLanes is the number of usable lanes.
const TotalLanes = 31

const (
	NoLanes Lanes = 0
	NoLane  Lane  = 0

	SyncHydrationLane Lane = 0b0000000000000000000000000000001
	SyncLane          Lane = 0b0000000000000000000000000000010

	InputContinuousHydrationLane Lane = 0b0000000000000000000000000000100
	InputContinuousLane          Lane = 0b0000000000000000000000000001000

	DefaultHydrationLane Lane = 0b0000000000000000000000000010000
	DefaultLane          Lane = 0b0000000000000000000000000100000

	TransitionHydrationLane Lane  = 0b0000000000000000000000001000000
	TransitionLanes         Lanes = 0b0000000011111111111111110000000
	TransitionLane1         Lane  = 0b0000000000000000000000010000000
	TransitionLane2         Lane  = 0b0000000000000000000000100000000
	TransitionLane3         Lane  = 0b0000000000000000000001000000000
	TransitionLane4         Lane  = 0b0000000000000000000010000000000
	TransitionLane5         Lane  = 0b0000000000000000000100000000000
	TransitionLane6         Lane  = 0b0000000000000000001000000000000
	TransitionLane7         Lane  = 0b0000000000000000010000000000000
	TransitionLane8         Lane  = 0b0000000000000000100000000000000
	TransitionLane9         Lane  = 0b0000000000000001000000000000000
	TransitionLane10        Lane  = 0b0000000000000010000000000000000
	TransitionLane11        Lane  = 0b0000000000000100000000000000000
	TransitionLane12        Lane  = 0b0000000000001000000000000000000
	TransitionLane13        Lane  = 0b0000000000010000000000000000000
	TransitionLane14        Lane  = 0b0000000000100000000000000000000
	TransitionLane15        Lane  = 0b0000000001000000000000000000000
	TransitionLane16        Lane  = 0b0000000010000000000000000000000

	RetryLanes Lanes = 0b0000111100000000000000000000000
	RetryLane1 Lane  = 0b0000000100000000000000000000000
	RetryLane2 Lane  = 0b0000001000000000000000000000000
	RetryLane3 Lane  = 0b0000010000000000000000000000000
	RetryLane4 Lane  = 0b0000100000000000000000000000000

	SelectiveHydrationLane Lane = 0b0001000000000000000000000000000

	NonIdleLanes Lanes = 0b0001111111111111111111111111111

	IdleHydrationLane Lane = 0b0010000000000000000000000000000
	IdleLane          Lane = 0b0100000000000000000000000000000

	OffscreenLane Lane = 0b1000000000000000000000000000000
)

// SomeRetryLane is the lane used for retried work.
const SomeRetryLane = RetryLane1

// MergeLanes returns the union of a and b.
func MergeLanes(a, b Lanes) Lanes {
	return a | b
}

// RemoveLanes returns set without the lanes in subset.
func RemoveLanes(set, subset Lanes) Lanes {
	return set &^ subset
}

// IntersectLanes returns the lanes present in both a and b.
func IntersectLanes(a, b Lanes) Lanes {
	return a & b
}

// IncludesSomeLane reports whether a and b share at least one lane.
func IncludesSomeLane(a, b Lanes) bool {
	return a&b != NoLanes
}

// IsSubsetOfLanes reports whether every lane of subset is in set.
func IsSubsetOfLanes(set, subset Lanes) bool {
	return set&subset == subset
}

// HighestPriorityLane returns the lowest set bit of lanes.
func HighestPriorityLane(lanes Lanes) Lane {
	return lanes & -lanes
}

// IncludesNonIdleWork reports whether lanes contain any non-idle lane.
func IncludesNonIdleWork(lanes Lanes) bool {
	return lanes&NonIdleLanes != NoLanes
}

// IncludesBlockingLane reports whether lanes contain a lane that must not be
// time-sliced (continuous input or default).
func IncludesBlockingLane(lanes Lanes) bool {
	const syncDefaultLanes = InputContinuousLane | DefaultLane
	return lanes&syncDefaultLanes != NoLanes
}

// IncludesOnlyTransitions reports whether every lane is a transition lane.
func IncludesOnlyTransitions(lanes Lanes) bool {
	return lanes != NoLanes && lanes&TransitionLanes == lanes
}

// IsTransitionLane reports whether l is one of the transition lanes.
func IsTransitionLane(l Lane) bool {
	return l&TransitionLanes != NoLanes
}

// Index returns the bit index of a single lane.
func Index(l Lane) int {
	return bits.TrailingZeros32(uint32(l))
}

// Each calls fn for every lane in lanes, highest priority first.
func Each(lanes Lanes, fn func(l Lane)) {
	for lanes != NoLanes {
		l := HighestPriorityLane(lanes)
		fn(l)
		lanes &^= l
	}
}

// Count returns the number of lanes in the set.
func Count(lanes Lanes) int {
	return bits.OnesCount32(uint32(lanes))
}

var laneNames = map[Lane]string{
	SyncHydrationLane:            "SyncHydration",
	SyncLane:                     "Sync",
	InputContinuousHydrationLane: "InputContinuousHydration",
	InputContinuousLane:          "InputContinuous",
	DefaultHydrationLane:         "DefaultHydration",
	DefaultLane:                  "Default",
	TransitionHydrationLane:      "TransitionHydration",
	SelectiveHydrationLane:       "SelectiveHydration",
	IdleHydrationLane:            "IdleHydration",
	IdleLane:                     "Idle",
	OffscreenLane:                "Offscreen",
}

// LaneName returns a readable name for a single lane.
func LaneName(l Lane) string {
	if name, ok := laneNames[l]; ok {
		return name
	}
	switch {
	case l&TransitionLanes != 0:
		return "Transition" + strconv.Itoa(Index(l)-Index(TransitionLane1)+1)
	case l&RetryLanes != 0:
		return "Retry" + strconv.Itoa(Index(l)-Index(RetryLane1)+1)
	}
	return "Unknown"
}

// String returns the lane names joined with "|".
func (l Lanes) String() string {
	if l == NoLanes {
		return "NoLanes"
	}
	var parts []string
	Each(l, func(one Lane) {
		parts = append(parts, LaneName(one))
	})
	return strings.Join(parts, "|")
}
