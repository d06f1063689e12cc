package lane

// TransitionClaimer hands out transition lanes round-robin so that
// independent transitions can be processed separately.
type TransitionClaimer struct {
	next Lane
}

// Claim returns the next transition lane.
func (c *TransitionClaimer) Claim() Lane {
	if c.next == NoLane {
		c.next = TransitionLane1
	}
	l := c.next
	c.next <<= 1
	if c.next&TransitionLanes == NoLanes {
		c.next = TransitionLane1
	}
	return l
}
