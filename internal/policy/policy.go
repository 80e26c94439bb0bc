package policy

import "fmt"

// Decision is the sanction the policy selects for a violation count.
type Decision int

const (
	None Decision = iota
	Mute
	Ban
)

func (d Decision) String() string {
	switch d {
	case None:
		return "none"
	case Mute:
		return "mute"
	case Ban:
		return "ban"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Policy maps a user's violation count to a decision. A user is muted when
// the count reaches the threshold exactly and banned on every violation
// after that.
type Policy struct {
	muteThreshold int
}

// New returns a policy; thresholds below 1 are rejected.
func New(muteThreshold int) (*Policy, error) {
	if muteThreshold < 1 {
		return nil, fmt.Errorf("mute threshold must be at least 1, got %d", muteThreshold)
	}
	return &Policy{muteThreshold: muteThreshold}, nil
}

func (p *Policy) MuteThreshold() int {
	return p.muteThreshold
}

// Evaluate is called with the count after a new violation was recorded.
func (p *Policy) Evaluate(count int) Decision {
	switch {
	case count == p.muteThreshold:
		return Mute
	case count > p.muteThreshold:
		return Ban
	default:
		return None
	}
}
