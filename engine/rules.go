package engine

// Rules holds configurable match rule settings.
type Rules struct {
	TargetScore int  // score that ends the match
	FlorEnabled bool // Argentine variant with flor
	InitialMano Seat // who is mano in round 1; alternates afterwards
}

// DefaultRules returns the standard match rules: play to 15 with flor.
func DefaultRules() Rules {
	return Rules{
		TargetScore: 15,
		FlorEnabled: true,
		InitialMano: SeatPlayer,
	}
}

// Target returns the effective target score, treating 0 as the default 15.
func (r *Rules) Target() int {
	if r.TargetScore <= 0 {
		return 15
	}
	return r.TargetScore
}
