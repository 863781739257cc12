package gamify

// Diversity bonus parameters.
const (
	diversityStep = 0.5
	diversityCap  = 1.5
	basePoints    = 1.0
)

// WeeklyDiversityBonus returns the extra points next earns for training distinct types in
// its week. The week runs from Sunday 00:00 UTC to the following Sunday 00:00 UTC and
// includes next itself. Sessions with unparseable dates are ignored.
func WeeklyDiversityBonus(existing []Session, next Session) float64 {
	day, err := ParseDay(next.Date)
	if err != nil {
		return 0
	}
	start, end := WeekBounds(day)

	types := map[string]struct{}{next.Type: {}}
	for _, s := range existing {
		d, err := ParseDay(s.Date)
		if err != nil {
			continue
		}
		if !d.Before(start) && d.Before(end) {
			types[s.Type] = struct{}{}
		}
	}

	unique := len(types)
	if unique <= 1 {
		return 0
	}
	bonus := float64(unique-1) * diversityStep
	if bonus > diversityCap {
		return diversityCap
	}
	return bonus
}

// SessionPoints scores one session from its class level and weekly diversity bonus.
func SessionPoints(classLevel string, diversityBonus float64) float64 {
	return basePoints*ClassMultiplier(classLevel) + diversityBonus
}

// ScoreSession computes the points for next given the user's other sessions.
func ScoreSession(existing []Session, next Session) float64 {
	return SessionPoints(next.Level, WeeklyDiversityBonus(existing, next))
}

// TotalPoints sums stored points over sessions.
func TotalPoints(sessions []Session) float64 {
	var total float64
	for _, s := range sessions {
		total += s.Points
	}
	return total
}
