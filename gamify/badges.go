package gamify

// Badge names, in the order they are reported.
const (
	BadgeMostBalanced = "Most Balanced"
	BadgeBestStriker  = "Best Striker"
	BadgeBestGrappler = "Best Grappler"
	BadgeBestWrestler = "Best Wrestler"
)

// Badges lists every badge in evaluation order.
var Badges = []string{BadgeMostBalanced, BadgeBestStriker, BadgeBestGrappler, BadgeBestWrestler}

var (
	strikingTypes  = []string{TypeBoxing, TypeMuayThai, TypeK1, TypeMMA}
	grapplingTypes = []string{TypeBJJ, TypeWrestling, TypeJudo, TypeTakedowns}
)

const (
	balancedMinTypes    = 5
	balancedMinSessions = 10
	disciplineMin       = 5
	wrestlerMin         = 3
)

// BadgesFromSessions derives the earned badges from the full session list.
// The result is never nil and follows the order of Badges.
func BadgesFromSessions(sessions []Session) []string {
	counts := make(map[string]int)
	for _, s := range sessions {
		counts[s.Type]++
	}

	badges := []string{}
	if len(counts) >= balancedMinTypes && len(sessions) >= balancedMinSessions {
		badges = append(badges, BadgeMostBalanced)
	}

	striking := sumCounts(counts, strikingTypes)
	grappling := sumCounts(counts, grapplingTypes)
	if striking >= disciplineMin && striking > grappling {
		badges = append(badges, BadgeBestStriker)
	}
	if grappling >= disciplineMin && grappling > striking {
		badges = append(badges, BadgeBestGrappler)
	}
	if counts[TypeWrestling] >= wrestlerMin {
		badges = append(badges, BadgeBestWrestler)
	}
	return badges
}

func sumCounts(counts map[string]int, types []string) int {
	n := 0
	for _, t := range types {
		n += counts[t]
	}
	return n
}
