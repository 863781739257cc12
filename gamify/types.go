package gamify

// Session is the scoring view of a logged training session.
// Date is always the canonical YYYY-MM-DD form produced by NormalizeDateToISO.
type Session struct {
	Date   string
	Type   string
	Level  string
	Points float64
}

// Training types that can be logged.
const (
	TypeBoxing       = "Boxing"
	TypeMuayThai     = "Muay Thai"
	TypeK1           = "K1"
	TypeMMA          = "MMA"
	TypeBJJ          = "BJJ"
	TypeWrestling    = "Wrestling"
	TypeJudo         = "Judo"
	TypeTakedowns    = "Takedowns"
	TypeStrength     = "Strength"
	TypeConditioning = "Conditioning"
	TypeOpenMat      = "Open Mat"
)

// SessionTypes lists every accepted training type in display order.
var SessionTypes = []string{
	TypeBoxing, TypeMuayThai, TypeK1, TypeMMA,
	TypeBJJ, TypeWrestling, TypeJudo, TypeTakedowns,
	TypeStrength, TypeConditioning, TypeOpenMat,
}

// Class levels of a single session.
const (
	ClassBasic        = "Basic"
	ClassIntermediate = "Intermediate"
	ClassAdvanced     = "Advanced"
	ClassAllLevel     = "All Level"
	// ClassUnknown is only assigned to migrated records that carried no level.
	ClassUnknown = "Unknown"
)

// ClassLevels lists the levels a user may pick when logging a session.
var ClassLevels = []string{ClassBasic, ClassIntermediate, ClassAdvanced, ClassAllLevel}

var classMultipliers = map[string]float64{
	ClassBasic:        1.0,
	ClassIntermediate: 1.5,
	ClassAdvanced:     2.0,
	ClassAllLevel:     1.3,
}

// IsSessionType reports whether t is one of SessionTypes.
func IsSessionType(t string) bool {
	for _, s := range SessionTypes {
		if s == t {
			return true
		}
	}
	return false
}

// IsClassLevel reports whether l is one of ClassLevels.
func IsClassLevel(l string) bool {
	_, ok := classMultipliers[l]
	return ok
}

// ClassMultiplier returns the point multiplier for a class level; unknown levels count as 1.0.
func ClassMultiplier(level string) float64 {
	if m, ok := classMultipliers[level]; ok {
		return m
	}
	return 1.0
}
