package gamify

import "math"

// Level is an avatar tier derived from lifetime points.
type Level struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	// Max is exclusive; zero marks the open-ended top level.
	Max float64 `json:"max,omitempty"`
}

// Avatar levels, lowest first.
var (
	LevelNovice       = Level{Name: "Novice", Min: 0, Max: 8}
	LevelIntermediate = Level{Name: "Intermediate", Min: 8, Max: 16}
	LevelSeasoned     = Level{Name: "Seasoned", Min: 16, Max: 25}
	LevelElite        = Level{Name: "Elite", Min: 25}
)

// Levels lists the avatar levels in ascending order.
var Levels = []Level{LevelNovice, LevelIntermediate, LevelSeasoned, LevelElite}

// Progress values a level can report.
var progressSteps = []int{0, 25, 50, 75, 100}

// Open reports whether the level has no upper bound.
func (l Level) Open() bool { return l.Max == 0 }

// LevelFromPoints maps cumulative points to a level. Minimums are inclusive.
func LevelFromPoints(points float64) Level {
	for i := len(Levels) - 1; i >= 0; i-- {
		if points >= Levels[i].Min {
			return Levels[i]
		}
	}
	return LevelNovice
}

// ProgressInLevel returns the progress through level in 25% steps.
func ProgressInLevel(points float64, level Level) int {
	if level.Open() {
		if points >= level.Min {
			return 100
		}
		return 0
	}
	inLevel := math.Max(0, points-level.Min)
	raw := math.Min(100, inLevel/(level.Max-level.Min)*100)
	return int(math.Floor(raw/25+0.5)) * 25
}

// Avatar is the derived gamified state of a user. It is never stored.
type Avatar struct {
	Level            string  `json:"level"`
	Progress         int     `json:"progress"`
	CumulativePoints float64 `json:"cumulative_points"`
	NextLevelAt      float64 `json:"next_level_at,omitempty"`
}

// AvatarFromSessions derives the avatar from the full session list.
func AvatarFromSessions(sessions []Session) Avatar {
	total := TotalPoints(sessions)
	level := LevelFromPoints(total)
	return Avatar{
		Level:            level.Name,
		Progress:         ProgressInLevel(total, level),
		CumulativePoints: total,
		NextLevelAt:      level.Max,
	}
}
