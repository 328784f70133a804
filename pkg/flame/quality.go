package flame

import (
	"fmt"
	"strings"
)

// Quality selects the per-step workload and the step budget before freezing.
type Quality int

const (
	// HighQuality runs large steps for a detailed still image.
	HighQuality Quality = iota
	// Interactive runs small steps for fast feedback while the control point moves.
	Interactive
)

// Workload per quality mode.
const (
	HighQualityGames    = 3000
	HighQualityMaxIters = 300
	InteractiveGames    = 800
	InteractiveMaxIters = 4
)

// GamesPerStep returns the number of chaos-game iterations in one step.
func (q Quality) GamesPerStep() int {
	if q == Interactive {
		return InteractiveGames
	}
	return HighQualityGames
}

// MaxIterations returns the step count after which the engine freezes.
func (q Quality) MaxIterations() int {
	if q == Interactive {
		return InteractiveMaxIters
	}
	return HighQualityMaxIters
}

func (q Quality) String() string {
	switch q {
	case HighQuality:
		return "high"
	case Interactive:
		return "interactive"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// ParseQuality parses "high" or "interactive" (case-insensitive).
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "high-quality", "slow":
		return HighQuality, nil
	case "interactive", "fast":
		return Interactive, nil
	}
	return HighQuality, fmt.Errorf("invalid quality: %q (must be one of: high, interactive)", s)
}
