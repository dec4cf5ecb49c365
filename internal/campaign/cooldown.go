package campaign

import (
	"math/rand"
	"time"

	"whatsapp-broadcaster/internal/config"
)

// DueCooldowns returns every cooldown whose interval divides sent, smallest
// interval first. After 20 sends with intervals 5 and 10 both fire.
func DueCooldowns(cooldowns []config.Cooldown, sent int) []config.Cooldown {
	if sent <= 0 {
		return nil
	}
	var due []config.Cooldown
	for _, c := range cooldowns {
		if c.Every > 0 && sent%c.Every == 0 {
			due = append(due, c)
		}
	}
	return due
}

// pauseFor converts configured minutes to a duration.
func pauseFor(c config.Cooldown) time.Duration {
	return time.Duration(c.Minutes * float64(time.Minute))
}

// jitterSpread is the relative spread of the randomized delay.
const jitterSpread = 0.25

// Jitter returns base scaled uniformly into [1-spread, 1+spread].
func Jitter(base time.Duration, rnd *rand.Rand) time.Duration {
	if base <= 0 {
		return 0
	}
	factor := 1 - jitterSpread + rnd.Float64()*2*jitterSpread
	return time.Duration(float64(base) * factor)
}
