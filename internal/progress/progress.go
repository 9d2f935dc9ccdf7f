// Package progress tracks experience points and levels awarded for board
// activity.
package progress

import (
	"sync"
)

// Thresholds is the XP needed to reach each level, starting at level 1.
var Thresholds = []int{0, 100, 300, 600, 1000, 1500, 2100, 3000}

// Level returns the level reached with xp.
func Level(xp int) int {
	level := 1
	for i, need := range Thresholds {
		if xp < need {
			break
		}
		level = i + 1
	}
	return level
}

// nextLevelXP returns the XP target shown for the level after level. Past
// the end of the table the target keeps growing with xp.
func nextLevelXP(level, xp int) int {
	if level < len(Thresholds) {
		return Thresholds[level]
	}
	return xp * 3 / 2
}

// Stats is a point-in-time view of the player.
type Stats struct {
	Level       int
	XP          int
	NextLevelXP int
	Streak      int
}

// Tracker accumulates rewards. It is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	stats Stats

	// OnLevelUp, when set, is called with the new stats after a level up.
	// It runs outside the tracker lock.
	OnLevelUp func(Stats)
}

// NewTracker returns a tracker at level 1 with the starting streak.
func NewTracker() *Tracker {
	return &Tracker{
		stats: Stats{Level: 1, XP: 0, NextLevelXP: Thresholds[1], Streak: 3},
	}
}

// Add awards amount XP. It reports the new stats and whether the level
// went up.
func (t *Tracker) Add(amount int) (Stats, bool) {
	t.mu.Lock()
	prev := t.stats.Level
	t.stats.XP += amount
	t.stats.Level = Level(t.stats.XP)
	t.stats.NextLevelXP = nextLevelXP(t.stats.Level, t.stats.XP)
	s := t.stats
	t.mu.Unlock()

	up := s.Level > prev
	if up && t.OnLevelUp != nil {
		t.OnLevelUp(s)
	}
	return s, up
}

// Stats returns the current stats.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
