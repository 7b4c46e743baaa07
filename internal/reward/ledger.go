// Package reward implements the points, levels, badges and streaks layered on
// top of the budget tracker.
//
// Everything here is pure: a Ledger is loaded by the caller, mutated by Apply
// or Redeem, and persisted by the caller afterwards.
package reward

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Level is derived from points and never stored independently.
type Level string

const (
	Bronze   Level = "Bronze"
	Silver   Level = "Silver"
	Gold     Level = "Gold"
	Platinum Level = "Platinum"
)

// tier is a half-open [floor, ceiling) point range. Platinum has no ceiling.
type tier struct {
	level   Level
	floor   int
	ceiling int
}

var tiers = []tier{
	{Bronze, 0, 100},
	{Silver, 100, 500},
	{Gold, 500, 1000},
	{Platinum, 1000, 0},
}

// LevelFor returns the level for a point total.
func LevelFor(points int) Level {
	return tierFor(points).level
}

func tierFor(points int) tier {
	for i := len(tiers) - 1; i > 0; i-- {
		if points >= tiers[i].floor {
			return tiers[i]
		}
	}
	return tiers[0]
}

// DefaultUsername is used until the user picks a name.
const DefaultUsername = "User"

// dateLayout is the civil date format for LastLoginDate and Facts.Today.
const dateLayout = "2006-01-02"

// Ledger is the single persisted reward record for a user.
type Ledger struct {
	Username      string
	Points        int
	Badges        []string
	JoinDate      time.Time
	LoginStreak   int
	TotalScans    int
	LastLoginDate string // empty until the first daily login reward
}

// NewLedger returns a ledger with default values.
func NewLedger(now time.Time) *Ledger {
	return &Ledger{
		Username: DefaultUsername,
		Badges:   []string{},
		JoinDate: now,
	}
}

// Level derives the level from the current points.
func (l *Ledger) Level() Level {
	return LevelFor(l.Points)
}

// HasBadge reports whether the badge has been earned.
func (l *Ledger) HasBadge(name string) bool {
	return slices.Contains(l.Badges, name)
}

// record is the stored JSON shape.
type record struct {
	Username      string   `json:"username"`
	Points        int      `json:"points"`
	Level         Level    `json:"level"`
	Badges        []string `json:"badges"`
	JoinDate      string   `json:"joinDate"`
	LoginStreak   int      `json:"loginStreak"`
	TotalScans    int      `json:"totalScans"`
	LastLoginDate string   `json:"lastLoginDate,omitempty"`
}

// MarshalJSON writes the stored record. Level is included for readers of the
// raw record but is always recomputed from points.
func (l Ledger) MarshalJSON() ([]byte, error) {
	badges := l.Badges
	if badges == nil {
		badges = []string{}
	}
	return json.Marshal(record{
		Username:      l.Username,
		Points:        l.Points,
		Level:         l.Level(),
		Badges:        badges,
		JoinDate:      l.JoinDate.Format(time.RFC3339),
		LoginStreak:   l.LoginStreak,
		TotalScans:    l.TotalScans,
		LastLoginDate: l.LastLoginDate,
	})
}

// UnmarshalJSON reads a stored record, ignoring the stored level.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.Points < 0 || r.LoginStreak < 0 || r.TotalScans < 0 {
		return fmt.Errorf("negative counter in ledger record")
	}

	var joined time.Time
	if r.JoinDate != "" {
		t, err := time.Parse(time.RFC3339, r.JoinDate)
		if err != nil {
			return fmt.Errorf("parsing join date: %w", err)
		}
		joined = t
	}
	if r.LastLoginDate != "" {
		if _, err := time.Parse(dateLayout, r.LastLoginDate); err != nil {
			return fmt.Errorf("parsing last login date: %w", err)
		}
	}

	username := r.Username
	if username == "" {
		username = DefaultUsername
	}

	badges := make([]string, 0, len(r.Badges))
	for _, b := range r.Badges {
		if !slices.Contains(badges, b) {
			badges = append(badges, b)
		}
	}

	*l = Ledger{
		Username:      username,
		Points:        r.Points,
		Badges:        badges,
		JoinDate:      joined,
		LoginStreak:   r.LoginStreak,
		TotalScans:    r.TotalScans,
		LastLoginDate: r.LastLoginDate,
	}
	return nil
}

// Decode parses a stored record. A missing record (nil data) yields a default
// ledger; a malformed one returns an error and the caller decides how to
// recover.
func Decode(data []byte, now time.Time) (*Ledger, error) {
	if len(data) == 0 {
		return NewLedger(now), nil
	}
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decoding ledger: %w", err)
	}
	return &l, nil
}
