package reward

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MinRedeemPoints is the smallest balance that can be cashed out.
const MinRedeemPoints = 100

// ErrInsufficientPoints is returned by Redeem below MinRedeemPoints.
var ErrInsufficientPoints = errors.New("insufficient points")

var cashBackRate = decimal.RequireFromString("0.05")

// CashBack is the cash value of points, rounded to cents.
func CashBack(points int) decimal.Decimal {
	return decimal.NewFromInt(int64(points)).Mul(cashBackRate).Round(2)
}

// Redeem zeroes the points and returns their cash value. Badges and streak
// counters are kept. On error the ledger is untouched.
func Redeem(l *Ledger) (decimal.Decimal, error) {
	if l.Points < MinRedeemPoints {
		return decimal.Zero, fmt.Errorf("%w: have %d, need %d", ErrInsufficientPoints, l.Points, MinRedeemPoints)
	}
	cash := CashBack(l.Points)
	l.Points = 0
	return cash, nil
}

// Progress is how far a point total is through its level.
type Progress struct {
	Level        Level   `json:"level"`
	NextLevel    Level   `json:"next_level,omitempty"`
	Percent      float64 `json:"percent"`
	PointsToNext int     `json:"points_to_next"`
	MaxLevel     bool    `json:"max_level"`
}

// ProgressFor computes level progress for points.
func ProgressFor(points int) Progress {
	t := tierFor(points)
	if t.ceiling == 0 {
		return Progress{Level: t.level, Percent: 100, MaxLevel: true}
	}

	pct := float64(points-t.floor) / float64(t.ceiling-t.floor) * 100
	pct = min(100, max(0, pct))

	return Progress{
		Level:        t.level,
		NextLevel:    LevelFor(t.ceiling),
		Percent:      pct,
		PointsToNext: t.ceiling - points,
	}
}

// Stats summarises a ledger for display.
type Stats struct {
	TotalPoints       int             `json:"total_points"`
	Level             Level           `json:"level"`
	BadgeCount        int             `json:"badge_count"`
	CashbackAvailable decimal.Decimal `json:"cashback_available"`
	JoinDate          string          `json:"join_date"`
	LoginStreak       int             `json:"login_streak"`
	TotalScans        int             `json:"total_scans"`
}

// Stats returns display statistics for the ledger.
func (l *Ledger) Stats() Stats {
	return Stats{
		TotalPoints:       l.Points,
		Level:             l.Level(),
		BadgeCount:        len(l.Badges),
		CashbackAvailable: CashBack(l.Points),
		JoinDate:          l.JoinDate.Format(dateLayout),
		LoginStreak:       l.LoginStreak,
		TotalScans:        l.TotalScans,
	}
}
