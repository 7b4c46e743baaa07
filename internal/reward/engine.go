package reward

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Badge names.
const (
	BadgeFirstSteps  = "First Steps"
	BadgeMoneyMaker  = "Money Maker"
	BadgeSmartSaver  = "Smart Saver"
	BadgeGoalSetter  = "Goal Setter"
	BadgeGoalCrusher = "Goal Crusher"
	BadgeScannerPro  = "Scanner Pro"
	BadgePDFMaster   = "PDF Master"
	BadgeAIExplorer  = "AI Explorer"
	BadgeScanExpert  = "Scan Expert"
	BadgeScanLegend  = "Scan Legend"
	BadgeWeekWarrior = "Week Warrior"
	BadgeMonthMaster = "Month Master"
)

// milestone fires once when a counter reaches exactly count.
type milestone struct {
	count  int
	badge  string
	points int
	reason string
}

var scanMilestones = []milestone{
	{10, BadgeScanExpert, 25, "10 scans completed"},
	{50, BadgeScanLegend, 100, "50 scans completed"},
}

var loginMilestones = []milestone{
	{7, BadgeWeekWarrior, 50, "7-day streak"},
	{30, BadgeMonthMaster, 200, "30-day streak"},
}

var (
	hundred         = decimal.NewFromInt(100)
	smartSaverShare = decimal.NewFromInt(20)
	saverShare      = decimal.NewFromInt(10)
)

// Delta describes what a single Apply changed.
type Delta struct {
	Points        int      `json:"points"`
	Badges        []string `json:"badges"`
	Notifications []string `json:"notifications"`
}

// Changed reports whether the ledger was mutated.
func (d Delta) Changed() bool {
	return d.Points > 0 || len(d.Badges) > 0
}

// Apply runs every rule triggered by ev against l and returns what changed.
// The ledger is mutated in place; persisting it is up to the caller.
func Apply(l *Ledger, ev Event, f Facts) Delta {
	a := &applier{ledger: l, delta: Delta{Badges: []string{}, Notifications: []string{}}}

	switch e := ev.(type) {
	case TransactionRecorded:
		a.transaction(e, f)
	case SavingsEvaluated:
		a.savings(e)
	case GoalCreated:
		a.grant(10, "Goal created")
		if f.Goals == 1 {
			a.award(BadgeGoalSetter)
		}
	case GoalCompleted:
		a.grant(50, "Goal completed: "+e.Name)
		a.award(BadgeGoalCrusher)
	case DocumentScanned:
		a.scan(e)
	case AIAdviceRequested:
		a.grant(20, "AI planner used")
		a.award(BadgeAIExplorer)
	case DailyLoginChecked:
		a.login(f)
	default:
		panic(fmt.Sprintf("reward: unhandled event %T", ev))
	}

	return a.delta
}

type applier struct {
	ledger *Ledger
	delta  Delta
}

// grant adds n points and emits one notification. Level follows from points.
func (a *applier) grant(n int, reason string) {
	if n <= 0 {
		return
	}
	a.ledger.Points += n
	a.delta.Points += n
	a.notify(fmt.Sprintf("+%d points! %s", n, reason))
}

// award adds a badge once. Awarding a held badge changes nothing.
func (a *applier) award(name string) {
	if a.ledger.HasBadge(name) {
		return
	}
	a.ledger.Badges = append(a.ledger.Badges, name)
	a.delta.Badges = append(a.delta.Badges, name)
	a.notify("New badge: " + name)
}

func (a *applier) notify(msg string) {
	a.delta.Notifications = append(a.delta.Notifications, msg)
}

func (a *applier) transaction(e TransactionRecorded, f Facts) {
	switch e.Kind {
	case Expense:
		a.grant(2, "Expense tracked")
		if f.Transactions == 1 {
			a.award(BadgeFirstSteps)
			a.grant(10, "First transaction")
		}
	case Income:
		a.grant(5, "Income recorded")
		if f.IncomeTransactions == 1 {
			a.award(BadgeMoneyMaker)
			a.grant(10, "First income recorded")
		}
	}
}

func (a *applier) savings(e SavingsEvaluated) {
	if !e.Balance.IsPositive() || !e.Income.IsPositive() {
		return
	}
	pct := e.Balance.Div(e.Income).Mul(hundred)
	switch {
	case pct.GreaterThanOrEqual(smartSaverShare):
		a.grant(10, "Saving 20%+")
		a.award(BadgeSmartSaver)
	case pct.GreaterThanOrEqual(saverShare):
		a.grant(5, "Saving 10%+")
	}
}

func (a *applier) scan(e DocumentScanned) {
	switch e.Kind {
	case PDF:
		a.grant(5, "PDF scanned")
		a.award(BadgePDFMaster)
	default:
		a.grant(5, "Receipt scanned")
		a.award(BadgeScannerPro)
	}
	a.ledger.TotalScans++
	a.milestones(a.ledger.TotalScans, scanMilestones)
}

func (a *applier) login(f Facts) {
	if a.ledger.LastLoginDate == f.Today {
		return
	}
	a.grant(5, "Daily login")
	a.ledger.LastLoginDate = f.Today
	a.ledger.LoginStreak++
	a.milestones(a.ledger.LoginStreak, loginMilestones)
}

func (a *applier) milestones(count int, ms []milestone) {
	for _, m := range ms {
		if count == m.count {
			a.award(m.badge)
			a.grant(m.points, m.reason)
		}
	}
}
