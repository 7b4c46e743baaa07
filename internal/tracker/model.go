package tracker

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zombor/finance-tracker/internal/reward"
)

// Transaction is one entry in the ordered transaction ledger
type Transaction struct {
	ID          string                 `json:"id"`
	Description string                 `json:"description"`
	Amount      decimal.Decimal        `json:"amount"`
	Type        reward.TransactionKind `json:"type"`
	Category    string                 `json:"category,omitempty"`
	Date        time.Time              `json:"date"`
	Document    string                 `json:"document,omitempty"`     // stored scan this transaction came from
	ContentType string                 `json:"content_type,omitempty"` // content type of Document
}

// TransactionInput is what a user submits to record a transaction
type TransactionInput struct {
	Description string
	Amount      decimal.Decimal
	Type        reward.TransactionKind
	Category    string
	Date        time.Time // zero means now
}

// Goal is a savings target
type Goal struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Completed reports whether the goal has been marked complete
func (g *Goal) Completed() bool {
	return g.CompletedAt != nil
}

// GoalStatus is a goal with its progress against the current balance
type GoalStatus struct {
	*Goal
	Saved   decimal.Decimal `json:"saved"`
	Percent decimal.Decimal `json:"percent"`
}

// CategoryTotal is the expense total of one category
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Alert severities
const (
	AlertDanger  = "danger"
	AlertWarning = "warning"
	AlertSuccess = "success"
)

// Alert is a budget health message
type Alert struct {
	Level   string `json:"level"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Summary is the budget overview computed from all transactions
type Summary struct {
	Income         decimal.Decimal `json:"income"`
	Expense        decimal.Decimal `json:"expense"`
	Balance        decimal.Decimal `json:"balance"`
	SavingsPercent decimal.Decimal `json:"savings_percent"`
	Categories     []CategoryTotal `json:"categories"`
	Alerts         []Alert         `json:"alerts"`
	Trend          []DailySpending `json:"trend"`
}

// DailySpending is the expense total for one calendar day
type DailySpending struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// ScanResult is the outcome of scanning a receipt or PDF
type ScanResult struct {
	Kind        reward.DocumentKind `json:"kind"`
	Method      string              `json:"method"`
	Text        string              `json:"text"`
	Found       bool                `json:"found"`
	Amount      decimal.NullDecimal `json:"amount"`
	Transaction *Transaction        `json:"transaction,omitempty"`
	Rewards     reward.Delta        `json:"rewards"`
}

// Advice is the planner answer to an advice request
type Advice struct {
	Tips    []string     `json:"tips"`
	Summary *Summary     `json:"summary"`
	Rewards reward.Delta `json:"rewards"`
}

// RewardsView is the rewards page payload
type RewardsView struct {
	Ledger   *reward.Ledger  `json:"ledger"`
	Progress reward.Progress `json:"progress"`
	Stats    reward.Stats    `json:"stats"`
}

// Redemption is the result of cashing out points
type Redemption struct {
	CashBack    decimal.Decimal `json:"cashback"`
	Transaction *Transaction    `json:"transaction"`
	Ledger      *reward.Ledger  `json:"ledger"`
}
