package reward

import "github.com/shopspring/decimal"

// TransactionKind is the direction of money in a transaction.
type TransactionKind string

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

// Valid reports whether k is income or expense.
func (k TransactionKind) Valid() bool {
	return k == Income || k == Expense
}

// DocumentKind is the kind of document that was scanned.
type DocumentKind string

const (
	Receipt DocumentKind = "receipt"
	PDF     DocumentKind = "pdf"
)

// Event is a single cause for a reward recalculation. The set of events is
// closed; Apply handles every implementation.
type Event interface {
	isEvent()
}

// TransactionRecorded is emitted after a transaction has been appended.
type TransactionRecorded struct {
	Amount decimal.Decimal
	Kind   TransactionKind
}

// GoalCreated is emitted after a savings goal has been stored.
type GoalCreated struct {
	Name string
}

// GoalCompleted is emitted when a savings goal is marked complete.
type GoalCompleted struct {
	Name string
}

// DocumentScanned is emitted after a scanned total became a transaction.
type DocumentScanned struct {
	Kind DocumentKind
}

// AIAdviceRequested is emitted when the user asks for budget advice.
type AIAdviceRequested struct{}

// DailyLoginChecked is emitted whenever the user opens the rewards page.
type DailyLoginChecked struct{}

// SavingsEvaluated is emitted with the current balance and total income.
type SavingsEvaluated struct {
	Balance decimal.Decimal
	Income  decimal.Decimal
}

func (TransactionRecorded) isEvent() {}
func (GoalCreated) isEvent()         {}
func (GoalCompleted) isEvent()       {}
func (DocumentScanned) isEvent()     {}
func (AIAdviceRequested) isEvent()   {}
func (DailyLoginChecked) isEvent()   {}
func (SavingsEvaluated) isEvent()    {}

// Facts are read by the caller from collaborators before an event is
// applied. Counts include the record that caused the event.
type Facts struct {
	Today              string // civil date, YYYY-MM-DD, device-local
	Transactions       int
	IncomeTransactions int
	Goals              int
}
