package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zombor/finance-tracker/internal/extraction"
	"github.com/zombor/finance-tracker/internal/reward"
	"github.com/zombor/finance-tracker/internal/scanning"
)

var (
	// ErrInvalidInput is returned when user input fails validation
	ErrInvalidInput = errors.New("invalid input")
	// ErrGoalCompleted is returned when completing a goal twice
	ErrGoalCompleted = errors.New("goal already completed")
)

const (
	defaultCategory = "other"
	dateLayout      = "2006-01-02"
)

// DocumentReader turns an uploaded file into text
type DocumentReader interface {
	Read(data []byte, contentType string) (*scanning.Document, error)
}

// IDGenerator generates unique IDs for records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service is the single actor that owns the transaction ledger, goals and
// reward ledger. Ledger read-modify-write cycles are serialized by mu.
type Service struct {
	mu          sync.Mutex
	db          DB
	reader      DocumentReader
	storage     Storage
	notifier    Notifier
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, reader DocumentReader, storage Storage, notifier Notifier) *Service {
	return NewServiceWithDeps(db, reader, storage, notifier, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, reader DocumentReader, storage Storage, notifier Notifier, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		reader:      reader,
		storage:     storage,
		notifier:    notifier,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// facts reads the counts reward rules depend on. pending is a transaction
// written together with the ledger and is counted as already recorded.
// Callers hold mu.
func (s *Service) facts(pending *Transaction) (reward.Facts, error) {
	total, income, err := s.db.CountTransactions()
	if err != nil {
		return reward.Facts{}, fmt.Errorf("counting transactions: %w", err)
	}
	goals, err := s.db.ListGoals()
	if err != nil {
		return reward.Facts{}, fmt.Errorf("counting goals: %w", err)
	}
	if pending != nil {
		total++
		if pending.Type == reward.Income {
			income++
		}
	}
	return reward.Facts{
		Today:              s.timeSource.Now().Local().Format(dateLayout),
		Transactions:       total,
		IncomeTransactions: income,
		Goals:              len(goals),
	}, nil
}

// evaluate loads the ledger and applies ev to it without persisting.
// Callers hold mu.
func (s *Service) evaluate(ev reward.Event, pending *Transaction) (*reward.Ledger, reward.Delta, error) {
	facts, err := s.facts(pending)
	if err != nil {
		return nil, reward.Delta{}, err
	}

	ledger, err := s.db.GetLedger(s.timeSource.Now())
	if err != nil {
		return nil, reward.Delta{}, fmt.Errorf("loading reward ledger: %w", err)
	}

	return ledger, reward.Apply(ledger, ev, facts), nil
}

// publish reports a persisted delta
func (s *Service) publish(delta reward.Delta) {
	observeDelta(delta)
	for _, msg := range delta.Notifications {
		s.notifier.Notify(msg)
	}
}

// applyEvent applies ev, persists the ledger if anything changed and emits
// the notifications. Callers hold mu.
func (s *Service) applyEvent(ev reward.Event) (reward.Delta, error) {
	ledger, delta, err := s.evaluate(ev, nil)
	if err != nil {
		return reward.Delta{}, err
	}
	if !delta.Changed() {
		return delta, nil
	}

	if err := s.db.SaveLedger(ledger); err != nil {
		return reward.Delta{}, fmt.Errorf("saving reward ledger: %w", err)
	}
	s.publish(delta)
	return delta, nil
}

// commitTransaction appends t and the ledger rewarded for ev in one write.
// On failure neither is stored. Callers hold mu.
func (s *Service) commitTransaction(t *Transaction, ev reward.Event) (reward.Delta, error) {
	ledger, delta, err := s.evaluate(ev, t)
	if err != nil {
		return reward.Delta{}, err
	}
	if !delta.Changed() {
		ledger = nil
	}

	if err := s.db.CommitTransaction(t, ledger); err != nil {
		return reward.Delta{}, fmt.Errorf("saving transaction: %w", err)
	}
	transactionsRecorded.WithLabelValues(string(t.Type)).Inc()
	s.publish(delta)
	return delta, nil
}

// RecordTransaction validates and appends a transaction, then rewards it
func (s *Service) RecordTransaction(in TransactionInput) (*Transaction, reward.Delta, error) {
	description := sanitizeText(in.Description)
	if description == "" {
		return nil, reward.Delta{}, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return nil, reward.Delta{}, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}
	if !in.Type.Valid() {
		return nil, reward.Delta{}, fmt.Errorf("%w: type must be income or expense", ErrInvalidInput)
	}

	category := sanitizeText(in.Category)
	if category == "" {
		category = defaultCategory
	}
	date := in.Date
	if date.IsZero() {
		date = s.timeSource.Now()
	}

	t := &Transaction{
		ID:          s.idGenerator.Generate(),
		Description: description,
		Amount:      in.Amount.Round(2),
		Type:        in.Type,
		Category:    category,
		Date:        date,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delta, err := s.commitTransaction(t, reward.TransactionRecorded{Amount: t.Amount, Kind: t.Type})
	if err != nil {
		return nil, reward.Delta{}, err
	}
	return t, delta, nil
}

// GetTransaction retrieves a transaction by ID
func (s *Service) GetTransaction(id string) (*Transaction, error) {
	t, err := s.db.GetTransaction(id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns all transactions in the order they were recorded
func (s *Service) ListTransactions() ([]*Transaction, error) {
	transactions, err := s.db.ListTransactions()
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return transactions, nil
}

// DeleteTransaction removes a transaction and any scanned document behind it
func (s *Service) DeleteTransaction(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.db.GetTransaction(id)
	if err != nil {
		return fmt.Errorf("getting transaction for deletion: %w", err)
	}

	if t.Document != "" {
		if err := s.storage.Delete(t.Document); err != nil {
			slog.Warn("Failed to delete document", "document", t.Document, "error", err)
		}
	}

	if err := s.db.DeleteTransaction(id); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	return nil
}

// ClearTransactions removes every transaction and its scanned document. Goals
// and the reward ledger are kept.
func (s *Service) ClearTransactions() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	transactions, err := s.db.ListTransactions()
	if err != nil {
		return fmt.Errorf("listing transactions: %w", err)
	}

	if err := s.db.ClearTransactions(); err != nil {
		return fmt.Errorf("clearing transactions: %w", err)
	}

	for _, t := range transactions {
		if t.Document != "" {
			s.discard(t.Document)
		}
	}
	slog.Info("Cleared transactions", "count", len(transactions))
	return nil
}

// GetTransactionDocument returns the scanned file a transaction came from
func (s *Service) GetTransactionDocument(id string) ([]byte, string, error) {
	t, err := s.db.GetTransaction(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting transaction: %w", err)
	}
	if t.Document == "" {
		return nil, "", fmt.Errorf("transaction %s has no document: %w", id, ErrNotFound)
	}

	data, err := s.storage.Get(t.Document)
	if err != nil {
		return nil, "", fmt.Errorf("getting document: %w", err)
	}
	return data, t.ContentType, nil
}

// Summary computes income, expense, balance, category totals and alerts
func (s *Service) Summary() (*Summary, error) {
	transactions, err := s.db.ListTransactions()
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return summarize(transactions, s.timeSource.Now()), nil
}

var (
	hundred          = decimal.NewFromInt(100)
	lowSavingsRate   = decimal.RequireFromString("0.1")
	greatSavingsRate = decimal.RequireFromString("0.2")
)

// trendDays is the length of the daily spending trend, ending today
const trendDays = 7

func summarize(transactions []*Transaction, now time.Time) *Summary {
	income, expense := decimal.Zero, decimal.Zero
	byCategory := map[string]decimal.Decimal{}

	today := now.Local()
	trend := make([]DailySpending, trendDays)
	byDay := make(map[string]int, trendDays)
	for i := range trend {
		day := today.AddDate(0, 0, i-trendDays+1).Format(dateLayout)
		trend[i] = DailySpending{Date: day, Amount: decimal.Zero}
		byDay[day] = i
	}

	for _, t := range transactions {
		switch t.Type {
		case reward.Income:
			income = income.Add(t.Amount)
		case reward.Expense:
			expense = expense.Add(t.Amount)
			category := t.Category
			if category == "" {
				category = defaultCategory
			}
			byCategory[category] = byCategory[category].Add(t.Amount)
			if i, ok := byDay[t.Date.Local().Format(dateLayout)]; ok {
				trend[i].Amount = trend[i].Amount.Add(t.Amount)
			}
		}
	}

	balance := income.Sub(expense)
	summary := &Summary{
		Income:         income,
		Expense:        expense,
		Balance:        balance,
		SavingsPercent: decimal.Zero,
		Categories:     make([]CategoryTotal, 0, len(byCategory)),
		Alerts:         []Alert{},
		Trend:          trend,
	}
	if income.IsPositive() {
		summary.SavingsPercent = balance.Div(income).Mul(hundred).Round(1)
	}

	for category, amount := range byCategory {
		summary.Categories = append(summary.Categories, CategoryTotal{Category: category, Amount: amount})
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		a, b := summary.Categories[i], summary.Categories[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Category < b.Category
	})

	switch {
	case expense.GreaterThan(income):
		summary.Alerts = append(summary.Alerts, Alert{
			Level: AlertDanger,
			Kind:  "overspending",
			Message: fmt.Sprintf("You've spent $%s more than earned. Consider reducing expenses.",
				expense.Sub(income).StringFixed(2)),
		})
	case balance.IsPositive() && balance.LessThan(income.Mul(lowSavingsRate)):
		summary.Alerts = append(summary.Alerts, Alert{
			Level: AlertWarning,
			Kind:  "low_savings",
			Message: fmt.Sprintf("Balance is only $%s (%s%%). Try to save at least 20%%.",
				balance.StringFixed(2), summary.SavingsPercent.StringFixed(1)),
		})
	case balance.GreaterThan(income.Mul(greatSavingsRate)):
		summary.Alerts = append(summary.Alerts, Alert{
			Level: AlertSuccess,
			Kind:  "great_savings",
			Message: fmt.Sprintf("You're saving %s%% of your income! Keep it up.",
				summary.SavingsPercent.StringFixed(1)),
		})
	}

	return summary
}

// EvaluateSavings rewards the current savings rate
func (s *Service) EvaluateSavings() (reward.Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, err := s.Summary()
	if err != nil {
		return reward.Delta{}, err
	}
	return s.applyEvent(reward.SavingsEvaluated{Balance: summary.Balance, Income: summary.Income})
}

// CreateGoal stores a new savings goal and rewards it
func (s *Service) CreateGoal(name string, amount decimal.Decimal) (*Goal, reward.Delta, error) {
	name = sanitizeText(name)
	if name == "" {
		return nil, reward.Delta{}, fmt.Errorf("%w: goal name is required", ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return nil, reward.Delta{}, fmt.Errorf("%w: goal amount must be greater than zero", ErrInvalidInput)
	}

	goal := &Goal{
		ID:        s.idGenerator.Generate(),
		Name:      name,
		Amount:    amount.Round(2),
		CreatedAt: s.timeSource.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.SaveGoal(goal); err != nil {
		return nil, reward.Delta{}, fmt.Errorf("saving goal: %w", err)
	}

	delta, err := s.applyEvent(reward.GoalCreated{Name: goal.Name})
	if err != nil {
		return nil, reward.Delta{}, err
	}
	return goal, delta, nil
}

// ListGoals returns every goal with its progress against the current balance
func (s *Service) ListGoals() ([]GoalStatus, error) {
	goals, err := s.db.ListGoals()
	if err != nil {
		return nil, fmt.Errorf("listing goals: %w", err)
	}
	summary, err := s.Summary()
	if err != nil {
		return nil, err
	}

	statuses := make([]GoalStatus, 0, len(goals))
	for _, g := range goals {
		saved := decimal.Max(decimal.Zero, decimal.Min(g.Amount, summary.Balance))
		statuses = append(statuses, GoalStatus{
			Goal:    g,
			Saved:   saved,
			Percent: saved.Div(g.Amount).Mul(hundred).Round(1),
		})
	}
	return statuses, nil
}

// CompleteGoal marks a goal complete and rewards it
func (s *Service) CompleteGoal(id string) (*Goal, reward.Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal, err := s.db.GetGoal(id)
	if err != nil {
		return nil, reward.Delta{}, fmt.Errorf("getting goal: %w", err)
	}
	if goal.Completed() {
		return nil, reward.Delta{}, fmt.Errorf("goal %s: %w", id, ErrGoalCompleted)
	}

	now := s.timeSource.Now()
	goal.CompletedAt = &now
	if err := s.db.SaveGoal(goal); err != nil {
		return nil, reward.Delta{}, fmt.Errorf("saving goal: %w", err)
	}

	delta, err := s.applyEvent(reward.GoalCompleted{Name: goal.Name})
	if err != nil {
		return nil, reward.Delta{}, err
	}
	return goal, delta, nil
}

// DeleteGoal removes a goal
func (s *Service) DeleteGoal(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteGoal(id); err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	return nil
}

// ScanDocument stores an uploaded receipt or PDF, extracts its total and,
// when a total is found, records it as an expense and rewards the scan.
// When no total is found nothing is recorded and the upload is discarded.
func (s *Service) ScanDocument(filename string, data []byte, contentType string) (*ScanResult, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	kind := reward.Receipt
	label := "Receipt Total"
	if scanning.IsPDF(data, contentType) {
		kind = reward.PDF
		label = "PDF Total"
	}

	savedName, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	doc, err := s.reader.Read(data, contentType)
	if err != nil {
		slog.Error("Failed to read document",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		documentsScanned.WithLabelValues(string(kind), "error").Inc()
		s.discard(savedName)
		return nil, fmt.Errorf("reading document: %w", err)
	}

	result := &ScanResult{
		Kind:    kind,
		Method:  doc.Method,
		Text:    doc.Text,
		Rewards: reward.Delta{Badges: []string{}, Notifications: []string{}},
	}

	amount, found := extraction.ExtractTotal(doc.Text)
	if !found || amount.IsZero() {
		slog.Info("No total found in document", "filename", filename, "method", doc.Method)
		documentsScanned.WithLabelValues(string(kind), "no_total").Inc()
		s.discard(savedName)
		return result, nil
	}

	t := &Transaction{
		ID:          id,
		Description: label,
		Amount:      amount,
		Type:        reward.Expense,
		Category:    defaultCategory,
		Date:        now,
		Document:    savedName,
		ContentType: contentType,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delta, err := s.commitTransaction(t, reward.DocumentScanned{Kind: kind})
	if err != nil {
		s.discard(savedName)
		return nil, err
	}
	documentsScanned.WithLabelValues(string(kind), "total").Inc()

	result.Found = true
	result.Amount = decimal.NewNullDecimal(amount)
	result.Transaction = t
	result.Rewards = delta
	return result, nil
}

func (s *Service) discard(name string) {
	if err := s.storage.Delete(name); err != nil {
		slog.Warn("Failed to delete document", "document", name, "error", err)
	}
}

// RequestAdvice rewards asking the planner and returns tips for the budget
func (s *Service) RequestAdvice() (*Advice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, err := s.Summary()
	if err != nil {
		return nil, err
	}

	tips := make([]string, 0, len(summary.Alerts)+1)
	for _, a := range summary.Alerts {
		tips = append(tips, a.Message)
	}
	if len(summary.Categories) > 0 {
		top := summary.Categories[0]
		tips = append(tips, fmt.Sprintf("Your largest expense category is %s at $%s.", top.Category, top.Amount.StringFixed(2)))
	}
	if len(tips) == 0 {
		tips = append(tips, "Record your income and expenses to get personalised advice.")
	}

	delta, err := s.applyEvent(reward.AIAdviceRequested{})
	if err != nil {
		return nil, err
	}
	return &Advice{Tips: tips, Summary: summary, Rewards: delta}, nil
}

// CheckIn grants the daily login reward at most once per calendar day
func (s *Service) CheckIn() (reward.Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyEvent(reward.DailyLoginChecked{})
}

// Rewards returns the reward ledger with progress and stats
func (s *Service) Rewards() (*RewardsView, error) {
	ledger, err := s.db.GetLedger(s.timeSource.Now())
	if err != nil {
		return nil, fmt.Errorf("loading reward ledger: %w", err)
	}
	return &RewardsView{
		Ledger:   ledger,
		Progress: reward.ProgressFor(ledger.Points),
		Stats:    ledger.Stats(),
	}, nil
}

// Redeem converts all points to cash back and records it as income. Below
// the minimum nothing is changed.
func (s *Service) Redeem() (*Redemption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timeSource.Now()
	ledger, err := s.db.GetLedger(now)
	if err != nil {
		return nil, fmt.Errorf("loading reward ledger: %w", err)
	}

	cash, err := reward.Redeem(ledger)
	if err != nil {
		return nil, err
	}

	t := &Transaction{
		ID:          s.idGenerator.Generate(),
		Description: "Cash Back Redeemed",
		Amount:      cash,
		Type:        reward.Income,
		Category:    defaultCategory,
		Date:        now,
	}
	if err := s.db.CommitTransaction(t, ledger); err != nil {
		return nil, fmt.Errorf("committing redemption: %w", err)
	}

	redemptions.Inc()
	cashBackPaid.Add(cash.InexactFloat64())
	transactionsRecorded.WithLabelValues(string(t.Type)).Inc()
	s.notifier.Notify(fmt.Sprintf("$%s cash back added to your budget as income", cash.StringFixed(2)))

	return &Redemption{CashBack: cash, Transaction: t, Ledger: ledger}, nil
}

// RenameUser changes the display name on the reward ledger
func (s *Service) RenameUser(name string) (*reward.Ledger, error) {
	name = sanitizeText(name)
	if name == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.db.GetLedger(s.timeSource.Now())
	if err != nil {
		return nil, fmt.Errorf("loading reward ledger: %w", err)
	}
	ledger.Username = name
	if err := s.db.SaveLedger(ledger); err != nil {
		return nil, fmt.Errorf("saving reward ledger: %w", err)
	}
	return ledger, nil
}
