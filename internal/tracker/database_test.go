package tracker

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.etcd.io/bbolt"

	"github.com/zombor/finance-tracker/internal/reward"
)

var _ = Describe("BoltDB", func() {
	var (
		db  *BoltDB
		now time.Time
	)

	BeforeEach(func() {
		var err error
		db, err = NewBoltDB(filepath.Join(GinkgoT().TempDir(), "test.db"))
		Expect(err).NotTo(HaveOccurred())
		now = time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newTransaction := func(id string, kind reward.TransactionKind, amount string) *Transaction {
		return &Transaction{
			ID:          id,
			Description: "tx " + id,
			Amount:      money(amount),
			Type:        kind,
			Category:    "other",
			Date:        now,
		}
	}

	Describe("transactions", func() {
		It("should round-trip a transaction", func() {
			Expect(db.CommitTransaction(newTransaction("a", reward.Expense, "19.99"), nil)).To(Succeed())

			saved, err := db.GetTransaction("a")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Amount.StringFixed(2)).To(Equal("19.99"))
			Expect(saved.Type).To(Equal(reward.Expense))
			Expect(saved.Date.Equal(now)).To(BeTrue())
		})

		It("should list transactions in the order they were recorded", func() {
			for _, id := range []string{"z", "a", "m"} {
				Expect(db.CommitTransaction(newTransaction(id, reward.Expense, "1"), nil)).To(Succeed())
			}

			transactions, err := db.ListTransactions()
			Expect(err).NotTo(HaveOccurred())
			Expect(transactions).To(HaveLen(3))
			Expect([]string{transactions[0].ID, transactions[1].ID, transactions[2].ID}).To(Equal([]string{"z", "a", "m"}))
		})

		It("should update an existing transaction in place", func() {
			Expect(db.CommitTransaction(newTransaction("a", reward.Expense, "1"), nil)).To(Succeed())
			Expect(db.CommitTransaction(newTransaction("b", reward.Expense, "2"), nil)).To(Succeed())
			Expect(db.CommitTransaction(newTransaction("a", reward.Expense, "3"), nil)).To(Succeed())

			transactions, err := db.ListTransactions()
			Expect(err).NotTo(HaveOccurred())
			Expect(transactions).To(HaveLen(2))
			Expect(transactions[0].ID).To(Equal("a"))
			Expect(transactions[0].Amount.String()).To(Equal("3"))
		})

		It("should count all and income transactions", func() {
			Expect(db.CommitTransaction(newTransaction("a", reward.Income, "100"), nil)).To(Succeed())
			Expect(db.CommitTransaction(newTransaction("b", reward.Expense, "5"), nil)).To(Succeed())
			Expect(db.CommitTransaction(newTransaction("c", reward.Expense, "6"), nil)).To(Succeed())

			total, income, err := db.CountTransactions()
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(3))
			Expect(income).To(Equal(1))
		})

		It("should delete a transaction", func() {
			Expect(db.CommitTransaction(newTransaction("a", reward.Expense, "1"), nil)).To(Succeed())
			Expect(db.DeleteTransaction("a")).To(Succeed())

			_, err := db.GetTransaction("a")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("returns not found for missing transactions", func() {
			_, err := db.GetTransaction("missing")
			Expect(err).To(MatchError(ErrNotFound))
			Expect(db.DeleteTransaction("missing")).To(MatchError(ErrNotFound))
		})

		It("should clear every transaction and keep the ledger", func() {
			ledger := reward.NewLedger(now)
			ledger.Points = 25
			Expect(db.CommitTransaction(newTransaction("a", reward.Expense, "1"), ledger)).To(Succeed())
			Expect(db.CommitTransaction(newTransaction("b", reward.Income, "2"), nil)).To(Succeed())

			Expect(db.ClearTransactions()).To(Succeed())

			transactions, err := db.ListTransactions()
			Expect(err).NotTo(HaveOccurred())
			Expect(transactions).To(BeEmpty())
			_, err = db.GetTransaction("a")
			Expect(err).To(MatchError(ErrNotFound))

			loaded, err := db.GetLedger(now)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Points).To(Equal(25))

			Expect(db.CommitTransaction(newTransaction("c", reward.Expense, "4"), nil)).To(Succeed())
			transactions, err = db.ListTransactions()
			Expect(err).NotTo(HaveOccurred())
			Expect(transactions).To(HaveLen(1))
		})

		It("should return an empty list when there are none", func() {
			transactions, err := db.ListTransactions()
			Expect(err).NotTo(HaveOccurred())
			Expect(transactions).NotTo(BeNil())
			Expect(transactions).To(BeEmpty())
		})
	})

	Describe("goals", func() {
		It("should list goals oldest first", func() {
			Expect(db.SaveGoal(&Goal{ID: "b", Name: "Car", Amount: money("5000"), CreatedAt: now.Add(time.Hour)})).To(Succeed())
			Expect(db.SaveGoal(&Goal{ID: "a", Name: "Trip", Amount: money("500"), CreatedAt: now})).To(Succeed())

			goals, err := db.ListGoals()
			Expect(err).NotTo(HaveOccurred())
			Expect(goals).To(HaveLen(2))
			Expect(goals[0].Name).To(Equal("Trip"))
		})

		It("should persist completion", func() {
			completed := now.Add(24 * time.Hour)
			Expect(db.SaveGoal(&Goal{ID: "a", Name: "Trip", Amount: money("500"), CreatedAt: now, CompletedAt: &completed})).To(Succeed())

			goal, err := db.GetGoal("a")
			Expect(err).NotTo(HaveOccurred())
			Expect(goal.Completed()).To(BeTrue())
		})

		It("should delete a goal", func() {
			Expect(db.SaveGoal(&Goal{ID: "a", Name: "Trip", Amount: money("500"), CreatedAt: now})).To(Succeed())
			Expect(db.DeleteGoal("a")).To(Succeed())

			_, err := db.GetGoal("a")
			Expect(err).To(MatchError(ErrNotFound))
			Expect(db.DeleteGoal("a")).To(MatchError(ErrNotFound))
		})
	})

	Describe("reward ledger", func() {
		It("should return a default ledger when none is stored", func() {
			ledger, err := db.GetLedger(now)
			Expect(err).NotTo(HaveOccurred())
			Expect(ledger.Username).To(Equal(reward.DefaultUsername))
			Expect(ledger.Points).To(BeZero())
			Expect(ledger.JoinDate.Equal(now)).To(BeTrue())
		})

		It("should round-trip the ledger", func() {
			ledger := reward.NewLedger(now)
			ledger.Points = 320
			ledger.Badges = []string{reward.BadgeFirstSteps, reward.BadgeScannerPro}
			ledger.LastLoginDate = "2024-03-20"
			Expect(db.SaveLedger(ledger)).To(Succeed())

			loaded, err := db.GetLedger(now.Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Points).To(Equal(320))
			Expect(loaded.Level()).To(Equal(reward.Silver))
			Expect(loaded.Badges).To(Equal(ledger.Badges))
			Expect(loaded.LastLoginDate).To(Equal("2024-03-20"))
		})

		When("the stored ledger is corrupt", func() {
			BeforeEach(func() {
				err := db.db.Update(func(btx *bbolt.Tx) error {
					return btx.Bucket([]byte(rewardBucketName)).Put(ledgerKey, []byte("{not json"))
				})
				Expect(err).NotTo(HaveOccurred())
			})

			It("should fall back to a default ledger", func() {
				ledger, err := db.GetLedger(now)
				Expect(err).NotTo(HaveOccurred())
				Expect(ledger.Points).To(BeZero())
				Expect(ledger.Badges).To(BeEmpty())
			})
		})

		It("should commit a transaction and the ledger together", func() {
			ledger := reward.NewLedger(now)
			ledger.Points = 15
			Expect(db.CommitTransaction(newTransaction("cash", reward.Income, "12.50"), ledger)).To(Succeed())

			loaded, err := db.GetLedger(now)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Points).To(Equal(15))

			saved, err := db.GetTransaction("cash")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Type).To(Equal(reward.Income))
		})

		It("should leave the ledger alone when none is given", func() {
			ledger := reward.NewLedger(now)
			ledger.Points = 40
			Expect(db.SaveLedger(ledger)).To(Succeed())

			Expect(db.CommitTransaction(newTransaction("a", reward.Expense, "3"), nil)).To(Succeed())

			loaded, err := db.GetLedger(now)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Points).To(Equal(40))
		})
	})

	It("should reopen an existing database", func() {
		path := filepath.Join(GinkgoT().TempDir(), "reopen.db")
		first, err := NewBoltDB(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.CommitTransaction(newTransaction("a", reward.Expense, "1"), nil)).To(Succeed())
		Expect(first.Close()).To(Succeed())

		second, err := NewBoltDB(path)
		Expect(err).NotTo(HaveOccurred())
		defer second.Close()
		transactions, err := second.ListTransactions()
		Expect(err).NotTo(HaveOccurred())
		Expect(transactions).To(HaveLen(1))
	})
})
