package reward

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("Redeem", func() {
	var (
		ledger *Ledger
		cash   decimal.Decimal
		err    error
	)

	BeforeEach(func() {
		ledger = NewLedger(joined)
		ledger.Badges = []string{BadgeScannerPro}
		ledger.LoginStreak = 8
		ledger.TotalScans = 12
	})

	JustBeforeEach(func() {
		cash, err = Redeem(ledger)
	})

	When("the ledger has 250 points", func() {
		BeforeEach(func() {
			ledger.Points = 250
		})

		It("should return 12.50", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(cash.StringFixed(2)).To(Equal("12.50"))
		})

		It("should reset points and level", func() {
			Expect(ledger.Points).To(BeZero())
			Expect(ledger.Level()).To(Equal(Bronze))
		})

		It("should keep badges and streaks", func() {
			Expect(ledger.Badges).To(Equal([]string{BadgeScannerPro}))
			Expect(ledger.LoginStreak).To(Equal(8))
			Expect(ledger.TotalScans).To(Equal(12))
		})
	})

	When("the ledger has exactly the minimum", func() {
		BeforeEach(func() {
			ledger.Points = MinRedeemPoints
		})

		It("should redeem", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(cash.StringFixed(2)).To(Equal("5.00"))
		})
	})

	When("the ledger has 50 points", func() {
		BeforeEach(func() {
			ledger.Points = 50
		})

		It("returns ErrInsufficientPoints", func() {
			Expect(errors.Is(err, ErrInsufficientPoints)).To(BeTrue())
		})

		It("should leave the ledger unchanged", func() {
			Expect(ledger.Points).To(Equal(50))
			Expect(cash.IsZero()).To(BeTrue())
		})
	})
})

var _ = Describe("CashBack", func() {
	DescribeTable("rates",
		func(points int, want string) {
			Expect(CashBack(points).StringFixed(2)).To(Equal(want))
		},
		Entry("zero", 0, "0.00"),
		Entry("odd points", 123, "6.15"),
		Entry("platinum", 1001, "50.05"),
	)
})

var _ = Describe("ProgressFor", func() {
	DescribeTable("progress",
		func(points int, level Level, next Level, pct float64, toNext int) {
			p := ProgressFor(points)
			Expect(p.Level).To(Equal(level))
			Expect(p.NextLevel).To(Equal(next))
			Expect(p.Percent).To(BeNumerically("~", pct, 0.0001))
			Expect(p.PointsToNext).To(Equal(toNext))
			Expect(p.MaxLevel).To(BeFalse())
		},
		Entry("start of bronze", 0, Bronze, Silver, 0.0, 100),
		Entry("end of bronze", 99, Bronze, Silver, 99.0, 1),
		Entry("start of silver", 100, Silver, Gold, 0.0, 400),
		Entry("mid silver", 300, Silver, Gold, 50.0, 200),
		Entry("mid gold", 750, Gold, Platinum, 50.0, 250),
	)

	It("should report max level for platinum", func() {
		p := ProgressFor(1500)
		Expect(p.Level).To(Equal(Platinum))
		Expect(p.MaxLevel).To(BeTrue())
		Expect(p.Percent).To(Equal(100.0))
		Expect(p.PointsToNext).To(BeZero())
	})
})

var _ = Describe("Stats", func() {
	It("should summarise the ledger", func() {
		l := NewLedger(joined)
		l.Points = 240
		l.Badges = []string{BadgeFirstSteps, BadgeMoneyMaker}
		l.TotalScans = 2
		s := l.Stats()
		Expect(s.Level).To(Equal(Silver))
		Expect(s.BadgeCount).To(Equal(2))
		Expect(s.CashbackAvailable.StringFixed(2)).To(Equal("12.00"))
		Expect(s.JoinDate).To(Equal("2024-03-01"))
		Expect(s.TotalScans).To(Equal(2))
	})
})
