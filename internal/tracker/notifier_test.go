package tracker

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NotificationFeed", func() {
	var feed *NotificationFeed

	BeforeEach(func() {
		feed = NewNotificationFeed(3)
	})

	It("should drain messages oldest first", func() {
		feed.Notify("first")
		feed.Notify("second")

		drained := feed.Drain()
		Expect(drained).To(HaveLen(2))
		Expect(drained[0].Message).To(Equal("first"))
		Expect(drained[1].Message).To(Equal("second"))
		Expect(feed.Drain()).To(BeEmpty())
	})

	It("should drop the oldest message when full", func() {
		for i := 1; i <= 5; i++ {
			feed.Notify(fmt.Sprintf("message %d", i))
		}

		drained := feed.Drain()
		Expect(drained).To(HaveLen(3))
		Expect(drained[0].Message).To(Equal("message 3"))
		Expect(drained[2].Message).To(Equal("message 5"))
	})

	It("should default the capacity", func() {
		feed = NewNotificationFeed(0)
		for i := 0; i < 60; i++ {
			feed.Notify("x")
		}
		Expect(feed.Drain()).To(HaveLen(50))
	})
})
