package tracker

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("sanitize", func() {
	DescribeTable("sanitizeText",
		func(in, want string) {
			Expect(sanitizeText(in)).To(Equal(want))
		},
		Entry("plain text", "Groceries", "Groceries"),
		Entry("markup", "<b>Coffee</b> & cake", "Coffee & cake"),
		Entry("scripts", `<script>alert("x")</script>`, ""),
		Entry("whitespace", "  rent \n\t July ", "rent July"),
	)

	DescribeTable("sanitizeFilename",
		func(in, want string) {
			Expect(sanitizeFilename(in)).To(Equal(want))
		},
		Entry("simple", "receipt.jpg", "receipt.jpg"),
		Entry("upper case extension", "IMG_0042.HEIC", "IMG_0042.heic"),
		Entry("unsafe characters", "rent (july)!.pdf", "rent july.pdf"),
		Entry("path components", "../../etc/passwd", "passwd"),
		Entry("nothing left", "???.png", "document.png"),
	)

	It("should cap the base name length", func() {
		name := sanitizeFilename(strings.Repeat("a", 80) + ".pdf")
		Expect(name).To(Equal(strings.Repeat("a", 50) + ".pdf"))
	})
})
