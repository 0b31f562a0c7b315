package desktop

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.DescribeTable("CleanExec",
	func(exec, want string) {
		gomega.Expect(CleanExec(exec)).To(gomega.Equal(want))
	},
	ginkgo.Entry("file and url codes", "foo %U --flag %f", "foo --flag"),
	ginkgo.Entry("no codes", "firefox --new-window", "firefox --new-window"),
	ginkgo.Entry("all four codes", "app %u %U %f %F", "app"),
	ginkgo.Entry("code inside a token", "app --open=%u", "app --open="),
	ginkgo.Entry("extra whitespace", "  app   -x  ", "app -x"),
	ginkgo.Entry("empty", "", ""),
)

var _ = ginkgo.Describe("Entry.CleanExec", func() {
	ginkgo.It("should clean the raw Exec value", func() {
		e := Entry{Name: "Foo", Exec: "foo %U"}
		gomega.Expect(e.CleanExec()).To(gomega.Equal("foo"))
		gomega.Expect(e.Exec).To(gomega.Equal("foo %U"))
	})
})
