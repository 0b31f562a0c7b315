package parser

import (
	"errors"
	"io"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseCommand", func() {
	var (
		input    string
		reader   *strings.Reader
		parser   *Parser
		cmd      *Command
		parseErr error
	)

	JustBeforeEach(func() {
		reader = strings.NewReader(input)
		parser, parseErr = NewParser(reader)
		Expect(parseErr).NotTo(HaveOccurred())

		cmd, parseErr = parser.ParseCommand()
		Expect(parseErr).NotTo(HaveOccurred())
	})

	Context("when parsing reindex command with arguments", func() {
		BeforeEach(func() {
			input = `TXT01
"~/bin
"~/apps
reindex
`
		})

		It("should parse command name correctly", func() {
			Expect(cmd.Name).To(Equal("reindex"))
		})

		It("should parse two arguments", func() {
			Expect(cmd.Args).To(HaveLen(2))
		})

		It("should parse first argument as string ~/bin", func() {
			Expect(cmd.Args[0].Type).To(Equal(TypeString))
			Expect(cmd.Args[0].Str).To(Equal("~/bin"))
		})

		It("should parse second argument as string ~/apps", func() {
			Expect(cmd.Args[1].Type).To(Equal(TypeString))
			Expect(cmd.Args[1].Str).To(Equal("~/apps"))
		})
	})

	Context("when parsing reindex command without arguments", func() {
		BeforeEach(func() {
			input = `TXT01
reindex
`
		})

		It("should parse command name correctly", func() {
			Expect(cmd.Name).To(Equal("reindex"))
		})

		It("should have no arguments", func() {
			Expect(cmd.Args).To(HaveLen(0))
		})
	})

	Context("when parsing run with an entry name", func() {
		BeforeEach(func() {
			input = `TXT01
"Text Editor
run
`
		})

		It("should keep spaces in the string argument", func() {
			Expect(cmd.Name).To(Equal("run"))
			Expect(cmd.Args).To(HaveLen(1))
			Expect(cmd.Args[0].Type).To(Equal(TypeString))
			Expect(cmd.Args[0].Str).To(Equal("Text Editor"))
		})
	})

	Context("when parsing list with a boolean flag", func() {
		BeforeEach(func() {
			input = "TXT01t\nlist\n"
		})

		It("should parse the flag", func() {
			Expect(cmd.Name).To(Equal("list"))
			Expect(cmd.Args).To(HaveLen(1))
			Expect(cmd.Args[0].Type).To(Equal(TypeBool))
			Expect(cmd.Args[0].Bool).To(BeTrue())
		})
	})

	Context("when the last command has no trailing newline", func() {
		BeforeEach(func() {
			input = "TXT01# comment\n\nstatus"
		})

		It("should still parse it", func() {
			Expect(cmd.Name).To(Equal("status"))
			Expect(cmd.Args).To(BeEmpty())
		})
	})
})

var _ = Describe("Parser errors", func() {
	It("should reject an unknown header", func() {
		_, err := NewParser(strings.NewReader("BIN01list\n"))
		Expect(err).To(MatchError(ContainSubstring("unsupported format")))
	})

	It("should reject a short header", func() {
		_, err := NewParser(strings.NewReader("TX"))
		Expect(err).To(HaveOccurred())
	})

	It("should reject values it cannot parse", func() {
		p, err := NewParser(strings.NewReader("TXT01bogus\nlist\n"))
		Expect(err).NotTo(HaveOccurred())
		_, err = p.ParseCommand()
		Expect(err).To(MatchError(ContainSubstring("cannot parse value")))
		Expect(err).To(MatchError(ErrSyntax))
	})

	It("should keep reading after a syntax error", func() {
		p, err := NewParser(strings.NewReader("TXT01bogus\nlist\n"))
		Expect(err).NotTo(HaveOccurred())
		_, err = p.ParseCommand()
		Expect(err).To(MatchError(ErrSyntax))

		cmd, err := p.ParseCommand()
		Expect(err).NotTo(HaveOccurred())
		Expect(cmd.Name).To(Equal("list"))
	})

	It("should not report a failing reader as a syntax error", func() {
		p, err := NewParser(io.MultiReader(strings.NewReader("TXT01"), iotest.ErrReader(errors.New("connection reset by peer"))))
		Expect(err).NotTo(HaveOccurred())
		_, err = p.ParseCommand()
		Expect(err).To(MatchError(ContainSubstring("connection reset by peer")))
		Expect(err).NotTo(MatchError(ErrSyntax))
	})

	It("should return EOF for dangling values", func() {
		p, err := NewParser(strings.NewReader("TXT01\"dangling\n"))
		Expect(err).NotTo(HaveOccurred())
		_, err = p.ParseCommand()
		Expect(err).To(Equal(io.EOF))
	})

	It("should read every command", func() {
		p, err := NewParser(strings.NewReader("TXT01list\n\"Foo\nrun\n"))
		Expect(err).NotTo(HaveOccurred())
		cmds, err := p.ReadAllCommands()
		Expect(err).NotTo(HaveOccurred())
		Expect(cmds).To(HaveLen(2))
		Expect(cmds[0].Name).To(Equal("list"))
		Expect(cmds[1].Name).To(Equal("run"))
	})
})

var _ = Describe("Field escaping", func() {
	DescribeTable("should round trip",
		func(raw, escaped string) {
			Expect(EscapeField(raw)).To(Equal(escaped))
			Expect(UnescapeField(escaped)).To(Equal(raw))
		},
		Entry("plain text", "Editor - Edit text", "Editor - Edit text"),
		Entry("a tab", "Tab\tName", `Tab\tName`),
		Entry("a newline", "two\nlines", `two\nlines`),
		Entry("a backslash before t", `C:\temp`, `C:\\temp`),
	)

	It("should keep unknown escapes", func() {
		Expect(UnescapeField(`a\qb\`)).To(Equal(`a\qb\`))
	})

	It("should never leave a raw tab", func() {
		Expect(EscapeField("a\tb\tc")).NotTo(ContainSubstring("\t"))
	})
})
