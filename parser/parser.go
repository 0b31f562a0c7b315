package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Header opens every request and response: format TXT, version 01
const Header = "TXT01"

// ErrSyntax marks a malformed request line. The connection stays usable,
// any other error from ParseCommand means the stream is gone.
var ErrSyntax = errors.New("syntax error")

// ValueType represents the type of a value on the stack
type ValueType int

const (
	TypeString ValueType = iota
	TypeInt
	TypeBool
)

// Value represents a value on the stack
type Value struct {
	Type ValueType
	Str  string
	Int  int64
	Bool bool
}

// Command represents a parsed command
type Command struct {
	Name string
	Args []Value
}

// Parser parses Forth-style commands: values are pushed one per line,
// a command word consumes everything pushed before it.
type Parser struct {
	reader  *bufio.Reader
	header  string
	version string
}

// NewParser creates a new parser
func NewParser(reader io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(reader),
	}

	// Read header
	headerBytes := make([]byte, 5)
	if n, err := io.ReadFull(p.reader, headerBytes); err != nil || n != 5 {
		return nil, fmt.Errorf("invalid header")
	}

	p.header = string(headerBytes[:3])
	p.version = string(headerBytes[3:5])

	if p.header != "TXT" {
		return nil, fmt.Errorf("unsupported format: %s", p.header)
	}

	return p, nil
}

// ParseCommand parses the next command from input
func (p *Parser) ParseCommand() (*Command, error) {
	stack := make([]Value, 0)

	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read command: %w", err)
		}
		eof := err == io.EOF

		line = strings.TrimSpace(line)

		// Skip empty lines and comments
		if line != "" && !strings.HasPrefix(line, "#") {
			// Check if it's a command
			if cmd := parseCommand(line); cmd != "" {
				// Return command with current stack
				return &Command{
					Name: cmd,
					Args: stack,
				}, nil
			}

			// Otherwise, parse as value and push to stack
			value, err := parseValue(line)
			if err != nil {
				return nil, err
			}
			stack = append(stack, value)
		}

		// Values without a command are dropped
		if eof {
			return nil, io.EOF
		}
	}
}

// Commands lists the command words understood by the daemon
var Commands = []string{
	"+filter-name",
	"+filter-cat",
	"0filters",
	"list",
	"run",
	"reindex",
	"status",
}

func parseCommand(line string) string {
	line = strings.TrimSpace(line)

	for _, cmd := range Commands {
		if line == cmd {
			return cmd
		}
	}

	return ""
}

func parseValue(line string) (Value, error) {
	line = strings.TrimSpace(line)

	// String value (prefixed with ")
	if after, ok := strings.CutPrefix(line, `"`); ok {
		str := after
		return Value{Type: TypeString, Str: str}, nil
	}

	// Boolean literals (t/f)
	switch line {
	case "t":
		return Value{Type: TypeBool, Bool: true}, nil
	case "f":
		return Value{Type: TypeBool, Bool: false}, nil
	}

	// Boolean operators (keywords)
	switch line {
	case "or":
		return Value{Type: TypeBool, Bool: true, Str: "or"}, nil // true = OR operation
	case "and":
		return Value{Type: TypeBool, Bool: false, Str: "and"}, nil // false = AND operation
	case "not":
		return Value{Type: TypeBool, Bool: false, Str: "not"}, nil // NOT operation
	}

	// Try parsing as integer (must be all digits)
	if intVal, err := strconv.ParseInt(line, 10, 64); err == nil {
		return Value{Type: TypeInt, Int: intVal}, nil
	}

	return Value{}, fmt.Errorf("%w: cannot parse value: %s", ErrSyntax, line)
}

// ReadAllCommands reads all commands from the parser
func (p *Parser) ReadAllCommands() ([]*Command, error) {
	var commands []*Command

	for {
		cmd, err := p.ParseCommand()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}

	return commands, nil
}

var fieldEscaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`)

// EscapeField encodes s for a tab-separated response row
func EscapeField(s string) string {
	return fieldEscaper.Replace(s)
}

// UnescapeField reverses EscapeField. Unknown escapes are kept as is.
func UnescapeField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(s[i])
			continue
		}
		i++
	}
	return b.String()
}
