package app

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/0xADE/ade-app-ctld/parser"
)

// Application is one row of a list response
type Application struct {
	Name  string // Entry name, used to run it
	Label string // Display text
}

// Response is a parsed daemon reply
type Response struct {
	Attrs map[string]string
	Body  []string
}

// Err returns the server-side error carried by the response, if any
func (r *Response) Err() error {
	errType, ok := r.Attrs["error"]
	if !ok {
		return nil
	}
	if desc := r.Attrs["desc"]; desc != "" {
		return fmt.Errorf("server error: %s: %s", errType, desc)
	}
	return fmt.Errorf("server error: %s", errType)
}

// Client handles connection to ade-app-ctld server
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
}

// NewClient connects to the server at socketPath
func NewClient(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to socket %s: %w", socketPath, err)
	}

	c, err := newClient(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func newClient(conn net.Conn) (*Client, error) {
	if _, err := io.WriteString(conn, parser.Header); err != nil {
		return nil, fmt.Errorf("failed to send header: %w", err)
	}
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// FormatArgument formats an argument according to its type
func FormatArgument(arg string) string {
	arg = strings.TrimSpace(arg)

	// If starts with ", it's a string (keep prefix)
	if strings.HasPrefix(arg, `"`) {
		return arg
	}

	// Check for boolean literals
	if arg == "t" || arg == "f" {
		return arg
	}

	// Check for recognized keywords (boolean operators)
	switch arg {
	case "or", "and", "not":
		return arg
	}

	// Check if it's numeric (all digits)
	if _, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return arg
	}

	// Default: treat as string (add prefix)
	return `"` + arg
}

// Do sends a command with type-detected arguments and reads the reply
func (c *Client) Do(cmdName string, args []string) (*Response, error) {
	formatted := make([]string, len(args))
	for i, arg := range args {
		formatted[i] = FormatArgument(arg)
	}
	return c.do(cmdName, formatted)
}

func (c *Client) do(cmdName string, rawArgs []string) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var req strings.Builder
	for _, arg := range rawArgs {
		req.WriteString(arg)
		req.WriteByte('\n')
	}
	req.WriteString(cmdName)
	req.WriteByte('\n')

	if _, err := io.WriteString(c.conn, req.String()); err != nil {
		return nil, fmt.Errorf("failed to send command: %w", err)
	}
	return c.readResponse()
}

// readResponse reads one reply: header, attrs up to a blank line, then
// list-len body lines when present.
func (c *Client) readResponse() (*Response, error) {
	header := make([]byte, len(parser.Header))
	if _, err := io.ReadFull(c.reader, header); err != nil {
		return nil, fmt.Errorf("failed to read response header: %w", err)
	}
	if string(header) != parser.Header {
		return nil, fmt.Errorf("unexpected response header: %q", header)
	}

	resp := &Response{Attrs: make(map[string]string)}
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if ok {
			resp.Attrs[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}

	n, _ := strconv.Atoi(resp.Attrs["list-len"])
	for i := 0; i < n; i++ {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		resp.Body = append(resp.Body, strings.TrimRight(line, "\n"))
	}

	return resp, nil
}

// List retrieves the applications matching the current filters
func (c *Client) List(all bool) ([]Application, error) {
	var args []string
	if all {
		args = []string{"t"}
	}
	resp, err := c.do("list", args)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	apps := make([]Application, 0, len(resp.Body))
	for _, line := range resp.Body {
		name, label, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		apps = append(apps, Application{
			Name:  parser.UnescapeField(name),
			Label: parser.UnescapeField(label),
		})
	}
	return apps, nil
}

// Run launches an application by entry name
func (c *Client) Run(name string) error {
	resp, err := c.do("run", []string{`"` + name})
	if err != nil {
		return err
	}
	return resp.Err()
}

// Reindex forces a rebuild and returns the number of indexed entries
func (c *Client) Reindex() (int, error) {
	resp, err := c.do("reindex", nil)
	if err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	return strconv.Atoi(resp.Attrs["indexed"])
}

// Status returns the daemon's cache statistics
func (c *Client) Status() (map[string]string, error) {
	resp, err := c.do("status", nil)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Attrs, nil
}

// FilterName adds a name filter, an empty query resets all filters
func (c *Client) FilterName(query string) error {
	if query == "" {
		return c.ResetFilters()
	}
	return c.filter("+filter-name", query)
}

// FilterCategory adds a category filter
func (c *Client) FilterCategory(category string) error {
	return c.filter("+filter-cat", category)
}

func (c *Client) filter(cmdName, value string) error {
	resp, err := c.do(cmdName, []string{`"` + value})
	if err != nil {
		return err
	}
	return resp.Err()
}

// ResetFilters resets all filters
func (c *Client) ResetFilters() error {
	resp, err := c.do("0filters", nil)
	if err != nil {
		return err
	}
	return resp.Err()
}
