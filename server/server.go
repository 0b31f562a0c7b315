package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/0xADE/ade-app-ctld/internal/indexer"
	"github.com/0xADE/ade-app-ctld/internal/launcher"
	"github.com/0xADE/ade-app-ctld/internal/runindex"
	"github.com/0xADE/ade-app-ctld/parser"
)

// Server handles Unix socket connections and command execution
type Server struct {
	listener net.Listener
	cache    *indexer.Cache
	launcher launcher.Launcher
	runs     *runindex.RunIndex
	terminal string
	logger   *log.Logger
	now      func() time.Time
	running  bool
	mu       sync.RWMutex
}

// Options configures optional server collaborators
type Options struct {
	Terminal string             // Terminal used for Terminal=true entries
	Runs     *runindex.RunIndex // Launch counters, nil disables ranking
	Logger   *log.Logger
}

// session holds per-connection state
type session struct {
	nameFilters []FilterExpr
	catFilters  []FilterExpr
}

// FilterExpr matches when any of its values matches
type FilterExpr struct {
	Values []string
}

// NewServer creates a server listening on socketPath
func NewServer(socketPath string, cache *indexer.Cache, l launcher.Launcher, opts Options) (*Server, error) {
	// Create directory if needed
	socketDir := filepath.Dir(socketPath)
	if err := os.MkdirAll(socketDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}

	// Remove existing socket if it exists
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", socketPath, err)
	}

	s := newServer(cache, l, opts)
	s.listener = listener
	return s, nil
}

func newServer(cache *indexer.Cache, l launcher.Launcher, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cache:    cache,
		launcher: l,
		runs:     opts.Runs,
		terminal: opts.Terminal,
		logger:   logger,
		now:      time.Now,
	}
}

// Start accepts connections until ctx is done or Stop is called
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.RLock()
			running := s.running
			s.mu.RUnlock()
			if !running {
				return nil
			}
			s.logger.Warn("accept failed", "err", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// Stop stops the server
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	return s.listener.Close()
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	s.logger.Debug("new connection accepted")

	p, err := parser.NewParser(conn)
	if err != nil {
		s.logger.Error("failed to create parser", "err", err)
		s.writeError(conn, "parser", "invalid header", err.Error())
		return
	}

	sess := &session{}
	for {
		cmd, err := p.ParseCommand()
		if err == io.EOF {
			s.logger.Debug("connection closed by client")
			break
		}
		if errors.Is(err, parser.ErrSyntax) {
			s.logger.Warn("parse error", "err", err)
			s.writeError(conn, "parser", "parse error", err.Error())
			continue
		}
		if err != nil {
			s.logger.Warn("connection read failed", "err", err)
			return
		}

		s.logger.Debug("executing command", "cmd", cmd.Name, "args", len(cmd.Args))
		s.executeCommand(conn, sess, cmd)
	}
}

func (s *Server) executeCommand(conn net.Conn, sess *session, cmd *parser.Command) {
	switch cmd.Name {
	case "+filter-name":
		s.handleFilterName(conn, sess, cmd)
	case "+filter-cat":
		s.handleFilterCat(conn, sess, cmd)
	case "0filters":
		s.handleResetFilters(conn, sess)
	case "list":
		s.handleList(conn, sess, cmd)
	case "run":
		s.handleRun(conn, cmd)
	case "reindex":
		s.handleReindex(conn, cmd)
	case "status":
		s.handleStatus(conn)
	default:
		s.writeError(conn, cmd.Name, "unknown command", "Command not recognized")
	}
}

func stringArgs(cmd *parser.Command) []string {
	var values []string
	for _, arg := range cmd.Args {
		if arg.Type == parser.TypeString {
			values = append(values, arg.Str)
		}
	}
	return values
}

func (s *Server) handleFilterName(conn net.Conn, sess *session, cmd *parser.Command) {
	if values := stringArgs(cmd); len(values) > 0 {
		sess.nameFilters = append(sess.nameFilters, FilterExpr{Values: values})
		s.logger.Debug("added name filter", "values", values)
	}
	s.writeResponse(conn, "cmd: +filter-name\nstatus: 0\n\n")
}

func (s *Server) handleFilterCat(conn net.Conn, sess *session, cmd *parser.Command) {
	if values := stringArgs(cmd); len(values) > 0 {
		sess.catFilters = append(sess.catFilters, FilterExpr{Values: values})
		s.logger.Debug("added category filter", "values", values)
	}
	s.writeResponse(conn, "cmd: +filter-cat\nstatus: 0\n\n")
}

func (s *Server) handleResetFilters(conn net.Conn, sess *session) {
	sess.nameFilters = nil
	sess.catFilters = nil
	s.writeResponse(conn, "cmd: 0filters\nstatus: 0\n\n")
}

func (s *Server) handleList(conn net.Conn, sess *session, cmd *parser.Command) {
	includeHidden := false
	for _, arg := range cmd.Args {
		if arg.Type == parser.TypeBool && arg.Str == "" {
			includeHidden = arg.Bool
		}
	}

	all := s.cache.Candidates()
	candidates := all
	if !includeHidden {
		candidates = indexer.Visible(candidates)
	}

	filtered := candidates[:0:0]
	for _, c := range candidates {
		if sess.matches(c) {
			filtered = append(filtered, c)
		}
	}
	s.rank(filtered)

	s.logger.Debug("list", "matched", len(filtered), "total", len(all))

	body := strings.Builder{}
	fmt.Fprintf(&body, "list-len: %d\n\n", len(filtered))
	for _, c := range filtered {
		fmt.Fprintf(&body, "%s\t%s\n", parser.EscapeField(c.Entry.Name), parser.EscapeField(c.Label))
	}
	s.writeResponse(conn, body.String())
}

// rank orders candidates by launch history: most launched first, then
// most recently launched. Entries never launched keep their label order.
func (s *Server) rank(candidates []indexer.Candidate) {
	if s.runs == nil || len(candidates) == 0 {
		return
	}
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Entry.ID
	}
	records := s.runs.Records(ids)
	if len(records) == 0 {
		return
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return records[candidates[j].Entry.ID].Before(records[candidates[i].Entry.ID])
	})
}

func (s *Server) handleRun(conn net.Conn, cmd *parser.Command) {
	if len(cmd.Args) == 0 || cmd.Args[0].Type != parser.TypeString {
		s.writeError(conn, "run", "missing name", "run command requires an entry name")
		return
	}
	name := cmd.Args[0].Str

	entry, ok := s.cache.Index().Get(name)
	if !ok {
		s.logger.Warn("run: entry not found", "name", name)
		s.writeError(conn, "run", "entry not found", "Can't run application, requested entry not found.")
		return
	}

	cmdline := launcher.CommandLine(entry, s.terminal)
	if cmdline == "" {
		s.writeError(conn, "run", "invalid exec", "Empty exec command")
		return
	}

	s.logger.Info("launching", "name", name, "cmd", cmdline)
	s.launcher.Launch(cmdline)

	if s.runs != nil {
		if err := s.runs.RecordLaunch(entry.ID, s.now()); err != nil {
			s.logger.Warn("failed to record launch", "name", name, "id", entry.ID, "err", err)
		}
	}

	s.writeResponse(conn, fmt.Sprintf("cmd: run\nname: %s\nstatus: 0\n\n", name))
}

func (s *Server) handleReindex(conn net.Conn, cmd *parser.Command) {
	if len(cmd.Args) > 0 {
		s.writeError(conn, "reindex", "invalid argument", "reindex takes no arguments")
		return
	}

	s.cache.Invalidate()
	snap := s.cache.Index()

	s.writeResponse(conn, fmt.Sprintf("cmd: reindex\nstatus: 0\nindexed: %d\n\n", snap.Count()))
}

func (s *Server) handleStatus(conn net.Conn) {
	st := s.cache.Stats()

	builtAt := "never"
	if !st.BuiltAt.IsZero() {
		builtAt = st.BuiltAt.Format(time.RFC3339)
	}

	attrs := fmt.Sprintf("cmd: status\nstatus: 0\nrebuilds: %d\nparsed: %d\nfiles: %d\nentries: %d\nfaults: %d\nbuilt-at: %s\n\n",
		st.Rebuilds, st.Parsed, st.Files, st.Entries, st.Faults, builtAt)
	s.writeResponse(conn, attrs)
}

func (sess *session) matches(c indexer.Candidate) bool {
	if len(sess.nameFilters) > 0 && !anyFilter(sess.nameFilters, c, matchesName) {
		return false
	}
	if len(sess.catFilters) > 0 && !anyFilter(sess.catFilters, c, matchesCategory) {
		return false
	}
	return true
}

func anyFilter(filters []FilterExpr, c indexer.Candidate, match func(indexer.Candidate, string) bool) bool {
	for _, filter := range filters {
		for _, value := range filter.Values {
			if match(c, value) {
				return true
			}
		}
	}
	return false
}

func matchesName(c indexer.Candidate, value string) bool {
	return strings.Contains(strings.ToLower(c.Label), strings.ToLower(value))
}

func matchesCategory(c indexer.Candidate, value string) bool {
	for _, cat := range c.Entry.Categories {
		if strings.EqualFold(cat, value) {
			return true
		}
	}
	return false
}

// writeResponse writes a response with TXT01 header
func (s *Server) writeResponse(conn net.Conn, response string) {
	if _, err := io.WriteString(conn, parser.Header+response); err != nil {
		s.logger.Error("failed to write response", "err", err)
	}
}

func (s *Server) writeError(conn net.Conn, cmd, errType, desc string) {
	s.logger.Debug("writing error response", "cmd", cmd, "type", errType, "desc", desc)
	s.writeResponse(conn, fmt.Sprintf("error-cmd: %s\nerror: %s\ndesc: %s\n\n", cmd, errType, desc))
}
