package config

import (
	"bufio"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
)

const appsrc = "~/.config/ade/appctld.rc"

var (
	globalConfig *config
	once         sync.Once
)

type config struct {
	static  env
	dynamic rc
	rcPath  string
	watcher *fsnotify.Watcher
}

type (
	env struct {
		Path       string `envconfig:"PATH"`
		DataHome   string `envconfig:"XDG_DATA_HOME"`
		DataDirs   string `envconfig:"XDG_DATA_DIRS" default:"/usr/local/share:/usr/share"`
		Terminal   string `envconfig:"ADE_DEFAULT_TERM"`
		UnixSocket string `envconfig:"ADE_APPCTLD_SOCK"`
		Shell      string `envconfig:"ADE_APPCTLD_SHELL" default:"/bin/sh"`
		LogLevel   string `envconfig:"ADE_APPCTLD_LOG_LEVEL" default:"info"`
	}
	rc struct {
		sync.RWMutex
		extraRoots []string
	}
)

// Init initializes and loads configuration
func Init() error {
	var err error
	once.Do(func() {
		globalConfig, err = newConfig(expandPath(appsrc))
	})
	return err
}

func newConfig(rcPath string) (*config, error) {
	c := &config{rcPath: rcPath}

	// Load environment variables
	if err := envconfig.Process("", &c.static); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	// Set default socket path if not provided
	if c.static.UnixSocket == "" {
		currentUser, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("failed to get current user: %w", err)
		}
		c.static.UnixSocket = fmt.Sprintf("/tmp/ade-%s/appctld", currentUser.Uid)
	}
	c.static.UnixSocket = expandPath(c.static.UnixSocket)

	if err := c.loadRC(); err != nil {
		return nil, err
	}
	return c, nil
}

// Run starts the configuration watcher loop
func Run(logger *log.Logger) error {
	if globalConfig == nil {
		if err := Init(); err != nil {
			return err
		}
	}

	if err := globalConfig.setupWatcher(); err != nil {
		return err
	}
	go globalConfig.watchLoop(logger)
	return nil
}

// Get returns the global config instance
func Get() *config {
	if globalConfig == nil {
		Init()
	}
	return globalConfig
}

func (c *config) loadRC() error {
	// Create directory if it doesn't exist
	rcDir := filepath.Dir(c.rcPath)
	if err := os.MkdirAll(rcDir, 0750); err != nil {
		return err
	}

	// Try to read rc file
	file, err := os.Open(c.rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create empty file
			file, err = os.Create(c.rcPath)
			if err != nil {
				return err
			}
			file.Close()
			return nil
		}
		return err
	}
	defer file.Close()

	var roots []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		roots = append(roots, expandPath(line))
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	c.dynamic.Lock()
	defer c.dynamic.Unlock()
	c.dynamic.extraRoots = roots
	return nil
}

func (c *config) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory, editors replace the file on save
	if err := watcher.Add(filepath.Dir(c.rcPath)); err != nil {
		watcher.Close()
		return err
	}

	c.watcher = watcher
	return nil
}

func (c *config) watchLoop(logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Name == c.rcPath && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				if err := c.loadRC(); err != nil {
					logger.Error("error reloading config", "path", c.rcPath, "err", err)
					continue
				}
				logger.Info("config reloaded", "path", c.rcPath, "roots", len(c.ExtraRoots()))
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("config watcher error", "err", err)
		}
	}
}

// Close stops the rc file watcher
func (c *config) Close() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Close()
}

// Path returns the executable search path
func (c *config) Path() []string {
	return splitList(c.static.Path)
}

// SearchRoots returns the application directories in precedence order:
// the user data home, the system data dirs, then extra roots from the rc file.
func (c *config) SearchRoots() []string {
	dataHome := c.static.DataHome
	if dataHome == "" {
		dataHome = expandPath("~/.local/share")
	}

	roots := []string{filepath.Join(dataHome, "applications")}
	for _, dir := range splitList(c.static.DataDirs) {
		roots = append(roots, filepath.Join(expandPath(dir), "applications"))
	}
	roots = append(roots, c.ExtraRoots()...)

	seen := make(map[string]struct{}, len(roots))
	result := roots[:0]
	for _, root := range roots {
		if _, dup := seen[root]; dup {
			continue
		}
		seen[root] = struct{}{}
		result = append(result, root)
	}
	return result
}

// ExtraRoots returns the search roots listed in the rc file
func (c *config) ExtraRoots() []string {
	c.dynamic.RLock()
	defer c.dynamic.RUnlock()
	return append([]string(nil), c.dynamic.extraRoots...)
}

// Terminal returns the default terminal command
func (c *config) Terminal() string {
	if c.static.Terminal != "" {
		return c.static.Terminal
	}
	return "xterm" // Ultimate fallback
}

// Shell returns the shell used to launch applications
func (c *config) Shell() string {
	return c.static.Shell
}

// UnixSocket returns the Unix socket path
func (c *config) UnixSocket() string {
	return c.static.UnixSocket
}

// LogLevel returns the configured log level, info when unparsable
func (c *config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.static.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func splitList(list string) []string {
	parts := strings.Split(list, ":")
	filtered := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func expandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}
