package launcher

import (
	"os/exec"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/0xADE/ade-app-ctld/internal/indexer/desktop"
)

// Launcher starts a command line and does not wait for it
type Launcher interface {
	Launch(cmdline string)
}

// Func adapts a plain function to Launcher
type Func func(cmdline string)

// Launch calls f
func (f Func) Launch(cmdline string) { f(cmdline) }

// Shell runs command lines through a shell in a new session
type Shell struct {
	shell  string
	logger *log.Logger
}

// NewShell creates a launcher using shell -c
func NewShell(shell string, logger *log.Logger) *Shell {
	if shell == "" {
		shell = "/bin/sh"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Shell{shell: shell, logger: logger}
}

// Launch starts cmdline detached. Start failures are logged only.
func (s *Shell) Launch(cmdline string) {
	if cmdline == "" {
		s.logger.Warn("refusing to launch empty command")
		return
	}

	cmd := exec.Command(s.shell, "-c", cmdline)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := cmd.Start(); err != nil {
		s.logger.Error("failed to start command", "cmd", cmdline, "err", err)
		return
	}
	s.logger.Debug("command started", "cmd", cmdline, "pid", cmd.Process.Pid)

	// Reap the child, its exit status is not reported
	go func() {
		_ = cmd.Wait()
	}()
}

// CommandLine returns the shell command line for an entry. Terminal entries
// are wrapped with term -e.
func CommandLine(e desktop.Entry, term string) string {
	cmdline := e.CleanExec()
	if e.Terminal && term != "" && cmdline != "" {
		return term + " -e " + cmdline
	}
	return cmdline
}
