package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/bcaptain404/EtsyScraper/internal/config"
	"github.com/bcaptain404/EtsyScraper/internal/processes"
	"github.com/spf13/cobra"
)

var defaultKillSignal = syscall.Signal(syscall.SIGTERM)

type killSettings struct {
	Signal      syscall.Signal
	SignalLabel string
	Timeout     time.Duration
}

// parseSignal accepts a signal number or a name like TERM or SIGHUP.
// Name lookup is platform-specific; see signalByName.
func parseSignal(spec string) (syscall.Signal, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, fmt.Errorf("missing signal")
	}
	if n, err := strconv.Atoi(spec); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("signal must be positive (got %d)", n)
		}
		return syscall.Signal(n), nil
	}
	name := strings.ToUpper(spec)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	sig, ok := signalByName(name)
	if !ok {
		return 0, fmt.Errorf("unknown signal %q", spec)
	}
	return sig, nil
}

// describeSignal renders a signal for the kill confirmation lines.
func describeSignal(sig syscall.Signal) string {
	if name := signalName(sig); name != "" {
		return fmt.Sprintf("%s (%d)", name, sig)
	}
	return fmt.Sprintf("signal %d", sig)
}

func resolveKillSettings(signalSpec string, timeoutSpec string, defaultTimeout time.Duration) (killSettings, error) {
	sig := defaultKillSignal
	if signalSpec != "" {
		parsed, err := parseSignal(signalSpec)
		if err != nil {
			return killSettings{}, err
		}
		sig = parsed
	}

	timeout := defaultTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if strings.TrimSpace(timeoutSpec) != "" {
		dur, err := time.ParseDuration(timeoutSpec)
		if err != nil {
			return killSettings{}, fmt.Errorf("invalid --timeout value %q (examples: 1s, 500ms)", timeoutSpec)
		}
		if dur <= 0 {
			return killSettings{}, fmt.Errorf("timeout must be positive")
		}
		timeout = dur
	}

	return killSettings{
		Signal:      sig,
		SignalLabel: describeSignal(sig),
		Timeout:     timeout,
	}, nil
}

// findBrowserProcesses lists the user's processes and keeps the ones that
// look like browser instances for the configured profile, ordered by PID.
func findBrowserProcesses(cfg config.Config) ([]processes.Process, error) {
	procs, err := processes.List()
	if err != nil {
		return nil, err
	}
	var matched []processes.Process
	for _, proc := range procs {
		if processes.MatchesBrowser(proc, cfg.Executable, cfg.ProfileRoot) {
			matched = append(matched, proc)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].PID < matched[j].PID })
	return matched, nil
}

type processTerminator interface {
	Terminate(proc processes.Process, sig syscall.Signal) error
}

type realProcessTerminator struct{}

func (realProcessTerminator) Terminate(proc processes.Process, sig syscall.Signal) error {
	p, err := os.FindProcess(proc.PID)
	if err != nil {
		return err
	}
	return p.Signal(sig)
}

// testProcessTerminator emulates termination against an injected process
// list file by rewriting it without the signaled PID.
type testProcessTerminator struct {
	path string
	mu   sync.Mutex
}

func (t *testProcessTerminator) Terminate(proc processes.Process, sig syscall.Signal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.path)
	if err != nil {
		return err
	}
	var procs []processes.Process
	if len(data) > 0 {
		if err := json.Unmarshal(data, &procs); err != nil {
			return err
		}
	}
	filtered := make([]processes.Process, 0, len(procs))
	for _, p := range procs {
		if p.PID == proc.PID {
			continue
		}
		filtered = append(filtered, p)
	}
	updated, err := json.Marshal(filtered)
	if err != nil {
		return err
	}
	return os.WriteFile(t.path, updated, 0o644)
}

func newProcessTerminator() processTerminator {
	if path := processes.TestDataFilePath(); path != "" {
		return &testProcessTerminator{path: path}
	}
	return realProcessTerminator{}
}

// terminateBrowserProcesses signals every process and waits for the
// matching set to empty out before the timeout.
func terminateBrowserProcesses(ctx context.Context, cfg config.Config, procs []processes.Process, settings killSettings, term processTerminator) error {
	var errs error
	for _, proc := range procs {
		if err := term.Terminate(proc, settings.Signal); err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s (%d): %w", proc.Command, proc.PID, err))
		}
	}
	if errs != nil {
		return errs
	}
	remaining, err := waitForBrowserExit(ctx, cfg, settings.Timeout)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		return fmt.Errorf("processes still running after %s: %s", settings.Timeout, summarizeProcesses(remaining))
	}
	return nil
}

func waitForBrowserExit(ctx context.Context, cfg config.Config, timeout time.Duration) ([]processes.Process, error) {
	deadline := time.Now().Add(timeout)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		current, err := findBrowserProcesses(cfg)
		if err != nil {
			return nil, err
		}
		if len(current) == 0 {
			return nil, nil
		}
		if time.Now().After(deadline) {
			return current, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// summarizeProcesses renders "command (pid, pid)" groups, capping the list
// at three distinct commands.
func summarizeProcesses(procs []processes.Process) string {
	byCommand := make(map[string][]int)
	var order []string
	for _, proc := range procs {
		if _, seen := byCommand[proc.Command]; !seen {
			order = append(order, proc.Command)
		}
		byCommand[proc.Command] = append(byCommand[proc.Command], proc.PID)
	}

	shown := order
	if len(shown) > 3 {
		shown = shown[:3]
	}
	parts := make([]string, 0, len(shown)+1)
	for _, cmd := range shown {
		pids := make([]string, len(byCommand[cmd]))
		for i, pid := range byCommand[cmd] {
			pids[i] = fmt.Sprintf("%d", pid)
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", cmd, strings.Join(pids, ", ")))
	}
	if rest := len(order) - len(shown); rest > 0 {
		parts = append(parts, fmt.Sprintf("+ %d more", rest))
	}
	return strings.Join(parts, ", ")
}

// preKillBrowsers is the capture --kill-running path: default signal,
// configured timeout, same discovery as the kill command.
func preKillBrowsers(cmd *cobra.Command, cfg config.Config) error {
	procs, err := findBrowserProcesses(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(procs) == 0 {
		return nil
	}
	settings := killSettings{
		Signal:      defaultKillSignal,
		SignalLabel: describeSignal(defaultKillSignal),
		Timeout:     cfg.Process.KillWait(),
	}
	logf(out, "[*]", "terminating %d running browser %s holding the profile", len(procs), pluralizeProcess(len(procs)))
	if err := terminateBrowserProcesses(cmd.Context(), cfg, procs, settings, newProcessTerminator()); err != nil {
		return err
	}
	logf(out, "[*]", "profile is free")
	return nil
}
