//go:build linux

package processes

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func listNative(uid int) ([]Process, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrUnsupported
		}
		return nil, err
	}

	procs := make([]Process, 0, len(entries))
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		meta, err := readProcMeta(entry.Name())
		if err != nil || meta.uid != uid {
			continue
		}

		args := readCmdline(entry.Name())
		command := ""
		if data, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "comm")); err == nil {
			command = strings.TrimSpace(string(data))
		}
		if command == "" && len(args) > 0 {
			command = filepath.Base(args[0])
		}

		procs = append(procs, Process{
			PID:     pid,
			PPID:    meta.ppid,
			Command: sanitizeCommand(command, pid),
			Args:    args,
		})
	}

	return procs, nil
}

type procMeta struct {
	uid  int
	ppid int
}

func readProcMeta(pid string) (procMeta, error) {
	file, err := os.Open(filepath.Join("/proc", pid, "status"))
	if err != nil {
		return procMeta{}, err
	}
	defer file.Close()

	meta := procMeta{uid: -1}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "Uid:":
			if v, err := strconv.Atoi(fields[1]); err == nil {
				meta.uid = v
			}
		case "PPid:":
			if v, err := strconv.Atoi(fields[1]); err == nil {
				meta.ppid = v
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return procMeta{}, err
	}
	if meta.uid < 0 {
		return procMeta{}, errors.New("no uid in status")
	}
	return meta, nil
}

// readCmdline returns the NUL-separated command line. Kernel threads have
// an empty cmdline; those return nil and match by Command only.
func readCmdline(pid string) []string {
	data, err := os.ReadFile(filepath.Join("/proc", pid, "cmdline"))
	if err != nil || len(data) == 0 {
		return nil
	}
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	args := parts[:0]
	for _, p := range parts {
		if p != "" {
			args = append(args, p)
		}
	}
	if len(args) == 0 {
		return nil
	}
	return args
}
