//go:build windows

package cli

import "syscall"

// Signal names cannot be resolved here; only numeric values parse.
func signalByName(string) (syscall.Signal, bool) {
	return 0, false
}

func signalName(syscall.Signal) string {
	return ""
}
