//go:build !windows

package cli

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func signalByName(name string) (syscall.Signal, bool) {
	sig := unix.SignalNum(name)
	return sig, sig != 0
}

func signalName(sig syscall.Signal) string {
	return unix.SignalName(sig)
}
