//go:build darwin

package processes

/*
#include <libproc.h>
*/
import "C"

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// listNative walks every pid via libproc. Launch arguments come from
// the kern.procargs2 sysctl, which the kernel only discloses for the
// caller's own processes.
func listNative(uid int) ([]Process, error) {
	pids, err := listAllPIDs()
	if err != nil {
		return nil, err
	}

	procs := make([]Process, 0, len(pids))
	for _, pid := range pids {
		if pid <= 0 {
			continue
		}
		info, err := fetchBSDInfo(pid)
		if err != nil {
			continue
		}
		if info == nil || int(info.pbi_uid) != uid {
			continue
		}
		procs = append(procs, Process{
			PID:     int(pid),
			PPID:    int(info.pbi_ppid),
			Command: sanitizeCommand(C.GoString(&info.pbi_comm[0]), int(pid)),
			Args:    fetchArgs(pid),
		})
	}
	return procs, nil
}

// fetchArgs decodes the kern.procargs2 buffer: an int32 argc, the exec
// path, NUL padding, then argc NUL-terminated argv strings. Returns nil
// for processes the kernel refuses to describe.
func fetchArgs(pid int32) []string {
	raw, err := unix.SysctlRaw("kern.procargs2", int(pid))
	if err != nil || len(raw) < 4 {
		return nil
	}
	argc := int(binary.LittleEndian.Uint32(raw[:4]))
	if argc <= 0 {
		return nil
	}
	rest := raw[4:]
	execEnd := bytes.IndexByte(rest, 0)
	if execEnd < 0 {
		return nil
	}
	rest = rest[execEnd:]
	for len(rest) > 0 && rest[0] == 0 {
		rest = rest[1:]
	}
	args := make([]string, 0, argc)
	for len(rest) > 0 && len(args) < argc {
		end := bytes.IndexByte(rest, 0)
		if end < 0 {
			break
		}
		args = append(args, string(rest[:end]))
		rest = rest[end+1:]
	}
	return args
}

func listAllPIDs() ([]int32, error) {
	size := C.proc_listpids(C.PROC_ALL_PIDS, 0, nil, 0)
	if size <= 0 {
		return nil, fmt.Errorf("proc_listpids size %d", size)
	}
	count := int(size) / int(unsafe.Sizeof(C.pid_t(0)))
	if count == 0 {
		return nil, nil
	}
	buf := make([]C.pid_t, count)
	ret := C.proc_listpids(C.PROC_ALL_PIDS, 0, unsafe.Pointer(&buf[0]), size)
	if ret <= 0 {
		return nil, fmt.Errorf("proc_listpids returned %d", ret)
	}
	limit := int(ret) / int(unsafe.Sizeof(C.pid_t(0)))
	pids := make([]int32, 0, limit)
	for i := 0; i < limit; i++ {
		if buf[i] != 0 {
			pids = append(pids, int32(buf[i]))
		}
	}
	return pids, nil
}

func fetchBSDInfo(pid int32) (*C.struct_proc_bsdinfo, error) {
	var info C.struct_proc_bsdinfo
	size := C.int(unsafe.Sizeof(info))
	ret, err := C.proc_pidinfo(C.int(pid), C.PROC_PIDTBSDINFO, 0, unsafe.Pointer(&info), size)
	if err != nil {
		if errno, ok := err.(syscall.Errno); ok {
			switch errno {
			case syscall.EPERM, syscall.ESRCH:
				return nil, nil
			}
		}
		return nil, err
	}
	if ret != size {
		return nil, nil
	}
	return &info, nil
}
