//go:build windows

package procutil

import "syscall"

var (
	kernel32        = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess = kernel32.NewProc("OpenProcess")
	procCloseHandle = kernel32.NewProc("CloseHandle")
)

const processQueryLimitedInformation = 0x1000

// alive opens the process with query-only rights; a zero handle means the
// process does not exist or access was denied, both treated as "not alive"
// per the probe contract.
func alive(pid int) bool {
	handle, _, _ := procOpenProcess.Call(
		processQueryLimitedInformation,
		0,
		uintptr(pid),
	)
	if handle == 0 {
		return false
	}
	defer procCloseHandle.Call(handle)
	return true
}
