// Package procutil probes whether a process is still alive, across platforms.
package procutil

// Alive reports whether pid refers to a live process. An error from the
// underlying probe — including permission-denied — is interpreted as "not
// alive": a lock whose owning process we cannot confirm is treated the same
// as one whose owner is already dead, per the staleness rule in
// internal/oplock.
//
// Platform-specific implementations live in pid_check_unix.go and
// pid_check_windows.go.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return alive(pid)
}
