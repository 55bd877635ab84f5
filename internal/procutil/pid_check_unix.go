//go:build !windows

package procutil

import "golang.org/x/sys/unix"

// alive sends signal 0 to pid. Per kill(2), signal 0 performs no signal
// delivery but still runs existence/permission checks — EPERM means the
// process exists but is owned by someone else, which we still treat as
// "not alive" per the probe contract (we cannot confirm our own lock
// owner, so we cannot trust the lease either).
func alive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}
