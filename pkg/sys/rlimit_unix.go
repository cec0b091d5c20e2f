//go:build unix

package sys

import "golang.org/x/sys/unix"

// bytesPerValue is a conservative estimate of how much process stack one
// interpreter value costs during recursive evaluation.
const bytesPerValue = 256

// ValueStackLimit derives a value stack depth from the process stack
// resource limit, so that the interpreter reports a stack overflow
// before the OS kills the process. It returns fallback when the limit is
// unlimited or unavailable.
func ValueStackLimit(fallback int) int {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_STACK, &lim); err != nil {
		return fallback
	}
	if lim.Cur == unix.RLIM_INFINITY || lim.Cur == 0 {
		return fallback
	}
	depth := int(lim.Cur / bytesPerValue)
	if depth < 1024 {
		return 1024
	}
	if depth > fallback {
		return fallback
	}
	return depth
}
