//go:build unix

package sys

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

func notifySignals() chan os.Signal {
	// This catches every signal regardless of whether it is ignored.
	sigCh := make(chan os.Signal, sigsChanBufferSize)
	signal.Notify(sigCh)
	// Calling signal.Notify resets the signal ignore status, so
	// signal.Ignore must be called again after every signal.Notify.
	signal.Ignore(unix.SIGTTIN, unix.SIGTTOU, unix.SIGTSTP)
	return sigCh
}
