package signals

import (
	"os"
	"os/signal"
	"syscall"
)

var onlyOneSignalHandler = make(chan struct{})

// StopChannel returns a channel that is closed on SIGINT or SIGTERM.
// A second signal exits the process directly. May only be called once.
func StopChannel() <-chan struct{} {
	close(onlyOneSignalHandler) // panics when called twice

	stopCh := make(chan struct{})
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-c
		close(stopCh)
		<-c
		os.Exit(1)
	}()

	return stopCh
}
