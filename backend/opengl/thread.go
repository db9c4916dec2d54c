//go:build gl

package opengl

import "runtime"

// thread runs functions on one locked OS thread, which owns the GL
// context.
type thread struct {
	calls chan func()
	done  chan struct{}
}

func newThread() *thread {
	t := &thread{calls: make(chan func()), done: make(chan struct{})}
	go t.loop()
	return t
}

func (t *thread) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(t.done)
	for f := range t.calls {
		f()
	}
}

// do runs f on the GL thread and waits for it.
func (t *thread) do(f func()) {
	finished := make(chan struct{})
	t.calls <- func() {
		defer close(finished)
		f()
	}
	<-finished
}

// stop ends the thread after pending calls.
func (t *thread) stop() {
	close(t.calls)
	<-t.done
}
