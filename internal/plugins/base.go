package plugins

import (
	"time"

	"github.com/quentin-h/embra/internal/runtime"
)

// base carries the stop-signal plumbing shared by the built-in plugins.
type base struct {
	name string
	sig  *runtime.StopSignal
}

func (b *base) Name() string { return b.name }

func (b *base) SetStopSignal(sig *runtime.StopSignal) { b.sig = sig }

func (b *base) stopped() bool {
	return b.sig != nil && b.sig.IsSet()
}

// pace sleeps for d or until the shared stop signal fires.
func (b *base) pace(d time.Duration) {
	if b.sig != nil {
		b.sig.Wait(d)
		return
	}
	time.Sleep(d)
}
