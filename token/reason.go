package token

import "sync/atomic"

// atomicReason is a typed wrapper over atomic.Int32 so reason handling
// stays in Reason terms at the call sites.
type atomicReason struct {
	v atomic.Int32
}

func (a *atomicReason) Load() Reason { return Reason(a.v.Load()) }

func (a *atomicReason) CompareAndSwap(old, new Reason) bool {
	return a.v.CompareAndSwap(int32(old), int32(new))
}
