package services

import "sync/atomic"

type opState int32

const (
	opIdle opState = iota
	opInFlight
)

// inflight marks one mutating operation as running. The zero value is idle.
type inflight struct {
	state atomic.Int32
}

func (f *inflight) begin() bool {
	return f.state.CompareAndSwap(int32(opIdle), int32(opInFlight))
}

func (f *inflight) end() {
	f.state.Store(int32(opIdle))
}

func (f *inflight) active() bool {
	return opState(f.state.Load()) == opInFlight
}
