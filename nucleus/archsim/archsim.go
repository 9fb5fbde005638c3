// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package archsim is the default Architecture and TimeSource backend:
// each thread runs on its own goroutine, a context switch is a
// rendezvous between two goroutines over a channel pair, FPU state is
// a flat byte-array copy, and the hardware tick is a plain time.Ticker.
// It is the simulator a real nucleus port would replace with actual
// register save/restore and a programmable interrupt timer, the same
// role a ptrace/KVM platform backend plays for a traced process.
package archsim

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/timerwheel"
)

const fpuContextSize = 512 // x86 FXSAVE area size, chosen only as a plausible constant

// rendezvous is the pairwise handoff a context switch uses: the switch
// caller's goroutine wakes the incoming thread's channel and then blocks
// waiting on the outgoing thread's, mirroring a real switch_to's "goes
// to sleep on prev's stack, wakes up on next's".
type rendezvous struct {
	wake chan struct{}
}

func newRendezvous() *rendezvous { return &rendezvous{wake: make(chan struct{}, 1)} }

func (r *rendezvous) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *rendezvous) wait() { <-r.wake }

// threadState is the architecture-private bookkeeping attached to each
// Thread, keyed by pointer identity since Thread carries no arch field
// of its own.
type threadState struct {
	rv      *rendezvous
	started bool
}

// Arch is the default nucleus.Architecture implementation.
type Arch struct {
	mu     sync.Mutex
	states map[*nucleus.Thread]*threadState
	log    *logrus.Entry

	// ticks maps CPU index to its running ticker's stop channel.
	ticksMu sync.Mutex
	ticks   map[int]chan struct{}

	wheel *timerwheel.Wheel
}

// New constructs an Arch. wheel is stored on the Arch but not consulted:
// StartCPUTick takes the host clock lock through
// timerwheel.LockHostClock, and the simulated tick itself is a plain Go
// ticker.
func New(wheel *timerwheel.Wheel) *Arch {
	return &Arch{
		states: make(map[*nucleus.Thread]*threadState),
		ticks:  make(map[int]chan struct{}),
		log:    logrus.WithField("component", "archsim"),
		wheel:  wheel,
	}
}

func (a *Arch) state(t *nucleus.Thread) *threadState {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.states[t]
	if !ok {
		st = &threadState{rv: newRendezvous()}
		a.states[t] = st
	}
	return st
}

// InitThreadContext implements nucleus.Architecture: spawns the
// goroutine that will run entry(cookie) once the thread is first
// switched to, blocking immediately on its own rendezvous channel.
func (a *Arch) InitThreadContext(t *nucleus.Thread, entry func(cookie any), cookie any, stack []byte) {
	st := a.state(t)
	go func() {
		st.rv.wait()
		entry(cookie)
	}()
}

// SwitchTo implements nucleus.Architecture. It wakes next's goroutine
// (starting it on first use) and blocks until prev is woken again by a
// later switch back to it.
func (a *Arch) SwitchTo(slot *nucleus.Slot, prev, next *nucleus.Thread) {
	nextSt := a.state(next)
	prevSt := a.state(prev)

	nextSt.started = true
	nextSt.rv.signal()
	prevSt.rv.wait()
}

// FinalizeNoSwitch implements nucleus.Architecture: RESTART on the
// already-current thread needs no goroutine handoff at all, since
// nothing is actually switching away.
func (a *Arch) FinalizeNoSwitch(t *nucleus.Thread) {}

// SaveFPU implements nucleus.Architecture: a flat byte copy standing in
// for FXSAVE.
func (a *Arch) SaveFPU(t *nucleus.Thread) {
	ctx, _ := t.FPUContext().([]byte)
	if ctx == nil {
		ctx = make([]byte, fpuContextSize)
	}
	// In the simulator there is no live FPU register file to read; the
	// context is simply retained as-is, matching InitFPU's zeroing.
	t.SetFPUContext(ctx)
}

// RestoreFPU implements nucleus.Architecture.
func (a *Arch) RestoreFPU(t *nucleus.Thread) {}

// EnableFPU implements nucleus.Architecture.
func (a *Arch) EnableFPU(t *nucleus.Thread) {}

// InitFPU implements nucleus.Architecture: allocates a zeroed context
// blob the size of an FXSAVE area.
func (a *Arch) InitFPU(t *nucleus.Thread) {
	t.SetFPUContext(make([]byte, fpuContextSize))
}

// FirstCPU implements nucleus.Architecture.
func (a *Arch) FirstCPU(mask nucleus.CPUSet) (int, bool) { return mask.First() }

// SendIPI implements nucleus.Architecture. The simulator has no real
// interrupt controller to poke; this only pins the calling Go runtime
// thread's CPU affinity to cpu, as a best-effort nod to the real
// operation an arch backend performs when steering work at a CPU.
func (a *Arch) SendIPI(cpu int) {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	_ = unix.SchedSetaffinity(0, &set)
}

// UnlockedSwitch implements nucleus.Architecture: the rendezvous
// handoff above does not touch any pod state, so it is safe to run
// with the global lock dropped.
func (a *Arch) UnlockedSwitch() bool { return true }

// StartCPUTick implements nucleus.TimeSource. It takes the advisory
// host-clock lock for the duration of arming the ticker, retrying with
// backoff if another pod process currently holds it, then starts a
// 1ms simulated hardware tick for cpu.
func (a *Arch) StartCPUTick(cpu int) (int, error) {
	var lockErr error
	var held interface{ Unlock() error }
	op := func() error {
		fl, err := timerwheel.LockHostClock()
		if err != nil {
			lockErr = err
			return err
		}
		held = fl
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Second
	if err := backoff.Retry(op, b); err != nil {
		a.log.WithError(lockErr).Warn("archsim: host clock contended, proceeding unsynchronized")
	}
	if held != nil {
		defer held.Unlock()
	}

	a.ticksMu.Lock()
	if _, ok := a.ticks[cpu]; ok {
		a.ticksMu.Unlock()
		return 0, nil
	}
	stop := make(chan struct{})
	a.ticks[cpu] = stop
	a.ticksMu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()
	return 0, nil
}

// StopCPUTick implements nucleus.TimeSource.
func (a *Arch) StopCPUTick(cpu int) {
	a.ticksMu.Lock()
	defer a.ticksMu.Unlock()
	if stop, ok := a.ticks[cpu]; ok {
		close(stop)
		delete(a.ticks, cpu)
	}
}

// HostTime implements nucleus.TimeSource.
func (a *Arch) HostTime() time.Time { return time.Now() }

// CPUTime implements nucleus.TimeSource: the simulator has no separate
// free-running cycle counter, so the host wall clock (nanoseconds since
// the Unix epoch) stands in for it directly.
func (a *Arch) CPUTime() time.Duration { return time.Duration(time.Now().UnixNano()) }
