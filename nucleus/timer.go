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

package nucleus

import "time"

// TimeMode selects how a timer's initial value is interpreted.
type TimeMode int

const (
	// Relative: value is an offset from now.
	Relative TimeMode = iota
	// Absolute: value is a point on the time base's clock.
	Absolute
)

// Infinite is the sentinel duration meaning "no timeout" / "never".
const Infinite time.Duration = -1

// Timer is the timer-wheel collaborator. One Timer backs
// each of a TCB's rtimer and ptimer, and each slot's htimer/wdtimer.
type Timer interface {
	// Start arms the timer. If interval is non-zero the timer reloads
	// itself every interval after the first expiry.
	Start(mode TimeMode, value time.Time, interval time.Duration) error
	// Stop disarms the timer. Safe to call when not running.
	Stop()
	// SetSched rebinds the timer's expiry callback delivery to slot,
	// used when a thread migrates.
	SetSched(slot *Slot)
	// Running reports whether the timer is currently armed.
	Running() bool
	// Overruns returns (and does not reset) the number of missed
	// expiries accumulated since the last call to Start.
	Overruns() uint64
	// Pexpect returns the timestamp the timer expects to fire at next.
	Pexpect() time.Time
	// Interval returns the configured reload interval, or zero for a
	// one-shot timer.
	Interval() time.Duration
}

// TimerSched is implemented by the object a Timer's expiry callback is
// delivered to — normally the pod itself, which resumes the owning
// thread under the global lock.
type TimerSched interface {
	// OnTimerExpire is invoked (off the pod's lock) when a rtimer or
	// ptimer fires for t.
	OnTimerExpire(t *Thread, which TimerKind)
}

// TimerKind distinguishes which per-thread timer expired.
type TimerKind int

const (
	ResumeTimer TimerKind = iota
	PeriodicTimer
	// WatchdogTimer is a per-slot timer that fires if the running thread
	// holds the CPU past the configured watchdog period without
	// yielding, cooperating or blocking.
	WatchdogTimer
	// HostTimer is the per-slot relative reload timer an architecture
	// backend asks for when its hardware tick can't itself deliver a
	// periodic interrupt (StartCPUTick's tickKind > 1).
	HostTimer
)

// TimeSource is the host clock collaborator consumed by enable/disable
// time source; it is distinct from per-thread Timers,
// which are scheduled against a TimeSource's CPU ticks.
type TimeSource interface {
	// StartCPUTick arms the hardware tick for cpu. The return value is
	// the architecture's reported "periodic tick still needed for host
	// emulation" indicator: 0 means one-shot sufficed, >1 means a
	// relative periodic host-timer of that many ticks is needed.
	StartCPUTick(cpu int) (tickKind int, err error)
	// StopCPUTick disarms the hardware tick for cpu.
	StopCPUTick(cpu int)
	// HostTime and CPUTime are used to compute the wallclock offset.
	HostTime() time.Time
	CPUTime() time.Duration
}
