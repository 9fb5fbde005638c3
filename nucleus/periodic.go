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

import (
	"time"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/errno"
)

// systemLatency is the minimum period accepted on an aperiodic time
// base; periods shorter than this are rejected rather than silently
// rounded up.
const systemLatency = 100 * time.Microsecond

// SetThreadPeriodic arms or disarms t's periodic release timer.
func (p *Pod) SetThreadPeriodic(t *Thread, idate time.Time, period time.Duration) error {
	p.lock.Lock()
	if t.ptimer == nil {
		p.lock.Unlock()
		return errno.EWOULDBLOCK
	}

	if period == Infinite {
		t.ptimer.Stop()
		p.lock.Unlock()
		return nil
	}
	if period < systemLatency {
		p.lock.Unlock()
		return errno.EINVAL
	}

	if idate.IsZero() {
		if err := t.ptimer.Start(Relative, time.Time{}, period); err != nil {
			p.lock.Unlock()
			return err
		}
		p.lock.Unlock()
		return nil
	}

	due := idate.Add(p.wallOffset)
	if err := t.ptimer.Start(Absolute, due, period); err != nil {
		p.lock.Unlock()
		return err
	}
	p.lock.Unlock()

	return p.SuspendThread(t, Delay, Infinite, Relative, nil)
}

// WaitThreadPeriod blocks the calling thread t until its next periodic
// release, returning the number of missed releases observed.
func (p *Pod) WaitThreadPeriod(t *Thread) (overruns uint64, err error) {
	p.lock.Lock()
	if t.ptimer == nil || !t.ptimer.Running() {
		p.lock.Unlock()
		return 0, errno.EWOULDBLOCK
	}
	expected := t.ptimer.Pexpect()
	now := p.hostTimeLocked()
	p.lock.Unlock()

	if now.Before(expected) {
		if err := p.SuspendThread(t, Delay, Infinite, Relative, nil); err != nil {
			return 0, err
		}
		p.lock.Lock()
		broke := t.info.Has(Break)
		p.lock.Unlock()
		if broke {
			return 0, errno.EINTR
		}
	}

	p.lock.Lock()
	n := t.ptimer.Overruns()
	p.lock.Unlock()
	if n != 0 {
		return n, errno.ETIMEDOUT
	}
	return 0, nil
}

func (p *Pod) hostTimeLocked() time.Time {
	if p.b.TimeSource != nil {
		return p.b.TimeSource.HostTime()
	}
	return time.Now()
}

// OnTimerExpire implements TimerSched: it resumes t when its resume or
// periodic timer fires, marking TIMEO for the resume timer. A watchdog
// expiry escalates straight to fatal; a host-timer expiry keeps an
// architecture's reload-based tick alive and, on a slot currently
// running a round-robin thread, doubles as the quantum-decrement
// source: see class.go's SetResched.
func (p *Pod) OnTimerExpire(t *Thread, which TimerKind) {
	p.lock.Lock()
	resched := false
	switch which {
	case ResumeTimer:
		t.info.Set(Timeo)
		p.resumeThreadLocked(t, Delay)
	case PeriodicTimer:
		p.resumeThreadLocked(t, Delay)
	case WatchdogTimer:
		// The watchdog timer is bound to the slot's root thread; the
		// thread to check is whichever one currently holds the slot.
		if slot := t.sched; slot != nil && slot.Curr != nil && !slot.Curr.IsRoot() {
			p.fatal("watchdog: thread "+slot.Curr.Name+" exceeded its CPU time slice", slot.CPU)
		}
	case HostTimer:
		resched = p.tickRRLocked(t.sched)
	}
	p.lock.Unlock()

	if which == HostTimer {
		slot := t.sched
		if slot != nil && slot.HTimer != nil && slot.HTimer.Interval() == 0 {
			_ = slot.HTimer.Start(Absolute, time.Now().Add(defaultHostTick), 0)
		}
		// A host tick fires on the timer wheel's own servicing goroutine,
		// which must never block inside an architecture switch (that
		// would stall every other timer on the wheel). Exhaustion only
		// flags the slot and pokes the CPU; the thread actually holding
		// it observes Resched and calls Schedule itself the next time it
		// cooperates (a voluntary yield, syscall return, or the next
		// tick), exactly like any other cross-CPU reschedule request.
		if resched && slot != nil && p.b.Arch != nil {
			p.b.Arch.SendIPI(slot.CPU)
		}
		return
	}
	if which == ResumeTimer || which == PeriodicTimer {
		p.Schedule(t)
	}
}

// tickRRLocked decrements the current thread's round-robin credit by
// one host tick and, on exhaustion, reloads it and asks the scheduling
// class to requeue the thread behind its peers. Called with the lock
// held; reports whether slot now needs a reschedule.
func (p *Pod) tickRRLocked(slot *Slot) bool {
	if slot == nil {
		return false
	}
	curr := slot.Curr
	if curr == nil || curr.IsRoot() || !curr.state.Has(RRB) || curr.RRCredit == Infinite {
		return false
	}
	if curr.RRCredit > defaultHostTick {
		curr.RRCredit -= defaultHostTick
		return false
	}
	curr.RRCredit = curr.RRPeriod
	slot.class.SetResched(slot, curr)
	slot.Resched = slot.Resched.Add(slot.CPU)
	return true
}
