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

// SuspendThread blocks t on the bits in mask, optionally pending on
// wchan with a timeout. It is forbidden on root and forbidden to attach
// a wchan to a thread that already has one.
func (p *Pod) SuspendThread(t *Thread, mask State, timeout time.Duration, mode TimeMode, wchan Wchan) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if t.IsRoot() {
		cpu := -1
		if t.sched != nil {
			cpu = t.sched.CPU
		}
		p.fatal("suspend_thread: root thread", cpu)
		return errno.EINVAL
	}
	if wchan != nil && t.wchan != nil {
		return errno.EBUSY
	}

	self := t.sched != nil && t.sched.Curr == t
	if self {
		t.sched.Resched = t.sched.Resched.Add(t.sched.CPU)
	}

	if !t.state.Any(BlockBits) && t.state.Has(Shadow) && t.info.Has(Kicked) {
		t.info.Clear(Timeo | Rmid)
		t.info.Set(Break)
		return nil
	}

	if timeout != Infinite || mode != Relative {
		due := deadlineFor(timeout, mode)
		if !due.IsZero() && due.Before(time.Now()) {
			if wchan != nil {
				t.wchan = wchan
				if p.b.Synch != nil {
					p.b.Synch.ForgetSleeper(t)
				}
				t.wchan = nil
			}
			t.info.Set(Timeo)
			return nil
		}
		if t.rtimer != nil {
			_ = t.rtimer.Start(Absolute, due, 0)
		}
		mask |= Delay
	}

	if t.state.Has(Ready) {
		if t.sched != nil && t.sched.class != nil {
			t.sched.class.Dequeue(t.sched, t)
		}
		t.state.Clear(Ready)
	}

	t.state.Set(mask)
	if wchan != nil {
		t.wchan = wchan
	}

	if self {
		p.lock.Unlock()
		p.Schedule(t)
		p.lock.Lock()
		return nil
	}

	if t.state.Has(Shadow) && t.state.Has(Relax) && mask&^(Delay|Susp) == 0 {
		if p.b.Shadow != nil {
			p.b.Shadow.ShadowSuspend(t)
		}
	}
	return nil
}

func deadlineFor(timeout time.Duration, mode TimeMode) time.Time {
	if timeout == Infinite {
		return time.Time{}
	}
	if mode == Absolute {
		return time.Unix(0, int64(timeout))
	}
	return time.Now().Add(timeout)
}

// ResumeThread clears mask from t's state and, per the decision table,
// re-enqueues it once every blocking bit is gone. It never reschedules;
// the caller is expected to batch edits and call Schedule itself.
func (p *Pod) ResumeThread(t *Thread, mask State) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.resumeThreadLocked(t, mask)
}

func (p *Pod) resumeThreadLocked(t *Thread, mask State) {
	if !t.state.Any(BlockBits) {
		// Already runnable: a manual round-robin re-enqueue.
		p.readyLocked(t)
		return
	}

	t.state.Clear(mask)
	if mask.Has(Delay) && t.rtimer != nil {
		t.rtimer.Stop()
	}

	delayLeft := t.state.Has(Delay)
	pendLeft := t.state.Has(Pend)

	switch {
	case !t.state.Any(BlockBits):
		// Every blocking bit is gone: fully wake the thread.
		p.forgetAndReadyLocked(t)

	case !delayLeft && pendLeft:
		// DELAY just cleared, PEND remains: the resume timer raced a
		// concurrent grant. Forget the sleeper registration so the
		// eventual PEND clear doesn't double-forget.
		if t.wchan != nil && p.b.Synch != nil {
			p.b.Synch.ForgetSleeper(t)
		}

	case delayLeft && !pendLeft && mask.Has(Pend):
		// PEND just cleared by a grant while a timeout was still armed:
		// cancel it, then wake fully only if no other block bit remains.
		if t.rtimer != nil {
			t.rtimer.Stop()
		}
		t.state.Clear(Delay)
		if !t.state.Any(BlockBits) {
			p.forgetAndReadyLocked(t)
		} else {
			t.wchan = nil
		}

	default:
		if mask.Has(Pend) {
			t.wchan = nil
		}
	}
}

func (p *Pod) forgetAndReadyLocked(t *Thread) {
	if t.wchan != nil && p.b.Synch != nil {
		p.b.Synch.ForgetSleeper(t)
	}
	t.wchan = nil
	p.readyLocked(t)
}

func (p *Pod) readyLocked(t *Thread) {
	if t.sched == nil {
		return
	}
	t.sched.class.Enqueue(t.sched, t)
	t.state.Set(Ready)
	t.sched.Resched = t.sched.Resched.Add(t.sched.CPU)
}

// UnblockThread is the convenience wrapper over resume used by delete,
// restart and external wakeups. It reports whether anything happened.
func (p *Pod) UnblockThread(t *Thread) bool {
	p.lock.Lock()
	did := false
	if t.state.Has(Delay) {
		p.resumeThreadLocked(t, Delay)
		did = true
	} else if t.state.Has(Pend) {
		p.resumeThreadLocked(t, Pend)
		did = true
	}
	if did {
		t.info.Set(Break)
	}
	p.lock.Unlock()
	return did
}
