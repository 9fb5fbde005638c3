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

import "github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/errno"

// DeleteThread tears t down. Forbidden on root. Idempotent once ZOMBIE
// is already set. A non-dormant, non-current shadow can't be torn down
// here: its mate may still be running on the host processor, so teardown
// is deferred to ShadowSendSig and finished later by CompleteShadowExit
// once the mate has actually exited.
func (p *Pod) DeleteThread(t *Thread) error {
	p.lock.Lock()
	if t.IsRoot() {
		cpu := -1
		if t.sched != nil {
			cpu = t.sched.CPU
		}
		p.fatal("delete_thread: root thread", cpu)
		return errno.EINVAL
	}
	if t.state.Has(Zombie) {
		p.lock.Unlock()
		return nil
	}

	self := t.sched != nil && t.sched.Curr == t
	if t.state.Has(Shadow) && !t.state.Has(Dormant) && !self {
		p.lock.Unlock()
		if p.b.Shadow != nil {
			return p.b.Shadow.ShadowSendSig(t, shadowKillSignal)
		}
		return errno.ENOSYS
	}

	p.deleteCoreLocked(t)

	if self {
		slot := t.sched
		slot.Zombie = t
		slot.Resched = slot.Resched.Add(slot.CPU)
		p.lock.Unlock()
		p.Schedule(t)
		return nil
	}

	midSwitch := t.sched != nil && t.sched.Status&SWLOCK != 0
	p.lock.Unlock()
	p.finishDeleteUnlocked(t, midSwitch)
	return nil
}

// deleteCoreLocked runs the teardown bookkeeping shared by an immediate
// delete and a deferred shadow delete completed later by
// CompleteShadowExit: dequeue, stop timers, release ownerships and mark
// ZOMBIE. Called with the lock held.
func (p *Pod) deleteCoreLocked(t *Thread) {
	p.removeThread(t)
	if t.state.Has(Ready) {
		if t.sched != nil && t.sched.class != nil {
			t.sched.class.Dequeue(t.sched, t)
		}
		t.state.Clear(Ready)
	}
	if t.rtimer != nil {
		t.rtimer.Stop()
	}
	if t.ptimer != nil {
		t.ptimer.Stop()
	}
	if t.state.Has(Pend) && p.b.Synch != nil {
		p.b.Synch.ForgetSleeper(t)
	}
	if p.b.Synch != nil {
		p.b.Synch.ReleaseAllOwnerships(t)
	}
	if t.sched != nil && t.sched.FPUHolder == t {
		t.sched.FPUHolder = nil
	}
	t.state.Set(Zombie)
}

// finishDeleteUnlocked runs the hooks-and-stack-free epilogue for a
// non-self delete that has already been marked ZOMBIE. Skipped while the
// owning slot is mid-switch, matching the self-delete path which defers
// the same work to finalizeZombieLocked instead.
func (p *Pod) finishDeleteUnlocked(t *Thread, midSwitch bool) {
	if midSwitch {
		return
	}
	p.runHooks(HookDelete, t)
	if p.b.Heap != nil && t.stack != nil {
		p.b.Heap.FreeStack(t.stack)
		t.stack = nil
	}
}

// shadowKillSignal is the signal number the shadow bridge is asked to
// deliver to a mate to force it through its own exit path.
const shadowKillSignal = 9

// CompleteShadowExit finishes tearing down a shadow thread whose
// deletion was deferred by DeleteThread because its mate was still
// running. A ShadowBridge integration should call this once it observes
// the mate has actually exited; it calls ShadowBridge.ShadowExit itself
// to retire the bridge's own mate-tracking record as part of teardown.
func (p *Pod) CompleteShadowExit(t *Thread) error {
	p.lock.Lock()
	if t.IsRoot() {
		p.lock.Unlock()
		return errno.EINVAL
	}
	if t.state.Has(Zombie) {
		p.lock.Unlock()
		return nil
	}
	p.deleteCoreLocked(t)
	midSwitch := t.sched != nil && t.sched.Status&SWLOCK != 0
	p.lock.Unlock()

	if p.b.Shadow != nil {
		p.b.Shadow.ShadowExit(t)
	}
	p.finishDeleteUnlocked(t, midSwitch)
	return nil
}

// AbortThread forces a target to a halt and deletes it. Non-self
// targets are frozen with an indefinite SUSP first so deletion can't
// race their own execution.
func (p *Pod) AbortThread(t *Thread) error {
	p.lock.Lock()
	self := t.sched != nil && t.sched.Curr == t
	p.lock.Unlock()

	if !self {
		if err := p.SuspendThread(t, Susp, Infinite, Relative, nil); err != nil {
			return err
		}
	}
	return p.DeleteThread(t)
}
