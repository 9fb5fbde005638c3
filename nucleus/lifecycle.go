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
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/errno"
)

// CreateFlags are the flags accepted by InitThread.
type CreateFlags uint32

const (
	CreateFPU CreateFlags = 1 << iota
	CreateShadow
	CreateShield
	CreateSusp
)

const createFlagsKnown = CreateFPU | CreateShadow | CreateShield | CreateSusp

// InitThread allocates and registers a new TCB on cpu's slot, leaving it
// DORMANT (and SUSP if requested). It never reschedules.
func (p *Pod) InitThread(cpu int, name string, prio int, flags CreateFlags, stackSize int) (*Thread, error) {
	if flags&^createFlagsKnown != 0 {
		return nil, errno.EINVAL
	}

	p.lock.Lock()
	if cpu < 0 || cpu >= len(p.sched) {
		p.lock.Unlock()
		return nil, errno.EINVAL
	}
	slot := p.sched[cpu]
	class := p.b.NewClass()
	p.lock.Unlock()

	var stack []byte
	if p.b.Heap != nil {
		s, err := p.b.Heap.AllocStack(stackSize)
		if err != nil {
			return nil, errno.ENOMEM
		}
		stack = s
	}

	t := newTCB(name, prio, class, slot)
	t.stack = stack
	if p.b.NewTimer != nil {
		t.rtimer = p.b.NewTimer(p, t, ResumeTimer)
		t.ptimer = p.b.NewTimer(p, t, PeriodicTimer)
	}
	if flags&CreateFPU != 0 {
		t.state.Set(FPU)
	}
	if flags&CreateShadow != 0 {
		t.state.Set(Shadow)
	}
	if flags&CreateShield != 0 {
		t.state.Set(Shield)
	}

	p.lock.Lock()
	p.appendThread(t)
	p.lock.Unlock()

	mask := Dormant
	if flags&CreateSusp != 0 {
		mask |= Susp
	}
	p.SuspendThread(t, mask, Infinite, Relative, nil)

	return t, nil
}

// StartThread releases a DORMANT thread's initial suspension, latches
// its mode bits, entry point and affinity, and reschedules. Only the
// SchedLocked|RRB|Asdi|Shield|Susp subset of mode is honored.
func (p *Pod) StartThread(t *Thread, mode State, imask uint32, affinity CPUSet, entry func(cookie any), cookie any) error {
	p.lock.Lock()
	if !t.state.Has(Dormant) || t.state.Has(Started) {
		p.lock.Unlock()
		return errno.EBUSY
	}
	online := p.onlineMask
	if affinity&online&p.affinityMask == 0 {
		p.lock.Unlock()
		return errno.EINVAL
	}

	t.state = (t.state &^ ModeBits) | (mode & ModeBits)
	t.imask = imask
	t.imode = t.state & ModeBits
	t.entry = entry
	t.cookie = cookie
	t.Affinity = affinity

	if t.state.Has(RRB) {
		t.RRCredit = t.RRPeriod
	}

	slot := t.sched
	if !affinity.Contains(slot.CPU) {
		if first, ok := p.b.Arch.FirstCPU(affinity & online); ok {
			slot = p.sched[first]
			t.sched = slot
		}
	}

	if p.b.Arch != nil {
		p.b.Arch.InitThreadContext(t, entry, cookie, t.stack)
	}
	t.state.Set(Started)
	p.lock.Unlock()

	if t.state.Has(Shadow) && p.b.Shadow != nil {
		if err := p.b.Shadow.ShadowStart(t); err != nil {
			return err
		}
	}

	p.ResumeThread(t, Dormant)
	p.runHooks(HookStart, t)
	p.Schedule(t)
	return nil
}

// RestartThread resets a started, non-root, non-shadow thread to its
// initial priority, class and mode, releasing everything it owns.
func (p *Pod) RestartThread(t *Thread) error {
	p.lock.Lock()
	if !t.state.Has(Started) || t.IsRoot() || t.state.Has(Shadow) {
		p.lock.Unlock()
		return errno.EINVAL
	}
	self := t.sched != nil && t.sched.Curr == t
	p.lock.Unlock()

	p.UnblockThread(t)
	if p.b.Synch != nil {
		p.b.Synch.ReleaseAllOwnerships(t)
	}

	p.lock.Lock()
	t.state.Clear(Susp)
	t.state = (t.state &^ ModeBits) | t.imode
	t.BPrio = t.IPrio
	t.CPrio = t.IPrio
	t.Class = t.InitClass
	t.signals = 0
	p.lock.Unlock()

	if self {
		p.lock.Lock()
		t.state.Set(Restart)
		p.lock.Unlock()
		p.Schedule(t)
		return nil
	}

	if p.b.Arch != nil {
		p.b.Arch.InitThreadContext(t, t.entry, t.cookie, t.stack)
	}
	p.Schedule(t)
	return nil
}
