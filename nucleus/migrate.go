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

// MigrateThread rebinds the calling thread t to cpu. Self-migration
// only: t must be the caller's own thread, currently curr on its slot.
func (p *Pod) MigrateThread(t *Thread, cpu int) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	src := t.sched
	if src == nil || src.Curr != t {
		return errno.EPERM
	}
	if !t.Affinity.Contains(cpu) {
		return errno.EPERM
	}
	if t.schedLockDepth > 0 {
		return errno.EBUSY
	}
	if cpu == src.CPU {
		return nil
	}
	if cpu < 0 || cpu >= len(p.sched) {
		return errno.EINVAL
	}
	dst := p.sched[cpu]

	if src.FPUHolder == t {
		src.FPUHolder = nil
	}
	if t.state.Has(Ready) {
		if src.class != nil {
			src.class.Dequeue(src, t)
		}
		t.state.Clear(Ready)
	}
	src.Resched = src.Resched.Add(src.CPU)

	t.sched = dst
	if t.ptimer != nil {
		t.ptimer.SetSched(dst)
	}

	unlocked := p.cfg.HWUnlockedSwitch && p.b.Arch != nil && p.b.Arch.UnlockedSwitch()
	if unlocked {
		t.state.Set(Migrate)
	} else {
		enqueueRemote(dst, t)
	}

	t.Stat.ExecTime = 0
	t.Stat.CSwitches = 0

	p.lock.Unlock()
	p.Schedule(t)
	p.lock.Lock()
	return nil
}

// enqueueRemote places t onto dst's ready queue and marks it runnable,
// used both by the locked migration path and by the post-switch
// housekeeping for an unlocked one.
func enqueueRemote(dst *Slot, t *Thread) {
	if dst.class != nil {
		dst.class.Enqueue(dst, t)
	}
	t.state.Set(Ready)
	t.state.Clear(Migrate)
	dst.Resched = dst.Resched.Add(dst.CPU)
}
