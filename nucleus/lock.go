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

import "sync"

// nkLock is the pod's global lock ("nklock"): every mutation
// of the pod, its scheduler slots, thread state and wait-channel edges
// is serialized through it. A real microkernel additionally disables
// local interrupts while held ("IRQ-save"); this Go model doesn't have
// interrupts to disable, so holding the mutex is the whole story, and
// the KCOUT/SWLOCK slot status bits (schedule.go, hooks.go) stand in for
// "don't reschedule while running a callout" / "lock dropped mid-switch".
type nkLock struct {
	mu sync.Mutex
}

func (l *nkLock) Lock()   { l.mu.Lock() }
func (l *nkLock) Unlock() { l.mu.Unlock() }

// LockSched increments t's scheduler-lock depth, preventing it from
// being preempted by a lower- or equal-priority ready thread until a
// matching UnlockSched. Must be called with t == t.sched.Curr.
func (p *Pod) LockSched(t *Thread) {
	p.lock.Lock()
	defer p.lock.Unlock()
	t.schedLockDepth++
	t.state.Set(SchedLocked)
}

// UnlockSched decrements t's scheduler-lock depth; once it reaches zero
// the SchedLocked bit clears and, if a reschedule is pending on t's
// slot, Schedule runs before UnlockSched returns.
func (p *Pod) UnlockSched(t *Thread) {
	p.lock.Lock()
	if t.schedLockDepth > 0 {
		t.schedLockDepth--
	}
	if t.schedLockDepth == 0 {
		t.state.Clear(SchedLocked)
	}
	p.lock.Unlock()
	if t.schedLockDepth == 0 {
		p.Schedule(t)
	}
}
