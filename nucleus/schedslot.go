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

// SlotStatus is the scheduler slot status bitmask.
type SlotStatus uint32

const (
	// KCOUT: this slot is running a hook/callout; reschedule intent is
	// deferred rather than acted on.
	KCOUT SlotStatus = 1 << iota
	// SWLOCK: mid-switch with the global lock dropped.
	SWLOCK
	// RPICK: a remote IPI requesting a re-pick is in flight.
	RPICK
)

// Slot is a per-CPU scheduler slot.
type Slot struct {
	CPU int

	Curr   *Thread
	RootCB *Thread

	// Resched is the CPU set of slots that need a reschedule: this
	// slot's own bit, plus peers it has poked but that haven't yet
	// observed the IPI.
	Resched CPUSet

	Status SlotStatus

	FPUHolder *Thread
	Zombie    *Thread

	// Last is the outgoing thread during an unlocked switch, used to
	// resolve "who am I now" after a migration-in-flight during an
	// unlocked switch.
	Last *Thread

	HTimer  Timer
	WDTimer Timer

	class SchedClass
}

func newSlot(cpu int, class SchedClass) *Slot {
	return &Slot{CPU: cpu, Resched: 0, class: class}
}
