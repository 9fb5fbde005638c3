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

// SchedClass is the per-CPU ready-queue policy collaborator.
// The core treats it as a capability set and never inspects its internal
// queueing order.
type SchedClass interface {
	// Enqueue places t on the ready queue it owns for slot.
	Enqueue(slot *Slot, t *Thread)
	// Dequeue removes t from the ready queue.
	Dequeue(slot *Slot, t *Thread)
	// PickNext returns the thread the slot should run next, or nil if
	// the ready queue is empty (the caller falls back to slot.RootCB).
	PickNext(slot *Slot) *Thread
	// Putback re-inserts t at a position reflecting a change to its
	// current priority (renice_thread).
	Putback(slot *Slot, t *Thread)
	// SetResched is consulted by the round-robin credit accounting to
	// request a reschedule when a quantum is exhausted.
	SetResched(slot *Slot, t *Thread)
}

// NewSchedClassFunc constructs one SchedClass instance per scheduler
// slot; the pod calls it once per CPU at Init time.
type NewSchedClassFunc func() SchedClass
