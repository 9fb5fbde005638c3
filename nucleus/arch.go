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

// Architecture is the machine-level collaborator: context
// switching, FPU save/restore, IPI delivery and the hardware tick.
type Architecture interface {
	// InitThreadContext prepares t's architecture context to begin
	// executing entry(cookie) on stack when first switched to.
	InitThreadContext(t *Thread, entry func(cookie any), cookie any, stack []byte)
	// SwitchTo performs the actual context switch from prev to next on
	// slot. It returns once next has been switched back out (i.e. once
	// prev is about to run again), mirroring a real arch switch_to.
	SwitchTo(slot *Slot, prev, next *Thread)
	// FinalizeNoSwitch is called instead of SwitchTo when next == prev
	// and RESTART is set: the architecture resets the current context
	// in place rather than switching away and back.
	FinalizeNoSwitch(t *Thread)

	// SaveFPU copies the live FPU state into t's FPU context.
	SaveFPU(t *Thread)
	// RestoreFPU loads t's FPU context into the live FPU.
	RestoreFPU(t *Thread)
	// EnableFPU turns on FPU access for the current context without a
	// state transfer (used when the FPU already holds t's state).
	EnableFPU(t *Thread)
	// InitFPU initializes a freshly-allocated FPU context for t.
	InitFPU(t *Thread)

	// FirstCPU returns the lowest-numbered CPU in mask.
	FirstCPU(mask CPUSet) (int, bool)
	// SendIPI asks cpu to re-examine its resched bit at its next
	// interrupt.
	SendIPI(cpu int)

	// UnlockedSwitch reports whether this backend supports dropping the
	// global lock across SwitchTo.
	UnlockedSwitch() bool
}
