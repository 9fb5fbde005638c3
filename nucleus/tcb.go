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

// ThreadStats accumulates the per-thread execution-time and
// context-switch accounting (maintained whatever config.OptStats says,
// since the bookkeeping itself is cheap and core to the rescheduler).
type ThreadStats struct {
	ExecTime  time.Duration
	CSwitches uint64
	lastStart time.Time
}

// Thread is the per-thread control block (TCB). All fields
// are mutated only while the owning Pod's nklock is held; there is
// deliberately no per-TCB mutex.
type Thread struct {
	Name    string
	UserPID int32 // 0 if none

	state State
	info  Info

	// Priorities and class handles.
	BPrio, CPrio, IPrio int
	BaseClass           SchedClass
	Class               SchedClass
	InitClass           SchedClass

	// wchan is non-nil iff Pend is set, except during the brief window
	// where a suspend folds Susp over a pre-existing pend.
	wchan Wchan

	Affinity CPUSet

	RRPeriod, RRCredit time.Duration

	rtimer Timer // resume timer
	ptimer Timer // periodic timer

	// Start parameters, retained for restart_thread.
	entry  func(cookie any)
	cookie any
	imask  uint32
	imode  State

	// Asynchronous signal routine.
	asr        func(sig uint32)
	asrmode    State
	asrimask   uint32
	asrlevel   int32
	signals    uint32

	Stat ThreadStats

	sched *Slot

	schedLockDepth int

	// fpuCtx is the opaque FPU context blob handed to Architecture.
	fpuCtx any

	// stack is the thread's stack allocation, returned to the Heap
	// collaborator on delete.
	stack []byte

	// started is neither set nor read by the nucleus; archsim keeps its
	// per-thread goroutine state in its own map.
	started chan struct{}
}

// State returns a snapshot of t's state bitmask.
func (t *Thread) State() State { return t.state }

// InfoBits returns a snapshot of t's one-shot info bitmask.
func (t *Thread) InfoBits() Info { return t.info }

// Wchan returns the wait channel t is currently pending on, or nil.
func (t *Thread) Wchan() Wchan { return t.wchan }

// Sched returns the scheduler slot t is currently bound to.
func (t *Thread) Sched() *Slot { return t.sched }

// FPUContext returns the opaque FPU context blob an Architecture
// backend previously attached to t with SetFPUContext, or nil if none
// has been allocated yet.
func (t *Thread) FPUContext() any { return t.fpuCtx }

// SetFPUContext attaches an opaque FPU context blob to t. Called by an
// Architecture backend from InitFPU.
func (t *Thread) SetFPUContext(ctx any) { t.fpuCtx = ctx }

// Entry returns the entry point and cookie latched by StartThread, for
// an Architecture backend's InitThreadContext to install.
func (t *Thread) Entry() (func(cookie any), any) { return t.entry, t.cookie }

// Stack returns the stack allocation bound to t.
func (t *Thread) Stack() []byte { return t.stack }

// Name already exported as a field; Cookie mirrors it for callers that
// only need the opaque cookie.
func (t *Thread) Cookie() any { return t.cookie }

// IsRoot reports whether t is a per-CPU root (idle) thread.
func (t *Thread) IsRoot() bool { return t.state.Has(ThRoot) }

// newTCB allocates a bare TCB attached to slot, DORMANT, not yet on any
// list. Field/stack setup proper happens in InitThread (lifecycle.go),
// which owns stack allocation and the rest of start-up field setup.
func newTCB(name string, prio int, cls SchedClass, slot *Slot) *Thread {
	return &Thread{
		Name:      name,
		BPrio:     prio,
		CPrio:     prio,
		IPrio:     prio,
		BaseClass: cls,
		Class:     cls,
		InitClass: cls,
		Affinity:  CPUSetAll,
		sched:     slot,
		state:     Dormant,
	}
}
