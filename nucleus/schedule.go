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

const defaultWatchdogPeriod = 4 * time.Second

// Schedule is the pick-switch-finish path: the only point at which a
// thread yields its CPU. Callers never call it from inside a hook,
// callout or ASR (those run with the slot's KCOUT bit set and any
// reschedule intent just accumulates on the resched mask instead).
//
// Every caller passes the thread on whose behalf it is acting — there
// is no ambient "current CPU" to read implicitly here, so t doubles as
// both "who is asking" and, once the pick below confirms it, the
// identity the epilogue operates on.
func (p *Pod) Schedule(t *Thread) {
	p.lock.Lock()
	slot := t.sched
	if slot == nil || !p.status.Has(Active) {
		p.lock.Unlock()
		return
	}

	own := slot.Resched.Contains(slot.CPU)
	slot.Resched = slot.Resched.Remove(slot.CPU)
	slot.Status &^= RPICK
	peers := slot.Resched
	slot.Resched = 0
	curr := slot.Curr
	restarting := curr.state.Has(Restart)
	peers.Each(func(cpu int) {
		if cpu >= 0 && cpu < len(p.sched) {
			p.sched[cpu].Status |= RPICK
		}
	})
	p.lock.Unlock()

	peers.Each(func(cpu int) { p.b.Arch.SendIPI(cpu) })

	if !own && !restarting {
		p.dispatchSignals(curr)
		return
	}

	p.lock.Lock()
	curr = slot.Curr
	zombie := curr.state.Has(Zombie)

	next := slot.class.PickNext(slot)
	if next == nil {
		next = slot.RootCB
	} else {
		next.state.Clear(Ready)
	}

	if next == curr && !curr.state.Has(Restart) {
		p.lock.Unlock()
		p.dispatchSignals(curr)
		return
	}

	prev := curr
	wasShadow := prev.state.Has(Shadow)

	if !prev.IsRoot() && !prev.state.Any(BlockBits) && !prev.state.Has(Zombie) {
		slot.class.Enqueue(slot, prev)
		prev.state.Set(Ready)
	}

	if next.IsRoot() && slot.WDTimer != nil {
		slot.WDTimer.Stop()
		_ = slot.WDTimer.Start(Relative, time.Time{}, defaultWatchdogPeriod)
	}
	if zombie {
		p.runHooksLocked(HookDelete, prev)
	}

	slot.Curr = next
	p.accountSwitchLocked(prev, next)

	unlocked := p.cfg.HWUnlockedSwitch && p.b.Arch.UnlockedSwitch()
	if next == prev {
		prev.state.Clear(Restart)
		p.lock.Unlock()
		p.b.Arch.FinalizeNoSwitch(next)
	} else if unlocked {
		slot.Status |= SWLOCK
		slot.Last = prev
		p.lock.Unlock()
		p.b.Arch.SwitchTo(slot, prev, next)
		p.lock.Lock()
		slot.Status &^= SWLOCK
		p.lock.Unlock()
	} else {
		p.b.Arch.SwitchTo(slot, prev, next)
		p.lock.Unlock()
	}

	// The switch has returned control to prev's own goroutine; from here
	// "current" is prev again, possibly on a different slot if it was
	// migrated while the lock was dropped above.
	home := prev.sched
	if wasShadow && home != nil {
		p.lock.Lock()
		onRoot := home.Curr != nil && home.Curr.IsRoot()
		p.lock.Unlock()
		if onRoot {
			p.relaxedEpilogue(prev)
			return
		}
	}

	p.normalEpilogue(home, prev)
}

// normalEpilogue runs finalize_zombie, the FPU handover and the switch
// hooks for t once it (or whichever thread now owns home) has resumed.
func (p *Pod) normalEpilogue(home *Slot, t *Thread) {
	if home == nil {
		return
	}
	p.lock.Lock()
	p.finalizeZombieLocked(home)
	p.switchFPULocked(home, t)
	p.lock.Unlock()

	p.runHooks(HookSwitch, t)
	p.dispatchSignals(t)
}

// relaxedEpilogue hands a relaxed shadow off to the host scheduler
// instead of running the normal epilogue; see ShadowBridge.ShadowRelax.
// A thread leaving primary mode with the interrupt shield bit set has
// its mate-side shield mirror dropped, honoring config.OptIShield.
func (p *Pod) relaxedEpilogue(t *Thread) {
	if p.b.Shadow == nil {
		return
	}
	p.b.Shadow.ShadowRelax(t)
	if p.cfg.OptIShield && t.state.Has(Shield) {
		p.b.Shadow.ShadowResetShield(t)
	}
}

// finalizeZombieLocked frees the TCB sitting in the slot's single-entry
// zombie handoff, called with the lock held once it's safe to do so:
// after the thread that was running on its own stack has switched away.
func (p *Pod) finalizeZombieLocked(slot *Slot) {
	z := slot.Zombie
	if z == nil {
		return
	}
	slot.Zombie = nil
	if slot.FPUHolder == z {
		slot.FPUHolder = nil
	}
	if z.state.Has(Shadow) && p.b.Shadow != nil {
		p.b.Shadow.ShadowExit(z)
	}
	if p.b.Heap != nil && z.stack != nil {
		p.b.Heap.FreeStack(z.stack)
		z.stack = nil
	}
}

// switchFPULocked performs the FPU ownership handover described for the
// context switch: the outgoing thread's live state is saved only if the
// slot's current holder differs from the incoming thread, and the
// incoming thread's context is restored or simply enabled.
func (p *Pod) switchFPULocked(slot *Slot, next *Thread) {
	if p.b.Arch == nil || !p.cfg.HWFPU || !next.state.Has(FPU) {
		return
	}
	if next.fpuCtx == nil {
		p.b.Arch.InitFPU(next)
	}
	if slot.FPUHolder == next {
		p.b.Arch.EnableFPU(next)
		return
	}
	if slot.FPUHolder != nil && slot.FPUHolder != next {
		p.b.Arch.SaveFPU(slot.FPUHolder)
	}
	p.b.Arch.RestoreFPU(next)
	slot.FPUHolder = next
}

func (p *Pod) accountSwitchLocked(prev, next *Thread) {
	now := time.Now()
	if !prev.Stat.lastStart.IsZero() {
		prev.Stat.ExecTime += now.Sub(prev.Stat.lastStart)
	}
	prev.Stat.CSwitches++
	next.Stat.lastStart = now
}

// dispatchSignals is the signal-dispatch epilogue: if t has pending
// signals and an ASR is installed and not suppressed by ASDI, deliver
// them.
func (p *Pod) dispatchSignals(t *Thread) {
	p.lock.Lock()
	if t.signals == 0 || t.asr == nil || t.state.Has(Asdi) {
		p.lock.Unlock()
		return
	}
	sig := t.signals
	t.signals = 0
	savedMode := t.state
	t.state = (t.state &^ ModeBits) | (t.asrmode & ModeBits)
	savedImask := t.imask
	t.imask = t.asrimask
	t.asrlevel++
	asr := t.asr
	p.lock.Unlock()

	asr(sig)

	p.lock.Lock()
	t.imask = savedImask
	t.state = savedMode
	t.asrlevel--
	p.lock.Unlock()
}
