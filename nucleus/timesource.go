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

const tbRun uint32 = 1

// defaultHostTick is the one-shot delay armed on a slot's host timer
// when the architecture reports no periodic host emulation is needed
// (StartCPUTick's tickKind <= 1). OnTimerExpire re-arms it after every
// expiry, and tickRRLocked charges each expiry as one tick of
// round-robin credit.
const defaultHostTick = time.Millisecond

// enableTimeSourceLocked arms the hardware tick on every online CPU and,
// if configured, a per-CPU watchdog. Init calls it before the pod is
// published as the global pod, so nothing else can reach the pod yet
// and the pod's own lock is not taken; a failed arm stops the CPUs
// already armed, matching "failure anywhere after heap allocation tears
// down partial state".
func (p *Pod) enableTimeSourceLocked() error {
	if p.b.TimeSource == nil {
		p.tbStatus = tbRun
		return nil
	}

	p.wallOffset = p.b.TimeSource.HostTime().Sub(time.Time{}.Add(p.b.TimeSource.CPUTime()))
	p.tbStatus = tbRun

	started := make([]int, 0, len(p.sched))
	for _, slot := range p.sched {
		kind, err := p.b.TimeSource.StartCPUTick(slot.CPU)
		if err != nil {
			for _, cpu := range started {
				p.b.TimeSource.StopCPUTick(cpu)
			}
			p.tbStatus = 0
			return err
		}
		started = append(started, slot.CPU)
		if slot.HTimer != nil {
			if kind > 1 {
				_ = slot.HTimer.Start(Relative, time.Time{}, time.Duration(kind))
			} else {
				_ = slot.HTimer.Start(Absolute, time.Now().Add(defaultHostTick), 0)
			}
		}
		if p.cfg.OptWatchdog && slot.WDTimer != nil {
			_ = slot.WDTimer.Start(Relative, time.Time{}, defaultWatchdogPeriod)
		}
	}
	return nil
}

// disableTimeSource clears TBRUN and stops every CPU's hardware tick
// with the pod's lock released, per the documented race window between
// skin-stack operations during shutdown.
func (p *Pod) disableTimeSource() {
	p.lock.Lock()
	p.tbStatus = 0
	slots := make([]*Slot, len(p.sched))
	copy(slots, p.sched)
	p.lock.Unlock()

	if p.b.TimeSource == nil {
		return
	}
	for _, slot := range slots {
		p.b.TimeSource.StopCPUTick(slot.CPU)
	}
}
