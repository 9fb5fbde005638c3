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
	"fmt"
	"strings"
	"time"
)

// FaultInfo describes a trapped machine fault, as reported by an
// Architecture backend to TrapFault.
type FaultInfo struct {
	Thread   *Thread
	FPUUse   bool
	UserMode bool
	Idle     bool
	Async    bool
}

// TrapFault is the fault path: returns true if the fault was handled
// here and the caller need not escalate further.
func (p *Pod) TrapFault(info FaultInfo) bool {
	p.lock.Lock()
	if !p.status.Has(Active) || (info.Idle && !info.Async) {
		p.lock.Unlock()
		return false
	}

	t := info.Thread
	if info.FPUUse && t.state.Has(Shadow) && t.fpuCtx == nil {
		if p.b.Arch != nil {
			p.b.Arch.InitFPU(t)
		}
		p.lock.Unlock()
		return true
	}

	if !info.UserMode && !t.state.Has(Shadow) {
		p.lock.Unlock()
		p.SuspendThread(t, Susp, Infinite, Relative, nil)
		return true
	}

	if t.state.Has(Shadow) {
		p.lock.Unlock()
		p.relaxedEpilogue(t)
		return false
	}

	p.lock.Unlock()
	return false
}

// fatal latches the pod into the FATAL status, appends a formatted
// thread dump to the diagnostic buffer, and panics. Fatal is sticky:
// later fatals append to the same buffer rather than replacing it.
// Must be called with the lock held; it does not release it before
// panicking, matching an architecture-specific panic that never
// returns. cpu is the current CPU the fatal was raised on, or -1 if
// none is meaningful.
func (p *Pod) fatal(reason string, cpu int) {
	p.status |= Fatal
	p.fatalMu.Lock()
	p.fatalBuf += p.formatDiagnosticLocked(reason, cpu)
	buf := p.fatalBuf
	p.fatalMu.Unlock()
	if p.log != nil && p.fatalLimiter != nil && p.fatalLimiter.Allow() {
		p.log.WithField("cpu", cpu).Error(buf)
	}
	panic(buf)
}

func (p *Pod) formatDiagnosticLocked(reason string, cpu int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "pod fatal: %s\n", reason)
	for _, t := range p.threads {
		tcpu := -1
		if t.sched != nil {
			tcpu = t.sched.CPU
		}
		timeout := "-"
		if t.rtimer != nil && t.rtimer.Running() {
			timeout = t.rtimer.Pexpect().Sub(time.Now()).String()
		}
		fmt.Fprintf(&b, "  %-24s cpu=%-3d pid=%-8d cprio=%-4d bprio=%-4d timeout=%-10s state=%#x\n",
			t.Name, tcpu, t.UserPID, t.CPrio, t.BPrio, timeout, uint32(t.state))
	}
	fmt.Fprintf(&b, "master clock running=%v cpu=%d\n", p.tbStatus != 0, cpu)
	return b.String()
}
