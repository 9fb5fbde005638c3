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

// ActivateRR arms round-robin credit on every RRB thread to quantum.
// Each slot's host tick (periodic.go's OnTimerExpire, HostTimer case)
// decrements the running thread's credit and forces a reschedule on
// exhaustion; the scheduling class only learns about it through
// SetResched.
func (p *Pod) ActivateRR(quantum time.Duration) {
	p.lock.Lock()
	defer p.lock.Unlock()
	for _, t := range p.threads {
		if t.state.Has(RRB) {
			t.RRPeriod = quantum
			t.RRCredit = quantum
		}
	}
}

// DeactivateRR leaves the RRB flag attached but lifts every such
// thread's credit to Infinite, so round-robin preemption stops without
// discarding the policy assignment.
func (p *Pod) DeactivateRR() {
	p.lock.Lock()
	defer p.lock.Unlock()
	for _, t := range p.threads {
		if t.state.Has(RRB) {
			t.RRCredit = Infinite
		}
	}
}
