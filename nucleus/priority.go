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

// ReniceThread changes t's base priority to prio, keeping cprio in sync
// with it unless a priority-inheritance boost is in progress and prio
// is not an increase. It never reschedules.
func (p *Pod) ReniceThread(t *Thread, prio int) {
	p.lock.Lock()
	defer p.lock.Unlock()

	old := t.CPrio
	changed := t.BPrio != prio
	t.BPrio = prio

	if !t.state.Has(Boost) || prio > old {
		t.CPrio = prio
	} else if p.cfg.OptPrioCpl && t.state.Has(Shadow) && p.b.Shadow != nil && p.b.Shadow.ShadowRPICheck(t) {
		// The mate asked for remote priority-inheritance coupling: honor
		// the lowered base priority even while a boost would otherwise
		// have kept cprio pinned at the inherited ceiling.
		t.CPrio = prio
	}

	if t.state.Has(Pend) && changed && t.wchan != nil && !t.wchan.DREORD() {
		if p.b.Synch != nil {
			p.b.Synch.RenicedSleeper(t)
		}
	}

	if t.state.Has(Ready) && !t.state.Has(SchedLocked) && t.sched != nil && t.sched.class != nil {
		t.sched.class.Putback(t.sched, t)
	}
}
