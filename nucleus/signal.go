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

// SetThreadASR installs t's asynchronous signal routine along with the
// mode bits and interrupt mask dispatch_signals swaps in for the
// duration of the call. Passing a nil routine disables delivery.
func (p *Pod) SetThreadASR(t *Thread, asr func(sig uint32), mode State, imask uint32) {
	p.lock.Lock()
	defer p.lock.Unlock()
	t.asr = asr
	t.asrmode = mode & ModeBits
	t.asrimask = imask
}

// SetThreadMode clears, then sets, the given subset of t's mode bits,
// returning the mode in effect beforehand. Only ModeBits may be
// supplied in either argument.
func (p *Pod) SetThreadMode(t *Thread, clr, set State) State {
	p.lock.Lock()
	defer p.lock.Unlock()
	prev := t.state & ModeBits
	t.state.Clear(clr & ModeBits)
	t.state.Set(set & ModeBits)
	return prev
}

// RaiseSignal ORs sig into t's pending signal bitmask; delivery happens
// on t's next pass through the scheduler epilogue.
func (p *Pod) RaiseSignal(t *Thread, sig uint32) {
	p.lock.Lock()
	t.signals |= sig
	self := t.sched != nil && t.sched.Curr == t
	p.lock.Unlock()
	if self {
		p.Schedule(t)
	}
}
