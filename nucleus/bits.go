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

import "math/bits"

// State is the per-thread state bitmask.
type State uint32

// State bits. RUNNING is implicit: a thread with none of these bits set,
// and READY unset, is the slot's curr.
const (
	Dormant State = 1 << iota
	Susp
	Delay
	Pend
	Ready
	ThRoot
	Shadow
	Boost
	SchedLocked
	RRB
	FPU
	Zombie
	Started
	Restart
	Migrate
	Relax
	Shield
	Asdi
)

// BlockBits is the set of state bits that collectively mean "not
// runnable".
const BlockBits = Dormant | Susp | Delay | Pend | Relax

// ModeBits is the subset of State that start_thread/restart_thread latch
// from caller-supplied mode flags.
const ModeBits = SchedLocked | RRB | Asdi | Shield | Susp

// Has reports whether all bits in f are set in s.
func (s State) Has(f State) bool { return s&f == f }

// Any reports whether any bit in f is set in s.
func (s State) Any(f State) bool { return s&f != 0 }

// Set ORs f into s.
func (s *State) Set(f State) { *s |= f }

// Clear ANDs the complement of f into s.
func (s *State) Clear(f State) { *s &^= f }

// Info is the per-thread one-shot outcome bitmask.
type Info uint32

const (
	Timeo Info = 1 << iota
	Rmid
	Break
	Waken
	Robbed
	Kicked
	Prioset
)

func (i Info) Has(f Info) bool { return i&f == f }
func (i *Info) Set(f Info)     { *i |= f }
func (i *Info) Clear(f Info)   { *i &^= f }

// CPUSet is a bitmask of CPU indices, supporting up to 64 CPUs.
type CPUSet uint64

// CPUSetAll is the full-width mask; callers AND it down to NumCPU.
const CPUSetAll CPUSet = ^CPUSet(0)

func cpuBit(cpu int) CPUSet { return CPUSet(1) << uint(cpu) }

// Contains reports whether cpu is a member of the set.
func (s CPUSet) Contains(cpu int) bool { return s&cpuBit(cpu) != 0 }

// Add returns s with cpu added.
func (s CPUSet) Add(cpu int) CPUSet { return s | cpuBit(cpu) }

// Remove returns s with cpu removed.
func (s CPUSet) Remove(cpu int) CPUSet { return s &^ cpuBit(cpu) }

// Empty reports whether the set has no members.
func (s CPUSet) Empty() bool { return s == 0 }

// First returns the lowest-numbered CPU in the set, and false if empty.
func (s CPUSet) First() (int, bool) {
	if s == 0 {
		return 0, false
	}
	return bits.TrailingZeros64(uint64(s)), true
}

// Each calls fn for every CPU in the set, lowest first.
func (s CPUSet) Each(fn func(cpu int)) {
	for s != 0 {
		cpu, _ := s.First()
		fn(cpu)
		s = s.Remove(cpu)
	}
}
