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

// Wchan is a wait channel: a synchronization object a thread can be
// PEND on. The core never looks inside one; it only
// carries the pointer and asks the Synch collaborator to act on it.
type Wchan interface {
	// Name identifies the wchan for diagnostics.
	Name() string
	// DREORD reports whether the wchan's wait order is fixed (e.g.
	// FIFO) and must NOT be disturbed by renice_thread.
	DREORD() bool
}

// Synch is the wait-channel layer collaborator.
type Synch interface {
	// ForgetSleeper removes t from whatever Wchan it is pending on
	// (t.Wchan), without waking anyone else.
	ForgetSleeper(t *Thread)
	// ReleaseAllOwnerships releases every synchronization object t
	// currently owns (mutexes, etc.), waking successors as needed.
	ReleaseAllOwnerships(t *Thread)
	// RenicedSleeper reorders t within its current Wchan to reflect a
	// priority change, unless the Wchan reports DREORD().
	RenicedSleeper(t *Thread)
	// Flush forcibly wakes every waiter on w with EIDRM-style outcome.
	Flush(w Wchan)
}
