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

// Package synch is the default wait-channel layer: an explicit,
// insertion-ordered waiter list per channel plus a per-thread list of
// owned channels, in the style of a Mesa-style condition variable
// (predicate plus explicit waiter list, no implicit spurious wakeups).
package synch

import (
	"sort"
	"sync"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
)

// Chan is a Wchan: a named wait channel a thread can pend on. DREORD
// channels (e.g. a strict FIFO queue) refuse reordering on renice.
type Chan struct {
	name   string
	dreord bool

	mu      sync.Mutex
	waiters []*nucleus.Thread
}

// NewChan constructs a Wchan. dreord true means the wait order is fixed
// and must not be disturbed by a priority change.
func NewChan(name string, dreord bool) *Chan { return &Chan{name: name, dreord: dreord} }

// Name implements nucleus.Wchan.
func (c *Chan) Name() string { return c.name }

// DREORD implements nucleus.Wchan.
func (c *Chan) DREORD() bool { return c.dreord }

func (c *Chan) remove(t *nucleus.Thread) {
	for i, w := range c.waiters {
		if w == t {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// Layer is the default nucleus.Synch implementation.
type Layer struct {
	mu    sync.Mutex
	wchan map[*nucleus.Thread]*Chan
	owned map[*nucleus.Thread]map[*Chan]struct{}
}

// New constructs a Layer.
func New() *Layer {
	return &Layer{
		wchan: make(map[*nucleus.Thread]*Chan),
		owned: make(map[*nucleus.Thread]map[*Chan]struct{}),
	}
}

// Pend registers t as waiting on c, appended after any existing
// waiters. Skins call this when building a wait on top of
// suspend_thread; it is not itself part of the nucleus.Synch interface,
// which only covers the wake side.
func (l *Layer) Pend(c *Chan, t *nucleus.Thread) {
	c.mu.Lock()
	c.waiters = append(c.waiters, t)
	c.mu.Unlock()

	l.mu.Lock()
	l.wchan[t] = c
	l.mu.Unlock()
}

// Own records that t holds ownership of c (a mutex-like channel),
// released in bulk by ReleaseAllOwnerships.
func (l *Layer) Own(c *Chan, t *nucleus.Thread) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owned[t] == nil {
		l.owned[t] = make(map[*Chan]struct{})
	}
	l.owned[t][c] = struct{}{}
}

// ForgetSleeper implements nucleus.Synch.
func (l *Layer) ForgetSleeper(t *nucleus.Thread) {
	l.mu.Lock()
	c, ok := l.wchan[t]
	delete(l.wchan, t)
	l.mu.Unlock()
	if ok {
		c.remove(t)
	}
}

// ReleaseAllOwnerships implements nucleus.Synch.
func (l *Layer) ReleaseAllOwnerships(t *nucleus.Thread) {
	l.mu.Lock()
	chans := l.owned[t]
	delete(l.owned, t)
	l.mu.Unlock()
	for c := range chans {
		l.Flush(c)
	}
}

// RenicedSleeper implements nucleus.Synch: resorts c's waiter list by
// current priority so the highest-priority waiter is woken first; a
// no-op on a DREORD channel (callers are expected to check DREORD
// themselves before calling, matching renice_thread's own check, but
// this guards direct callers too).
func (l *Layer) RenicedSleeper(t *nucleus.Thread) {
	l.mu.Lock()
	c, ok := l.wchan[t]
	l.mu.Unlock()
	if !ok || c.dreord {
		return
	}
	c.mu.Lock()
	sort.SliceStable(c.waiters, func(i, j int) bool {
		return c.waiters[i].CPrio > c.waiters[j].CPrio
	})
	c.mu.Unlock()
}

// Flush implements nucleus.Synch: forcibly empties w's waiter list.
// Use FlushWaiters to also learn which threads were woken, so the
// caller can resume each with an EIDRM-style outcome.
func (l *Layer) Flush(w nucleus.Wchan) {
	l.FlushWaiters(w)
}

// FlushWaiters empties c's waiter list and returns who was on it.
func (l *Layer) FlushWaiters(w nucleus.Wchan) []*nucleus.Thread {
	c, ok := w.(*Chan)
	if !ok {
		return nil
	}
	c.mu.Lock()
	woken := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	l.mu.Lock()
	for _, t := range woken {
		delete(l.wchan, t)
	}
	l.mu.Unlock()
	return woken
}

// Waiters returns a snapshot of the threads currently pending on c, in
// current wait order.
func (c *Chan) Waiters() []*nucleus.Thread {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*nucleus.Thread, len(c.waiters))
	copy(out, c.waiters)
	return out
}
