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

// Package timerwheel is the default nucleus.Timer/nucleus.TimerSched
// backend: a min-heap of deadlines serviced by one goroutine per wheel.
package timerwheel

import (
	"container/heap"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
)

// hostTimerLockPath is the advisory lock taken while programming the
// host hardware clock, documenting that at most one pod process on a
// host owns the time source at once.
const hostTimerLockPath = "/var/run/iothinx-timesource.lock"

type deadlineHeap []*Timer

func (h deadlineHeap) Len() int            { return len(h) }
func (h deadlineHeap) Less(i, j int) bool  { return h[i].next.Before(h[j].next) }
func (h deadlineHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].idx = i; h[j].idx = j }
func (h *deadlineHeap) Push(x interface{}) { t := x.(*Timer); t.idx = len(*h); *h = append(*h, t) }
func (h *deadlineHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.idx = -1
	*h = old[:n-1]
	return t
}

// Wheel owns one goroutine that services every Timer created against
// it, ordered by a container/heap min-heap of deadlines.
type Wheel struct {
	mu      sync.Mutex
	heap    deadlineHeap
	wake    chan struct{}
	stopped chan struct{}
	log     *logrus.Entry
}

// NewWheel starts a wheel's servicing goroutine.
func NewWheel() *Wheel {
	w := &Wheel{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
		log:     logrus.WithField("component", "timerwheel"),
	}
	w.log.Debug("wheel started")
	go w.run()
	return w
}

// Close stops the servicing goroutine.
func (w *Wheel) Close() {
	close(w.stopped)
	w.log.Debug("wheel stopped")
}

func (w *Wheel) run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		w.mu.Lock()
		var wait time.Duration = time.Hour
		if len(w.heap) > 0 {
			wait = time.Until(w.heap[0].next)
			if wait < 0 {
				wait = 0
			}
		}
		w.mu.Unlock()

		timer.Reset(wait)
		select {
		case <-w.stopped:
			return
		case <-w.wake:
			continue
		case <-timer.C:
			w.fireExpired()
		}
	}
}

func (w *Wheel) fireExpired() {
	now := time.Now()
	var due []*Timer
	w.mu.Lock()
	for len(w.heap) > 0 && !w.heap[0].next.After(now) {
		t := heap.Pop(&w.heap).(*Timer)
		due = append(due, t)
	}
	w.mu.Unlock()

	for _, t := range due {
		t.fire(now)
	}
}

func (w *Wheel) schedule(t *Timer) {
	w.mu.Lock()
	if t.idx >= 0 {
		heap.Fix(&w.heap, t.idx)
	} else {
		heap.Push(&w.heap, t)
	}
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Wheel) unschedule(t *Timer) {
	w.mu.Lock()
	if t.idx >= 0 {
		heap.Remove(&w.heap, t.idx)
	}
	w.mu.Unlock()
}

// Timer is a single nucleus.Timer backed by a Wheel.
type Timer struct {
	wheel *Wheel
	sched nucleus.TimerSched
	thr   *nucleus.Thread
	kind  nucleus.TimerKind

	mu       sync.Mutex
	idx      int
	next     time.Time
	interval time.Duration
	running  bool
	overruns uint64
}

// New constructs a Timer delivering expiries for thr to sched.
func New(sched nucleus.TimerSched, thr *nucleus.Thread, kind nucleus.TimerKind, wheel *Wheel) *Timer {
	return &Timer{wheel: wheel, sched: sched, thr: thr, kind: kind, idx: -1}
}

// Start implements nucleus.Timer.
func (t *Timer) Start(mode nucleus.TimeMode, value time.Time, interval time.Duration) error {
	t.mu.Lock()
	due := value
	if mode == nucleus.Relative {
		due = time.Now().Add(interval)
	}
	t.next = due
	t.interval = interval
	t.running = true
	t.overruns = 0
	t.mu.Unlock()

	t.wheel.schedule(t)
	return nil
}

// Stop implements nucleus.Timer.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
	t.wheel.unschedule(t)
}

// SetSched implements nucleus.Timer: rebinding a Timer to a new slot is
// tracked by the pod itself (the slot pointer lives on the Thread); the
// wheel only needs to keep firing against the same thread.
func (t *Timer) SetSched(slot *nucleus.Slot) {}

// Running implements nucleus.Timer.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Overruns implements nucleus.Timer.
func (t *Timer) Overruns() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.overruns
}

// Pexpect implements nucleus.Timer.
func (t *Timer) Pexpect() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

// Interval implements nucleus.Timer.
func (t *Timer) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

func (t *Timer) fire(now time.Time) {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	if t.interval > 0 {
		missed := uint64(0)
		for !t.next.After(now) {
			t.next = t.next.Add(t.interval)
			missed++
		}
		if missed > 1 {
			t.overruns += missed - 1
		}
		t.wheel.schedule(t)
	} else {
		t.running = false
	}
	sched, thr, kind := t.sched, t.thr, t.kind
	t.mu.Unlock()

	if sched != nil {
		sched.OnTimerExpire(thr, kind)
	}
}

// LockHostClock takes the advisory single-owner lock documenting that
// only one pod process on a host may program the hardware clock device
// at a time. Callers (an Architecture backend's StartCPUTick) hold it
// only across the arm itself, not for the timer's lifetime.
func LockHostClock() (*flock.Flock, error) {
	fl := flock.New(hostTimerLockPath)
	if err := fl.Lock(); err != nil {
		return nil, err
	}
	return fl, nil
}
