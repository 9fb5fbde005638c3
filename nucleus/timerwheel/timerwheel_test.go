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

package timerwheel

import (
	"sync"
	"testing"
	"time"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
)

// fakeSched records every OnTimerExpire call so a test can wait for a
// specific number of firings without polling the Timer's own state.
type fakeSched struct {
	mu    sync.Mutex
	fired []nucleus.TimerKind
	done  chan struct{}
}

func newFakeSched(expect int) *fakeSched {
	return &fakeSched{done: make(chan struct{}, expect)}
}

func (f *fakeSched) OnTimerExpire(thr *nucleus.Thread, which nucleus.TimerKind) {
	f.mu.Lock()
	f.fired = append(f.fired, which)
	f.mu.Unlock()
	f.done <- struct{}{}
}

func (f *fakeSched) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fired)
}

func TestOneShotTimerFires(t *testing.T) {
	w := NewWheel()
	defer w.Close()

	sched := newFakeSched(1)
	tm := New(sched, nil, nucleus.ResumeTimer, w)

	if tm.Running() {
		t.Fatal("Running() before Start = true")
	}
	if err := tm.Start(nucleus.Absolute, time.Now().Add(10*time.Millisecond), 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !tm.Running() {
		t.Fatal("Running() after Start = false")
	}

	select {
	case <-sched.done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	if sched.count() != 1 {
		t.Fatalf("fire count = %d, want 1", sched.count())
	}
	if tm.Running() {
		t.Error("Running() after a one-shot fire = true, want false")
	}
}

func TestStopBeforeFire(t *testing.T) {
	w := NewWheel()
	defer w.Close()

	sched := newFakeSched(1)
	tm := New(sched, nil, nucleus.ResumeTimer, w)
	if err := tm.Start(nucleus.Relative, time.Time{}, 50*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tm.Stop()

	select {
	case <-sched.done:
		t.Fatal("stopped timer fired anyway")
	case <-time.After(100 * time.Millisecond):
	}
	if tm.Running() {
		t.Error("Running() after Stop = true")
	}
}

func TestPeriodicTimerAccumulatesOverruns(t *testing.T) {
	w := NewWheel()
	defer w.Close()

	sched := newFakeSched(0)
	tm := New(sched, nil, nucleus.PeriodicTimer, w)
	if err := tm.Start(nucleus.Relative, time.Time{}, 5*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Keep the second OnTimerExpire callback blocked long enough for
	// several periods to be missed; the wheel counts them as overruns on
	// the firing that follows once that callback returns.
	<-sched.done
	time.Sleep(30 * time.Millisecond)
	<-sched.done
	<-sched.done

	if got := tm.Overruns(); got == 0 {
		t.Error("Overruns() = 0 after a 30ms stall on a 5ms period, want > 0")
	}
	tm.Stop()
}

func TestPexpectAndInterval(t *testing.T) {
	w := NewWheel()
	defer w.Close()

	sched := newFakeSched(0)
	tm := New(sched, nil, nucleus.ResumeTimer, w)
	before := time.Now()
	if err := tm.Start(nucleus.Relative, time.Time{}, 20*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := tm.Interval(); got != 20*time.Millisecond {
		t.Errorf("Interval() = %v, want 20ms", got)
	}
	if got := tm.Pexpect(); got.Before(before) {
		t.Error("Pexpect() is before Start was called")
	}
	tm.Stop()
}
