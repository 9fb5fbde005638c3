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

package synch

import (
	"testing"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/config"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/schedclass"
)

// threads spins up a bare pod (no architecture, timer or heap backend:
// this package's tests only need real *nucleus.Thread handles to
// exercise the Wchan bookkeeping, not an end-to-end scheduler) and
// returns n freshly initialized threads plus a teardown func.
func threads(t *testing.T, n int) ([]*nucleus.Thread, func()) {
	t.Helper()
	p, err := nucleus.Init(config.Default(), nucleus.Backends{NewClass: schedclass.New})
	if err != nil {
		t.Fatalf("nucleus.Init: %v", err)
	}
	out := make([]*nucleus.Thread, n)
	for i := range out {
		th, err := p.InitThread(0, "w", 10, 0, 0)
		if err != nil {
			t.Fatalf("InitThread: %v", err)
		}
		out[i] = th
	}
	return out, func() { _ = nucleus.Shutdown(0) }
}

func TestPendAndForgetSleeper(t *testing.T) {
	ts, done := threads(t, 1)
	defer done()

	l := New()
	c := NewChan("test", false)
	l.Pend(c, ts[0])

	if got := c.Waiters(); len(got) != 1 || got[0] != ts[0] {
		t.Fatalf("Waiters() = %v, want [ts[0]]", got)
	}

	l.ForgetSleeper(ts[0])
	if got := c.Waiters(); len(got) != 0 {
		t.Fatalf("Waiters() after ForgetSleeper = %v, want empty", got)
	}
}

func TestFlushWaiters(t *testing.T) {
	ts, done := threads(t, 3)
	defer done()

	l := New()
	c := NewChan("test", false)
	for _, th := range ts {
		l.Pend(c, th)
	}

	woken := l.FlushWaiters(c)
	if len(woken) != 3 {
		t.Fatalf("len(FlushWaiters) = %d, want 3", len(woken))
	}
	if got := c.Waiters(); len(got) != 0 {
		t.Fatalf("Waiters() after Flush = %v, want empty", got)
	}
	// ForgetSleeper on an already-flushed waiter must be a no-op, not a
	// double-remove panic.
	l.ForgetSleeper(ts[0])
}

func TestReleaseAllOwnerships(t *testing.T) {
	ts, done := threads(t, 2)
	defer done()

	l := New()
	owner := ts[0]
	waiter := ts[1]

	c := NewChan("mutex", false)
	l.Own(c, owner)
	l.Pend(c, waiter)

	l.ReleaseAllOwnerships(owner)

	if got := c.Waiters(); len(got) != 0 {
		t.Fatalf("Waiters() after ReleaseAllOwnerships = %v, want empty (Flush drains the channel)", got)
	}
}

func TestRenicedSleeperReordersByPriority(t *testing.T) {
	ts, done := threads(t, 3)
	defer done()
	ts[0].CPrio = 10
	ts[1].CPrio = 20
	ts[2].CPrio = 5

	l := New()
	c := NewChan("prio", false)
	for _, th := range ts {
		l.Pend(c, th)
	}

	l.RenicedSleeper(ts[1])

	got := c.Waiters()
	if len(got) != 3 || got[0].CPrio != 20 {
		t.Fatalf("Waiters() after RenicedSleeper = priorities %d,%d,%d, want highest first",
			got[0].CPrio, got[1].CPrio, got[2].CPrio)
	}
}

func TestRenicedSleeperSkipsDREORD(t *testing.T) {
	ts, done := threads(t, 2)
	defer done()
	ts[0].CPrio = 1
	ts[1].CPrio = 99

	l := New()
	c := NewChan("fifo", true)
	l.Pend(c, ts[0])
	l.Pend(c, ts[1])

	l.RenicedSleeper(ts[1])

	got := c.Waiters()
	if got[0] != ts[0] || got[1] != ts[1] {
		t.Fatal("RenicedSleeper reordered a DREORD channel, want insertion order preserved")
	}
}

func TestDREORDAndName(t *testing.T) {
	c := NewChan("named", true)
	if c.Name() != "named" {
		t.Errorf("Name() = %q, want %q", c.Name(), "named")
	}
	if !c.DREORD() {
		t.Error("DREORD() = false, want true")
	}
}
