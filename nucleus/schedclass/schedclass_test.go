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

package schedclass

import (
	"testing"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/config"
)

func threads(t *testing.T, n int, prio int) ([]*nucleus.Thread, func()) {
	t.Helper()
	p, err := nucleus.Init(config.Default(), nucleus.Backends{NewClass: New})
	if err != nil {
		t.Fatalf("nucleus.Init: %v", err)
	}
	out := make([]*nucleus.Thread, n)
	for i := range out {
		th, err := p.InitThread(0, "t", prio, 0, 0)
		if err != nil {
			t.Fatalf("InitThread: %v", err)
		}
		out[i] = th
	}
	return out, func() { _ = nucleus.Shutdown(0) }
}

func TestFIFOWithinLevel(t *testing.T) {
	ts, done := threads(t, 3, 10)
	defer done()

	c := New()
	slot := ts[0].Sched()
	for _, th := range ts {
		c.Enqueue(slot, th)
	}

	for i, want := range ts {
		got := c.PickNext(slot)
		if got != want {
			t.Fatalf("PickNext() #%d = %v, want %v (insertion order)", i, got, want)
		}
	}
	if got := c.PickNext(slot); got != nil {
		t.Errorf("PickNext() on an empty class = %v, want nil", got)
	}
}

func TestHighestPriorityLevelWins(t *testing.T) {
	ts, done := threads(t, 2, 10)
	defer done()
	low, high := ts[0], ts[1]
	low.CPrio = 10
	high.CPrio = 20

	c := New()
	slot := low.Sched()
	c.Enqueue(slot, low)
	c.Enqueue(slot, high)

	if got := c.PickNext(slot); got != high {
		t.Fatalf("PickNext() = %v, want the higher-priority thread", got)
	}
	if got := c.PickNext(slot); got != low {
		t.Fatalf("PickNext() = %v, want the remaining thread", got)
	}
}

func TestDequeueRemoves(t *testing.T) {
	ts, done := threads(t, 2, 10)
	defer done()

	c := New()
	slot := ts[0].Sched()
	c.Enqueue(slot, ts[0])
	c.Enqueue(slot, ts[1])
	c.Dequeue(slot, ts[0])

	if got := c.PickNext(slot); got != ts[1] {
		t.Fatalf("PickNext() = %v, want ts[1] (ts[0] was dequeued)", got)
	}

	// Dequeue of something not enqueued must be a harmless no-op.
	c.Dequeue(slot, ts[0])
}

func TestPutbackMovesToTail(t *testing.T) {
	ts, done := threads(t, 3, 10)
	defer done()

	c := New()
	slot := ts[0].Sched()
	for _, th := range ts {
		c.Enqueue(slot, th)
	}
	c.Putback(slot, ts[0])

	got := []*nucleus.Thread{c.PickNext(slot), c.PickNext(slot), c.PickNext(slot)}
	want := []*nucleus.Thread{ts[1], ts[2], ts[0]}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pick order = %v, want ts[0] moved to the tail: %v", got, want)
		}
	}
}

func TestSetReschedPutsBackIfEnqueued(t *testing.T) {
	ts, done := threads(t, 2, 10)
	defer done()

	c := New()
	slot := ts[0].Sched()
	c.Enqueue(slot, ts[0])
	c.Enqueue(slot, ts[1])

	c.SetResched(slot, ts[0])
	if got := c.PickNext(slot); got != ts[1] {
		t.Fatalf("PickNext() after SetResched = %v, want ts[1] (ts[0] pushed to tail)", got)
	}

	// A thread not currently enqueued (e.g. it's slot.Curr) must be
	// left alone rather than spuriously inserted.
	c.SetResched(slot, ts[0])
}
