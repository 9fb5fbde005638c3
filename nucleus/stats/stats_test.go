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

package stats

import (
	"testing"
	"time"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/config"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/schedclass"
)

func testPod(t *testing.T) (*nucleus.Pod, func()) {
	t.Helper()
	p, err := nucleus.Init(config.Default(), nucleus.Backends{NewClass: schedclass.New})
	if err != nil {
		t.Fatalf("nucleus.Init: %v", err)
	}
	return p, func() { _ = nucleus.Shutdown(0) }
}

func TestCollectOrdersByExecTimeDescending(t *testing.T) {
	p, done := testPod(t)
	defer done()

	a, err := p.InitThread(0, "a", 10, 0, 0)
	if err != nil {
		t.Fatalf("InitThread(a): %v", err)
	}
	b, err := p.InitThread(0, "b", 20, 0, 0)
	if err != nil {
		t.Fatalf("InitThread(b): %v", err)
	}
	c, err := p.InitThread(0, "c", 5, 0, 0)
	if err != nil {
		t.Fatalf("InitThread(c): %v", err)
	}

	a.Stat.ExecTime = 10 * time.Millisecond
	a.Stat.CSwitches = 3
	b.Stat.ExecTime = 50 * time.Millisecond
	b.Stat.CSwitches = 1
	c.Stat.ExecTime = 20 * time.Millisecond
	c.Stat.CSwitches = 7

	snaps := Collect(p)

	// The root thread is registered too, so expect at least our three plus it.
	var got []string
	for _, s := range snaps {
		got = append(got, s.Name)
	}

	idx := func(name string) int {
		for i, s := range snaps {
			if s.Name == name {
				return i
			}
		}
		t.Fatalf("%s not found in Collect() output: %v", name, got)
		return -1
	}

	ia, ib, ic := idx("a"), idx("b"), idx("c")
	if !(ib < ic && ic < ia) {
		t.Fatalf("order = %v, want b before c before a (descending ExecTime)", got)
	}
}

func TestCollectFieldPassthrough(t *testing.T) {
	p, done := testPod(t)
	defer done()

	th, err := p.InitThread(0, "worker", 15, 0, 0)
	if err != nil {
		t.Fatalf("InitThread: %v", err)
	}
	th.CPrio = 42
	th.BPrio = 15
	th.Stat.ExecTime = 7 * time.Second
	th.Stat.CSwitches = 99

	snaps := Collect(p)
	var found *Snapshot
	for i := range snaps {
		if snaps[i].Name == "worker" {
			found = &snaps[i]
			break
		}
	}
	if found == nil {
		t.Fatal("worker not found in Collect() output")
	}
	if found.CPU != 0 {
		t.Errorf("CPU = %d, want 0", found.CPU)
	}
	if found.CPrio != 42 {
		t.Errorf("CPrio = %d, want 42", found.CPrio)
	}
	if found.BPrio != 15 {
		t.Errorf("BPrio = %d, want 15", found.BPrio)
	}
	if found.ExecTime != 7*time.Second {
		t.Errorf("ExecTime = %v, want 7s", found.ExecTime)
	}
	if found.CSwitches != 99 {
		t.Errorf("CSwitches = %d, want 99", found.CSwitches)
	}
}
