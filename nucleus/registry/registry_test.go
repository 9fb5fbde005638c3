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

package registry

import (
	"testing"
	"time"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/archsim"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/config"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/errno"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/schedclass"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/timerwheel"
)

func testPod(t *testing.T) (*nucleus.Pod, func()) {
	t.Helper()
	wheel := timerwheel.NewWheel()
	arch := archsim.New(wheel)
	cfg := config.Default()
	cfg.HWUnlockedSwitch = true
	p, err := nucleus.Init(cfg, nucleus.Backends{Arch: arch, NewClass: schedclass.New})
	if err != nil {
		wheel.Close()
		t.Fatalf("nucleus.Init: %v", err)
	}
	return p, func() {
		_ = nucleus.Shutdown(0)
		wheel.Close()
	}
}

// startAndSuspend starts th with an entry that self-suspends the moment
// it runs, so the StartThread call's final Schedule rendezvous always
// has somewhere to switch back to.
func startAndSuspend(t *testing.T, p *nucleus.Pod, th *nucleus.Thread) error {
	t.Helper()
	entry := func(any) {
		_ = p.SuspendThread(th, nucleus.Susp, nucleus.Infinite, nucleus.Relative, nil)
	}
	done := make(chan error, 1)
	go func() { done <- p.StartThread(th, 0, 0, nucleus.CPUSetAll, entry, nil) }()
	select {
	case err := <-done:
		return err
	case <-time.After(time.Second):
		t.Fatal("StartThread never returned")
		return nil
	}
}

func TestAttachTracksCreation(t *testing.T) {
	p, done := testPod(t)
	defer done()

	r := New()
	if err := r.Attach(p); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	th, err := p.InitThread(0, "worker", 10, 0, 0)
	if err != nil {
		t.Fatalf("InitThread: %v", err)
	}
	// The name registry is populated by HookStart, which only fires
	// once a thread is actually started.
	if err := startAndSuspend(t, p, th); err != nil {
		t.Fatalf("StartThread: %v", err)
	}

	got, err := r.Lookup("worker")
	if err != nil {
		t.Fatalf("Lookup(worker): %v", err)
	}
	if got != th {
		t.Error("Lookup returned a different thread than the one started")
	}

	names := r.Names()
	if len(names) != 1 || names[0] != "worker" {
		t.Fatalf("Names() = %v, want [worker]", names)
	}
}

func TestLookupMissUnknownName(t *testing.T) {
	r := New()
	if _, err := r.Lookup("nobody"); err != errno.ENOENT {
		t.Errorf("Lookup(nobody) error = %v, want ENOENT", err)
	}
}

func TestAttachTracksDeletion(t *testing.T) {
	p, done := testPod(t)
	defer done()

	r := New()
	if err := r.Attach(p); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	th, err := p.InitThread(0, "gone", 10, 0, 0)
	if err != nil {
		t.Fatalf("InitThread: %v", err)
	}
	if err := startAndSuspend(t, p, th); err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	if _, err := r.Lookup("gone"); err != nil {
		t.Fatalf("Lookup before delete: %v", err)
	}

	if err := p.DeleteThread(th); err != nil {
		t.Fatalf("DeleteThread: %v", err)
	}
	if _, err := r.Lookup("gone"); err != errno.ENOENT {
		t.Errorf("Lookup after delete = %v, want ENOENT", err)
	}
}
