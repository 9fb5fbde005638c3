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

package shadowbridge

import (
	"testing"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/config"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/errno"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/schedclass"
)

func testThread(t *testing.T) (*nucleus.Thread, func()) {
	t.Helper()
	p, err := nucleus.Init(config.Default(), nucleus.Backends{NewClass: schedclass.New})
	if err != nil {
		t.Fatalf("nucleus.Init: %v", err)
	}
	th, err := p.InitThread(0, "t", 10, 0, 0)
	if err != nil {
		t.Fatalf("InitThread: %v", err)
	}
	return th, func() { _ = nucleus.Shutdown(0) }
}

func TestDisabledReturnsENOSYS(t *testing.T) {
	th, done := testThread(t)
	defer done()

	var b nucleus.ShadowBridge = Disabled{}
	if err := b.ShadowStart(th); err != errno.ENOSYS {
		t.Errorf("ShadowStart = %v, want ENOSYS", err)
	}
	if err := b.ShadowSendSig(th, 9); err != errno.ENOSYS {
		t.Errorf("ShadowSendSig = %v, want ENOSYS", err)
	}
	if b.ShadowRPICheck(th) {
		t.Error("ShadowRPICheck on Disabled = true, want false")
	}
	// The rest must simply not panic.
	b.ShadowSuspend(th)
	b.ShadowRelax(th)
	b.ShadowExit(th)
	b.ShadowResetShield(th)
}

func TestBridgeTracksMateLifecycle(t *testing.T) {
	th, done := testThread(t)
	defer done()

	b := New()
	if err := b.ShadowStart(th); err != nil {
		t.Fatalf("ShadowStart: %v", err)
	}

	m := b.mateFor(th)
	if m.suspended {
		t.Fatal("mate starts suspended")
	}

	b.ShadowSuspend(th)
	if !b.mateFor(th).suspended {
		t.Error("ShadowSuspend did not mark the mate suspended")
	}

	b.ShadowResetShield(th)
	if b.mateFor(th).shield {
		t.Error("ShadowResetShield left shield set")
	}

	b.ShadowExit(th)
	b.mu.Lock()
	_, stillTracked := b.mates[th]
	b.mu.Unlock()
	if stillTracked {
		t.Error("ShadowExit did not remove the mate entry")
	}
}

func TestBridgeRPICheckAlwaysFalse(t *testing.T) {
	th, done := testThread(t)
	defer done()

	b := New()
	if b.ShadowRPICheck(th) {
		t.Error("ShadowRPICheck = true, want false (no remote coupling in this bridge)")
	}
}
