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

// Package shadowbridge is the default ShadowBridge backend. With
// pervasive mode disabled, ShadowStart and ShadowSendSig return ENOSYS
// and every other method does nothing, matching a nucleus built without
// user-space shadow support; New builds an in-process bridge that
// tracks each shadow thread's "mate" as a small in-memory record,
// standing in for the host-OS task a real pervasive nucleus would bind
// to.
package shadowbridge

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/errno"
)

// Disabled is a ShadowBridge that rejects ShadowStart and ShadowSendSig
// with ENOSYS; its other methods do nothing and ShadowRPICheck reports
// false. Suitable when config.OptPervasive is false.
type Disabled struct{}

func (Disabled) ShadowStart(t *nucleus.Thread) error           { return errno.ENOSYS }
func (Disabled) ShadowSuspend(t *nucleus.Thread)                {}
func (Disabled) ShadowRelax(t *nucleus.Thread)                  {}
func (Disabled) ShadowSendSig(t *nucleus.Thread, sig int) error { return errno.ENOSYS }
func (Disabled) ShadowExit(t *nucleus.Thread)                   {}
func (Disabled) ShadowRPICheck(t *nucleus.Thread) bool          { return false }
func (Disabled) ShadowResetShield(t *nucleus.Thread)            {}

// mate is the bridge's view of a shadow thread's user-space half.
type mate struct {
	suspended bool
	shield    bool
}

// Bridge is the pervasive-mode ShadowBridge: each shadow thread's mate
// is tracked in-process rather than bound to a real host task, since
// this module has no actual user-space half to hand off to.
type Bridge struct {
	mu    sync.Mutex
	mates map[*nucleus.Thread]*mate
	log   *logrus.Entry
}

// New constructs a pervasive-mode Bridge.
func New() *Bridge {
	return &Bridge{
		mates: make(map[*nucleus.Thread]*mate),
		log:   logrus.WithField("component", "shadowbridge"),
	}
}

// HasMate reports whether t currently has a tracked mate record, for
// diagnostics and tests exercising the bind/exit lifecycle from outside
// the package.
func (b *Bridge) HasMate(t *nucleus.Thread) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.mates[t]
	return ok
}

func (b *Bridge) mateFor(t *nucleus.Thread) *mate {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.mates[t]
	if !ok {
		m = &mate{}
		b.mates[t] = m
	}
	return m
}

// ShadowStart implements nucleus.ShadowBridge.
func (b *Bridge) ShadowStart(t *nucleus.Thread) error {
	b.mateFor(t)
	b.log.WithField("thread", t.Name).Debug("shadow mate bound")
	return nil
}

// ShadowSuspend implements nucleus.ShadowBridge.
func (b *Bridge) ShadowSuspend(t *nucleus.Thread) {
	m := b.mateFor(t)
	b.mu.Lock()
	m.suspended = true
	b.mu.Unlock()
}

// ShadowRelax implements nucleus.ShadowBridge: it only logs the switch
// to secondary mode. There is no real host scheduler here to run the
// mate on, and the mate record is left unchanged.
func (b *Bridge) ShadowRelax(t *nucleus.Thread) {
	b.log.WithField("thread", t.Name).Debug("shadow relaxed to secondary mode")
}

// ShadowSendSig implements nucleus.ShadowBridge.
func (b *Bridge) ShadowSendSig(t *nucleus.Thread, sig int) error {
	b.log.WithFields(logrus.Fields{"thread": t.Name, "sig": sig}).Debug("shadow mate signaled")
	return nil
}

// ShadowExit implements nucleus.ShadowBridge.
func (b *Bridge) ShadowExit(t *nucleus.Thread) {
	b.mu.Lock()
	delete(b.mates, t)
	b.mu.Unlock()
}

// ShadowRPICheck implements nucleus.ShadowBridge. This bridge never
// requests a remote priority-inheritance coupling check; it always
// reports false.
func (b *Bridge) ShadowRPICheck(t *nucleus.Thread) bool { return false }

// ShadowResetShield implements nucleus.ShadowBridge.
func (b *Bridge) ShadowResetShield(t *nucleus.Thread) {
	m := b.mateFor(t)
	b.mu.Lock()
	m.shield = false
	b.mu.Unlock()
}
