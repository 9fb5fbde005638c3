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

// ShadowBridge is the user-space shadow-task collaborator,
// consulted only when config.OptPervasive is set. A thread with the
// Shadow state bit is bound to a user-space "mate" on the host OS; the
// bridge mediates the primary/secondary mode transitions named in the
// Glossary.
type ShadowBridge interface {
	// ShadowStart binds t to its mate, called from start_thread.
	ShadowStart(t *Thread) error
	// ShadowSuspend freezes the mate so the nucleus can actually stop a
	// relaxed shadow.
	ShadowSuspend(t *Thread)
	// ShadowRelax transitions t from primary to secondary mode, handing
	// execution to the host scheduler.
	ShadowRelax(t *Thread)
	// ShadowSendSig delivers a lethal signal to t's mate, used by
	// delete_thread's deferred-deletion path.
	ShadowSendSig(t *Thread, sig int) error
	// ShadowExit retires t's mate-tracking record. Called by the nucleus
	// itself once t's TCB is actually being freed: from finalizeZombieLocked
	// for a self-delete, or from CompleteShadowExit for a delete that
	// DeleteThread deferred because the mate was still running.
	ShadowExit(t *Thread)
	// ShadowRPICheck reports whether t's mate requested a remote
	// priority-inheritance coupling check (config.OptPrioCpl).
	ShadowRPICheck(t *Thread) bool
	// ShadowResetShield clears the mate-side interrupt shield mirror.
	ShadowResetShield(t *Thread)
}
