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

import (
	"reflect"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/errno"
)

// HookType identifies one of the pod's three hook queues.
type HookType int

const (
	HookStart HookType = iota
	HookSwitch
	HookDelete
)

// HookFunc is a hook callback. It runs with scheduling effectively
// locked (the owning slot's KCOUT status bit is set) and must not call
// Schedule.
type HookFunc func(t *Thread)

type hookNode struct {
	fn   HookFunc
	next *hookNode
}

// hookList is a singly-linked FIFO-of-insertion queue. New entries are
// appended at the tail so iteration order matches registration order.
// The iterator captures node.next before invoking fn so
// a callback may safely add or remove entries from the same queue.
type hookList struct {
	head, tail *hookNode
}

func (h *hookList) add(fn HookFunc) {
	n := &hookNode{fn: fn}
	if h.tail == nil {
		h.head, h.tail = n, n
		return
	}
	h.tail.next = n
	h.tail = n
}

// remove deletes the first node whose fn has the same underlying code
// pointer as fn (named-function identity; closures are not guaranteed
// stable and should not be passed to RemoveHook).
func (h *hookList) remove(fn HookFunc) bool {
	target := reflect.ValueOf(fn).Pointer()
	var prev *hookNode
	for n := h.head; n != nil; n = n.next {
		if reflect.ValueOf(n.fn).Pointer() == target {
			if prev == nil {
				h.head = n.next
			} else {
				prev.next = n.next
			}
			if n == h.tail {
				h.tail = prev
			}
			return true
		}
		prev = n
	}
	return false
}

func (h *hookList) run(t *Thread) {
	n := h.head
	for n != nil {
		next := n.next
		n.fn(t)
		n = next
	}
}

// AddHook registers routine on the queue named by typ, appended after
// any existing entries.
func (p *Pod) AddHook(typ HookType, routine HookFunc) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	l, err := p.hookList(typ)
	if err != nil {
		return err
	}
	l.add(routine)
	return nil
}

// RemoveHook unregisters routine from the queue named by typ.
func (p *Pod) RemoveHook(typ HookType, routine HookFunc) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	l, err := p.hookList(typ)
	if err != nil {
		return err
	}
	if !l.remove(routine) {
		return errno.EINVAL
	}
	return nil
}

func (p *Pod) hookList(typ HookType) (*hookList, error) {
	switch typ {
	case HookStart:
		return &p.hooks[HookStart], nil
	case HookSwitch:
		return &p.hooks[HookSwitch], nil
	case HookDelete:
		return &p.hooks[HookDelete], nil
	default:
		return nil, errno.EINVAL
	}
}

// runHooks fires the given queue for t, unless t is the root thread:
// the root thread never triggers hooks. The owning slot's KCOUT status
// bit is set for the duration, matching HookFunc's documented contract.
// Must be called with the lock NOT held.
func (p *Pod) runHooks(typ HookType, t *Thread) {
	if t.state.Has(ThRoot) {
		return
	}

	p.lock.Lock()
	slot := t.sched
	if slot != nil {
		slot.Status |= KCOUT
	}
	p.lock.Unlock()

	p.hooks[typ].run(t)

	p.lock.Lock()
	if slot != nil {
		slot.Status &^= KCOUT
	}
	p.lock.Unlock()
}

// runHooksLocked is runHooks for the one call site (Schedule's own
// zombie-epilogue callout) that already holds the lock: it toggles
// KCOUT directly instead of re-acquiring it.
func (p *Pod) runHooksLocked(typ HookType, t *Thread) {
	if t.state.Has(ThRoot) {
		return
	}
	slot := t.sched
	if slot != nil {
		slot.Status |= KCOUT
	}
	p.hooks[typ].run(t)
	if slot != nil {
		slot.Status &^= KCOUT
	}
}
