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

// Package registry is the optional thread name registry: a name-to-TCB
// lookup table kept current by subscribing to the pod's create/delete
// hooks rather than polling. Nothing in this module reads
// config.OptRegistry; a registry is in use only where a caller attaches
// one.
package registry

import (
	"sync"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/errno"
)

// Registry maps thread names to their TCB.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*nucleus.Thread
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*nucleus.Thread)}
}

// Attach subscribes the registry to p's start and delete hooks so its
// table tracks the pod's thread set without the caller needing to
// remember to call Add/Remove by hand.
func (r *Registry) Attach(p *nucleus.Pod) error {
	if err := p.AddHook(nucleus.HookStart, r.add); err != nil {
		return err
	}
	return p.AddHook(nucleus.HookDelete, r.remove)
}

func (r *Registry) add(t *nucleus.Thread) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[t.Name] = t
}

func (r *Registry) remove(t *nucleus.Thread) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byName[t.Name] == t {
		delete(r.byName, t.Name)
	}
}

// Lookup resolves name to its TCB, or ENOENT if no such thread is
// currently registered.
func (r *Registry) Lookup(name string) (*nucleus.Thread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	if !ok {
		return nil, errno.ENOENT
	}
	return t, nil
}

// Names returns a snapshot of every currently registered name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	return out
}
