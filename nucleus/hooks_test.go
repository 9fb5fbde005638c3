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

import "testing"

func TestHookListOrderAndRemove(t *testing.T) {
	var l hookList
	var order []string

	first := func(t *Thread) { order = append(order, "first") }
	second := func(t *Thread) { order = append(order, "second") }
	third := func(t *Thread) { order = append(order, "third") }

	l.add(first)
	l.add(second)
	l.add(third)

	l.run(nil)
	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("run order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("run order = %v, want %v", order, want)
		}
	}

	if !l.remove(second) {
		t.Fatal("remove(second) = false, want true")
	}
	order = nil
	l.run(nil)
	want = []string{"first", "third"}
	if len(order) != len(want) || order[0] != want[0] || order[1] != want[1] {
		t.Fatalf("run order after remove = %v, want %v", order, want)
	}

	if l.remove(second) {
		t.Error("remove(second) a second time = true, want false")
	}
}

func TestHookListRemoveTail(t *testing.T) {
	var l hookList
	only := func(t *Thread) {}
	l.add(only)
	if !l.remove(only) {
		t.Fatal("remove(only) = false, want true")
	}
	if l.head != nil || l.tail != nil {
		t.Fatal("hookList not empty after removing its only entry")
	}
}

func TestPodHookTypeValidation(t *testing.T) {
	p := &Pod{}
	if err := p.AddHook(HookType(99), func(t *Thread) {}); err == nil {
		t.Error("AddHook with an unknown HookType succeeded, want an error")
	}
	if err := p.RemoveHook(HookType(99), func(t *Thread) {}); err == nil {
		t.Error("RemoveHook with an unknown HookType succeeded, want an error")
	}
}

func TestRunHooksSkipsRoot(t *testing.T) {
	p := &Pod{}
	called := false
	_ = p.AddHook(HookStart, func(t *Thread) { called = true })

	root := &Thread{state: ThRoot}
	p.runHooks(HookStart, root)
	if called {
		t.Error("runHooks invoked a hook for the root thread")
	}

	ordinary := &Thread{}
	p.runHooks(HookStart, ordinary)
	if !called {
		t.Error("runHooks did not invoke a hook for a non-root thread")
	}
}
