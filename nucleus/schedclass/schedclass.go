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

// Package schedclass is the default per-CPU ready-queue policy: one
// FIFO list per priority level, highest priority first.
package schedclass

import (
	"container/list"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
)

const numLevels = 256

// Class is a priority-level array of FIFO queues.
type Class struct {
	levels [numLevels]*list.List
	index  map[*nucleus.Thread]*list.Element
	lvlOf  map[*nucleus.Thread]int
}

// New constructs a Class. It satisfies nucleus.NewSchedClassFunc.
func New() nucleus.SchedClass {
	return &Class{
		index: make(map[*nucleus.Thread]*list.Element),
		lvlOf: make(map[*nucleus.Thread]int),
	}
}

func (c *Class) levelFor(t *nucleus.Thread) int {
	lvl := t.CPrio
	if lvl < 0 {
		lvl = 0
	}
	if lvl >= numLevels {
		lvl = numLevels - 1
	}
	return lvl
}

// Enqueue implements nucleus.SchedClass.
func (c *Class) Enqueue(slot *nucleus.Slot, t *nucleus.Thread) {
	lvl := c.levelFor(t)
	if c.levels[lvl] == nil {
		c.levels[lvl] = list.New()
	}
	c.index[t] = c.levels[lvl].PushBack(t)
	c.lvlOf[t] = lvl
}

// Dequeue implements nucleus.SchedClass.
func (c *Class) Dequeue(slot *nucleus.Slot, t *nucleus.Thread) {
	el, ok := c.index[t]
	if !ok {
		return
	}
	lvl := c.lvlOf[t]
	if c.levels[lvl] != nil {
		c.levels[lvl].Remove(el)
	}
	delete(c.index, t)
	delete(c.lvlOf, t)
}

// PickNext implements nucleus.SchedClass: highest populated level,
// oldest entry first.
func (c *Class) PickNext(slot *nucleus.Slot) *nucleus.Thread {
	for lvl := numLevels - 1; lvl >= 0; lvl-- {
		l := c.levels[lvl]
		if l == nil || l.Len() == 0 {
			continue
		}
		front := l.Front()
		t := front.Value.(*nucleus.Thread)
		l.Remove(front)
		delete(c.index, t)
		delete(c.lvlOf, t)
		return t
	}
	return nil
}

// Putback implements nucleus.SchedClass: removes and re-enqueues t so
// it lands at the tail of its (possibly new) priority level.
func (c *Class) Putback(slot *nucleus.Slot, t *nucleus.Thread) {
	c.Dequeue(slot, t)
	c.Enqueue(slot, t)
}

// SetResched implements nucleus.SchedClass: round-robin credit
// exhaustion is signaled by putting t at the tail of its own level so
// the next pick favors any peer at the same priority.
func (c *Class) SetResched(slot *nucleus.Slot, t *nucleus.Thread) {
	if _, ok := c.index[t]; ok {
		c.Putback(slot, t)
	}
}
