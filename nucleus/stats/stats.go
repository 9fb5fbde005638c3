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

// Package stats is the optional statistics collaborator: a read-only
// snapshot view over the per-thread accounting the rescheduler already
// maintains on every TCB. Nothing in this module reads config.OptStats;
// a snapshot is taken only where a caller asks for one.
package stats

import (
	"sort"
	"time"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
)

// Snapshot is one thread's accumulated accounting at the moment Collect
// was called.
type Snapshot struct {
	Name      string
	CPU       int
	CPrio     int
	BPrio     int
	ExecTime  time.Duration
	CSwitches uint64
}

// Collect reads every thread currently registered with p and returns
// their accounting in descending ExecTime order, the ordering a human
// operator inspecting "who's burning CPU" cares about first.
func Collect(p *nucleus.Pod) []Snapshot {
	threads, _ := p.Threads()
	out := make([]Snapshot, 0, len(threads))
	for _, t := range threads {
		cpu := -1
		if s := t.Sched(); s != nil {
			cpu = s.CPU
		}
		out = append(out, Snapshot{
			Name:      t.Name,
			CPU:       cpu,
			CPrio:     t.CPrio,
			BPrio:     t.BPrio,
			ExecTime:  t.Stat.ExecTime,
			CSwitches: t.Stat.CSwitches,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExecTime > out[j].ExecTime })
	return out
}
