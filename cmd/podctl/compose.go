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

package main

import (
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/archsim"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/config"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/heap"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/schedclass"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/shadowbridge"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/synch"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/timerwheel"
)

// compose wires one instance of every default collaborator backend and
// starts a pod against them. The wheel it creates is returned too, so
// the caller can Close it on teardown.
func compose(cfg config.Config) (*nucleus.Pod, *timerwheel.Wheel, error) {
	wheel := timerwheel.NewWheel()
	arch := archsim.New(wheel)

	var shadow nucleus.ShadowBridge = shadowbridge.Disabled{}
	if cfg.OptPervasive {
		shadow = shadowbridge.New()
	}

	b := nucleus.Backends{
		Arch:     arch,
		NewClass: schedclass.New,
		NewTimer: func(sched nucleus.TimerSched, thr *nucleus.Thread, kind nucleus.TimerKind) nucleus.Timer {
			return timerwheel.New(sched, thr, kind, wheel)
		},
		Synch:      synch.New(),
		Shadow:     shadow,
		Heap:       heap.New(cfg.OptSysStackPoolSize),
		TimeSource: arch,
	}

	p, err := nucleus.Init(cfg, b)
	if err != nil {
		wheel.Close()
		return nil, nil, err
	}
	return p, wheel, nil
}
