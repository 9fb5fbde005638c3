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
	"context"
	"flag"
	"fmt"
	"strings"
	"sync"

	"github.com/google/subcommands"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/config"
)

// demoCmd runs a single-CPU priority-preemption scenario end to end and
// prints the observed run order: thread A starts, creates and starts a
// higher-priority thread B from its own context (the same synchronous
// reschedule point start_thread always runs through), B preempts A
// immediately, B suspends itself, and A resumes.
//
// A goroutine-per-thread simulator has no way to halt a goroutine from
// outside it, so every handoff here is cooperative: each thread yields
// by calling back into the pod (start_thread, suspend_thread) rather
// than being asynchronously interrupted. That is also why the demo
// only ever arranges for the currently-scheduled thread's own goroutine
// to call Schedule.
type demoCmd struct{}

func (*demoCmd) Name() string           { return "demo" }
func (*demoCmd) Synopsis() string       { return "run a single-CPU priority preemption scenario" }
func (*demoCmd) Usage() string          { return "demo - run a priority preemption scenario and print the run order\n" }
func (*demoCmd) SetFlags(*flag.FlagSet) {}

func (*demoCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	cfg := args[0].(config.Config)
	cfg.HWUnlockedSwitch = true

	p, wheel, err := compose(cfg)
	if err != nil {
		fmt.Println("podctl: composing pod:", err)
		return subcommands.ExitFailure
	}
	defer wheel.Close()
	defer nucleus.Shutdown(0)

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	tA, err := p.InitThread(0, "A", 10, 0, 4096)
	if err != nil {
		fmt.Println("podctl: init A:", err)
		return subcommands.ExitFailure
	}

	entryB := func(tB *nucleus.Thread) func(any) {
		return func(any) {
			record("B runs (preempted A)")
			_ = p.SuspendThread(tB, nucleus.Susp, nucleus.Infinite, nucleus.Relative, nil)
		}
	}

	entryA := func(any) {
		record("A runs")
		tB, err := p.InitThread(0, "B", 20, 0, 4096)
		if err != nil {
			record(fmt.Sprintf("A: init B failed: %v", err))
		} else if err := p.StartThread(tB, 0, 0, nucleus.CPUSetAll, entryB(tB), nil); err != nil {
			record(fmt.Sprintf("A: start B failed: %v", err))
		}
		record("A resumes")
		_ = p.SuspendThread(tA, nucleus.Susp, nucleus.Infinite, nucleus.Relative, nil)
	}

	if err := p.StartThread(tA, 0, 0, nucleus.CPUSetAll, entryA, nil); err != nil {
		fmt.Println("podctl: start A:", err)
		return subcommands.ExitFailure
	}

	mu.Lock()
	fmt.Println(strings.Join(order, " -> "))
	mu.Unlock()
	return subcommands.ExitSuccess
}
