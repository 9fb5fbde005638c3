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

	"github.com/google/subcommands"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/config"
)

// diagCmd prints the fatal diagnostic dump format by deliberately
// tripping a fatal condition (suspending a root thread, which is
// forbidden) and catching the resulting panic.
type diagCmd struct{}

func (*diagCmd) Name() string             { return "diag" }
func (*diagCmd) Synopsis() string         { return "print the fatal diagnostic dump format" }
func (*diagCmd) Usage() string            { return "diag - trip a fatal condition and print its diagnostic dump\n" }
func (*diagCmd) SetFlags(*flag.FlagSet)   {}

func (*diagCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	cfg := args[0].(config.Config)
	cfg.HWUnlockedSwitch = true

	p, wheel, err := compose(cfg)
	if err != nil {
		fmt.Println("podctl: composing pod:", err)
		return subcommands.ExitFailure
	}
	defer wheel.Close()

	threads, _ := p.Threads()
	var root *nucleus.Thread
	for _, t := range threads {
		if t.IsRoot() {
			root = t
			break
		}
	}
	if root == nil {
		fmt.Println("podctl: no root thread found")
		return subcommands.ExitFailure
	}

	dump := make(chan string, 1)
	func() {
		defer func() {
			if r := recover(); r != nil {
				dump <- fmt.Sprint(r)
			}
		}()
		_ = p.SuspendThread(root, nucleus.Susp, nucleus.Infinite, nucleus.Relative, nil)
	}()

	select {
	case d := <-dump:
		fmt.Print(d)
	default:
		fmt.Println("podctl: expected a fatal condition, none was raised")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
