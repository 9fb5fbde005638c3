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

// Command podctl is a small operator CLI over the pod: a composition
// root wiring the default collaborator backends together, plus
// diagnostic and demonstration subcommands.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/config"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&demoCmd{}, "")
	subcommands.Register(&diagCmd{}, "")
	subcommands.Register(&serveCmd{}, "")

	cfgPath := flag.String("config", "", "path to a TOML configuration file")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("podctl: loading configuration")
	}

	os.Exit(int(subcommands.Execute(context.Background(), cfg)))
}
