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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/config"
)

// serveCmd keeps a pod alive until signaled, notifying systemd of
// readiness and, when invoked under a watchdog-enabled unit, feeding
// its watchdog on the interval systemd tells us to.
type serveCmd struct{}

func (*serveCmd) Name() string           { return "serve" }
func (*serveCmd) Synopsis() string       { return "run the pod until SIGINT/SIGTERM" }
func (*serveCmd) Usage() string          { return "serve - activate the pod and block until terminated\n" }
func (*serveCmd) SetFlags(*flag.FlagSet) {}

func (*serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	cfg := args[0].(config.Config)
	cfg.HWUnlockedSwitch = true

	_, wheel, err := compose(cfg)
	if err != nil {
		logrus.WithError(err).Error("podctl: composing pod")
		return subcommands.ExitFailure
	}
	defer wheel.Close()
	defer nucleus.Shutdown(0)

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logrus.WithError(err).Warn("podctl: systemd notify failed")
	} else if sent {
		logrus.Info("podctl: notified systemd readiness")
	}

	stopWatchdog := make(chan struct{})
	if interval, err := daemon.SdWatchdogEnabled(false); err == nil && interval > 0 {
		go feedWatchdog(interval/2, stopWatchdog)
	}
	defer close(stopWatchdog)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logrus.Info("podctl: signaled, shutting down")
	case <-ctx.Done():
	}
	return subcommands.ExitSuccess
}

func feedWatchdog(interval time.Duration, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				logrus.WithError(err).Warn("podctl: watchdog notify failed")
			}
		}
	}
}
