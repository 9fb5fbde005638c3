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

// Package config holds the pod's compile-time-equivalent feature toggles,
// loadable from an optional TOML file.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the set of feature toggles recognized by the pod.
type Config struct {
	// HWFPU enables saving/restoring FPU contexts across switches.
	HWFPU bool `toml:"hw_fpu"`
	// OptPervasive enables the user-space shadow bridge.
	OptPervasive bool `toml:"opt_pervasive"`
	// OptIShield honors the per-thread interrupt shield bit.
	OptIShield bool `toml:"opt_ishield"`
	// OptPrioCpl enables shadow remote priority coupling.
	OptPrioCpl bool `toml:"opt_priocpl"`
	// OptRegistry enables the name registry collaborator.
	OptRegistry bool `toml:"opt_registry"`
	// OptStats enables the statistics collaborator.
	OptStats bool `toml:"opt_stats"`
	// OptWatchdog enables the per-CPU watchdog timer.
	OptWatchdog bool `toml:"opt_watchdog"`
	// OptSysStackPoolSize, when > 0, draws thread stacks from a
	// dedicated kernel-stack pool instead of the general heap.
	OptSysStackPoolSize int `toml:"opt_sys_stackpoolsz"`
	// SMP enables per-CPU scheduler slots and IPI delivery. When false
	// the pod runs a single scheduler slot regardless of NumCPU.
	SMP bool `toml:"smp"`
	// HWUnlockedSwitch drops the global lock across the architecture
	// context switch when the backend supports it.
	HWUnlockedSwitch bool `toml:"hw_unlocked_switch"`

	// NumCPU is the number of scheduler slots to create. Ignored (forced
	// to 1) when SMP is false.
	NumCPU int `toml:"num_cpu"`
}

// Default returns the compiled-in default configuration: single-CPU,
// FPU support on, all optional collaborators off.
func Default() Config {
	return Config{
		HWFPU:   true,
		SMP:     false,
		NumCPU:  1,
	}
}

// Load reads toggles from a TOML file at path, starting from Default()
// and overwriting fields present in the file. A missing file is not an
// error; Default() is returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
