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

// Package nucleus implements the pod: the process-wide real-time thread
// scheduling core. It owns thread lifecycle,
// per-CPU scheduling, suspend/resume/unblock, the central rescheduler,
// priority and migration, round-robin and periodic release, the time
// source, and the fault path. Collaborators (scheduler class, timer
// wheel, wait channels, architecture backend, shadow bridge, heap) are
// interfaces; see class.go, timer.go, synch.go, arch.go, shadow.go and
// heap.go. Concrete default implementations live in sibling packages
// (schedclass, timerwheel, synch, archsim, shadowbridge, heap).
package nucleus

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"golang.org/x/xerrors"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/config"
	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/errno"
)

// PodStatus is the pod-wide status bitmask.
type PodStatus uint32

const (
	// Active is set once Init completes successfully and cleared by
	// the last Shutdown.
	Active PodStatus = 1 << iota
	// Fatal latches once a fatal condition is hit; it is
	// sticky and never cleared.
	Fatal
)

// Backends bundles the collaborator implementations Init wires into a
// new Pod. Callers (tests, cmd/podctl, or a real skin's composition
// root) supply concrete packages; nucleus never imports them, avoiding
// an import cycle and keeping the core genuinely collaborator-agnostic.
type Backends struct {
	Arch       Architecture
	NewClass   NewSchedClassFunc
	NewTimer   func(sched TimerSched, thr *Thread, kind TimerKind) Timer
	Synch      Synch
	Shadow     ShadowBridge
	Heap       Heap
	TimeSource TimeSource
}

// Pod is the process-wide singleton.
type Pod struct {
	lock nkLock

	refcnt   int32
	status   PodStatus
	teardown bool

	threads    []*Thread
	threadsRev uint64

	hooks [3]hookList

	sched        []*Slot
	onlineMask   CPUSet
	affinityMask CPUSet

	cfg config.Config
	b   Backends

	tbStatus     uint32 // TBRUN bit, see timesource.go
	wallOffset   time.Duration

	log *logrus.Entry

	fatalMu      sync.Mutex
	fatalBuf     string
	fatalLimiter *rate.Limiter
}

var (
	globalMu sync.Mutex
	global   *Pod
)

// Init initializes the singleton pod if it does not already exist,
// otherwise only increments its reference count. cfg and
// backends are used only on the first call that creates the pod; later
// calls ignore them, matching "first init: allocate ... otherwise only
// increments refcnt".
func Init(cfg config.Config, b Backends) (*Pod, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		if global.teardown {
			return nil, errno.EEXIST
		}
		global.lock.Lock()
		global.refcnt++
		global.lock.Unlock()
		return global, nil
	}

	p := &Pod{
		cfg:          cfg,
		b:            b,
		log:          logrus.WithField("component", "pod"),
		fatalLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}

	ncpu := cfg.NumCPU
	if !cfg.SMP || ncpu < 1 {
		ncpu = 1
	}
	p.onlineMask = CPUSetAll
	if ncpu < 64 {
		var mask CPUSet
		for i := 0; i < ncpu; i++ {
			mask = mask.Add(i)
		}
		p.onlineMask = mask
	}
	// affinityMask is pod.affinity_mask, a separate pod-wide restriction an
	// integrator can narrow with SetPodAffinity; it starts unrestricted.
	p.affinityMask = CPUSetAll

	p.sched = make([]*Slot, ncpu)
	for cpu := 0; cpu < ncpu; cpu++ {
		class := b.NewClass()
		slot := newSlot(cpu, class)
		root := newTCB("root/"+itoa(cpu), 0, class, slot)
		root.state = ThRoot // root is always runnable, never dormant
		slot.Curr = root
		slot.RootCB = root
		p.sched[cpu] = slot
		p.appendThread(root)
	}

	if b.NewTimer != nil {
		for _, slot := range p.sched {
			slot.HTimer = b.NewTimer(p, slot.RootCB, HostTimer)
			if cfg.OptWatchdog {
				slot.WDTimer = b.NewTimer(p, slot.RootCB, WatchdogTimer)
			}
		}
	}

	p.refcnt = 1
	p.status = Active
	if err := p.enableTimeSourceLocked(); err != nil {
		p.status = 0
		return nil, xerrors.Errorf("pod init: time source: %w", err)
	}

	global = p
	p.log.Info("pod activated")
	return p, nil
}

// SetPodAffinity narrows pod.affinity_mask, the pod-wide restriction
// StartThread ANDs against a thread's requested affinity and the online
// CPU mask. It never touches onlineMask, which tracks CPUs actually
// configured at Init.
func (p *Pod) SetPodAffinity(mask CPUSet) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.affinityMask = mask
}

// IsActive reports whether the global pod exists and is active.
func IsActive() bool {
	globalMu.Lock()
	p := global
	globalMu.Unlock()
	if p == nil {
		return false
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.status.Has(Active)
}

func (s PodStatus) Has(f PodStatus) bool { return s&f == f }

// Shutdown decrements the pod's reference count; the last release tears
// everything down.
func Shutdown(exitCode int) error {
	globalMu.Lock()
	p := global
	if p == nil {
		globalMu.Unlock()
		return errno.EINVAL
	}
	globalMu.Unlock()

	p.lock.Lock()
	p.refcnt--
	last := p.refcnt <= 0
	if !last {
		p.lock.Unlock()
		return nil
	}
	p.teardown = true
	p.lock.Unlock()

	// Lock dropped here across the time-source stop: a concurrent Init
	// during this window sees p.teardown and returns -EEXIST rather than
	// racing a fresh reference onto a pod mid-teardown.
	p.disableTimeSource()

	p.lock.Lock()
	victims := make([]*Thread, 0, len(p.threads))
	for _, t := range p.threads {
		if !t.IsRoot() {
			victims = append(victims, t)
		}
	}
	p.lock.Unlock()

	for _, t := range victims {
		_ = p.DeleteThread(t)
	}
	// Drain zombies.
	for _, slot := range p.sched {
		p.Schedule(slot.Curr)
	}

	p.lock.Lock()
	p.status = 0
	slots := p.sched
	p.sched = nil
	p.lock.Unlock()

	var g errgroup.Group
	for _, slot := range slots {
		slot := slot
		g.Go(func() error {
			if slot.WDTimer != nil {
				slot.WDTimer.Stop()
			}
			return nil
		})
	}
	_ = g.Wait()

	globalMu.Lock()
	global = nil
	globalMu.Unlock()

	p.log.WithField("exit_code", exitCode).Info("pod shut down")
	return nil
}

func (p *Pod) appendThread(t *Thread) {
	p.threads = append(p.threads, t)
	p.threadsRev++
}

func (p *Pod) removeThread(t *Thread) {
	for i, c := range p.threads {
		if c == t {
			p.threads = append(p.threads[:i], p.threads[i+1:]...)
			p.threadsRev++
			return
		}
	}
}

// Threads returns a snapshot of the pod's thread list and the revision
// it was taken at (threads_rev).
func (p *Pod) Threads() ([]*Thread, uint64) {
	p.lock.Lock()
	defer p.lock.Unlock()
	out := make([]*Thread, len(p.threads))
	copy(out, p.threads)
	return out, p.threadsRev
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
