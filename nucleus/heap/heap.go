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

// Package heap is the default system heap / kernel-stack pool
// collaborator: general allocations go straight to the Go allocator,
// while stacks are drawn from a size-classed sync.Pool slab when a
// pool size is configured.
package heap

import (
	"sync"

	"github.com/MoxaCorp/iothinx-4530-xenomai/nucleus/errno"
)

// Heap is the default nucleus.Heap implementation.
type Heap struct {
	poolSize int
	pools    sync.Map // int (rounded size class) -> *sync.Pool
}

// New constructs a Heap. poolSize > 0 draws stacks from a dedicated
// pool sized in size classes of poolSize bytes; poolSize == 0 means
// every stack comes straight from the general allocator.
func New(poolSize int) *Heap {
	return &Heap{poolSize: poolSize}
}

// Alloc implements nucleus.Heap.
func (h *Heap) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, errno.EINVAL
	}
	return make([]byte, n), nil
}

// Free implements nucleus.Heap.
func (h *Heap) Free(b []byte) {}

func (h *Heap) sizeClass(size int) int {
	if h.poolSize <= 0 {
		return size
	}
	classes := (size + h.poolSize - 1) / h.poolSize
	if classes < 1 {
		classes = 1
	}
	return classes * h.poolSize
}

// AllocStack implements nucleus.Heap.
func (h *Heap) AllocStack(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errno.EINVAL
	}
	if h.poolSize <= 0 {
		return make([]byte, size), nil
	}

	class := h.sizeClass(size)
	poolAny, _ := h.pools.LoadOrStore(class, &sync.Pool{
		New: func() any { return make([]byte, class) },
	})
	pool := poolAny.(*sync.Pool)
	return pool.Get().([]byte)[:size], nil
}

// FreeStack implements nucleus.Heap.
func (h *Heap) FreeStack(b []byte) {
	if h.poolSize <= 0 || b == nil {
		return
	}
	class := h.sizeClass(cap(b))
	poolAny, ok := h.pools.Load(class)
	if !ok {
		return
	}
	pool := poolAny.(*sync.Pool)
	pool.Put(b[:cap(b)])
}
