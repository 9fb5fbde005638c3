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

package nucleus

// Heap is the system heap / kernel-stack pool collaborator. AllocStack
// draws a thread's stack from a dedicated pool when
// config.OptSysStackPoolSize > 0, and from the general heap otherwise.
type Heap interface {
	// Alloc reserves n bytes from the general system heap.
	Alloc(n int) ([]byte, error)
	// Free returns a general-heap allocation.
	Free(b []byte)
	// AllocStack reserves a thread stack of at least size bytes.
	AllocStack(size int) ([]byte, error)
	// FreeStack returns a thread stack.
	FreeStack(b []byte)
}
