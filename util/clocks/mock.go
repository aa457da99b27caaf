// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package clocks

import (
	"sync"
	"time"
)

// NewMock returns a Source suitable for unit tests. The mock's time only
// changes when Advance is called.
func NewMock() *Mock {
	return &Mock{now: time.Unix(1000000, 0)}
}

// Mock is a Source whose time is controlled by the test. It is safe for
// concurrent use.
type Mock struct {
	mutex sync.Mutex
	now   Time
}

// Now implements the method from Source.
func (m *Mock) Now() Time {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.now
}

// Advance moves the mock's time forward by the given duration.
func (m *Mock) Advance(d time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.now = m.now.Add(d)
}
