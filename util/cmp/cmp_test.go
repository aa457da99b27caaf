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

package cmp

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_MaxInt(t *testing.T) {
	assert.Equal(t, 1, MaxInt(-1, 1))
	assert.Equal(t, 1, MaxInt(1, -1))
	assert.Equal(t, 0, MaxInt(0, 0))
	assert.Equal(t, math.MaxInt32, MaxInt(math.MaxInt32, math.MaxInt32-1))
}

func Test_MinFloat64(t *testing.T) {
	assert.Equal(t, 0.25, MinFloat64(0.25, 1.0))
	assert.Equal(t, 0.25, MinFloat64(1.0, 0.25))
}

type keyed string

func (k keyed) Key(b *strings.Builder) {
	b.WriteString("keyed:")
	b.WriteString(string(k))
}

func Test_GetKey(t *testing.T) {
	assert.Equal(t, "keyed:bob", GetKey(keyed("bob")))
}
