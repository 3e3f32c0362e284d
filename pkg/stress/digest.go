// Copyright (c) 2023 Paweł Gaczyński
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

package stress

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
)

// digest is an order independent fingerprint of a multiset of values.
// It is the wrapping sum of xxhash of every value, so digests of disjoint
// sets can be combined by addition.
type digest uint64

func hashValue(value int) uint64 {
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(value))

	return xxhash.Sum64(buf[:])
}

func (d *digest) add(value int) {
	*d += digest(hashValue(value))
}

func (d *digest) merge(other digest) {
	*d += other
}
