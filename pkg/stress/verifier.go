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
	queueErrors "github.com/pawelgaczynski/msgqueue/pkg/errors"
)

// verifier checks values in the order the consumer receives them.
// Producer id pushes producers*i + id, so value % producers names the producer
// and values of one producer must arrive strictly increasing.
type verifier struct {
	producers int
	seen      []bool
	last      []int
	received  int
	digest    digest
}

func newVerifier(producers, valuesPerProducer int) *verifier {
	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}

	return &verifier{
		producers: producers,
		seen:      make([]bool, producers*valuesPerProducer),
		last:      last,
	}
}

func (v *verifier) observe(value int) error {
	if value < 0 || value >= len(v.seen) {
		return queueErrors.ErrorUnexpectedValue(value)
	}

	if v.seen[value] {
		return queueErrors.ErrorValueDuplicated(value)
	}

	v.seen[value] = true

	producer := value % v.producers
	if value <= v.last[producer] {
		return queueErrors.ErrorOrderViolation(producer, v.last[producer], value)
	}

	v.last[producer] = value
	v.received++
	v.digest.add(value)

	return nil
}

func (v *verifier) finish(pushed digest) error {
	for value, seen := range v.seen {
		if !seen {
			return queueErrors.ErrorValueLost(value)
		}
	}

	if pushed != v.digest {
		return queueErrors.ErrorDigestMismatch(uint64(pushed), uint64(v.digest))
	}

	return nil
}
