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

package msgqueue

import "sync/atomic"

type counters struct {
	pushes       uint64
	pops         uint64
	linkRetries  uint64
	tailForwards uint64
	dropped      uint64
	liveNodes    int64
}

// Stats is a point in time snapshot of queue counters.
// Counters are read one by one, so a snapshot taken under load is not atomic as a whole.
type Stats struct {
	// Pushes is the number of values linked into the queue.
	Pushes uint64
	// Pops is the number of values handed to the consumer.
	Pops uint64
	// LinkRetries counts lost link attempts. Every lost attempt means
	// that some other producer linked its node first.
	LinkRetries uint64
	// TailForwards counts tail pointer moves made on behalf of another producer.
	TailForwards uint64
	// Dropped is the number of payloads discarded when the queue was released.
	Dropped uint64
	// LiveNodes is the number of allocated nodes, sentinel included.
	LiveNodes int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Pushes:       atomic.LoadUint64(&c.pushes),
		Pops:         atomic.LoadUint64(&c.pops),
		LinkRetries:  atomic.LoadUint64(&c.linkRetries),
		TailForwards: atomic.LoadUint64(&c.tailForwards),
		Dropped:      atomic.LoadUint64(&c.dropped),
		LiveNodes:    atomic.LoadInt64(&c.liveNodes),
	}
}
