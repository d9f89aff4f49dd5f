// Copyright 2019 Liquidata, Inc.
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

// Package metrics holds lightweight power-of-two histograms (plain,
// byte-count and duration flavours) without the overhead of a full metrics
// backend. The repository uses a ByteHistogram to track chunk sizes.
package metrics

import (
	"fmt"
	"math/bits"
	"time"

	humanize "github.com/dustin/go-humanize"
)

const numBuckets = 64

// Histogram buckets samples by the position of their highest set bit, while
// also keeping an exact running sum so Mean/Sum never lose precision to
// bucketing.
type Histogram struct {
	buckets [numBuckets]uint64
	sum     uint64
	count   uint64
}

func (h *Histogram) bucketVal(b int) uint64 {
	return uint64(1) << uint(b)
}

func bucketFor(n uint64) int {
	if n == 0 {
		return 0
	}
	return bits.Len64(n) - 1
}

// Sample records one observation.
func (h *Histogram) Sample(n uint64) {
	h.buckets[bucketFor(n)]++
	h.sum += n
	h.count++
}

// Add merges other's buckets and totals into h.
func (h *Histogram) Add(other Histogram) {
	for i := range h.buckets {
		h.buckets[i] += other.buckets[i]
	}
	h.sum += other.sum
	h.count += other.count
}

// Samples returns the number of observations recorded.
func (h *Histogram) Samples() uint64 { return h.count }

// Sum returns the exact sum of all observations.
func (h *Histogram) Sum() uint64 { return h.sum }

// Mean returns the integer mean of all observations, or 0 if empty.
func (h *Histogram) Mean() uint64 {
	if h.count == 0 {
		return 0
	}
	return h.sum / h.count
}

func (h *Histogram) String() string {
	return fmt.Sprintf("Mean: %d, Sum: %d, Samples: %d", h.Mean(), h.Sum(), h.Samples())
}

// TimeHistogram renders Mean/Sum as durations; samples are expected to be
// nanosecond counts.
type TimeHistogram struct {
	Histogram
}

// NewTimeHistogram returns an empty TimeHistogram.
func NewTimeHistogram() TimeHistogram {
	return TimeHistogram{}
}

func (th *TimeHistogram) String() string {
	return fmt.Sprintf("Mean: %s, Sum: %s, Samples: %d",
		time.Duration(th.Mean()), time.Duration(th.Sum()), th.Samples())
}

// ByteHistogram renders Mean/Sum as human-readable byte sizes; samples are
// expected to be byte counts.
type ByteHistogram struct {
	Histogram
}

// NewByteHistogram returns an empty ByteHistogram.
func NewByteHistogram() ByteHistogram {
	return ByteHistogram{}
}

func (bh *ByteHistogram) String() string {
	return fmt.Sprintf("Mean: %s, Sum: %s, Samples: %d",
		humanize.Bytes(bh.Mean()), humanize.Bytes(bh.Sum()), bh.Samples())
}
