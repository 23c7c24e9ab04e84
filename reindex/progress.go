// Copyright 2025 Poiesic Systems
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


package reindex

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// progress writes a single updating status line. Safe for concurrent use.
type progress struct {
	mu           sync.Mutex
	writer       io.Writer
	total        int
	current      int
	interval     int
	lastReported int
	start        time.Time
}

func newProgress(w io.Writer, total, interval int) *progress {
	if w == nil {
		w = io.Discard
	}
	return &progress{
		writer:   w,
		total:    total,
		interval: max(interval, 1),
		start:    time.Now(),
	}
}

// add records n more items and reports once per interval.
func (p *progress) add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = min(p.current+n, p.total)
	if p.current-p.lastReported >= p.interval {
		p.report()
		p.lastReported = p.current
	}
}

// finish reports the final count and ends the line.
func (p *progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
}

// report must be called with the lock held.
func (p *progress) report() {
	rate := float64(p.current) / time.Since(p.start).Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rEmbedded: %d/%d (%.1f%%) - %.1f items/s",
		p.current, p.total, percentage, rate)
}
