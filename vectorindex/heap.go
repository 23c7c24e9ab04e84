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


package vectorindex

// scored pairs a graph node with its similarity to the query.
type scored struct {
	node int32
	sim  float32
}

// closer reports whether a ranks ahead of b: higher similarity first,
// then lower node index (insertion order).
func closer(a, b scored) bool {
	if a.sim != b.sim {
		return a.sim > b.sim
	}
	return a.node < b.node
}

// nearestHeap pops the closest node first.
type nearestHeap []scored

func (h nearestHeap) Len() int           { return len(h) }
func (h nearestHeap) Less(i, j int) bool { return closer(h[i], h[j]) }
func (h nearestHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nearestHeap) Push(x any)        { *h = append(*h, x.(scored)) }
func (h *nearestHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// furthestHeap pops the furthest node first. It holds the current result set.
type furthestHeap []scored

func (h furthestHeap) Len() int           { return len(h) }
func (h furthestHeap) Less(i, j int) bool { return closer(h[j], h[i]) }
func (h furthestHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *furthestHeap) Push(x any)        { *h = append(*h, x.(scored)) }
func (h *furthestHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// visitedSet is a bitset over node indices.
type visitedSet []uint64

func newVisitedSet(n int) visitedSet {
	return make(visitedSet, (n+63)/64)
}

// visit marks node and reports whether it was unvisited.
func (v visitedSet) visit(node int32) bool {
	word, bit := node/64, uint64(1)<<(uint(node)%64)
	if v[word]&bit != 0 {
		return false
	}
	v[word] |= bit
	return true
}
