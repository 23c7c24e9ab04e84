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

import (
	"container/heap"
	"context"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/poiesic/marquee/core"
)

const (
	DefaultM              = 32
	DefaultEfConstruction = 200
	DefaultEfSearch       = 100
)

// graph is an immutable HNSW graph. Node i owns vectors[i], ids[i] and
// links[i], where links[i][l] is the neighbor list on layer l.
type graph struct {
	dim            int
	m              int
	efConstruction int
	vectors        [][]float32
	ids            []core.ID
	links          [][][]int32
	entry          int32
	maxLevel       int
}

func (g *graph) size() int {
	return len(g.vectors)
}

func (g *graph) sim(a []float32, node int32) float32 {
	return dot(a, g.vectors[node])
}

// maxLinks is the neighbor cap for a layer; the base layer is twice as dense.
func (g *graph) maxLinks(layer int) int {
	if layer == 0 {
		return 2 * g.m
	}
	return g.m
}

// greedyClosest walks from ep toward q on a single layer.
func (g *graph) greedyClosest(q []float32, ep int32, layer int) int32 {
	best := scored{node: ep, sim: g.sim(q, ep)}
	for changed := true; changed; {
		changed = false
		for _, n := range g.links[best.node][layer] {
			c := scored{node: n, sim: g.sim(q, n)}
			if closer(c, best) {
				best = c
				changed = true
			}
		}
	}
	return best.node
}

// searchLayer returns up to ef nodes closest to q on one layer, best first.
func (g *graph) searchLayer(q []float32, entries []int32, ef, layer int, visited visitedSet) []scored {
	var candidates nearestHeap
	var results furthestHeap

	for _, ep := range entries {
		if !visited.visit(ep) {
			continue
		}
		s := scored{node: ep, sim: g.sim(q, ep)}
		heap.Push(&candidates, s)
		heap.Push(&results, s)
		if results.Len() > ef {
			heap.Pop(&results)
		}
	}

	for candidates.Len() > 0 {
		c := heap.Pop(&candidates).(scored)
		if results.Len() >= ef && closer(results[0], c) {
			break
		}
		for _, n := range g.links[c.node][layer] {
			if !visited.visit(n) {
				continue
			}
			s := scored{node: n, sim: g.sim(q, n)}
			if results.Len() < ef || closer(s, results[0]) {
				heap.Push(&candidates, s)
				heap.Push(&results, s)
				if results.Len() > ef {
					heap.Pop(&results)
				}
			}
		}
	}

	out := []scored(results)
	slices.SortFunc(out, compareScored)
	return out
}

func compareScored(a, b scored) int {
	switch {
	case closer(a, b):
		return -1
	case closer(b, a):
		return 1
	default:
		return 0
	}
}

// search returns the k nearest nodes to a normalized query.
func (g *graph) search(q []float32, k, ef int) []scored {
	n := g.size()
	if n == 0 || k <= 0 {
		return nil
	}

	// Small indexes and large k are answered exactly
	if k >= n {
		all := make([]scored, n)
		for i := range g.vectors {
			all[i] = scored{node: int32(i), sim: g.sim(q, int32(i))}
		}
		slices.SortFunc(all, compareScored)
		return all
	}

	ep := g.entry
	for layer := g.maxLevel; layer > 0; layer-- {
		ep = g.greedyClosest(q, ep, layer)
	}
	found := g.searchLayer(q, []int32{ep}, max(ef, k), 0, newVisitedSet(n))
	if len(found) > k {
		found = found[:k]
	}
	return found
}

// builder inserts nodes into a graph under construction.
type builder struct {
	g      *graph
	rng    *rand.Rand
	levelM float64
}

func newBuilder(dim, m, efConstruction int, capacity int, seed uint64) *builder {
	return &builder{
		g: &graph{
			dim:            dim,
			m:              m,
			efConstruction: efConstruction,
			vectors:        make([][]float32, 0, capacity),
			ids:            make([]core.ID, 0, capacity),
			links:          make([][][]int32, 0, capacity),
			entry:          -1,
		},
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		levelM: 1 / math.Log(float64(m)),
	}
}

func (b *builder) randomLevel() int {
	u := 1 - b.rng.Float64() // (0, 1]
	return int(math.Floor(-math.Log(u) * b.levelM))
}

func (b *builder) insert(vec []float32, id core.ID) {
	g := b.g
	node := int32(len(g.vectors))
	level := b.randomLevel()

	g.vectors = append(g.vectors, vec)
	g.ids = append(g.ids, id)
	g.links = append(g.links, make([][]int32, level+1))

	if g.entry < 0 {
		g.entry = node
		g.maxLevel = level
		return
	}

	ep := g.entry
	for layer := g.maxLevel; layer > level; layer-- {
		ep = g.greedyClosest(vec, ep, layer)
	}

	entries := []int32{ep}
	for layer := min(level, g.maxLevel); layer >= 0; layer-- {
		found := g.searchLayer(vec, entries, g.efConstruction, layer, newVisitedSet(len(g.vectors)))

		limit := g.maxLinks(layer)
		selected := make([]int32, 0, min(len(found), limit))
		for _, s := range found {
			if s.node == node {
				continue
			}
			selected = append(selected, s.node)
			if len(selected) == limit {
				break
			}
		}
		g.links[node][layer] = selected

		for _, n := range selected {
			g.links[n][layer] = append(g.links[n][layer], node)
			if len(g.links[n][layer]) > limit {
				g.links[n][layer] = b.shrink(n, g.links[n][layer], limit)
			}
		}

		entries = entries[:0]
		for _, s := range found {
			entries = append(entries, s.node)
		}
	}

	if level > g.maxLevel {
		g.entry = node
		g.maxLevel = level
	}
}

// shrink keeps the limit neighbors of node with the highest similarity.
func (b *builder) shrink(node int32, neighbors []int32, limit int) []int32 {
	g := b.g
	base := g.vectors[node]
	ranked := make([]scored, len(neighbors))
	for i, n := range neighbors {
		ranked[i] = scored{node: n, sim: g.sim(base, n)}
	}
	slices.SortFunc(ranked, compareScored)

	out := make([]int32, limit)
	for i := range out {
		out[i] = ranked[i].node
	}
	return out
}

// buildGraph constructs a graph from normalized vectors.
func buildGraph(ctx context.Context, vectors [][]float32, ids []core.ID, dim, m, efConstruction int, seed uint64) (*graph, error) {
	b := newBuilder(dim, m, efConstruction, len(vectors), seed)
	for i, vec := range vectors {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		b.insert(vec, ids[i])
	}
	return b.g, nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// normalize returns a unit-length copy of v. Zero vectors are returned as zeros.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sumSquares)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
