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
	"fmt"

	"github.com/poiesic/marquee/codec"
	"github.com/poiesic/marquee/core"
)

const (
	graphMagic    = "marquee-hnsw"
	idMapMagic    = "marquee-ids"
	formatVersion = 1
)

// encodeGraph serializes vectors and links.
//
// Layout: magic, version, dim, m, efConstruction, count, entry, maxLevel,
// then per node: dim float32 values, level, and per layer a length-prefixed
// neighbor list.
func encodeGraph(g *graph) []byte {
	w := codec.NewWriter(g.size()*(g.dim*4+g.m*2) + 64)
	w.String(graphMagic)
	w.Int(formatVersion)
	w.Int(g.dim)
	w.Int(g.m)
	w.Int(g.efConstruction)
	w.Int(g.size())
	w.Int(int(g.entry))
	w.Int(g.maxLevel)
	for i, vec := range g.vectors {
		for _, f := range vec {
			w.Float32(f)
		}
		w.Int(len(g.links[i]) - 1)
		for _, layer := range g.links[i] {
			w.Int(len(layer))
			for _, n := range layer {
				w.Int(int(n))
			}
		}
	}
	return w.Bytes()
}

// encodeIDs serializes the position to id mapping.
func encodeIDs(g *graph) []byte {
	w := codec.NewWriter(g.size()*9 + 32)
	w.String(idMapMagic)
	w.Int(formatVersion)
	w.Int(g.dim)
	w.Int(g.size())
	for _, id := range g.ids {
		w.Uint64(uint64(id))
	}
	return w.Bytes()
}

type blobHeader struct {
	dim   int
	count int
}

func readHeader(r *codec.Reader, magic string) (blobHeader, error) {
	if got := r.String(); r.Err() != nil || got != magic {
		return blobHeader{}, fmt.Errorf("%w: bad magic %q", ErrValidation, got)
	}
	if v := r.Int(); v != formatVersion {
		return blobHeader{}, fmt.Errorf("%w: unsupported format version %d", ErrValidation, v)
	}
	return blobHeader{dim: r.Int()}, nil
}

// decodeSnapshot validates and decodes both blobs into a graph.
func decodeSnapshot(graphBlob, idBlob []byte) (*graph, error) {
	ir := codec.NewReader(idBlob)
	idHeader, err := readHeader(ir, idMapMagic)
	if err != nil {
		return nil, err
	}
	idHeader.count = ir.Int()

	gr := codec.NewReader(graphBlob)
	graphHeader, err := readHeader(gr, graphMagic)
	if err != nil {
		return nil, err
	}

	if idHeader.dim != graphHeader.dim {
		return nil, fmt.Errorf("%w: graph dimension %d, id map dimension %d", ErrValidation, graphHeader.dim, idHeader.dim)
	}

	g := &graph{
		dim:            graphHeader.dim,
		m:              gr.Int(),
		efConstruction: gr.Int(),
	}
	count := gr.Int()
	g.entry = int32(gr.Int())
	g.maxLevel = gr.Int()
	if err := gr.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if count != idHeader.count {
		return nil, fmt.Errorf("%w: graph has %d nodes, id map has %d", ErrValidation, count, idHeader.count)
	}
	if g.dim < 0 || count < 0 || (count > 0 && (g.entry < 0 || int(g.entry) >= count)) {
		return nil, fmt.Errorf("%w: corrupt header", ErrValidation)
	}
	if count > 0 && g.dim > 0 && count > gr.Remaining()/(g.dim*4) {
		return nil, fmt.Errorf("%w: graph blob truncated", ErrValidation)
	}

	g.ids = make([]core.ID, count)
	for i := range g.ids {
		g.ids[i] = core.ID(ir.Uint64())
	}
	if err := ir.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	g.vectors = make([][]float32, count)
	g.links = make([][][]int32, count)
	for i := 0; i < count; i++ {
		vec := make([]float32, g.dim)
		for j := range vec {
			vec[j] = gr.Float32()
		}
		g.vectors[i] = vec

		level := gr.Int()
		if gr.Err() != nil || level < 0 || level > g.maxLevel {
			return nil, fmt.Errorf("%w: node %d has invalid level", ErrValidation, i)
		}
		layers := make([][]int32, level+1)
		for l := range layers {
			n := gr.Len(1)
			neighbors := make([]int32, n)
			for k := range neighbors {
				nb := gr.Int()
				if nb < 0 || nb >= count {
					return nil, fmt.Errorf("%w: node %d links to %d", ErrValidation, i, nb)
				}
				neighbors[k] = int32(nb)
			}
			layers[l] = neighbors
		}
		g.links[i] = layers
	}
	if err := gr.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if count > 0 && len(g.links[g.entry])-1 != g.maxLevel {
		return nil, fmt.Errorf("%w: entry point level mismatch", ErrValidation)
	}
	for i, layers := range g.links {
		for l, neighbors := range layers {
			for _, nb := range neighbors {
				if len(g.links[nb]) <= l {
					return nil, fmt.Errorf("%w: node %d links to %d above its level", ErrValidation, i, nb)
				}
			}
		}
	}
	return g, nil
}
