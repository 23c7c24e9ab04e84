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


package codec

import (
	"errors"
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrNegativeLength indicates a decoded length prefix was negative.
var ErrNegativeLength = errors.New("codec: negative length")

// Writer appends MUS-encoded values to a growing buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) grow(n int) []byte {
	start := len(w.buf)
	w.buf = append(w.buf, make([]byte, n)...)
	return w.buf[start:]
}

func (w *Writer) Uint64(v uint64) {
	varint.Uint64.Marshal(v, w.grow(varint.Uint64.Size(v)))
}

func (w *Writer) Int(v int) {
	varint.Int.Marshal(v, w.grow(varint.Int.Size(v)))
}

func (w *Writer) Bool(v bool) {
	ord.Bool.Marshal(v, w.grow(ord.Bool.Size(v)))
}

func (w *Writer) Float32(v float32) {
	raw.Float32.Marshal(v, w.grow(raw.Float32.Size(v)))
}

func (w *Writer) Float64(v float64) {
	raw.Float64.Marshal(v, w.grow(raw.Float64.Size(v)))
}

func (w *Writer) String(v string) {
	ord.String.Marshal(v, w.grow(ord.String.Size(v)))
}

// Strings writes a length-prefixed string slice.
func (w *Writer) Strings(v []string) {
	w.Int(len(v))
	for _, s := range v {
		w.String(s)
	}
}

// Float32s writes a length-prefixed float32 slice.
func (w *Writer) Float32s(v []float32) {
	w.Int(len(v))
	for _, f := range v {
		w.Float32(f)
	}
}

// Reader decodes MUS-encoded values. The first error is sticky; subsequent
// reads return zero values and Err reports the failure.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

// Err returns the first decoding error, if any.
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of undecoded bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) fail(what string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("codec: decode %s at offset %d: %w", what, r.off, err)
	}
}

func (r *Reader) Uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.buf[r.off:])
	if err != nil {
		r.fail("uint64", err)
		return 0
	}
	r.off += n
	return v
}

func (r *Reader) Int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.buf[r.off:])
	if err != nil {
		r.fail("int", err)
		return 0
	}
	r.off += n
	return v
}

func (r *Reader) Bool() bool {
	if r.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(r.buf[r.off:])
	if err != nil {
		r.fail("bool", err)
		return false
	}
	r.off += n
	return v
}

func (r *Reader) Float32() float32 {
	if r.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(r.buf[r.off:])
	if err != nil {
		r.fail("float32", err)
		return 0
	}
	r.off += n
	return v
}

func (r *Reader) Float64() float64 {
	if r.err != nil {
		return 0
	}
	v, n, err := raw.Float64.Unmarshal(r.buf[r.off:])
	if err != nil {
		r.fail("float64", err)
		return 0
	}
	r.off += n
	return v
}

func (r *Reader) String() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.buf[r.off:])
	if err != nil {
		r.fail("string", err)
		return ""
	}
	r.off += n
	return v
}

// Len reads a length prefix and checks that it is plausible given the
// remaining input and the minimum encoded size of one element.
func (r *Reader) Len(minElemSize int) int {
	n := r.Int()
	if r.err != nil {
		return 0
	}
	if n < 0 {
		r.fail("length", ErrNegativeLength)
		return 0
	}
	if minElemSize > 0 && n > r.Remaining()/minElemSize {
		r.fail("length", fmt.Errorf("length %d exceeds remaining input", n))
		return 0
	}
	return n
}

// Strings reads a length-prefixed string slice. An empty slice decodes as nil.
func (r *Reader) Strings() []string {
	n := r.Len(1)
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = r.String()
	}
	if r.err != nil {
		return nil
	}
	return out
}

// Float32s reads a length-prefixed float32 slice. An empty slice decodes as nil.
func (r *Reader) Float32s() []float32 {
	n := r.Len(4)
	if n == 0 {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = r.Float32()
	}
	if r.err != nil {
		return nil
	}
	return out
}
