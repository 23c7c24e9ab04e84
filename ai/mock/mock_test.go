package mock

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicVector(t *testing.T) {
	a := DeterministicVector("space opera", 16)
	b := DeterministicVector("space opera", 16)
	c := DeterministicVector("courtroom drama", 16)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestMockEmbedder(t *testing.T) {
	m := NewMockEmbedder()
	m.Dimension = 8

	vec, err := m.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 8)

	vecs, err := m.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, 2, m.CallCount())

	m.Reset()
	assert.Zero(t, m.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	mp := p.(*MockProvider)

	out, err := p.LLM().CompleteJSON(context.Background(), "sys", "user", 0.3, 10)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, mp.GetMockLLM().CallCount())
	assert.Equal(t, "user", mp.GetMockLLM().LastUserPrompt())
	assert.NoError(t, p.Close())
}
