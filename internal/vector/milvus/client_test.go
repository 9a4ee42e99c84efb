package milvus

import (
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorIndex(t *testing.T) {
	idx, err := vectorIndex()
	require.NoError(t, err)
	assert.Equal(t, entity.IvfFlat, idx.IndexType())
}

func TestSearchParam(t *testing.T) {
	sp, err := searchParam()
	require.NoError(t, err)
	assert.Equal(t, searchProbe, sp.Params()["nprobe"])
}

func TestFloat32s(t *testing.T) {
	out := Float32s([]float64{0.5, 1.25, 0})
	assert.Equal(t, []float32{0.5, 1.25, 0}, out)

	assert.Empty(t, Float32s(nil))
}
