package tupleproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainProcessor_S2_AlignedConcatenation(t *testing.T) {
	aEvents := make([]uint64, 10)
	for i := range aEvents {
		aEvents[i] = uint64(i)
	}
	bEvents := []uint64{0, 2, 4, 6, 8}

	a := mustSingle(t, "A", evenIdentitySource(aEvents))
	b := mustSingle(t, "B", evenIdentitySource(bEvents))

	chain, err := NewChainProcessor("AB", []Processor{a, b}, ChainOptions{})
	require.NoError(t, err)

	n, err := chain.RowCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(15), n)

	row, ok, err := chain.LoadRow(10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(10), row)
	v, err := chain.Entry().ValueAt("event")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	_, ok, err = chain.LoadRow(14)
	require.NoError(t, err)
	require.True(t, ok)
	v, err = chain.Entry().ValueAt("event")
	require.NoError(t, err)
	assert.Equal(t, uint64(8), v)
}

func TestChainProcessor_P4_PerInnerContentsMatch(t *testing.T) {
	aEvents := []uint64{100, 101, 102}
	bEvents := []uint64{200, 201}

	a := mustSingle(t, "A", evenIdentitySource(aEvents))
	b := mustSingle(t, "B", evenIdentitySource(bEvents))
	aCheck := mustSingle(t, "Acheck", evenIdentitySource(aEvents))
	bCheck := mustSingle(t, "Bcheck", evenIdentitySource(bEvents))

	chain, err := NewChainProcessor("AB", []Processor{a, b}, ChainOptions{})
	require.NoError(t, err)

	for m := 0; m < len(bEvents); m++ {
		_, ok, err := chain.LoadRow(uint64(len(aEvents) + m))
		require.NoError(t, err)
		require.True(t, ok)
		chainVal, err := chain.Entry().ValueAt("event")
		require.NoError(t, err)

		_, ok, err = bCheck.LoadRow(uint64(m))
		require.NoError(t, err)
		require.True(t, ok)
		innerVal, err := bCheck.Entry().ValueAt("event")
		require.NoError(t, err)

		assert.Equal(t, innerVal, chainVal)
	}
	_ = aCheck
}

func TestChainProcessor_P5_Monotonic(t *testing.T) {
	aEvents := []uint64{1, 2, 3}
	bEvents := []uint64{4, 5}
	a := mustSingle(t, "A", evenIdentitySource(aEvents))
	b := mustSingle(t, "B", evenIdentitySource(bEvents))

	chain, err := NewChainProcessor("AB", []Processor{a, b}, ChainOptions{})
	require.NoError(t, err)

	it, err := NewIterator(chain)
	require.NoError(t, err)

	var rows []uint64
	for !it.Done() {
		rows = append(rows, it.CurrentRow())
		require.NoError(t, it.Next())
	}
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, rows)
}

func TestChainProcessor_LoadRow_PastEnd(t *testing.T) {
	a := mustSingle(t, "A", evenIdentitySource([]uint64{1, 2}))
	chain, err := NewChainProcessor("solo", []Processor{a}, ChainOptions{})
	require.NoError(t, err)

	_, ok, err := chain.LoadRow(2)
	require.NoError(t, err)
	assert.False(t, ok)
}
