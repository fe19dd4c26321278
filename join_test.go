package tupleproc

import (
	"math"
	"testing"

	"github.com/columnfold/tupleproc/errors"
	"github.com/columnfold/tupleproc/memsource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinProcessor_S3_KeyedJoin(t *testing.T) {
	aEvents := make([]uint64, 10)
	for i := range aEvents {
		aEvents[i] = uint64(i)
	}
	a := mustSingle(t, "A", evenIdentitySource(aEvents))

	bEvents := []uint64{0, 2, 4, 6, 8}
	bX := make([]float32, len(bEvents))
	for i := range bX {
		bX[i] = float32(i) / float32(math.Pi)
	}
	bSrc := memsource.NewBuilder().
		AddU64Column("event", bEvents).
		AddF32Column("x", bX).
		Build()
	b := mustSingle(t, "B", bSrc)

	join, err := NewJoinProcessor("join", a, []string{"B"}, []Processor{b}, []string{"event"}, JoinOptions{})
	require.NoError(t, err)

	for n := uint64(0); n < 10; n++ {
		_, ok, err := join.LoadRow(n)
		require.NoError(t, err)
		require.True(t, ok)

		if n%2 == 0 {
			assert.True(t, join.Entry().Valid(), "row %d should be valid", n)
			v, err := join.Entry().ValueAt("B.x")
			require.NoError(t, err)
			want := float32(n/2) / float32(math.Pi)
			assert.Equal(t, want, v)
		} else {
			assert.False(t, join.Entry().Valid(), "row %d should be invalid", n)
		}
	}
}

func TestJoinProcessor_P6_Aligned(t *testing.T) {
	a := mustSingle(t, "A", evenIdentitySource([]uint64{1, 2, 3}))
	b := mustSingle(t, "B", evenIdentitySource([]uint64{10, 20}))

	join, err := NewJoinProcessor("join", a, []string{"B"}, []Processor{b}, nil, JoinOptions{})
	require.NoError(t, err)

	_, ok, err := join.LoadRow(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, join.Entry().Valid())

	_, ok, err = join.LoadRow(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, join.Entry().Valid())

	_, ok, err = join.LoadRow(2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, join.Entry().Valid(), "B only has 2 rows so row 2 should miss")
}

func TestJoinProcessor_P8_ModelShape(t *testing.T) {
	a := mustSingle(t, "A", evenIdentitySource([]uint64{1, 2}))
	b := mustSingle(t, "B", evenIdentitySource([]uint64{1, 2}))

	join, err := NewJoinProcessor("join", a, []string{"aux"}, []Processor{b}, nil, JoinOptions{})
	require.NoError(t, err)

	assert.True(t, join.Entry().Has("event"))
	assert.True(t, join.Entry().Has("aux.event"))
}

func TestJoinProcessor_TooManyJoinFields(t *testing.T) {
	a := mustSingle(t, "A", evenIdentitySource([]uint64{1}))
	b := mustSingle(t, "B", evenIdentitySource([]uint64{1}))

	_, err := NewJoinProcessor("join", a, []string{"aux"}, []Processor{b}, []string{"a", "b", "c", "d", "e"}, JoinOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeTooManyJoinFields))
}

func TestJoinProcessor_DuplicateJoinField(t *testing.T) {
	a := mustSingle(t, "A", evenIdentitySource([]uint64{1}))
	b := mustSingle(t, "B", evenIdentitySource([]uint64{1}))

	_, err := NewJoinProcessor("join", a, []string{"aux"}, []Processor{b}, []string{"event", "event"}, JoinOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeDuplicateJoinField))
}

func TestJoinProcessor_NameCollision_AuxShadowsPrimaryField(t *testing.T) {
	a := mustSingle(t, "A", evenIdentitySource([]uint64{1}))
	b := mustSingle(t, "B", evenIdentitySource([]uint64{1}))

	_, err := NewJoinProcessor("join", a, []string{"event"}, []Processor{b}, nil, JoinOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNameCollision))
}

func TestJoinProcessor_NameCollision_DuplicateAuxNames(t *testing.T) {
	a := mustSingle(t, "A", evenIdentitySource([]uint64{1}))
	b1 := mustSingle(t, "B1", evenIdentitySource([]uint64{1}))
	b2 := mustSingle(t, "B2", evenIdentitySource([]uint64{1}))

	_, err := NewJoinProcessor("join", a, []string{"aux", "aux"}, []Processor{b1, b2}, nil, JoinOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNameCollision))
}

func TestJoinProcessor_AddAuxAfterStart(t *testing.T) {
	a := mustSingle(t, "A", evenIdentitySource([]uint64{1, 2}))
	b := mustSingle(t, "B", evenIdentitySource([]uint64{1, 2}))

	join, err := NewJoinProcessor("join", a, nil, nil, nil, JoinOptions{})
	require.NoError(t, err)

	_, ok, err := join.LoadRow(0)
	require.NoError(t, err)
	require.True(t, ok)

	err = join.AddAuxiliary("B", b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeAddAuxAfterStart))
}

func TestJoinProcessor_AddAuxiliary_BeforeStart(t *testing.T) {
	a := mustSingle(t, "A", evenIdentitySource([]uint64{1, 2}))
	b := mustSingle(t, "B", evenIdentitySource([]uint64{1, 2}))

	join, err := NewJoinProcessor("join", a, nil, nil, nil, JoinOptions{})
	require.NoError(t, err)

	require.NoError(t, join.AddAuxiliary("B", b))

	_, ok, err := join.LoadRow(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, join.Entry().Has("B.event"))
}

func TestJoinProcessor_S8_ChainAuxiliary(t *testing.T) {
	aEvents := []uint64{0, 1, 2, 3}
	a := mustSingle(t, "A", evenIdentitySource(aEvents))

	b1 := mustSingle(t, "B1", evenIdentitySource([]uint64{0, 1}))
	b2 := mustSingle(t, "B2", evenIdentitySource([]uint64{2, 3}))
	bChain, err := NewChainProcessor("B", []Processor{b1, b2}, ChainOptions{})
	require.NoError(t, err)

	join, err := NewJoinProcessor("join", a, []string{"B"}, []Processor{bChain}, []string{"event"}, JoinOptions{})
	require.NoError(t, err)

	for n := uint64(0); n < 4; n++ {
		_, ok, err := join.LoadRow(n)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, join.Entry().Valid())
		v, err := join.Entry().ValueAt("B.event")
		require.NoError(t, err)
		assert.Equal(t, n, v)
	}
}
