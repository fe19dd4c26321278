package tupleproc

import (
	"testing"

	"github.com/columnfold/tupleproc/config"
	"github.com/columnfold/tupleproc/errors"
	"github.com/columnfold/tupleproc/index"
	"github.com/columnfold/tupleproc/memsource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_FromOpenSpec(t *testing.T) {
	src := evenIdentitySource([]uint64{1, 2, 3})
	spec := OpenSpec{Name: "A", Source: src}

	p, err := Create(spec, nil, FactoryOptions{})
	require.NoError(t, err)
	assert.Equal(t, "A", p.Name())

	n, err := p.RowCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
}

func TestCreate_GeneratesNameWhenOmitted(t *testing.T) {
	src := evenIdentitySource([]uint64{1})
	p, err := Create(OpenSpec{Source: src}, nil, FactoryOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, p.Name())
}

func TestCreate_ViaHandle(t *testing.T) {
	src := evenIdentitySource([]uint64{1, 2})
	handle := memsource.NewHandle(src)
	p, err := Create(OpenSpec{Name: "A", Storage: handle}, nil, FactoryOptions{})
	require.NoError(t, err)

	n, err := p.RowCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestCreateChain(t *testing.T) {
	specs := []OpenSpec{
		{Name: "A", Source: evenIdentitySource([]uint64{1, 2})},
		{Name: "B", Source: evenIdentitySource([]uint64{3, 4, 5})},
	}
	chain, err := CreateChain(specs, nil, "AB", FactoryOptions{})
	require.NoError(t, err)

	n, err := chain.RowCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), n)
}

func TestCreateJoin(t *testing.T) {
	primary := OpenSpec{Name: "A", Source: evenIdentitySource([]uint64{0, 1, 2})}
	aux := OpenSpec{Name: "B", Source: evenIdentitySource([]uint64{0, 1, 2})}

	join, err := CreateJoin(primary, nil, []OpenSpec{aux}, nil, []string{"event"}, "join", FactoryOptions{})
	require.NoError(t, err)

	_, ok, err := join.LoadRow(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, join.Entry().Valid())
}

func TestFactoryOptions_Config_WiresIndexOptions(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.IndexMaxEntries = 1

	a := mustSingle(t, "A", evenIdentitySource([]uint64{0, 1, 2}))
	b := mustSingle(t, "B", evenIdentitySource([]uint64{0, 1, 2}))

	join, err := CreateJoinFromProcessors(a, []string{"B"}, []Processor{b}, []string{"event"}, "join", FactoryOptions{Config: cfg})
	require.NoError(t, err)

	_, _, err = join.LoadRow(0)
	require.Error(t, err, "Config.IndexMaxEntries should have capped the auxiliary index to 1 entry")
	assert.True(t, errors.Is(err, errors.CodeIndexTooLarge))
}

func TestFactoryOptions_Config_DoesNotOverrideExplicitIndexOptions(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.IndexMaxEntries = 1

	a := mustSingle(t, "A", evenIdentitySource([]uint64{0, 1, 2}))
	b := mustSingle(t, "B", evenIdentitySource([]uint64{0, 1, 2}))

	opts := FactoryOptions{Config: cfg, Join: JoinOptions{IndexOptions: index.Options{MaxEntries: 100}}}
	join, err := CreateJoinFromProcessors(a, []string{"B"}, []Processor{b}, []string{"event"}, "join", opts)
	require.NoError(t, err)

	_, ok, err := join.LoadRow(0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateJoinFromProcessors(t *testing.T) {
	a := mustSingle(t, "A", evenIdentitySource([]uint64{0, 1}))
	b := mustSingle(t, "B", evenIdentitySource([]uint64{0, 1}))

	join, err := CreateJoinFromProcessors(a, []string{"B"}, []Processor{b}, nil, "join", FactoryOptions{})
	require.NoError(t, err)

	_, ok, err := join.LoadRow(0)
	require.NoError(t, err)
	assert.True(t, ok)
}
