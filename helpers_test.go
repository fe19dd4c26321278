package tupleproc

import (
	"testing"

	"github.com/columnfold/tupleproc/memsource"
	"github.com/stretchr/testify/require"
)

// evenIdentitySource builds a single-column "event" u64 source from values.
func evenIdentitySource(values []uint64) *memsource.Source {
	return memsource.NewBuilder().AddU64Column("event", values).Build()
}

// mustSingle builds a SingleProcessor over src, failing the test on error.
func mustSingle(t *testing.T, name string, src *memsource.Source) *SingleProcessor {
	t.Helper()
	p, err := NewSingleProcessor(name, src, nil, SingleOptions{})
	require.NoError(t, err)
	return p
}
