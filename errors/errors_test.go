package errors_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/columnfold/tupleproc/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		uncoded := errors.New(errors.ErrUncoded, "uncoded error")
		unknown := errors.UnknownField("run")
		unsupported := errors.UnsupportedField("record")

		tests := []struct {
			err    error
			target errors.Code
			exp    bool
		}{
			{err: uncoded, target: errors.ErrUncoded, exp: true},
			{err: uncoded, target: errors.CodeUnknownField, exp: false},
			{err: unknown, target: errors.CodeUnknownField, exp: true},
			{err: unknown, target: errors.CodeUnsupportedField, exp: false},
			{err: errors.Wrap(unsupported, "with message"), target: errors.CodeUnsupportedField, exp: true},
		}

		for i, test := range tests {
			t.Run(fmt.Sprintf("test-%d", i), func(t *testing.T) {
				got := errors.Is(test.err, test.target)
				assert.Equal(t, test.exp, got)
			})
		}
	})

	t.Run("constructors carry messages", func(t *testing.T) {
		assert.Contains(t, errors.ArityMismatch(2, 1).Error(), "expects 2")
		assert.Contains(t, errors.TooManyJoinFields(5, 4).Error(), "exceeds limit 4")
		assert.Contains(t, errors.DuplicateJoinField("event").Error(), "event")
		assert.Contains(t, errors.NameCollision("aux").Error(), "aux")
		assert.Contains(t, errors.IndexTooLarge(64).Error(), "64")
		assert.Contains(t, errors.AttachFailed("no such path").Error(), "no such path")
		assert.True(t, errors.Is(errors.AddAuxAfterStart(), errors.CodeAddAuxAfterStart))
	})

	t.Run("MarshalJSON/UnmarshalJSON round-trip", func(t *testing.T) {
		original := errors.IndexTooLarge(64)

		encoded := errors.MarshalJSON(original)
		assert.Contains(t, encoded, string(errors.CodeIndexTooLarge))

		decoded := errors.UnmarshalJSON(strings.NewReader(encoded))
		assert.True(t, errors.Is(decoded, errors.CodeIndexTooLarge))
	})

	t.Run("UnmarshalJSON on garbage input returns a plain error", func(t *testing.T) {
		decoded := errors.UnmarshalJSON(strings.NewReader("not json"))
		require.Error(t, decoded)
		assert.False(t, errors.Is(decoded, errors.CodeIndexTooLarge))
	})
}
