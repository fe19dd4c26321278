package diagnostics_test

import (
	"testing"

	"github.com/columnfold/tupleproc/diagnostics"
	"github.com/columnfold/tupleproc/logger"
	"github.com/stretchr/testify/assert"
)

func TestSnapshot_SetAndMetrics(t *testing.T) {
	s := diagnostics.NewSnapshot()
	s.Set("indices_built", 3)
	s.Set("indices_built", 4)

	m := s.Metrics()
	assert.Equal(t, 4, m["indices_built"])

	m["indices_built"] = 99
	assert.Equal(t, 4, s.Metrics()["indices_built"])
}

func TestSnapshot_CaptureRuntime(t *testing.T) {
	s := diagnostics.NewSnapshot()
	s.CaptureRuntime(logger.NopLogger)

	m := s.Metrics()
	assert.Contains(t, m, "go_version")
	assert.Contains(t, m, "num_goroutine")
	assert.Contains(t, m, "uptime_seconds")
}
