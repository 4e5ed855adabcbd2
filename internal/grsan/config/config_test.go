package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/grsan/internal/grsan/deriv"
	"github.com/kolkov/grsan/internal/grsan/label"
	"github.com/kolkov/grsan/internal/grsan/record"
	"github.com/kolkov/grsan/internal/grsan/shadow"
)

func TestDefault(t *testing.T) {
	f := Default()

	assert.False(t, f.PerfMode())
	assert.True(t, f.DefaultNaN)
	assert.False(t, f.BranchBarriers)
	assert.Equal(t, 4, f.Samples)
	assert.False(t, f.ReuseLabels)
	assert.True(t, f.GEPDefault)
	assert.True(t, f.SelectDefault)
	assert.False(t, f.Strict)
	assert.Equal(t, uint(shadow.DefaultBits), f.ShadowBits)
	assert.Equal(t, label.MaxLabels, f.MaxLabels)
	assert.Equal(t, record.DefaultBranchRecords, f.BranchRecords)
	assert.Equal(t, record.DefaultArgRecords, f.ArgRecords)
	assert.Equal(t, deriv.DefaultOptions(), f.Rules())
}

func TestParse(t *testing.T) {
	f, err := Parse(map[string]string{
		"GRSAN_BRANCH_BARRIERS":  "true",
		"GRSAN_SAMPLES":          "8",
		"GRSAN_DEFAULT_NAN":      "false",
		"GRSAN_GRADIENT_LOGFILE": "/tmp/labels.csv",
		"GRSAN_MAX_LABELS":       "100",
		"SAMPLES":                "99",
	})
	require.NoError(t, err)

	assert.True(t, f.BranchBarriers)
	assert.Equal(t, 8, f.Samples)
	assert.False(t, f.Rules().DefaultNaN)
	assert.Equal(t, "/tmp/labels.csv", f.GradientLogfile)
	assert.Equal(t, 100, f.MaxLabels)
}

// TestPerfModeSwitch pins the accepted spellings of DISABLE_LOGGING.
func TestPerfModeSwitch(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"yes", true},
		{"true", true},
		{"0", false},
		{"00", false},
		{"false", false},
		{"falsey", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			f, err := Parse(map[string]string{"GRSAN_DISABLE_LOGGING": tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.PerfMode())
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"samples":     {"GRSAN_SAMPLES": "0"},
		"shadow-bits": {"GRSAN_SHADOW_BITS": "64"},
		"max-labels":  {"GRSAN_MAX_LABELS": "70000"},
		"records":     {"GRSAN_BRANCH_RECORDS": "0"},
		"not-a-bool":  {"GRSAN_STRICT": "maybe"},
	}
	for name, environ := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(environ)
			assert.Error(t, err)
		})
	}
}
