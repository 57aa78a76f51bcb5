package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name      string
		depth     int
		wantValid bool
	}{
		{"Zero depth", 0, false},
		{"Negative depth", -4, false},
		{"Minimum depth", 1, true},
		{"Reference depth", 16, true},
		{"Maximum depth", 32, true},
		{"Above maximum", 33, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{TreeDepth: tc.depth}
			errs := cfg.Validate()
			if tc.wantValid {
				require.Empty(t, errs)
			} else {
				require.NotEmpty(t, errs)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, DefaultTreeDepth, cfg.TreeDepth)
	require.Empty(t, cfg.Validate())
	require.Equal(t, 65536, cfg.Capacity())
}
