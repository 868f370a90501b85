package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:8080", "-g", ":6000", "-D", "sqlite", "-d", "db", "-s", "secret",
				"-b", "jwt", "-t", "30", "-p", "-l", "debug",
			},
			expected: &Config{
				HTTPAddress:                 "127.0.0.1:8080",
				GRPCAddress:                 ":6000",
				DatabaseDriver:              "sqlite",
				DatabaseDSN:                 "db",
				SecretKey:                   "secret",
				TokenBackend:                "jwt",
				AccessTokenValidityDuration: 30 * time.Minute,
				RequireCurrentPassword:      true,
				LogLevel:                    "debug",
			},
		},
		{
			name:        "non-numeric validity",
			args:        []string{"cmd", "-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
