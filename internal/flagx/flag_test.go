package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "conf.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--config=alt.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{},
		},
		{
			name:         "flag without value at end is kept as-is",
			args:         []string{"-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "flag followed by another flag (no value)",
			args:         []string{"-c", "-notvalue"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "multiple allowed flags kept",
			args:         []string{"-a", "localhost:50051", "-c", "conf.json", "--other", "x"},
			allowedFlags: []string{"-c", "-a"},
			want:         []string{"-a", "localhost:50051", "-c", "conf.json"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestStripArgs(t *testing.T) {
	global := []string{"-a", "-t", "-c", "-config"}

	assert.Equal(t,
		[]string{"deposit", "1", "2"},
		StripArgs([]string{"-a", "host:1", "-t=tok", "deposit", "1", "2"}, global))
	assert.Equal(t,
		[]string{"events", "-holder", "alice"},
		StripArgs([]string{"-config", "cli.json", "events", "-holder", "alice"}, global))
	assert.Equal(t,
		[]string{"-v", "stats"},
		StripArgs([]string{"-v", "-a", "-t", "tok", "stats"}, global),
		"a following flag is not taken as a value")
	assert.Empty(t, StripArgs(nil, global))
}

func TestConfigPath(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short flag", func(t *testing.T) {
		os.Args = []string{"bin", "-a", ":1", "-c", "ledger.json"}
		assert.Equal(t, "ledger.json", ConfigPath(""))
	})

	t.Run("long flag with equals", func(t *testing.T) {
		os.Args = []string{"bin", "-config=alt.json"}
		assert.Equal(t, "alt.json", ConfigPath(""))
	})

	t.Run("env fallback", func(t *testing.T) {
		os.Args = []string{"bin"}
		t.Setenv("STAKELEDGER_TEST_CONFIG", "from-env.json")
		assert.Equal(t, "from-env.json", ConfigPath("STAKELEDGER_TEST_CONFIG"))
	})

	t.Run("flag wins over env", func(t *testing.T) {
		os.Args = []string{"bin", "-c", "flag.json"}
		t.Setenv("STAKELEDGER_TEST_CONFIG", "from-env.json")
		assert.Equal(t, "flag.json", ConfigPath("STAKELEDGER_TEST_CONFIG"))
	})

	t.Run("nothing set", func(t *testing.T) {
		os.Args = []string{"bin"}
		assert.Equal(t, "", ConfigPath(""))
	})
}
