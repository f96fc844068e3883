package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCwd points getwd at dir for the duration of the test.
func fakeCwd(t *testing.T, dir string) {
	t.Helper()
	orig := getwd
	getwd = func() (string, error) { return dir, nil }
	t.Cleanup(func() { getwd = orig })
}

func TestResolveConfigDir(t *testing.T) {
	cwd := t.TempDir()
	fakeCwd(t, cwd)

	t.Run("flag wins over env", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/tmp/from-env")
		got, err := ResolveConfigDir("/tmp/from-flag")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/from-flag", got)
	})

	t.Run("env when no flag", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/tmp/from-env")
		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/from-env", got)
	})

	t.Run("cwd default", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, DefaultConfigDirName), got)
	})
}

func TestResolveDataDir(t *testing.T) {
	cwd := t.TempDir()
	fakeCwd(t, cwd)

	tests := []struct {
		name   string
		flag   string
		config string
		env    string
		want   string
	}{
		{"flag wins", "/tmp/flag", "/tmp/config", "/tmp/env", "/tmp/flag"},
		{"config over env", "", "/tmp/config", "/tmp/env", "/tmp/config"},
		{"env over default", "", "", "/tmp/env", "/tmp/env"},
		{"cwd default", "", "", "", filepath.Join(cwd, DefaultDataDirName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir_RelativeFlagIsAbsolute(t *testing.T) {
	got, err := ResolveDataDir("relative/dir", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestResolve_GetwdError(t *testing.T) {
	orig := getwd
	getwd = func() (string, error) { return "", errors.New("no cwd") }
	t.Cleanup(func() { getwd = orig })
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "")

	_, err := ResolveConfigDir("")
	assert.Error(t, err)
	_, err = ResolveDataDir("", "")
	assert.Error(t, err)
}
