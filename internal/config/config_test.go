package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_CreatesDefaultFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	s, err := Load(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Contains(t, parsed, "twitter")

	assert.Equal(t, "info", s.Get(KeyLogLevel))
	assert.Equal(t, "", s.Get(KeyTwitterUsername))
	assert.Equal(t, filepath.Join(dir, "config.yaml"), s.Path())
}

func TestSetWriteReload(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(dir)
	require.NoError(t, err)

	s.Set(KeyTwitterUsername, "alice")
	require.NoError(t, s.SetChecked(KeyTelegramChatID, "12345"))
	require.NoError(t, s.Write())

	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Get(KeyTwitterUsername))
	assert.Equal(t, "12345", again.Get(KeyTelegramChatID))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSetChecked_UnknownKey(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, s.SetChecked("twitter.nope", "x"), ErrUnknownKey)
}

func TestSet_UnknownKeyIsDropped(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(dir)
	require.NoError(t, err)

	s.Set("twitter.nope", "x")
	assert.Equal(t, "", s.Get("twitter.nope"))
	require.NoError(t, s.Write())

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "nope")
}

func TestEnvOverridesAreNotPersisted(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TWEETSYNC_TWITTER_APP_SECRET", "from-env-secret")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env-secret", s.Get(KeyTwitterAppSecret))

	s.Set(KeyTwitterUsername, "alice")
	require.NoError(t, s.Write())

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "from-env-secret")
	assert.Contains(t, string(data), "alice")
}

func TestDisplay_MasksSecrets(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	s.Set(KeyTwitterOAuthTokenSecret, "abcdefgh1234")
	s.Set(KeyTelegramToken, "xy")
	s.Set(KeyTwitterUsername, "alice")

	assert.Equal(t, "****1234", s.Display(KeyTwitterOAuthTokenSecret))
	assert.Equal(t, "****", s.Display(KeyTelegramToken))
	assert.Equal(t, "alice", s.Display(KeyTwitterUsername))
	assert.Equal(t, "", s.Display(KeyTwitterAppSecret))
}
