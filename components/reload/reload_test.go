package reload

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadwalker/quadruped"
	"github.com/quadwalker/quadruped/config"
)

type target struct {
	got []*config.Settings
}

func (t *target) Configure(s *config.Settings) {
	t.got = append(t.got, s)
}

func write(t *testing.T, path, body string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	write(t, path, `{"general": {"delay": 20}}`, t0)

	a, b := &target{}, &target{}
	r := New(path, a, b)
	require.NoError(t, r.Boot())

	state := &quadruped.State{}
	now := time.Now()

	// Unchanged.
	require.NoError(t, r.Tick(now, state))
	assert.Empty(t, a.got)

	// Changed, but it's too soon to look.
	write(t, path, `{"general": {"delay": 35}}`, t0.Add(time.Second))
	require.NoError(t, r.Tick(now.Add(500*time.Millisecond), state))
	assert.Empty(t, a.got)

	require.NoError(t, r.Tick(now.Add(1100*time.Millisecond), state))
	require.Len(t, a.got, 1)
	require.Len(t, b.got, 1)
	assert.Equal(t, 35, a.got[0].General.Delay)
	assert.Same(t, a.got[0], b.got[0])
}

func TestReloadKeepsOldSettingsOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	write(t, path, `{}`, t0)

	a := &target{}
	r := New(path, a)
	r.SetInterval(0)
	require.NoError(t, r.Boot())

	now := time.Now()
	write(t, path, `{"general": {"delay": -5}}`, t0.Add(time.Second))
	assert.Error(t, r.Check(now))
	assert.Empty(t, a.got)

	// The broken file isn't retried until it changes again.
	assert.NoError(t, r.Check(now.Add(time.Second)))

	write(t, path, `{"general": {"delay": 5}}`, t0.Add(2*time.Second))
	require.NoError(t, r.Check(now.Add(2*time.Second)))
	require.Len(t, a.got, 1)
	assert.Equal(t, 5*time.Millisecond, a.got[0].Interval())
}

func TestBootMissingFile(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, r.Boot())
}
