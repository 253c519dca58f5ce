package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilMap(t *testing.T) {
	cfg := New(nil)
	assert.Equal(t, "default", cfg.String("missing", "default"))
	assert.NotNil(t, cfg.Raw())
}

func TestString(t *testing.T) {
	cfg := New(map[string]any{"model": "gpt-4o-mini", "depth": 3})

	assert.Equal(t, "gpt-4o-mini", cfg.String("model", "x"))
	assert.Equal(t, "x", cfg.String("missing", "x"))
	assert.Equal(t, "x", cfg.String("depth", "x")) // wrong type
}

func TestInt(t *testing.T) {
	cfg := New(map[string]any{
		"max_depth":   3,
		"beam":        int64(2),
		"branches":    float64(4),
		"frac":        2.5,
		"not_numeric": "three",
	})

	assert.Equal(t, 3, cfg.Int("max_depth", 0))
	assert.Equal(t, 2, cfg.Int("beam", 0))
	assert.Equal(t, 4, cfg.Int("branches", 0))
	assert.Equal(t, 9, cfg.Int("frac", 9)) // fractional part, keep default
	assert.Equal(t, 9, cfg.Int("not_numeric", 9))
	assert.Equal(t, 9, cfg.Int("missing", 9))
}

func TestFloat(t *testing.T) {
	cfg := New(map[string]any{
		"threshold": 0.3,
		"depth":     3,
		"wide":      int64(7),
	})

	assert.Equal(t, 0.3, cfg.Float("threshold", 0))
	assert.Equal(t, 3.0, cfg.Float("depth", 0))
	assert.Equal(t, 7.0, cfg.Float("wide", 0))
	assert.Equal(t, 0.5, cfg.Float("missing", 0.5))
}

func TestBool(t *testing.T) {
	cfg := New(map[string]any{"tracing": true, "depth": 1})

	assert.True(t, cfg.Bool("tracing", false))
	assert.False(t, cfg.Bool("missing", false))
	assert.True(t, cfg.Bool("depth", true)) // wrong type, keep default
}

func TestDuration(t *testing.T) {
	cfg := New(map[string]any{
		"timeout_str":   "90s",
		"timeout_int":   120,
		"timeout_float": 1.5,
		"timeout_bad":   "ninety",
	})

	assert.Equal(t, 90*time.Second, cfg.Duration("timeout_str", 0))
	assert.Equal(t, 2*time.Minute, cfg.Duration("timeout_int", 0))
	assert.Equal(t, 1500*time.Millisecond, cfg.Duration("timeout_float", 0))
	assert.Equal(t, time.Second, cfg.Duration("timeout_bad", time.Second))
	assert.Equal(t, time.Second, cfg.Duration("missing", time.Second))
}

func TestHas(t *testing.T) {
	cfg := New(map[string]any{"max_depth": 3})
	assert.True(t, cfg.Has("max_depth"))
	assert.False(t, cfg.Has("missing"))
}

func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte("max_depth: 5\nmin_score_threshold: 0.4\nmodel: gpt-4o\n"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Int("max_depth", 0))
	assert.Equal(t, 0.4, cfg.Float("min_score_threshold", 0))
	assert.Equal(t, "gpt-4o", cfg.String("model", ""))
}

func TestFromYAML_Invalid(t *testing.T) {
	_, err := FromYAML([]byte("max_depth: [unclosed"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{"beam_width": 2, "tracing": true}`))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Int("beam_width", 0))
	assert.True(t, cfg.Bool("tracing", false))
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "search.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("max_depth: 4\n"), 0o644))

	cfg, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Int("max_depth", 0))

	t.Run("unsupported extension", func(t *testing.T) {
		tomlPath := filepath.Join(dir, "search.toml")
		require.NoError(t, os.WriteFile(tomlPath, []byte("max_depth = 4"), 0o644))

		_, err := FromFile(tomlPath)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := FromFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}
