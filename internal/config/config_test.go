package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Session.Total)
	assert.Equal(t, 7, cfg.Session.EasyMax)
	assert.Equal(t, 15, cfg.Session.MediumMax)
	assert.True(t, cfg.Workbook.Async, "workbook writes default to async")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
student: Anaya
grade: Grade 6
topic: Fractions
session:
  total: 10
  easy_max: 3
  medium_max: 6
  exact_match_short_circuit: false
workbook:
  path: /tmp/history.xlsx
  async: false
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Anaya", cfg.Student)
	assert.Equal(t, "Grade 6", cfg.Grade)
	assert.Equal(t, "Fractions", cfg.Topic)
	assert.Equal(t, 10, cfg.Session.Total)
	assert.Equal(t, "/tmp/history.xlsx", cfg.Workbook.Path)
	assert.False(t, cfg.Workbook.Async)

	qc := cfg.QuizConfig()
	assert.Equal(t, 10, qc.Total)
	assert.Equal(t, 3, qc.Bands.EasyMax)
	assert.Equal(t, 6, qc.Bands.MediumMax)
	assert.False(t, qc.ExactMatchShortCircuit)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("student: FileName\n"), 0o644))

	t.Setenv("MATHDRILL_STUDENT", "EnvName")
	t.Setenv("MATHDRILL_WORKBOOK", "/tmp/env.xlsx")
	t.Setenv("MATHDRILL_WORKBOOK_ASYNC", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "EnvName", cfg.Student)
	assert.Equal(t, "/tmp/env.xlsx", cfg.Workbook.Path)
	assert.False(t, cfg.Workbook.Async)
}

func TestLoad_RejectsBadBands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
session:
  total: 10
  easy_max: 8
  medium_max: 6
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := Load(path)
	require.Error(t, err, "inverted difficulty bands must fail validation")
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestQuizConfig_DefaultExactMatchOn(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.QuizConfig().ExactMatchShortCircuit)
}
