package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "profile_images", cfg.ProfileImagesDir)
	require.Equal(t, 5*time.Second, cfg.QuestionGrace())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("QUESTION_GRACE_SEC", "2")
	t.Setenv("DEV_LOG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, 2*time.Second, cfg.QuestionGrace())
	require.True(t, cfg.DevLog)
}

func TestLoadRejectsNegativeGrace(t *testing.T) {
	t.Setenv("QUESTION_GRACE_SEC", "-1")
	_, err := Load()
	require.Error(t, err)
}
