package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvironmentDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/signage")
	t.Setenv("SERVER_ADDRESS", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("OFFLINE_AFTER", "")

	env, err := LoadEnvironment()
	require.NoError(t, err)
	assert.Equal(t, ":8080", env.ServerAddress)
	assert.Equal(t, "postgres", env.DatabaseDriver)
	assert.Zero(t, env.OfflineAfter)
}

func TestLoadEnvironmentValidation(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := LoadEnvironment()
		assert.Error(t, err)
	})

	t.Run("bad driver", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "x")
		t.Setenv("DATABASE_DRIVER", "mysql")
		_, err := LoadEnvironment()
		assert.Error(t, err)
	})

	t.Run("offline after", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "x")
		t.Setenv("DATABASE_DRIVER", "sqlite3")
		t.Setenv("OFFLINE_AFTER", "5m")
		env, err := LoadEnvironment()
		require.NoError(t, err)
		assert.Equal(t, 5*time.Minute, env.OfflineAfter)

		t.Setenv("OFFLINE_AFTER", "soon")
		_, err = LoadEnvironment()
		assert.Error(t, err)
	})

	t.Run("spaces without bucket", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "x")
		t.Setenv("DATABASE_DRIVER", "")
		t.Setenv("USE_SPACES", "true")
		t.Setenv("SPACES_BUCKET", "")
		_, err := LoadEnvironment()
		assert.Error(t, err)
	})
}
