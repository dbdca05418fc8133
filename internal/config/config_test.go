package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		prev, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, prev)
			} else {
				os.Unsetenv(k)
			}
		})
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	clearEnv(t, "DATABASE_URL")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadReadsAddressListsUntilGap(t *testing.T) {
	clearEnv(t, "DATABASE_URL", "NODE0", "NODE1", "NODE2", "FOLLOWER0", "FOLLOWER1", "HTTP_ADDR")
	os.Setenv("DATABASE_URL", "postgres://x")
	os.Setenv("NODE0", "a:1")
	os.Setenv("NODE1", "b:2")
	os.Setenv("FOLLOWER0", "c:3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.NodeAddrs)
	assert.Equal(t, []string{"c:3"}, cfg.FollowerAddrs)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestIdentityParsesPositionalArg(t *testing.T) {
	id, err := Identity([]string{"3"})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)
}

func TestIdentityMissingArg(t *testing.T) {
	_, err := Identity(nil)
	assert.Error(t, err)
}

func TestIdentityNonNumeric(t *testing.T) {
	_, err := Identity([]string{"abc"})
	assert.Error(t, err)
}
