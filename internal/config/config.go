// Package config loads the environment this system's processes depend
// on: DATABASE_URL for the job store, NODE0..NODEn for the leader
// addresses the enqueue manager load-balances across, FOLLOWER0..FOLLOWERn
// for the followers a leader replicates to, and HTTP_ADDR for the
// client-facing HTTP bind address.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the environment-derived configuration shared by every
// process in this system.
type Config struct {
	// DatabaseURL is the job store connection string.
	DatabaseURL string
	// NodeAddrs is the ordered list of known leader addresses the enqueue
	// manager load-balances across, read from NODE0, NODE1, ... until a
	// gap is found.
	NodeAddrs []string
	// FollowerAddrs is the ordered list of follower addresses a leader
	// replicates to, read from FOLLOWER0, FOLLOWER1, ... until a gap is
	// found.
	FollowerAddrs []string
	// HTTPAddr is the address the process's client-facing HTTP router
	// binds, from HTTP_ADDR, defaulting to ":8080".
	HTTPAddr string
}

// Load reads DATABASE_URL, NODE*, and FOLLOWER* from the process
// environment, loading a .env file first if one is present
// (godotenv.Load silently no-ops when no .env file exists).
func Load() (Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return Config{}, fmt.Errorf("config: DATABASE_URL is not set")
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	return Config{
		DatabaseURL:   dbURL,
		NodeAddrs:     readAddrList("NODE"),
		FollowerAddrs: readAddrList("FOLLOWER"),
		HTTPAddr:      httpAddr,
	}, nil
}

// readAddrList reads prefix+"0", prefix+"1", ... from the environment
// until the first gap.
func readAddrList(prefix string) []string {
	var addrs []string
	for i := 0; ; i++ {
		v := os.Getenv(prefix + strconv.Itoa(i))
		if v == "" {
			break
		}
		addrs = append(addrs, v)
	}
	return addrs
}

// Identity parses the single positional CLI argument every node/leader/
// manager binary takes: its integer identity.
func Identity(args []string) (uint64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("config: missing positional identity argument")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: identity argument must be an integer: %w", err)
	}
	return id, nil
}
