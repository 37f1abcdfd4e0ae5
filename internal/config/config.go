package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the tracked capital pool on mainnet.
const (
	DefaultRPCURL   = "https://api.mainnet-beta.solana.com"
	DefaultUSDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	DefaultVaultATA = "E4qx5EmoaRc2SYSTAfwbgFiDBf6RuvRftW4mWpRXPVLe"
)

// Config holds the application configuration.
type Config struct {
	Environment string
	Addr        string

	RPCURL     string
	RPCTimeout time.Duration
	VaultATA   string
	USDCMint   string

	SnapshotDir string
	DatabaseURL string
	RedisAddr   string

	MapboxToken string

	OperatorEmail        string
	OperatorPasswordHash string
	JWTSecret            string
	TokenTTL             time.Duration

	MergeNowDB   bool
	MaxBodyBytes int64

	RateLimit       int
	RateLimitWindow time.Duration

	TLSCert string
	TLSKey  string
}

// Load reads configuration from environment variables. Development runs get
// permissive defaults; production tightens validation.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:          os.Getenv("APP_ENV"),
		Addr:                 getenv("ORACLE_ADDR", ":8080"),
		RPCURL:               getenv("SOLANA_RPC_URL", DefaultRPCURL),
		RPCTimeout:           getenvDuration("SOLANA_RPC_TIMEOUT", 5*time.Second),
		VaultATA:             getenv("CAPITAL_POOL_VAULT_ATA", DefaultVaultATA),
		USDCMint:             getenv("CAPITAL_POOL_USDC_MINT", DefaultUSDCMint),
		SnapshotDir:          getenv("SNAPSHOT_DIR", "public"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		MapboxToken:          os.Getenv("MAPBOX_TOKEN"),
		OperatorEmail:        os.Getenv("ORACLE_OPERATOR_EMAIL"),
		OperatorPasswordHash: os.Getenv("ORACLE_OPERATOR_PASSWORD_HASH"),
		JWTSecret:            os.Getenv("ORACLE_JWT_SECRET"),
		TokenTTL:             getenvDuration("ORACLE_TOKEN_TTL", 12*time.Hour),
		MergeNowDB:           os.Getenv("NOW_MERGE_DB") == "true",
		MaxBodyBytes:         int64(getenvInt("ORACLE_MAX_BODY_BYTES", 1<<20)),
		RateLimit:            getenvInt("ORACLE_RATE_LIMIT", 0),
		RateLimitWindow:      getenvDuration("ORACLE_RATE_LIMIT_WINDOW", time.Minute),
		TLSCert:              os.Getenv("ORACLE_TLS_CERT"),
		TLSKey:               os.Getenv("ORACLE_TLS_KEY"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is coherent.
func (c *Config) Validate() error {
	var missing []string

	if c.RPCURL == "" {
		missing = append(missing, "SOLANA_RPC_URL")
	}
	if c.VaultATA == "" {
		missing = append(missing, "CAPITAL_POOL_VAULT_ATA")
	}
	if c.USDCMint == "" {
		missing = append(missing, "CAPITAL_POOL_USDC_MINT")
	}
	if c.SnapshotDir == "" {
		missing = append(missing, "SNAPSHOT_DIR")
	}

	if c.Environment == "production" || c.Environment == "staging" {
		if c.JWTSecret == "" {
			missing = append(missing, "ORACLE_JWT_SECRET")
		}
		if c.OperatorEmail == "" {
			missing = append(missing, "ORACLE_OPERATOR_EMAIL")
		}
		if c.OperatorPasswordHash == "" {
			missing = append(missing, "ORACLE_OPERATOR_PASSWORD_HASH")
		}
	}

	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}

	if c.OperatorPasswordHash != "" && !strings.HasPrefix(c.OperatorPasswordHash, "$2") {
		return errors.New("ORACLE_OPERATOR_PASSWORD_HASH must be a bcrypt hash")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("ORACLE_TLS_CERT and ORACLE_TLS_KEY must be set together")
	}

	return nil
}

// AuthEnabled reports whether the login surface can issue tokens.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != "" && c.OperatorEmail != "" && c.OperatorPasswordHash != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
