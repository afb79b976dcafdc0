package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Isolation levels accepted for registration transactions.
const (
	IsolationReadCommitted = "read_committed"
	IsolationSerializable  = "serializable"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	JWTSecret       string
	TokenTTL        time.Duration
	LogLevel        string
	ShutdownTimeout time.Duration
	AdminEmails     []string

	TxMaxAttempts           int
	TxIsolation             string
	SettleOnCheckout        bool
	AllowTicketlessOrders   bool
	EnforceSubeventCapacity bool
	PriceTolerance          decimal.Decimal
	RosterSeed              uint64

	RedisAddr        string
	IdempotencyTTL   time.Duration
	IdempotencyLease time.Duration

	KafkaBrokers       []string
	KafkaTopic         string
	WebhookURL         string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxWorkers      int
}

const (
	defaultRunAddress         = ":8080"
	defaultJWTSecret          = "change-me-in-production"
	defaultTokenTTL           = 24 * time.Hour
	defaultLogLevel           = "info"
	defaultShutdownTimeout    = 10 * time.Second
	defaultTxMaxAttempts      = 3
	maxTxAttempts             = 3
	defaultTxIsolation        = IsolationReadCommitted
	defaultPriceTolerance     = "0.50"
	defaultIdempotencyTTL     = 24 * time.Hour
	defaultIdempotencyLease   = time.Minute
	defaultKafkaTopic         = "registration.events"
	defaultOutboxPollInterval = 2 * time.Second
	defaultOutboxBatchSize    = 32
	defaultOutboxWorkers      = 2
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:              getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:             getString(lookup, "DATABASE_URI", ""),
		JWTSecret:               getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:                getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		LogLevel:                getString(lookup, "LOG_LEVEL", defaultLogLevel),
		ShutdownTimeout:         getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		TxMaxAttempts:           getInt(lookup, "TX_MAX_ATTEMPTS", defaultTxMaxAttempts),
		TxIsolation:             getString(lookup, "TX_ISOLATION", defaultTxIsolation),
		SettleOnCheckout:        getBool(lookup, "SETTLE_ON_CHECKOUT", true),
		AllowTicketlessOrders:   getBool(lookup, "ALLOW_TICKETLESS_ORDERS", true),
		EnforceSubeventCapacity: getBool(lookup, "ENFORCE_SUBEVENT_CAPACITY", true),
		RosterSeed:              getUint(lookup, "ROSTER_SEED", 0),
		RedisAddr:               getString(lookup, "REDIS_ADDR", ""),
		IdempotencyTTL:          getDuration(lookup, "IDEMPOTENCY_TTL", defaultIdempotencyTTL),
		IdempotencyLease:        getDuration(lookup, "IDEMPOTENCY_LEASE", defaultIdempotencyLease),
		KafkaTopic:              getString(lookup, "KAFKA_TOPIC", defaultKafkaTopic),
		WebhookURL:              getString(lookup, "EVENTS_WEBHOOK_URL", ""),
		OutboxPollInterval:      getDuration(lookup, "OUTBOX_POLL_INTERVAL", defaultOutboxPollInterval),
		OutboxBatchSize:         getInt(lookup, "OUTBOX_BATCH_SIZE", defaultOutboxBatchSize),
		OutboxWorkers:           getInt(lookup, "OUTBOX_WORKERS", defaultOutboxWorkers),
	}

	fs := flag.NewFlagSet("eventreg", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		tokenTTLStr        = cfg.TokenTTL.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		pollIntervalStr    = cfg.OutboxPollInterval.String()
		idempotencyTTLStr  = cfg.IdempotencyTTL.String()
		leaseStr           = cfg.IdempotencyLease.String()
		toleranceStr       = getString(lookup, "PRICE_TOLERANCE", defaultPriceTolerance)
		adminEmailsStr     = getString(lookup, "ADMIN_EMAILS", "")
		kafkaBrokersStr    = getString(lookup, "KAFKA_BROKERS", "")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&tokenTTLStr, "token-ttl", tokenTTLStr, "Lifetime of issued auth tokens")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&adminEmailsStr, "admin-emails", adminEmailsStr, "Comma separated emails registered with the admin role")
	fs.IntVar(&cfg.TxMaxAttempts, "tx-attempts", cfg.TxMaxAttempts, "Attempts for a transaction failing on serialization or deadlock")
	fs.StringVar(&cfg.TxIsolation, "tx-isolation", cfg.TxIsolation, "Transaction isolation: read_committed or serializable")
	fs.BoolVar(&cfg.SettleOnCheckout, "settle-on-checkout", cfg.SettleOnCheckout, "Mark orders paid when checkout commits")
	fs.BoolVar(&cfg.AllowTicketlessOrders, "allow-ticketless", cfg.AllowTicketlessOrders, "Mint a general attendee for orders without tickets")
	fs.BoolVar(&cfg.EnforceSubeventCapacity, "enforce-subevent-capacity", cfg.EnforceSubeventCapacity, "Reject subevent registrations beyond capacity")
	fs.StringVar(&toleranceStr, "price-tolerance", toleranceStr, "Absolute tolerance for client submitted stay prices")
	fs.Uint64Var(&cfg.RosterSeed, "roster-seed", cfg.RosterSeed, "Seed for roster tie-break shuffle, 0 picks a time based seed")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for checkout idempotency keys")
	fs.StringVar(&idempotencyTTLStr, "idempotency-ttl", idempotencyTTLStr, "Lifetime of stored checkout results")
	fs.StringVar(&leaseStr, "idempotency-lease", leaseStr, "Lifetime of the in-flight marker of a running checkout")
	fs.StringVar(&kafkaBrokersStr, "kafka", kafkaBrokersStr, "Comma separated Kafka brokers for the outbox relay")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka topic for registration events")
	fs.StringVar(&cfg.WebhookURL, "webhook-url", cfg.WebhookURL, "Base URL receiving events when Kafka is not configured")
	fs.StringVar(&pollIntervalStr, "outbox-interval", pollIntervalStr, "Interval between outbox polls")
	fs.IntVar(&cfg.OutboxBatchSize, "outbox-batch", cfg.OutboxBatchSize, "Maximum events per outbox poll")
	fs.IntVar(&cfg.OutboxWorkers, "outbox-workers", cfg.OutboxWorkers, "Number of concurrent outbox publishers")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.TokenTTL, err = time.ParseDuration(tokenTTLStr); err != nil {
		return nil, fmt.Errorf("invalid token ttl: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.OutboxPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid outbox interval: %w", err)
	}

	if cfg.IdempotencyTTL, err = time.ParseDuration(idempotencyTTLStr); err != nil {
		return nil, fmt.Errorf("invalid idempotency ttl: %w", err)
	}

	if cfg.IdempotencyLease, err = time.ParseDuration(leaseStr); err != nil {
		return nil, fmt.Errorf("invalid idempotency lease: %w", err)
	}

	if cfg.PriceTolerance, err = decimal.NewFromString(toleranceStr); err != nil {
		return nil, fmt.Errorf("invalid price tolerance: %w", err)
	}
	if cfg.PriceTolerance.IsNegative() {
		return nil, fmt.Errorf("invalid price tolerance: must not be negative")
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	cfg.AdminEmails = splitCSV(adminEmailsStr)
	for i, email := range cfg.AdminEmails {
		cfg.AdminEmails[i] = strings.ToLower(email)
	}
	cfg.KafkaBrokers = splitCSV(kafkaBrokersStr)

	switch cfg.LogLevel = strings.ToLower(cfg.LogLevel); cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}

	switch cfg.TxIsolation {
	case IsolationReadCommitted, IsolationSerializable:
	default:
		return nil, fmt.Errorf("invalid tx isolation %q", cfg.TxIsolation)
	}

	if cfg.TxMaxAttempts <= 0 {
		cfg.TxMaxAttempts = defaultTxMaxAttempts
	}
	if cfg.TxMaxAttempts > maxTxAttempts {
		cfg.TxMaxAttempts = maxTxAttempts
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = defaultIdempotencyTTL
	}

	if cfg.IdempotencyLease <= 0 {
		cfg.IdempotencyLease = defaultIdempotencyLease
	}

	if cfg.OutboxPollInterval <= 0 {
		cfg.OutboxPollInterval = defaultOutboxPollInterval
	}

	if cfg.OutboxBatchSize <= 0 {
		cfg.OutboxBatchSize = defaultOutboxBatchSize
	}

	if cfg.OutboxWorkers <= 0 {
		cfg.OutboxWorkers = defaultOutboxWorkers
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

// IsAdminEmail reports whether accounts registered with email get the admin role.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, admin := range c.AdminEmails {
		if admin == email {
			return true
		}
	}
	return false
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getUint(lookup envLookup, key string, def uint64) uint64 {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
