package internal

import "time"

type Config struct {
	Host string `env:"HOST,required=true"`
	Port int    `env:"PORT,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`

	// QueueTolerance is the maximum rating distance for a pairing.
	QueueTolerance int `env:"QUEUE_TOLERANCE"`

	// OracleURL points at the rules oracle sidecar. Empty selects the
	// built-in scripted oracle, which accepts anything: fine for local
	// play and tests, not for real games.
	OracleURL     string        `env:"ORACLE_URL"`
	OracleTimeout time.Duration `env:"ORACLE_TIMEOUT"`

	SnapshotInterval        time.Duration `env:"SNAPSHOT_INTERVAL,required=true"`
	SettlementRetryInterval time.Duration `env:"SETTLEMENT_RETRY_INTERVAL,required=true"`
	BadgerGCInterval        time.Duration `env:"BADGER_GC_INTERVAL,required=true"`

	DebugPort int `env:"DEBUG_PORT"`
}
