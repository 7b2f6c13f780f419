package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	CommandValidate = "validate"
	CommandSmall    = "small"
	CommandFull     = "full"
	CommandPost     = "post"
	CommandServe    = "serve"
)

// Sink names accepted by -sinks.
const (
	SinkFile  = "file"
	SinkSQL   = "sql"
	SinkS3    = "s3"
	SinkKafka = "kafka"
)

type Config struct {
	Command string

	// Simulation
	Root      string
	Seed      uint64
	HasSeed   bool
	Quick     bool
	Runs      int
	MaxVoters int
	Workers   int
	Resume    bool
	Sinks     []string

	// Server and database
	Port        int
	DatabaseURL string
	DBType      string
	SessionSalt string

	// S3 sink
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3Prefix    string
	S3PathStyle bool
	S3AccessKey string
	S3SecretKey string

	// Kafka sink
	KafkaBrokers []string
	KafkaTopic   string

	LogLevel string
}

// HasSink reports whether name was selected with -sinks.
func (c Config) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// Usage is printed for a missing or unknown command.
const Usage = `usage: rankvote <command> [flags]

commands:
  validate   check sampler uniformity, pairwise balance and independence
  small      simulate 10 runs of 50 voters
  full       simulate 1000 runs of 500 voters
  post       aggregate recorded runs into statistics and features
  serve      start the HTTP API`

// ParseFlags reads the command and its flags. A .env file in the working
// directory is loaded first; variables already set in the environment win.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	_ = godotenv.Load()

	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return Config{}, errors.New("command required\n" + Usage)
	}
	cfg.Command = args[0]
	var defaultRuns, defaultVoters int
	switch cfg.Command {
	case CommandSmall:
		defaultRuns, defaultVoters = 10, 50
	case CommandFull:
		defaultRuns, defaultVoters = 1000, 500
	case CommandValidate, CommandPost, CommandServe:
	default:
		return Config{}, fmt.Errorf("unknown command %q\n%s", cfg.Command, Usage)
	}

	fs := flag.NewFlagSet("rankvote "+cfg.Command, flag.ContinueOnError)

	var seed, sinks, brokers string
	fs.StringVar(&cfg.Root, "root", "", "Project root for data and analysis files")
	fs.StringVar(&seed, "seed", "", "Random seed (unset for a random one)")
	fs.BoolVar(&cfg.Quick, "quick", false, "Smaller sample sizes for validate")
	fs.IntVar(&cfg.Runs, "runs", 0, "Number of simulation runs")
	fs.IntVar(&cfg.MaxVoters, "max-voters", 0, "Ballots per run")
	fs.IntVar(&cfg.Workers, "workers", 0, "Runs simulated in parallel")
	fs.BoolVar(&cfg.Resume, "resume", true, "Skip runs that were already recorded")
	fs.StringVar(&sinks, "sinks", "", "Comma separated recorders: file, sql, s3, kafka")

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DBType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSalt, "session-salt", "", "Session key salt (prefer env)")

	fs.StringVar(&cfg.S3Bucket, "s3-bucket", "", "Bucket for the s3 sink")
	fs.StringVar(&cfg.S3Region, "s3-region", "", "Region for the s3 sink")
	fs.StringVar(&cfg.S3Endpoint, "s3-endpoint", "", "Custom S3 endpoint")
	fs.StringVar(&cfg.S3Prefix, "s3-prefix", "", "Object key prefix")
	fs.BoolVar(&cfg.S3PathStyle, "s3-path-style", false, "Use path-style S3 addressing")
	fs.StringVar(&brokers, "kafka-brokers", "", "Comma separated Kafka brokers")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", "", "Kafka topic for step records")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "debug, info, warn or error")

	if err := fs.Parse(args[1:]); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	cfg.Root = orEnv(cfg.Root, "RANKVOTE_ROOT", ".")
	if seed == "" {
		seed = os.Getenv("RANKVOTE_SEED")
	}
	if seed != "" {
		v, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return Config{}, errors.New("invalid seed")
		}
		cfg.Seed, cfg.HasSeed = v, true
	}

	var err error
	if cfg.Runs, err = intOrEnv(cfg.Runs, "RANKVOTE_RUNS", defaultRuns); err != nil {
		return Config{}, err
	}
	if cfg.MaxVoters, err = intOrEnv(cfg.MaxVoters, "RANKVOTE_MAX_VOTERS", defaultVoters); err != nil {
		return Config{}, err
	}
	if cfg.Workers, err = intOrEnv(cfg.Workers, "RANKVOTE_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.Port, err = intOrEnv(cfg.Port, "PORT", 3318); err != nil {
		return Config{}, err
	}
	if cfg.Runs < 0 || cfg.MaxVoters < 0 {
		return Config{}, errors.New("runs and max-voters must not be negative")
	}
	if cfg.Workers < 1 {
		return Config{}, errors.New("workers must be at least 1")
	}

	cfg.Sinks = splitList(orEnv(sinks, "RANKVOTE_SINKS", SinkFile))
	for _, s := range cfg.Sinks {
		switch s {
		case SinkFile, SinkSQL, SinkS3, SinkKafka:
		default:
			return Config{}, fmt.Errorf("unknown sink %q", s)
		}
	}

	cfg.DBType = orEnv(cfg.DBType, "DATABASE_TYPE", "sqlite")
	if cfg.DBType != "sqlite" && cfg.DBType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}
	cfg.DatabaseURL = orEnv(cfg.DatabaseURL, "DATABASE_URL", "")
	if cfg.DatabaseURL == "" {
		if cfg.DBType == "postgres" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "file:" + filepath.Join(cfg.Root, "data", "rankvote.db")
	}

	cfg.S3Bucket = orEnv(cfg.S3Bucket, "RANKVOTE_S3_BUCKET", "")
	cfg.S3Region = orEnv(cfg.S3Region, "RANKVOTE_S3_REGION", "us-east-1")
	cfg.S3Endpoint = orEnv(cfg.S3Endpoint, "RANKVOTE_S3_ENDPOINT", "")
	cfg.S3Prefix = orEnv(cfg.S3Prefix, "RANKVOTE_S3_PREFIX", "runs/")
	if !cfg.S3PathStyle {
		cfg.S3PathStyle, _ = strconv.ParseBool(os.Getenv("RANKVOTE_S3_PATH_STYLE"))
	}
	cfg.S3AccessKey = os.Getenv("RANKVOTE_S3_ACCESS_KEY")
	cfg.S3SecretKey = os.Getenv("RANKVOTE_S3_SECRET_KEY")
	if cfg.HasSink(SinkS3) && cfg.S3Bucket == "" {
		return Config{}, errors.New("s3 bucket required for the s3 sink (use -s3-bucket or RANKVOTE_S3_BUCKET env)")
	}

	cfg.KafkaBrokers = splitList(orEnv(brokers, "KAFKA_BROKERS", ""))
	cfg.KafkaTopic = orEnv(cfg.KafkaTopic, "RANKVOTE_KAFKA_TOPIC", "rankvote.steps")
	if cfg.HasSink(SinkKafka) && len(cfg.KafkaBrokers) == 0 {
		return Config{}, errors.New("kafka brokers required for the kafka sink (use -kafka-brokers or KAFKA_BROKERS env)")
	}

	cfg.LogLevel = orEnv(cfg.LogLevel, "LOG_LEVEL", "info")

	// Secrets - MUST be provided for the server
	cfg.SessionSalt = orEnv(cfg.SessionSalt, "SESSION_KEY_SALT", "")
	if cfg.Command == CommandServe && cfg.SessionSalt == "" {
		return Config{}, errors.New("SESSION_KEY_SALT required")
	}

	return cfg, nil
}

func orEnv(v, key, def string) string {
	if v != "" {
		return v
	}
	if env := os.Getenv(key); env != "" {
		return env
	}
	return def
}

func intOrEnv(v int, key string, def int) (int, error) {
	if v != 0 {
		return v, nil
	}
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
