package config

import (
	"errors"
	"fmt"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Supported sinks for normalized documents.
const (
	SinkMongo = "mongo"
	SinkKafka = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SourceCSVPath string
	SinkType      string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	// CredentialsDir, when set, holds .password/password.txt with the
	// database username and password.
	CredentialsDir string

	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SourceCSVPath: sharedcfg.EnvOrDefault("SOURCE_CSV_PATH", "data/Austin_311_Public_Data.csv"),
		SinkType:      sharedcfg.EnvOrDefault("SINK_TYPE", SinkMongo),

		MongoURI:        sharedcfg.EnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   sharedcfg.EnvOrDefault("MONGO_DATABASE", "austin311"),
		MongoCollection: sharedcfg.EnvOrDefault("MONGO_COLLECTION", "AustinTx311Data"),
		CredentialsDir:  sharedcfg.EnvOrDefault("CREDENTIALS_DIR", ""),

		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "austin-311-documents"),

		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.SourceCSVPath == "" {
		return nil, errors.New("SOURCE_CSV_PATH is required")
	}

	switch cfg.SinkType {
	case SinkMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("MONGO_URI is required")
		}
		if cfg.MongoDatabase == "" || cfg.MongoCollection == "" {
			return nil, errors.New("MONGO_DATABASE and MONGO_COLLECTION are required")
		}
	case SinkKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	default:
		return nil, fmt.Errorf("invalid SINK_TYPE %q: want %q or %q", cfg.SinkType, SinkMongo, SinkKafka)
	}

	return cfg, nil
}
