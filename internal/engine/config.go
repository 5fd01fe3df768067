package engine

import (
	"time"

	"github.com/inconshreveable/log15"

	"github.com/ngrok/rsocket-go/internal/wire"
	"github.com/ngrok/rsocket-go/log"
	"github.com/ngrok/rsocket-go/log/log15adapter"
)

const (
	defaultKeepAlivePeriod   = 20 * time.Second
	defaultMaxLifetimePeriod = 90 * time.Second
	defaultDataMimeType      = "application/octet-stream"
	defaultMetadataMimeType  = "application/octet-stream"
)

// Config holds everything the engine needs at construction time, mirroring
// a ConnectConfig/With* builder shape.
type Config struct {
	HonorLease     bool
	LeasePublisher wire.Publisher

	RequestQueueSize int

	DataMimeType     string
	MetadataMimeType string

	KeepAlivePeriod   time.Duration
	MaxLifetimePeriod time.Duration

	SetupPayload wire.Payload

	Logger log.Logger
}

// Options returns an empty Config, ready for With* chaining. Fields left
// unset are given their defaults when an engine is built from the Config.
func Options() *Config {
	return &Config{}
}

func (cfg *Config) WithHonorLease(publisher wire.Publisher) *Config {
	cfg.HonorLease = true
	cfg.LeasePublisher = publisher
	return cfg
}

func (cfg *Config) WithRequestQueueSize(size int) *Config {
	cfg.RequestQueueSize = size
	return cfg
}

func (cfg *Config) WithDataMimeType(mime string) *Config {
	cfg.DataMimeType = mime
	return cfg
}

func (cfg *Config) WithMetadataMimeType(mime string) *Config {
	cfg.MetadataMimeType = mime
	return cfg
}

func (cfg *Config) WithKeepAlivePeriod(period time.Duration) *Config {
	cfg.KeepAlivePeriod = period
	return cfg
}

func (cfg *Config) WithMaxLifetimePeriod(period time.Duration) *Config {
	cfg.MaxLifetimePeriod = period
	return cfg
}

func (cfg *Config) WithSetupPayload(payload wire.Payload) *Config {
	cfg.SetupPayload = payload
	return cfg
}

func (cfg *Config) WithLogger(logger log.Logger) *Config {
	cfg.Logger = logger
	return cfg
}

func (cfg *Config) initDefaults() {
	if cfg.DataMimeType == "" {
		cfg.DataMimeType = defaultDataMimeType
	}
	if cfg.MetadataMimeType == "" {
		cfg.MetadataMimeType = defaultMetadataMimeType
	}
	if cfg.KeepAlivePeriod == 0 {
		cfg.KeepAlivePeriod = defaultKeepAlivePeriod
	}
	if cfg.MaxLifetimePeriod == 0 {
		cfg.MaxLifetimePeriod = defaultMaxLifetimePeriod
	}
	if cfg.Logger == nil {
		l := log15.New()
		l.SetHandler(log15.DiscardHandler())
		cfg.Logger = log15adapter.NewLogger(l)
	}
}
