package auth_api_config

import (
	"time"

	authx "github.com/NordCoder/Gatekeeper/internal/auth"
	"github.com/NordCoder/Gatekeeper/internal/obs"
	pg "github.com/NordCoder/Gatekeeper/internal/repository/postgres"
	redisx "github.com/NordCoder/Gatekeeper/internal/repository/redis"
)

const (
	RevocationPostgres = "postgres"
	RevocationRedis    = "redis"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type Revocation struct {
	Backend       string        `mapstructure:"backend"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Outbox struct {
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	WaitTime      time.Duration `mapstructure:"wait_time"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig(app App) *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		Version:     app.Version,
		Env:         app.Env,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc *Log) AsLoggerConfig(app App) obs.LogConfig {
	return obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    "gatekeeper/" + app.Name,
		Env:    app.Env,
		Ver:    app.Version,
	}
}

type Auth struct {
	JWTSecret               string `mapstructure:"jwt_secret"`
	JWTAlgorithm            string `mapstructure:"jwt_algorithm"`
	AccessTTLMinutes        int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLMinutes       int    `mapstructure:"refresh_ttl_minutes"`
	HashAlgorithm           string `mapstructure:"hash_algorithm"`
	BcryptCost              int    `mapstructure:"bcrypt_cost"`
	MaxConcurrentHashes     int64  `mapstructure:"max_concurrent_hashes"`
	RefreshChecksRevocation bool   `mapstructure:"refresh_checks_revocation"`
}

func (a *Auth) AsCodecConfig() authx.CodecConfig {
	return authx.CodecConfig{
		Secret:     a.JWTSecret,
		Algorithm:  a.JWTAlgorithm,
		AccessTTL:  time.Duration(a.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(a.RefreshTTLMinutes) * time.Minute,
	}
}

func (a *Auth) AsHasherConfig() authx.HasherConfig {
	return authx.HasherConfig{
		Algorithm:     a.HashAlgorithm,
		BcryptCost:    a.BcryptCost,
		MaxConcurrent: a.MaxConcurrentHashes,
	}
}

type Config struct {
	App        App           `mapstructure:"app"`
	Server     Server        `mapstructure:"server"`
	DB         pg.Config     `mapstructure:"db"`
	Redis      redisx.Config `mapstructure:"redis"`
	Revocation Revocation    `mapstructure:"revocation"`
	Kafka      Kafka         `mapstructure:"kafka"`
	Outbox     Outbox        `mapstructure:"outbox"`
	OTEL       OTEL          `mapstructure:"otel"`
	Log        Log           `mapstructure:"log"`
	Auth       Auth          `mapstructure:"auth"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
