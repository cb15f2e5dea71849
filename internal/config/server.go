package config

import (
	"net"
	"strconv"
	"time"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = 5000
)

// ServerConfig holds the listen address and shutdown bounds of the HTTP server
type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Host:            GetEnvOrDefault("HOST", defaultHost),
		Port:            parseEnvInt("PORT", defaultPort),
		ShutdownTimeout: parseEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// Addr returns the host:port pair to listen on
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func IsMetricsEnabled() bool {
	return parseEnvBool("METRICS_ENABLED", false)
}
