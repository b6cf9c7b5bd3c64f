// Package config handles configuration for stakectl: defaults, an optional
// JSON file and command-line flags, in that order of precedence.
package config

import (
	"os"
	"time"
)

const (
	// EnvConfigPath names the JSON config file when no -c flag is given.
	EnvConfigPath = "STAKECTL_CONFIG"
	// EnvAccessToken supplies the access token when no -t flag is given.
	EnvAccessToken = "STAKECTL_TOKEN"
)

// GlobalFlags are consumed by the config layer and hidden from commands.
var GlobalFlags = []string{"-a", "-t", "-w", "-c", "-config"}

// Config holds runtime settings for the CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the ledger gRPC endpoint.
//   - AccessToken: JWT sent with every call.
//   - RequestTimeout: upper bound for one call.
//   - TokenValidity: lifetime of tokens minted by the token command.
type Config struct {
	ServerEndpointAddr string
	AccessToken        string
	RequestTimeout     time.Duration
	TokenValidity      time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.TokenValidity = 15 * time.Minute
	c.AccessToken = os.Getenv(EnvAccessToken)
}

func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
