// Package gridapi speaks the cluster management REST API. It owns revision
// probing, session authentication and the retry policy; callers see one
// logical request in, one result or definitive failure out.
package gridapi

import (
	"crypto/tls"
	"net/http"
	"time"
)

// Endpoint paths, relative to /api/{revision}/.
const (
	endpointClusters  = "clusters" // stable collection endpoint, used for probing
	endpointAuthToken = "auth/token"

	EndpointClusterSelf = "clusters/local" // rich self-description
	EndpointSystem      = "system"         // lean self-description, pre-v3 fallback

	EndpointComputeNodes      = "compute/nodes"
	EndpointComputeEnclosures = "compute/enclosures"
	EndpointStorageNodes      = "storage/nodes"
	EndpointStorageEnclosures = "storage/enclosures"
	EndpointStorageTrays      = "storage/trays"
)

const tokenHeader = "Api-Token"

// Credentials carries everything the client may authenticate with. Token is
// optional; when set it is tried first and basic auth is kept as fallback.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// Config configures one cluster session.
type Config struct {
	Host          string
	Credentials   Credentials
	Timeout       time.Duration
	MaxRetries    uint
	BackoffFactor float64
	Insecure      bool
}

func (cfg Config) withDefaults() Config {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffFactor <= 1 {
		cfg.BackoffFactor = 2
	}
	return cfg
}

func (cfg Config) httpClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
}
