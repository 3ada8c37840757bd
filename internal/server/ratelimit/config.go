package ratelimit

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/resume-editor/internal/config"
)

// EndpointConfig limits one method on a path. A path ending in "/" covers
// every path below it, and all of them share one bucket per client.
type EndpointConfig struct {
	Path   string
	Method string
	RPS    float64 // Sustained requests per second; zero means unlimited
	Burst  int     // Bucket capacity
}

// FromServerConfig builds the limiter configuration from the server
// settings. RATE_LIMIT_ENABLED, RATE_LIMIT_WHITELIST and
// RATE_LIMIT_BLACKLIST override them from the environment.
func FromServerConfig(cfg config.ServerConfig) *Config {
	enabled := getEnvBool("RATE_LIMIT_ENABLED", cfg.RateLimitRPS > 0)
	if !enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultRPS:      cfg.RateLimitRPS,
		DefaultBurst:    cfg.RateLimitBurst,
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		IdleTTL:         time.Hour,
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific configurations. Chat
// turns call the model and renderer, so they get a fifth of the default rate.
func DefaultEndpointConfigs(rps float64, burst int) []EndpointConfig {
	chatBurst := max(1, burst/2)
	return []EndpointConfig{
		{Path: "/v1/chat", Method: "POST", RPS: rps / 5, Burst: chatBurst},
		{Path: "/v1/chat/stream", Method: "POST", RPS: rps / 5, Burst: chatBurst},
		{Path: "/v1/intent", Method: "POST", RPS: rps / 2, Burst: burst},
		{Path: "/v1/history/", Method: "POST", RPS: rps, Burst: burst},
		{Path: "/v1/runs/", Method: "GET", RPS: rps, Burst: burst},
		{Path: "/v1/runs/", Method: "DELETE", RPS: rps / 2, Burst: chatBurst},
	}
}

// endpointFor returns the limits for a request. An exact path beats a
// prefix and the longest prefix beats shorter ones. A request that matches
// nothing gets the default limits under its own path; health checks are
// never limited.
func (c *Config) endpointFor(method, path string) EndpointConfig {
	if method == http.MethodGet && path == "/health" {
		return EndpointConfig{Path: path, Method: method}
	}
	var best *EndpointConfig
	for i := range c.EndpointConfigs {
		e := &c.EndpointConfigs[i]
		if e.Method != method {
			continue
		}
		if e.Path == path {
			return *e
		}
		if strings.HasSuffix(e.Path, "/") && strings.HasPrefix(path, e.Path) && (best == nil || len(e.Path) > len(best.Path)) {
			best = e
		}
	}
	if best != nil {
		return *best
	}
	return EndpointConfig{Path: path, Method: method, RPS: c.DefaultRPS, Burst: c.DefaultBurst}
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
