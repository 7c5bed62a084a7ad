package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/multierr"
)

const (
	DefaultAPIBase      = "/api"
	DefaultProbeTimeout = 8000 * time.Millisecond
)

type Config struct {
	Addr           string        // bind address for the web server, e.g. "127.0.0.1:3000" or ":3000" (Docker)
	LogDir         string        // logs directory
	LogLevel       string        // debug, info, warn, error
	APIBase        string        // path prefix of the API client, e.g. "/api"
	UpstreamOrigin string        // scheme://host[:port] both clients resolve against
	ProbeTimeout   time.Duration // fixed per-request timeout of both clients
	RenderWait     time.Duration // how long /system waits for probes before rendering
	MetricsAPIKeys []string      // empty means /metrics is open
	AllowedOrigins []string      // CORS; empty means allow all
	PublicRPM      int           // per-IP requests/minute, 0 disables
	PublicBurst    int
	SlackWebhook   string        // where `check` reports down services; empty disables
	RateLimitRedis string        // redis:// URL; set to share the rate limit across instances
}

func FromEnv() Config {
	// Bind address (Windows-friendly default)
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = "127.0.0.1:3000"
	}

	// Logs
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}
	logLevel := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if logLevel == "" {
		logLevel = "info"
	}

	// Upstreams
	apiBase := strings.TrimSpace(os.Getenv("API_BASE"))
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	origin := strings.TrimRight(strings.TrimSpace(os.Getenv("UPSTREAM_ORIGIN")), "/")
	if origin == "" {
		origin = "http://localhost:8080"
	}

	return Config{
		Addr:           addr,
		LogDir:         logDir,
		LogLevel:       logLevel,
		APIBase:        strings.TrimRight(apiBase, "/"),
		UpstreamOrigin: origin,
		ProbeTimeout:   envMillis("PROBE_TIMEOUT_MS", DefaultProbeTimeout),
		RenderWait:     envMillis("RENDER_WAIT_MS", 9000*time.Millisecond),
		MetricsAPIKeys: envList("METRICS_API_KEYS"),
		AllowedOrigins: envList("ALLOWED_ORIGINS"),
		PublicRPM:      envInt("PUBLIC_RPM", 600),
		PublicBurst:    envInt("PUBLIC_BURST", 100),
		SlackWebhook:   strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL")),
		RateLimitRedis: strings.TrimSpace(os.Getenv("RATE_LIMIT_REDIS_URL")),
	}
}

// Validate reports configuration that would make the live-system panel useless.
// The server still starts with an invalid config; preflight refuses it.
func (c Config) Validate() error {
	var errs error
	u, err := url.Parse(c.UpstreamOrigin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = multierr.Append(errs, fmt.Errorf("UPSTREAM_ORIGIN %q is not an absolute http(s) URL", c.UpstreamOrigin))
	} else if u.Path != "" {
		errs = multierr.Append(errs, fmt.Errorf("UPSTREAM_ORIGIN %q must not carry a path; use API_BASE", c.UpstreamOrigin))
	}
	if c.APIBase != "" && !strings.HasPrefix(c.APIBase, "/") && !strings.Contains(c.APIBase, "://") {
		errs = multierr.Append(errs, fmt.Errorf("API_BASE %q must start with / or be an absolute URL", c.APIBase))
	}
	if c.RateLimitRedis != "" {
		if _, err := redis.ParseURL(c.RateLimitRedis); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("RATE_LIMIT_REDIS_URL: %w", err))
		}
	}
	if c.ProbeTimeout <= 0 {
		errs = multierr.Append(errs, errors.New("PROBE_TIMEOUT_MS must be positive"))
	}
	return errs
}

// Warnings lists settings that work but probably are not what the operator wants.
func (c Config) Warnings() []string {
	var out []string
	if c.RenderWait < c.ProbeTimeout {
		out = append(out, fmt.Sprintf("RENDER_WAIT_MS (%s) is shorter than PROBE_TIMEOUT_MS (%s); slow cards render as loading", c.RenderWait, c.ProbeTimeout))
	}
	if len(c.MetricsAPIKeys) == 0 {
		out = append(out, "METRICS_API_KEYS empty; /metrics is public")
	}
	if len(c.AllowedOrigins) == 0 {
		out = append(out, "ALLOWED_ORIGINS empty; CORS allows every origin")
	}
	return out
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

func envList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
