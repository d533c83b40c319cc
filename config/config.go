package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"bugscan/scanner"
	"github.com/joho/godotenv"
)

// ErrInvalid marks configuration errors that should stop the program before
// any scanning starts.
var ErrInvalid = errors.New("invalid configuration")

// Scan holds the values consumed by a single scan run.
type Scan struct {
	HostFile string
	CIDR     string
	Mode     string
	Methods  []string
	Ports    []int
	Proxy    string
	Output   string
	Threads  int
	PingRaw  bool
	Verbose  bool
}

// API holds the settings for the HTTP service.
type API struct {
	Addr       string
	RedisAddr  string
	APIKey     string
	Workers    int
	Threads    int
	RateLimit  int64
	RateWindow time.Duration
	// MinPrefix is the shortest CIDR prefix a scan request may submit.
	MinPrefix int
}

// DefaultMinPrefix caps API scans at a /16 block.
const DefaultMinPrefix = 16

// LoadEnv loads a .env file from the working directory if one exists.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// DefaultScan returns scan defaults, overridden by BUGSCAN_* variables. A
// malformed variable is a configuration error, not a silent fallback.
func DefaultScan() (Scan, error) {
	cfg := Scan{
		Mode:    getenv("BUGSCAN_MODE", string(scanner.ModeDirect)),
		Methods: SplitList(getenv("BUGSCAN_METHODS", "head")),
		Ports:   []int{80},
		Proxy:   getenv("BUGSCAN_PROXY", ""),
		Output:  getenv("BUGSCAN_OUTPUT", ""),
	}
	if raw := os.Getenv("BUGSCAN_PORTS"); raw != "" {
		ports, err := ParsePorts(raw)
		if err != nil {
			return Scan{}, fmt.Errorf("BUGSCAN_PORTS: %w", err)
		}
		cfg.Ports = ports
	}
	threads, err := getenvInt("BUGSCAN_THREADS", scanner.DefaultThreads)
	if err != nil {
		return Scan{}, err
	}
	cfg.Threads = threads
	return cfg, nil
}

// Validate checks the values a scan cannot run without and returns the
// parsed probe mode.
func (s Scan) Validate() (scanner.Mode, error) {
	mode, err := scanner.ParseMode(s.Mode)
	if err != nil {
		return "", err
	}
	if s.Threads < 1 {
		return "", fmt.Errorf("%w: threads must be positive, got %d", ErrInvalid, s.Threads)
	}
	if len(s.Methods) == 0 {
		return "", fmt.Errorf("%w: at least one method is required", ErrInvalid)
	}
	if len(s.Ports) == 0 {
		return "", fmt.Errorf("%w: at least one port is required", ErrInvalid)
	}
	return mode, nil
}

// LoadAPI reads the API settings from the environment. The service refuses
// to start without an API key.
func LoadAPI() (API, error) {
	cfg := API{
		Addr:       getenv("API_ADDR", ":8080"),
		RedisAddr:  getenv("REDIS_ADDR", "localhost:6379"),
		APIKey:     os.Getenv("API_KEY"),
		RateWindow: time.Minute,
	}
	if cfg.APIKey == "" {
		return API{}, fmt.Errorf("%w: API_KEY is required", ErrInvalid)
	}

	var err error
	ints := []struct {
		key      string
		fallback int
		dst      *int
	}{
		{"API_WORKERS", 2, &cfg.Workers},
		{"API_THREADS", scanner.DefaultThreads, &cfg.Threads},
		{"API_MIN_PREFIX", DefaultMinPrefix, &cfg.MinPrefix},
	}
	for _, v := range ints {
		if *v.dst, err = getenvInt(v.key, v.fallback); err != nil {
			return API{}, err
		}
	}
	if cfg.MinPrefix < 0 || cfg.MinPrefix > 32 {
		return API{}, fmt.Errorf("%w: API_MIN_PREFIX must be within 0-32, got %d", ErrInvalid, cfg.MinPrefix)
	}

	limit, err := getenvInt("RATE_LIMIT", 60)
	if err != nil {
		return API{}, err
	}
	cfg.RateLimit = int64(limit)

	if raw := os.Getenv("RATE_WINDOW"); raw != "" {
		if cfg.RateWindow, err = time.ParseDuration(raw); err != nil {
			return API{}, fmt.Errorf("%w: RATE_WINDOW: %v", ErrInvalid, err)
		}
	}
	return cfg, nil
}

// SplitList splits a comma separated list, trimming blanks and dropping
// empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParsePorts parses a comma separated port list, keeping order and duplicates.
func ParsePorts(list string) ([]int, error) {
	parts := SplitList(list)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty port list", ErrInvalid)
	}
	ports := make([]int, 0, len(parts))
	for _, part := range parts {
		port, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: port is not a number: %s", ErrInvalid, part)
		}
		if port < 0 || port > 65535 {
			return nil, fmt.Errorf("%w: port must be within 0-65535: %d", ErrInvalid, port)
		}
		ports = append(ports, port)
	}
	return ports, nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a number: %q", ErrInvalid, key, value)
	}
	return n, nil
}
