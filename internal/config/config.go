package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rsnk/politecrawl/internal/validity"
	"gopkg.in/ini.v1"
)

// Config holds every tunable the crawler needs to run, built either
// programmatically (WithDefault + With* setters, mirroring the
// teacher's fluent builder) or from a config.ini file (WithConfigFile).
type Config struct {
	//===============
	//  Crawl scope
	//===============
	// Initial pages to give to the crawler to begin discovering and traversing other pages.
	seedURLs []url.URL
	// Regular expressions a discovered URL's host must match to be crawled.
	allowedDomainPatterns []string

	//===============
	// Politeness / concurrency
	//===============
	// Number of worker goroutines draining the frontier concurrently.
	threadsCount int
	// Minimum, fixed waiting time enforced between two requests to the same host.
	politenessDelay time.Duration
	// Randomized variation added on top of the politeness delay.
	jitter time.Duration
	// Controls the random number generator (retry backoff jitter, politeness jitter).
	randomSeed int64
	// Maximum fetch attempts before a URL is shelved as bad.
	maxAttempt int
	// Initial delay for exponential backoff after a retryable fetch error.
	backoffInitialDuration time.Duration
	// Multiplier applied per retry attempt.
	backoffMultiplier float64
	// Cap on the backoff delay.
	backoffMaxDuration time.Duration

	//===============
	// Fetch
	//===============
	// Maximum time allotted to a single fetch attempt.
	timeout time.Duration
	// User agent sent on every request and matched against robots.txt groups.
	userAgent string
	// Optional shared cache server the fetcher may consult before hitting the network.
	cacheHost string
	cachePort int

	//===============
	// Persistence
	//===============
	// Base path for the discovery index (SQLite file) and its backup snapshot directory.
	saveFile string
	// Whether to wipe all persisted state (index + snapshots) before starting.
	restart bool

	//===============
	// Output
	//===============
	// Root directory in which to store extracted visible-text artifacts; empty disables the storage sink.
	outputDir string
}

func WithDefault(seedUrls []url.URL) *Config {
	defaultConfig := Config{
		seedURLs:               seedUrls,
		allowedDomainPatterns:  validity.DefaultAllowedDomains,
		threadsCount:           10,
		politenessDelay:        time.Second,
		jitter:                 time.Millisecond * 500,
		randomSeed:             time.Now().UnixNano(),
		maxAttempt:             3,
		backoffInitialDuration: 500 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     30 * time.Second,
		timeout:                10 * time.Second,
		userAgent:              "politecrawl/1.0",
		saveFile:                "politecrawl.db",
		restart:                 true,
		outputDir:               "",
	}
	return &defaultConfig
}

func (c *Config) WithSeedUrls(urls []url.URL) *Config {
	c.seedURLs = urls
	return c
}

func (c *Config) WithAllowedDomainPatterns(patterns []string) *Config {
	c.allowedDomainPatterns = patterns
	return c
}

func (c *Config) WithThreadsCount(n int) *Config {
	c.threadsCount = n
	return c
}

func (c *Config) WithPolitenessDelay(d time.Duration) *Config {
	c.politenessDelay = d
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithCache(host string, port int) *Config {
	c.cacheHost = host
	c.cachePort = port
	return c
}

func (c *Config) WithSaveFile(path string) *Config {
	c.saveFile = path
	return c
}

func (c *Config) WithRestart(restart bool) *Config {
	c.restart = restart
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) Build() (Config, error) {
	if len(c.seedURLs) == 0 {
		return Config{}, fmt.Errorf("%w: seed_urls cannot be empty", ErrInvalidConfig)
	}
	if c.threadsCount < 1 {
		return Config{}, fmt.Errorf("%w: threads_count must be positive", ErrInvalidConfig)
	}
	if c.politenessDelay < 0 {
		return Config{}, fmt.Errorf("%w: politeness_delay cannot be negative", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.userAgent) == "" {
		return Config{}, fmt.Errorf("%w: user_agent cannot be empty", ErrInvalidConfig)
	}
	if len(c.allowedDomainPatterns) == 0 {
		c.allowedDomainPatterns = validity.DefaultAllowedDomains
	}
	return *c, nil
}

func (c Config) SeedURLs() []url.URL {
	urls := make([]url.URL, len(c.seedURLs))
	copy(urls, c.seedURLs)
	return urls
}

func (c Config) AllowedDomainPatterns() []string {
	patterns := make([]string, len(c.allowedDomainPatterns))
	copy(patterns, c.allowedDomainPatterns)
	return patterns
}

func (c Config) ThreadsCount() int {
	return c.threadsCount
}

func (c Config) PolitenessDelay() time.Duration {
	return c.politenessDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) CacheHost() string {
	return c.cacheHost
}

func (c Config) CachePort() int {
	return c.cachePort
}

func (c Config) SaveFile() string {
	return c.saveFile
}

func (c Config) Restart() bool {
	return c.restart
}

func (c Config) OutputDir() string {
	return c.outputDir
}

// iniSection is the spec's config.ini layout: a single unnamed
// (DEFAULT) section with seven keys, of which host and port are optional.
type iniSection struct {
	UserAgent       string `ini:"user_agent"`
	ThreadsCount    int    `ini:"threads_count"`
	SaveFile        string `ini:"save_file"`
	Host            string `ini:"host"`
	Port            int    `ini:"port"`
	SeedURLs        string `ini:"seed_urls"`
	PolitenessDelay float64 `ini:"politeness_delay"`
}

// WithConfigFile loads a config.ini file in the format spec'd by
// section 6 (a flat key=value file) and builds a Config from it.
// user_agent, threads_count, save_file, seed_urls and politeness_delay
// are required; host/port are optional (an empty host disables the
// shared fetch cache).
func WithConfigFile(path string) (Config, error) {
	iniFile, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}

	section := iniSection{}
	if err := iniFile.MapTo(&section); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	if section.UserAgent == "" {
		return Config{}, fmt.Errorf("%w: user_agent is required", ErrInvalidConfig)
	}
	if section.ThreadsCount < 1 {
		return Config{}, fmt.Errorf("%w: threads_count must be a positive int", ErrInvalidConfig)
	}
	if section.SaveFile == "" {
		return Config{}, fmt.Errorf("%w: save_file is required", ErrInvalidConfig)
	}
	if section.PolitenessDelay < 0 {
		return Config{}, fmt.Errorf("%w: politeness_delay cannot be negative", ErrInvalidConfig)
	}

	seedURLs, err := parseSeedURLs(section.SeedURLs)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg := WithDefault(seedURLs).
		WithUserAgent(section.UserAgent).
		WithThreadsCount(section.ThreadsCount).
		WithSaveFile(section.SaveFile).
		WithCache(section.Host, section.Port).
		WithPolitenessDelay(time.Duration(section.PolitenessDelay * float64(time.Second)))

	return cfg.Build()
}

func parseSeedURLs(raw string) ([]url.URL, error) {
	var urls []url.URL
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		u, err := url.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("invalid seed url %q: %w", part, err)
		}
		urls = append(urls, *u)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("seed_urls must name at least one URL")
	}
	return urls, nil
}
