package cli

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"webarchive/pkg/domain/entity"
	"webarchive/pkg/infrastructure/storage"

	"github.com/jessevdk/go-flags"
)

// Config holds all application configuration.
type Config struct {
	// Output
	OutputDir string   `short:"o" long:"output-dir" description:"Directory for result files" default:"."`
	Formats   []string `short:"f" long:"format" description:"Output format, repeatable" choice:"txt" choice:"json" choice:"csv"`

	// Filtering
	NoScope      bool   `long:"no-scope" description:"Keep hostnames outside the target's registrable domain"`
	FilterRegex  string `long:"filter" description:"Keep only subdomains matching this regular expression"`
	ExcludeWords string `long:"exclude-words" description:"Comma-separated words; subdomains containing any are dropped"`
	MinLength    int    `long:"min-length" description:"Minimum subdomain length"`
	MaxLength    int    `long:"max-length" description:"Maximum subdomain length"`

	// Archive API
	APIURL     string `long:"api-url" description:"CDX API endpoint" default:"https://web.archive.org/cdx/search/cdx"`
	UserAgent  string `long:"user-agent" description:"HTTP User-Agent header" default:"WebArchive-Subdomain-Extractor/1.0"`
	MaxResults int    `long:"max-results" description:"Maximum archive records to request" default:"10000"`
	Timeout    int    `long:"timeout" description:"HTTP request timeout in seconds" default:"30"`

	// Retry
	MaxRetries   int     `long:"max-retries" description:"Fetch attempts before giving up" default:"3"`
	RetryDelay   int     `long:"retry-delay" description:"Delay before the first retry in seconds" default:"1"`
	RetryBackoff float64 `long:"retry-backoff" description:"Multiplier applied to the delay after each retry" default:"2.0"`

	// DNS
	NumWorkers int      `long:"workers" description:"Concurrent DNS resolution workers" default:"16"`
	DNSTimeout int      `long:"dns-timeout" description:"DNS query timeout in seconds" default:"5"`
	DNSServers []string `long:"dns-server" description:"DNS server address, repeatable"`
	DNSQPS     float64  `long:"dns-qps" description:"Cap on DNS queries per second, 0 for unlimited"`

	// Dedup accounting
	BloomFilterFP float64 `long:"bloom-fp" description:"False positive rate of the duplicate-record counter" default:"0.01"`

	// UI
	Verbose       bool   `short:"v" long:"verbose" description:"Print extraction statistics"`
	ShowDashboard bool   `long:"dashboard" description:"Show interactive TUI dashboard"`
	NoProgress    bool   `long:"no-progress" description:"Disable progress bars"`
	MetricsAddr   string `long:"metrics-addr" description:"Expose Prometheus metrics on this address"`

	// Logging
	LogLevel string `long:"log-level" description:"Log level" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	LogFile  string `long:"log-file" description:"Also write JSON logs to this file"`

	ConfigFile string `short:"c" long:"config" description:"INI configuration file; command line flags take precedence"`
	Version    bool   `long:"version" description:"Print version and exit"`

	Args struct {
		Domain string `positional-arg-name:"domain" description:"Target domain, e.g. example.com"`
	} `positional-args:"yes"`

	// Derived values, not parsed from flags directly
	TimeoutDuration    time.Duration
	DNSTimeoutDuration time.Duration
	RetryDelayDuration time.Duration
}

// ParseFlags parses the command line, loading an INI configuration file
// first when one is given so that explicit flags win.
func ParseFlags(args []string) (*Config, error) {
	cfg := &Config{}

	parser := flags.NewParser(cfg, flags.Default)
	parser.Usage = "[OPTIONS] domain"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		return nil, err
	}

	if cfg.ConfigFile != "" {
		ini := flags.NewIniParser(parser)
		if err := ini.ParseFile(cfg.ConfigFile); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		// Re-apply the command line on top of the file values.
		if rest, err = parser.ParseArgs(args); err != nil {
			return nil, err
		}
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}

	if len(cfg.Formats) == 0 {
		cfg.Formats = []string{storage.FormatTxt}
	}

	cfg.TimeoutDuration = time.Duration(cfg.Timeout) * time.Second
	cfg.DNSTimeoutDuration = time.Duration(cfg.DNSTimeout) * time.Second
	cfg.RetryDelayDuration = time.Duration(cfg.RetryDelay) * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Version && c.Args.Domain == "" {
		return fmt.Errorf("a target domain is required")
	}

	if c.NumWorkers <= 0 {
		return fmt.Errorf("number of workers must be > 0, got %d", c.NumWorkers)
	}

	if c.MaxResults <= 0 {
		return fmt.Errorf("max results must be > 0, got %d", c.MaxResults)
	}

	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be > 0, got %d", c.MaxRetries)
	}

	if c.RetryBackoff < 1 {
		return fmt.Errorf("retry backoff must be >= 1, got %f", c.RetryBackoff)
	}

	if c.TimeoutDuration <= 0 {
		return fmt.Errorf("HTTP timeout must be > 0, got %s", c.TimeoutDuration)
	}

	if c.DNSTimeoutDuration <= 0 {
		return fmt.Errorf("DNS timeout must be > 0, got %s", c.DNSTimeoutDuration)
	}

	if c.DNSQPS < 0 {
		return fmt.Errorf("DNS QPS must be >= 0, got %f", c.DNSQPS)
	}

	if c.BloomFilterFP <= 0 || c.BloomFilterFP >= 1 {
		return fmt.Errorf("bloom filter false positive rate must be between 0 and 1, got %f", c.BloomFilterFP)
	}

	if c.MinLength < 0 || c.MaxLength < 0 {
		return fmt.Errorf("length bounds must be >= 0")
	}

	if c.MinLength > 0 && c.MaxLength > 0 && c.MinLength > c.MaxLength {
		return fmt.Errorf("min length %d exceeds max length %d", c.MinLength, c.MaxLength)
	}

	if c.FilterRegex != "" {
		if _, err := regexp.Compile(c.FilterRegex); err != nil {
			return fmt.Errorf("filter regex: %w", err)
		}
	}

	return nil
}

// FilterSpec builds the filter criteria from the flags. Returns nil when
// no filter flag is set.
func (c *Config) FilterSpec() (*entity.FilterSpec, error) {
	if c.FilterRegex == "" && c.ExcludeWords == "" && c.MinLength == 0 && c.MaxLength == 0 {
		return nil, nil
	}

	spec := &entity.FilterSpec{
		MinLength: c.MinLength,
		MaxLength: c.MaxLength,
	}

	if c.FilterRegex != "" {
		re, err := regexp.Compile(c.FilterRegex)
		if err != nil {
			return nil, fmt.Errorf("filter regex: %w", err)
		}
		spec.Regex = re
	}

	for _, word := range strings.Split(c.ExcludeWords, ",") {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			spec.ExcludeWords = append(spec.ExcludeWords, word)
		}
	}

	return spec, nil
}
