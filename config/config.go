package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"bandfix/bands"
	"bandfix/version"
)

type Config struct {
	Roots             []string          `json:"roots"`
	TableVersion      string            `json:"table_version"`
	TableFile         string            `json:"table_file"`
	DryRun            bool              `json:"dry_run"`
	Survey            bool              `json:"survey"`
	Verify            bool              `json:"verify"`
	Extensions        []string          `json:"extensions"`
	ExcludeSuffixes   []string          `json:"exclude_suffixes"`
	ConcurrencyLevel  int               `json:"concurrency_level"`
	NiceLevel         string            `json:"nice_level"`
	MaxIOPerSecond    int               `json:"max_io_per_second"`
	SkipCount         bool              `json:"skip_count"`
	CollectSystemInfo bool              `json:"collect_system_info"`
	LogLevel          string            `json:"log_level"`
	OutputFileName    string            `json:"output_file_name"`
	ConfigFile        string            `json:"config_file"`
	OtelEndpoint      string            `json:"otel_endpoint"`
	OtelFromEnv       bool              `json:"otel_from_env"`
	OtelHeaders       map[string]string `json:"otel_headers"`
	OtelServiceName   string            `json:"otel_service_name"`
	OtelTimeout       time.Duration     `json:"otel_timeout"`
	ConcurrencySet    bool              `json:"-"`
}

func LoadConfig() (*Config, error) {
	now := time.Now().UTC()
	timestamp := now.Format("20060102-150405")
	cfg := &Config{
		Roots:             []string{},
		TableVersion:      bands.DefaultVersion,
		DryRun:            true,
		Extensions:        []string{".tif", ".tiff"},
		ExcludeSuffixes:   []string{"_cog.tif"},
		ConcurrencyLevel:  runtime.NumCPU(),
		NiceLevel:         "medium",
		MaxIOPerSecond:    0,
		SkipCount:         true,
		CollectSystemInfo: true,
		LogLevel:          "info",
		OutputFileName:    fmt.Sprintf("bandfix-%s.ndjson", timestamp),
		OtelHeaders:       map[string]string{},
		OtelServiceName:   "bandfix",
		OtelTimeout:       5 * time.Second,
	}

	roots := flag.String("path", "", "Comma-separated list of dataset root directories to process (required).")
	tableVersion := flag.String("table", cfg.TableVersion, fmt.Sprintf("Correction table version (default: %s).", cfg.TableVersion))
	tableFile := flag.String("table-file", "", "Path to a JSON correction table, overriding --table (default: none).")
	apply := flag.Bool("apply", false, "Actually rewrite metadata. Without this flag the run is a dry run.")
	dryRun := flag.Bool("dry-run", cfg.DryRun, fmt.Sprintf("Report what would change without touching any file (default: %t).", cfg.DryRun))
	survey := flag.Bool("survey", cfg.Survey, "Survey firmware versions across band files instead of correcting (default: false).")
	verify := flag.Bool("verify", cfg.Verify, "Digest each file before and after processing to confirm mutation behavior (default: false).")
	extensions := flag.String("extensions", strings.Join(cfg.Extensions, ","), fmt.Sprintf("Comma-separated image extensions to process (default: %s).", strings.Join(cfg.Extensions, ",")))
	excludeSuffixes := flag.String("exclude-suffixes", strings.Join(cfg.ExcludeSuffixes, ","), fmt.Sprintf("Comma-separated filename suffixes to skip (default: %s).", strings.Join(cfg.ExcludeSuffixes, ",")))
	concurrency := flag.Int("concurrency", cfg.ConcurrencyLevel, fmt.Sprintf("Concurrency level (default: %d).", cfg.ConcurrencyLevel))
	nice := flag.String("nice", cfg.NiceLevel, fmt.Sprintf("Nice level: high, medium, or low (default: %s).", cfg.NiceLevel))
	maxIO := flag.Int("max-io-per-second", cfg.MaxIOPerSecond, "Maximum files dispatched per second (default: 0 for unlimited).")
	skipCount := flag.Bool("skip-count", cfg.SkipCount, "Skip initial file counting to start processing immediately")
	collectSystemInfo := flag.Bool("collect-system-info", cfg.CollectSystemInfo, fmt.Sprintf("Record a host snapshot in the report header (default: %t).", cfg.CollectSystemInfo))
	logLevel := flag.String("log-level", cfg.LogLevel, fmt.Sprintf("Log level: debug, info, warn, error, fatal, or panic (default: %s).", cfg.LogLevel))
	output := flag.String("output", cfg.OutputFileName, "Report file name (default: bandfix-<timestamp>.ndjson).")
	configFile := flag.String("config", "", "Path to JSON configuration file (default: none).")
	otelEndpoint := flag.String("otel-endpoint", cfg.OtelEndpoint, "OTLP/HTTP logs endpoint for record export (default: none).")
	otelFromEnv := flag.Bool("otel-from-env", cfg.OtelFromEnv, "Allow OTEL endpoint fallback from OTEL environment variables (default: false).")
	otelHeaders := flag.String("otel-headers", "", "Comma-separated OTEL headers (key=value) for export (default: none).")
	otelServiceName := flag.String("otel-service-name", cfg.OtelServiceName, "OTEL service name for export (default: bandfix).")
	otelTimeout := flag.Duration("otel-timeout", cfg.OtelTimeout, "OTEL export timeout (default: 5s).")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = displayHelp
	flag.Parse()

	if *showVersion {
		fmt.Printf("bandfix version %s\n", version.Version)
		os.Exit(0)
	}

	if *configFile != "" {
		cfg.ConfigFile = *configFile
		if err := cfg.loadFromFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path":
			cfg.Roots = parseCommaSeparated(*roots)
		case "table":
			cfg.TableVersion = strings.TrimSpace(*tableVersion)
		case "table-file":
			cfg.TableFile = strings.TrimSpace(*tableFile)
		case "apply":
			if *apply {
				cfg.DryRun = false
			}
		case "dry-run":
			cfg.DryRun = *dryRun
		case "survey":
			cfg.Survey = *survey
		case "verify":
			cfg.Verify = *verify
		case "extensions":
			cfg.Extensions = parseCommaSeparated(*extensions)
		case "exclude-suffixes":
			cfg.ExcludeSuffixes = parseCommaSeparated(*excludeSuffixes)
		case "concurrency":
			cfg.ConcurrencyLevel = *concurrency
			cfg.ConcurrencySet = true
		case "nice":
			cfg.NiceLevel = *nice
		case "max-io-per-second":
			cfg.MaxIOPerSecond = *maxIO
		case "skip-count":
			cfg.SkipCount = *skipCount
		case "collect-system-info":
			cfg.CollectSystemInfo = *collectSystemInfo
		case "log-level":
			cfg.LogLevel = *logLevel
		case "output":
			cfg.OutputFileName = *output
		case "otel-endpoint":
			cfg.OtelEndpoint = strings.TrimSpace(*otelEndpoint)
		case "otel-from-env":
			cfg.OtelFromEnv = *otelFromEnv
		case "otel-headers":
			cfg.OtelHeaders = parseHeaders(*otelHeaders)
		case "otel-service-name":
			cfg.OtelServiceName = strings.TrimSpace(*otelServiceName)
		case "otel-timeout":
			cfg.OtelTimeout = *otelTimeout
		}
	})
	cfg.NiceLevel = strings.ToLower(strings.TrimSpace(cfg.NiceLevel))
	cfg.Extensions = normalizeExtensions(cfg.Extensions)
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".tif", ".tiff"}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func displayHelp() {
	fmt.Println("bandfix - Spectral Band Metadata Corrector")
	fmt.Println()
	fmt.Println("Rewrites mis-tagged band identity metadata in multispectral TIFF")
	fmt.Println("imagery according to a fixed per-firmware correction table.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bandfix [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  bandfix --path \"/data/plots\"                # dry run")
	fmt.Println("  bandfix --path \"/data/plots\" --apply        # rewrite tags")
	fmt.Println("  bandfix --path \"/data/a,/data/b\" --survey   # firmware survey")
}

func (cfg *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	if _, ok := raw["concurrency_level"]; ok {
		cfg.ConcurrencySet = true
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	return nil
}

func (cfg *Config) validate() error {
	if len(cfg.Roots) == 0 {
		return fmt.Errorf("at least one root directory must be specified with --path")
	}
	for _, root := range cfg.Roots {
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("root directory %s: %v", root, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("root path %s is not a directory", root)
		}
	}
	if cfg.TableFile == "" && cfg.TableVersion == "" {
		return fmt.Errorf("either --table or --table-file must be specified")
	}
	if cfg.ConcurrencyLevel <= 0 {
		return fmt.Errorf("concurrency level must be positive")
	}
	if cfg.NiceLevel != "high" && cfg.NiceLevel != "medium" && cfg.NiceLevel != "low" {
		return fmt.Errorf("invalid nice level: %s", cfg.NiceLevel)
	}
	if cfg.MaxIOPerSecond < 0 {
		return fmt.Errorf("max-io-per-second must be zero or positive")
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" &&
		cfg.LogLevel != "error" && cfg.LogLevel != "fatal" && cfg.LogLevel != "panic" {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if cfg.OutputFileName == "" {
		return fmt.Errorf("output report file name must not be empty")
	}
	if cfg.OtelTimeout < 0 {
		return fmt.Errorf("otel-timeout must be zero or positive")
	}
	if cfg.OtelEndpoint != "" {
		if !strings.HasPrefix(cfg.OtelEndpoint, "http://") && !strings.HasPrefix(cfg.OtelEndpoint, "https://") {
			return fmt.Errorf("otel-endpoint must include scheme (http or https)")
		}
	}
	return nil
}

func parseCommaSeparated(input string) []string {
	if input == "" {
		return []string{}
	}
	items := strings.Split(input, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func normalizeExtensions(items []string) []string {
	normalized := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		if !strings.HasPrefix(item, ".") {
			item = "." + item
		}
		normalized = append(normalized, item)
	}
	return normalized
}

func parseHeaders(input string) map[string]string {
	headers := make(map[string]string)
	if input == "" {
		return headers
	}
	for _, item := range strings.Split(input, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		headers[key] = value
	}
	return headers
}
