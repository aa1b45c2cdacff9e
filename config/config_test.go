package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseCommaSeparated(t *testing.T) {
	res := parseCommaSeparated("a,b , c")
	if len(res) != 3 || res[1] != "b" {
		t.Fatalf("unexpected result: %v", res)
	}
	if res := parseCommaSeparated(""); len(res) != 0 {
		t.Fatalf("expected empty slice")
	}
}

func TestNormalizeExtensions(t *testing.T) {
	res := normalizeExtensions([]string{"TIF", ".tiff", " ", "jpg"})
	if len(res) != 3 || res[0] != ".tif" || res[1] != ".tiff" || res[2] != ".jpg" {
		t.Fatalf("unexpected result: %v", res)
	}
}

func TestParseHeaders(t *testing.T) {
	res := parseHeaders("Authorization=Bearer test, Env=prod,bad")
	if res["Authorization"] != "Bearer test" || res["Env"] != "prod" {
		t.Fatalf("unexpected result: %v", res)
	}
	if len(res) != 2 {
		t.Fatalf("expected malformed entry dropped: %v", res)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmp, err := os.CreateTemp("", "cfg*.json")
	if err != nil {
		t.Fatalf("temp: %v", err)
	}
	tmp.WriteString(`{"roots":["/tmp"],"dry_run":false,"concurrency_level":2}`)
	tmp.Close()
	defer os.Remove(tmp.Name())

	cfg := &Config{}
	if err := cfg.loadFromFile(tmp.Name()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Roots[0] != "/tmp" || cfg.DryRun {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !cfg.ConcurrencySet || cfg.ConcurrencyLevel != 2 {
		t.Fatalf("expected concurrency from file: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for missing roots")
	}
	cfg = &Config{Roots: []string{filepath.Join(dir, "missing")}}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for nonexistent root")
	}
	cfg = &Config{Roots: []string{dir}}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for missing table")
	}
	cfg = &Config{Roots: []string{dir}, TableVersion: "v7-band-swap", ConcurrencyLevel: 0}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected invalid concurrency")
	}
	cfg = &Config{Roots: []string{dir}, TableVersion: "v7-band-swap", ConcurrencyLevel: 1, NiceLevel: "bad"}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected invalid nice level")
	}
	cfg = &Config{Roots: []string{dir}, TableVersion: "v7-band-swap", ConcurrencyLevel: 1, NiceLevel: "high", LogLevel: "bad"}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected invalid log level")
	}
	cfg = &Config{Roots: []string{dir}, TableVersion: "v7-band-swap", ConcurrencyLevel: 1, NiceLevel: "high", LogLevel: "info", OutputFileName: "out.ndjson", OtelEndpoint: "otel.example.com"}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for otel endpoint without scheme")
	}
	cfg = &Config{Roots: []string{dir}, TableVersion: "v7-band-swap", ConcurrencyLevel: 1, NiceLevel: "high", LogLevel: "info", OutputFileName: "out.ndjson"}
	if err := cfg.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDryRunDefault(t *testing.T) {
	dir := t.TempDir()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	oldFlag := flag.CommandLine
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	defer func() { flag.CommandLine = oldFlag }()

	os.Args = []string{"cmd", "--path", dir}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.DryRun {
		t.Fatal("expected dry run by default")
	}
	if !cfg.SkipCount {
		t.Fatal("expected skip-count default to be enabled")
	}
	if len(cfg.ExcludeSuffixes) != 1 || cfg.ExcludeSuffixes[0] != "_cog.tif" {
		t.Fatalf("unexpected exclude suffixes: %v", cfg.ExcludeSuffixes)
	}
}

func TestApplyFlagDisablesDryRun(t *testing.T) {
	dir := t.TempDir()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	oldFlag := flag.CommandLine
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	defer func() { flag.CommandLine = oldFlag }()

	os.Args = []string{"cmd", "--path", dir, "--apply"}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DryRun {
		t.Fatal("expected dry run disabled by --apply")
	}
}

func TestExtensionsFlagNormalized(t *testing.T) {
	dir := t.TempDir()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	oldFlag := flag.CommandLine
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	defer func() { flag.CommandLine = oldFlag }()

	os.Args = []string{"cmd", "--path", dir, "--extensions", "TIF,tiff"}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Extensions) != 2 || cfg.Extensions[0] != ".tif" || cfg.Extensions[1] != ".tiff" {
		t.Fatalf("unexpected extensions: %v", cfg.Extensions)
	}
}

func TestOtelFlags(t *testing.T) {
	dir := t.TempDir()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	oldFlag := flag.CommandLine
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	defer func() { flag.CommandLine = oldFlag }()

	os.Args = []string{
		"cmd",
		"--path", dir,
		"--otel-endpoint", "https://otel.example.com/v1/logs",
		"--otel-headers", "Authorization=Bearer test,Env=prod",
		"--otel-service-name", "bandfix-agent",
		"--otel-timeout", "10s",
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OtelEndpoint != "https://otel.example.com/v1/logs" {
		t.Fatalf("unexpected otel endpoint: %s", cfg.OtelEndpoint)
	}
	if cfg.OtelServiceName != "bandfix-agent" {
		t.Fatalf("unexpected otel service name: %s", cfg.OtelServiceName)
	}
	if cfg.OtelTimeout != 10*time.Second {
		t.Fatalf("unexpected otel timeout: %v", cfg.OtelTimeout)
	}
	if cfg.OtelHeaders["Authorization"] != "Bearer test" || cfg.OtelHeaders["Env"] != "prod" {
		t.Fatalf("unexpected otel headers: %v", cfg.OtelHeaders)
	}
}
