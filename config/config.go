package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"tidings/version"
)

type Config struct {
	StartPaths         []string          `json:"start_paths"`
	CheckHeaders       bool              `json:"check_headers"`
	RunTidy            bool              `json:"run_tidy"`
	RegistryFile       string            `json:"registry_file"`
	OutputFormat       string            `json:"output_format"`
	OutputFileName     string            `json:"output_file_name"`
	MaxOutputFileSize  int64             `json:"max_output_file_size"`
	Jobs               int               `json:"jobs"`
	NiceLevel          string            `json:"nice_level"`
	LogLevel           string            `json:"log_level"`
	IncludePatterns    []string          `json:"include_patterns"`
	ExcludePatterns    []string          `json:"exclude_patterns"`
	MaxFileSize        int64             `json:"max_file_size"`
	MaxIOPerSecond     int               `json:"max_io_per_second"`
	IgnoreMarker       string            `json:"ignore_marker"`
	SkipCount          bool              `json:"skip_count"`
	HeaderExtensions   []string          `json:"header_extensions"`
	TidyConfigFile     string            `json:"tidy_config_file"`
	TidyBinaryNames    []string          `json:"tidy_binary_names"`
	TidyExtensions     []string          `json:"tidy_extensions"`
	XunitFile          string            `json:"xunit_file"`
	ExplainConfig      bool              `json:"explain_config"`
	ExportFixes        string            `json:"export_fixes"`
	Quiet              bool              `json:"quiet"`
	SystemHeaders      bool              `json:"system_headers"`
	BaselineFile       string            `json:"baseline_file"`
	MaxSpawnPerSecond  int               `json:"max_spawn_per_second"`
	AutoTune           bool              `json:"auto_tune"`
	AutoTuneInterval   time.Duration     `json:"auto_tune_interval"`
	AutoTuneTargetCPU  float64           `json:"auto_tune_target_cpu"`
	CollectHostInfo    bool              `json:"collect_host_info"`
	DiagStallThreshold time.Duration     `json:"diag_stall_threshold"`
	DiagDir            string            `json:"diag_dir"`
	DiagGoroutineLeak  bool              `json:"diag_goroutine_leak"`
	OtelEndpoint       string            `json:"otel_endpoint"`
	OtelFromEnv        bool              `json:"otel_from_env"`
	OtelHeaders        map[string]string `json:"otel_headers"`
	OtelServiceName    string            `json:"otel_service_name"`
	OtelTimeout        time.Duration     `json:"otel_timeout"`
	OtelExportPaths    bool              `json:"otel_export_paths"`
	ConfigFile         string            `json:"config_file"`
	JobsSet            bool              `json:"-"`
	MaxIOSet           bool              `json:"-"`
}

func LoadConfig() (*Config, error) {
	now := time.Now().UTC()
	timestamp := now.Format("20060102-150405")
	cfg := &Config{
		StartPaths:         []string{"."},
		CheckHeaders:       true,
		RunTidy:            false,
		OutputFormat:       "ndjson",
		OutputFileName:     fmt.Sprintf("tidings-%s.ndjson", timestamp),
		MaxOutputFileSize:  104857600,
		Jobs:               runtime.NumCPU(),
		NiceLevel:          "medium",
		LogLevel:           "info",
		MaxFileSize:        10485760,
		MaxIOPerSecond:     0,
		IgnoreMarker:       "LINT_IGNORE",
		SkipCount:          true,
		HeaderExtensions:   []string{"c", "cc", "cpp", "cxx", "h", "hh", "hpp", "hxx", "py"},
		TidyConfigFile:     ".clang-tidy",
		TidyBinaryNames:    []string{"clang-tidy", "clang-tidy-18", "clang-tidy-14"},
		TidyExtensions:     []string{"c", "cc", "cpp", "cxx", "h", "hh", "hpp", "hxx"},
		MaxSpawnPerSecond:  0,
		AutoTune:           true,
		AutoTuneInterval:   5 * time.Second,
		AutoTuneTargetCPU:  60,
		CollectHostInfo:    true,
		DiagStallThreshold: 0,
		DiagDir:            ".",
		OtelHeaders:        map[string]string{},
		OtelServiceName:    "tidings",
		OtelTimeout:        5 * time.Second,
	}

	paths := flag.String("path", strings.Join(cfg.StartPaths, ","), fmt.Sprintf("Comma-separated list of paths to check (default: %s).", strings.Join(cfg.StartPaths, ",")))
	checkHeaders := flag.Bool("check-headers", cfg.CheckHeaders, fmt.Sprintf("Classify copyright/license headers (default: %t).", cfg.CheckHeaders))
	runTidy := flag.Bool("run-tidy", cfg.RunTidy, fmt.Sprintf("Run the clang-tidy driver over compilation databases (default: %t).", cfg.RunTidy))
	registryFile := flag.String("registry", "", "YAML file with additional copyright holders and license templates (default: none).")
	format := flag.String("format", cfg.OutputFormat, fmt.Sprintf("Report format: json or ndjson (default: %s).", cfg.OutputFormat))
	output := flag.String("output", cfg.OutputFileName, "Report file name (default: tidings-<timestamp>.ndjson).")
	maxOutputFileSize := flag.Int64("max-output-file-size", cfg.MaxOutputFileSize, fmt.Sprintf("Maximum report file size before rotation in bytes (default: %d).", cfg.MaxOutputFileSize))
	jobs := flag.Int("jobs", cfg.Jobs, fmt.Sprintf("Number of parallel workers (default: %d).", cfg.Jobs))
	nice := flag.String("nice", cfg.NiceLevel, fmt.Sprintf("Nice level: high, medium, or low (default: %s).", cfg.NiceLevel))
	logLevel := flag.String("log-level", cfg.LogLevel, fmt.Sprintf("Log level: debug, info, warn, error, fatal, or panic (default: %s).", cfg.LogLevel))
	includes := flag.String("include", "", "Comma-separated list of include patterns (default: none).")
	excludes := flag.String("exclude", "", "Comma-separated list of exclude patterns (default: none).")
	maxFileSize := flag.Int64("max-file-size", cfg.MaxFileSize, fmt.Sprintf("Maximum file size to classify in bytes (default: %d).", cfg.MaxFileSize))
	maxIO := flag.Int("max-io-per-second", cfg.MaxIOPerSecond, "Maximum file reads per second while checking headers (default: 0/unlimited).")
	ignoreMarker := flag.String("ignore-marker", cfg.IgnoreMarker, fmt.Sprintf("Marker file name that excludes a directory subtree (default: %s).", cfg.IgnoreMarker))
	skipCount := flag.Bool("skip-count", cfg.SkipCount, "Skip initial file counting to start checking immediately.")
	headerExtensions := flag.String("header-extensions", strings.Join(cfg.HeaderExtensions, ","), "Comma-separated source extensions to header-check (default: C/C++/Python).")
	tidyConfig := flag.String("tidy-config", cfg.TidyConfigFile, fmt.Sprintf("The clang-tidy config file (default: %s).", cfg.TidyConfigFile))
	tidyBinaries := flag.String("tidy-binaries", strings.Join(cfg.TidyBinaryNames, ","), "Comma-separated clang-tidy binary names to look up on PATH.")
	tidyExtensions := flag.String("tidy-extensions", strings.Join(cfg.TidyExtensions, ","), "Comma-separated extensions recognized in diagnostics output.")
	xunitFile := flag.String("xunit-file", cfg.XunitFile, "Generate a xunit compliant XML file (default: none).")
	explainConfig := flag.Bool("explain-config", cfg.ExplainConfig, "Explain the enabled clang-tidy checks.")
	exportFixes := flag.String("export-fixes", cfg.ExportFixes, "Generate a file of recorded fixes (default: none).")
	quiet := flag.Bool("quiet", cfg.Quiet, "Suppress clang-tidy statistics about ignored warnings.")
	systemHeaders := flag.Bool("system-headers", cfg.SystemHeaders, "Display errors from all system headers.")
	baselineFile := flag.String("baseline", cfg.BaselineFile, "Baseline file of known diagnostics to suppress (default: none).")
	maxSpawn := flag.Int("max-spawn-per-second", cfg.MaxSpawnPerSecond, "Maximum clang-tidy invocations per second (default: 0/unlimited).")
	autoTune := flag.Bool("auto-tune", cfg.AutoTune, fmt.Sprintf("Adjust worker count and spawn rate from CPU load (default: %t).", cfg.AutoTune))
	autoTuneInterval := flag.Duration("auto-tune-interval", cfg.AutoTuneInterval, "Auto-tune sampling interval (default: 5s).")
	autoTuneTargetCPU := flag.Float64("auto-tune-target-cpu", cfg.AutoTuneTargetCPU, "Auto-tune target CPU percent (default: 60).")
	collectHostInfo := flag.Bool("collect-host-info", cfg.CollectHostInfo, fmt.Sprintf("Record host information in the report (default: %t).", cfg.CollectHostInfo))
	diagStallThreshold := flag.Duration("diag-stall-threshold", cfg.DiagStallThreshold, "If positive, dump diagnostics when progress stalls for this duration (default: 0/off).")
	diagDir := flag.String("diag-dir", cfg.DiagDir, "Diagnostics output directory (default: current directory).")
	diagGoroutineLeak := flag.Bool("diag-goroutine-leak", cfg.DiagGoroutineLeak, "Write goroutine leak profile on shutdown (default: false).")
	otelEndpoint := flag.String("otel-endpoint", cfg.OtelEndpoint, "OTLP/HTTP logs endpoint (default: none).")
	otelFromEnv := flag.Bool("otel-from-env", cfg.OtelFromEnv, "Allow OTEL endpoint fallback from OTEL environment variables (default: false).")
	otelHeaders := flag.String("otel-headers", "", "Comma-separated OTEL headers (key=value) for export (default: none).")
	otelServiceName := flag.String("otel-service-name", cfg.OtelServiceName, fmt.Sprintf("OTEL service name for export (default: %s).", cfg.OtelServiceName))
	otelTimeout := flag.Duration("otel-timeout", cfg.OtelTimeout, "OTEL export timeout (default: 5s).")
	otelExportPaths := flag.Bool("otel-export-paths", cfg.OtelExportPaths, "Include raw file paths in OTEL payloads (default: false).")
	configFile := flag.String("config", "", "Path to JSON configuration file (default: none).")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = displayHelp
	flag.Parse()

	if *showVersion {
		fmt.Printf("tidings version %s\n", version.Version)
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
			cfg.StartPaths = parseCommaSeparated(*paths)
		case "check-headers":
			cfg.CheckHeaders = *checkHeaders
		case "run-tidy":
			cfg.RunTidy = *runTidy
		case "registry":
			cfg.RegistryFile = *registryFile
		case "format":
			cfg.OutputFormat = strings.ToLower(*format)
		case "output":
			cfg.OutputFileName = *output
		case "max-output-file-size":
			cfg.MaxOutputFileSize = *maxOutputFileSize
		case "jobs":
			cfg.Jobs = *jobs
			cfg.JobsSet = true
		case "nice":
			cfg.NiceLevel = *nice
		case "log-level":
			cfg.LogLevel = *logLevel
		case "include":
			cfg.IncludePatterns = parseCommaSeparated(*includes)
		case "exclude":
			cfg.ExcludePatterns = parseCommaSeparated(*excludes)
		case "max-file-size":
			cfg.MaxFileSize = *maxFileSize
		case "max-io-per-second":
			cfg.MaxIOPerSecond = *maxIO
			cfg.MaxIOSet = true
		case "ignore-marker":
			cfg.IgnoreMarker = *ignoreMarker
		case "skip-count":
			cfg.SkipCount = *skipCount
		case "header-extensions":
			cfg.HeaderExtensions = parseCommaSeparated(*headerExtensions)
		case "tidy-config":
			cfg.TidyConfigFile = *tidyConfig
		case "tidy-binaries":
			cfg.TidyBinaryNames = parseCommaSeparated(*tidyBinaries)
		case "tidy-extensions":
			cfg.TidyExtensions = parseCommaSeparated(*tidyExtensions)
		case "xunit-file":
			cfg.XunitFile = *xunitFile
		case "explain-config":
			cfg.ExplainConfig = *explainConfig
		case "export-fixes":
			cfg.ExportFixes = *exportFixes
		case "quiet":
			cfg.Quiet = *quiet
		case "system-headers":
			cfg.SystemHeaders = *systemHeaders
		case "baseline":
			cfg.BaselineFile = *baselineFile
		case "max-spawn-per-second":
			cfg.MaxSpawnPerSecond = *maxSpawn
		case "auto-tune":
			cfg.AutoTune = *autoTune
		case "auto-tune-interval":
			cfg.AutoTuneInterval = *autoTuneInterval
		case "auto-tune-target-cpu":
			cfg.AutoTuneTargetCPU = *autoTuneTargetCPU
		case "collect-host-info":
			cfg.CollectHostInfo = *collectHostInfo
		case "diag-stall-threshold":
			cfg.DiagStallThreshold = *diagStallThreshold
		case "diag-dir":
			cfg.DiagDir = strings.TrimSpace(*diagDir)
		case "diag-goroutine-leak":
			cfg.DiagGoroutineLeak = *diagGoroutineLeak
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
		case "otel-export-paths":
			cfg.OtelExportPaths = *otelExportPaths
		}
	})

	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	cfg.NiceLevel = strings.ToLower(strings.TrimSpace(cfg.NiceLevel))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.HeaderExtensions = normalizeExtensions(cfg.HeaderExtensions)
	cfg.TidyExtensions = normalizeExtensions(cfg.TidyExtensions)
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "ndjson"
	}
	if cfg.DiagDir == "" {
		cfg.DiagDir = "."
	}
	if len(cfg.StartPaths) == 0 {
		cfg.StartPaths = []string{"."}
	}
	if len(cfg.TidyBinaryNames) == 0 {
		cfg.TidyBinaryNames = []string{"clang-tidy"}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func displayHelp() {
	fmt.Println("Tidings - Lint Pipeline Toolkit")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  tidings [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  tidings --path \"src\"")
	fmt.Println("  tidings --path \"src,include\" --registry registry.yaml")
	fmt.Println("  tidings --check-headers=false --run-tidy --xunit-file report.xunit.xml")
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
	if _, ok := raw["jobs"]; ok {
		cfg.JobsSet = true
	}
	if _, ok := raw["max_io_per_second"]; ok {
		cfg.MaxIOSet = true
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	return nil
}

func (cfg *Config) validate() error {
	if !cfg.CheckHeaders && !cfg.RunTidy {
		return fmt.Errorf("at least one of --check-headers or --run-tidy must be enabled")
	}
	if len(cfg.StartPaths) == 0 {
		return fmt.Errorf("at least one start path must be specified")
	}
	if cfg.OutputFormat != "json" && cfg.OutputFormat != "ndjson" {
		return fmt.Errorf("invalid output format: %s (json and ndjson are supported)", cfg.OutputFormat)
	}
	if cfg.Jobs <= 0 {
		return fmt.Errorf("jobs must be positive")
	}
	if cfg.NiceLevel != "high" && cfg.NiceLevel != "medium" && cfg.NiceLevel != "low" {
		return fmt.Errorf("invalid nice level: %s", cfg.NiceLevel)
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" &&
		cfg.LogLevel != "error" && cfg.LogLevel != "fatal" && cfg.LogLevel != "panic" {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if cfg.MaxFileSize < 0 {
		return fmt.Errorf("max-file-size must be zero or positive")
	}
	if cfg.MaxOutputFileSize < 0 {
		return fmt.Errorf("max-output-file-size must be zero or positive")
	}
	if cfg.MaxIOPerSecond < 0 {
		return fmt.Errorf("max-io-per-second must be zero or positive")
	}
	if cfg.MaxSpawnPerSecond < 0 {
		return fmt.Errorf("max-spawn-per-second must be zero or positive")
	}
	if cfg.RunTidy && len(cfg.TidyExtensions) == 0 {
		return fmt.Errorf("tidy-extensions must not be empty when --run-tidy is enabled")
	}
	if cfg.AutoTune {
		if cfg.AutoTuneInterval <= 0 {
			return fmt.Errorf("auto-tune-interval must be positive")
		}
		if cfg.AutoTuneTargetCPU <= 0 || cfg.AutoTuneTargetCPU > 100 {
			return fmt.Errorf("auto-tune-target-cpu must be between 1 and 100")
		}
	}
	if cfg.DiagStallThreshold < 0 {
		return fmt.Errorf("diag-stall-threshold must be zero or positive")
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
	for i, item := range items {
		items[i] = strings.TrimSpace(item)
	}
	return items
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
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(parts[1])
	}
	return headers
}

func normalizeExtensions(items []string) []string {
	normalized := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(item, ".")))
		if item == "" {
			continue
		}
		normalized = append(normalized, item)
	}
	return normalized
}
