// Package tidy drives clang-tidy over discovered compilation databases in
// parallel and scrapes its output into structured diagnostics.
package tidy

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"tidings/config"
	"tidings/logger"
	"tidings/report"
	"tidings/utils"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// Run lints every compilation database reachable from the start paths. A
// failing clang-tidy invocation is logged and counted but does not abort the
// run; only setup failures and context cancellation do.
func Run(ctx context.Context, cfg *config.Config, w *report.Writer) error {
	startTime := time.Now()

	if _, err := os.Stat(cfg.TidyConfigFile); err != nil {
		return fmt.Errorf("could not find config file %q: %w", cfg.TidyConfigFile, err)
	}
	flatConfig, err := flattenConfig(cfg.TidyConfigFile)
	if err != nil {
		return fmt.Errorf("could not flatten config file %q: %w", cfg.TidyConfigFile, err)
	}

	dbs, err := findCompilationDBs(ctx, cfg)
	if err != nil {
		return err
	}
	if len(dbs) == 0 {
		return fmt.Errorf("no compilation database files found")
	}

	bin := findExecutable(cfg.TidyBinaryNames)
	if bin == "" {
		return fmt.Errorf("could not find any of %v on PATH", cfg.TidyBinaryNames)
	}
	logger.Debugf("Using %s for %d compilation databases", bin, len(dbs))

	dedupe := newDeduper()
	baseline, err := loadBaseline(cfg.BaselineFile)
	if err != nil {
		return err
	}

	jobs := tunedJobs(ctx, cfg)
	var spawnLimiter *rate.Limiter
	if cfg.MaxSpawnPerSecond > 0 {
		spawnLimiter = rate.NewLimiter(rate.Limit(cfg.MaxSpawnPerSecond), cfg.MaxSpawnPerSecond)
	}

	bar := progressbar.NewOptions(len(dbs),
		progressbar.OptionSetDescription("Linting packages"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetVisibility(progressVisible()),
		progressbar.OptionFullWidth(),
	)

	inv := &invoker{
		bin:        bin,
		flatConfig: flatConfig,
		cfg:        cfg,
		limiter:    spawnLimiter,
	}

	type result struct {
		diagnostics map[string][]diagnostic
	}

	tasks := make(chan string, jobs)
	results := make(chan result, jobs)
	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for db := range tasks {
				select {
				case <-ctx.Done():
					return
				default:
				}
				pkg := filepath.Base(filepath.Dir(db))
				logger.Infof("linting %s...", pkg)
				output, errCount := inv.run(ctx, db)
				if errCount > 0 {
					w.UpdateMetrics(func(m *report.Metrics) { m.InvocationErrors += errCount })
				}
				w.UpdateMetrics(func(m *report.Metrics) { m.TidyInvocations++ })
				results <- result{diagnostics: parseOutput(output, cfg.TidyExtensions)}
				_ = bar.Add(1)
			}
		}()
	}

	go func() {
		defer close(tasks)
		for _, db := range dbs {
			select {
			case <-ctx.Done():
				return
			case tasks <- db:
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	failuresByFile := make(map[string][]report.XunitFailure)
	for res := range results {
		for file, diags := range res.diagnostics {
			if _, ok := failuresByFile[file]; !ok {
				failuresByFile[file] = []report.XunitFailure{}
			}
			for _, d := range diags {
				if !dedupe.first(d) {
					w.UpdateMetrics(func(m *report.Metrics) { m.TidyDuplicates++ })
					continue
				}
				suppressed := baseline.contains(d)
				if suppressed {
					w.UpdateMetrics(func(m *report.Metrics) { m.TidySuppressed++ })
				} else {
					failuresByFile[file] = append(failuresByFile[file], report.XunitFailure{
						Location: fmt.Sprintf("%s:%d:%d", file, d.Line, d.Column),
						Message:  d.Message,
						Detail:   strings.TrimRight(d.Recommendation, "\n"),
					})
				}
				w.WriteTidyRecord(&report.TidyRecord{
					Package:        packageOf(file),
					File:           file,
					Line:           d.Line,
					Column:         d.Column,
					Message:        d.Message,
					Recommendation: d.Recommendation,
					Suppressed:     suppressed,
				})
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if cfg.XunitFile != "" {
		sortFailures(failuresByFile)
		if err := report.WriteXunit(cfg.XunitFile, failuresByFile, time.Since(startTime).Seconds()); err != nil {
			return fmt.Errorf("could not write xunit file: %w", err)
		}
	}
	return nil
}

// findCompilationDBs resolves the start paths: a directory is searched
// recursively for compile_commands.json files, a file is taken verbatim.
func findCompilationDBs(ctx context.Context, cfg *config.Config) ([]string, error) {
	var dbs []string
	for _, startPath := range cfg.StartPaths {
		info, err := os.Stat(startPath)
		if err != nil {
			logger.Warnf("Failed to access %s: %v", startPath, err)
			continue
		}
		if !info.IsDir() {
			dbs = append(dbs, filepath.Clean(startPath))
			continue
		}
		err = utils.WalkPruned(ctx, startPath, cfg.IgnoreMarker, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warnf("Failed to access %s: %v", path, err)
				return nil
			}
			if d == nil || d.IsDir() {
				return nil
			}
			if filepath.Base(path) == "compile_commands.json" {
				dbs = append(dbs, filepath.Clean(path))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(dbs)
	return dbs, nil
}

func packageOf(file string) string {
	// Diagnostics carry absolute paths; the best package guess is the
	// directory above a src/ or include/ segment, falling back to the
	// parent directory name.
	dir := filepath.Dir(file)
	for cur := dir; ; {
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		base := filepath.Base(cur)
		if base == "src" || base == "include" || base == "test" {
			return filepath.Base(parent)
		}
		cur = parent
	}
	return filepath.Base(dir)
}

func sortFailures(failuresByFile map[string][]report.XunitFailure) {
	for _, failures := range failuresByFile {
		sort.Slice(failures, func(i, j int) bool {
			if failures[i].Location != failures[j].Location {
				return failures[i].Location < failures[j].Location
			}
			return failures[i].Message < failures[j].Message
		})
	}
}
