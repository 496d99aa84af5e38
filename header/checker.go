package header

import (
	"bytes"
	"context"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"tidings/config"
	"tidings/logger"
	"tidings/registry"
	"tidings/report"
	"tidings/tracing"
	"tidings/utils"

	"github.com/h2non/filetype"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
	"lukechampine.com/blake3"

	djtimes "github.com/djherbis/times"
)

type checkTask struct {
	path string
	info os.FileInfo
}

// CheckFiles walks the start paths and classifies every eligible file,
// writing one header record per file. Classification failures are outcomes,
// not errors; only a broken walk or a cancelled context aborts the run.
func CheckFiles(ctx context.Context, cfg *config.Config, reg *registry.Registry, w *report.Writer) error {
	matcher := utils.NewPatternMatcher(cfg.IncludePatterns, cfg.ExcludePatterns)
	eligible := newEligibility(cfg, reg)

	totalFiles := 0
	var bar *progressbar.ProgressBar
	if cfg.SkipCount {
		logger.Info("Skipping total file count")
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Checking headers"),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetVisibility(progressVisible()),
			progressbar.OptionFullWidth(),
		)
	} else {
		logger.Info("Counting total number of files...")
		for _, startPath := range cfg.StartPaths {
			count, err := countFiles(ctx, startPath, cfg, matcher, eligible)
			if err != nil {
				logger.Warnf("Failed to count files in %s: %v", startPath, err)
				continue
			}
			totalFiles += count
		}
		logger.Infof("Total files to check: %d", totalFiles)
		w.UpdateMetrics(func(m *report.Metrics) { m.TotalFiles = totalFiles })

		bar = progressbar.NewOptions(totalFiles,
			progressbar.OptionSetDescription("Checking headers"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetVisibility(progressVisible()),
			progressbar.OptionFullWidth(),
		)
	}

	jobs := adjustJobs(cfg)

	var ioLimiter *rate.Limiter
	if cfg.MaxIOPerSecond > 0 {
		ioLimiter = rate.NewLimiter(rate.Limit(cfg.MaxIOPerSecond), cfg.MaxIOPerSecond)
	}

	progressCh := make(chan int, maxInt(jobs*4, 64))
	var progressWG sync.WaitGroup
	progressWG.Add(1)
	go func() {
		defer progressWG.Done()
		for delta := range progressCh {
			_ = bar.Add(delta)
		}
	}()

	tasks := make(chan checkTask, jobs)
	go func() {
		defer close(tasks)
		for _, startPath := range cfg.StartPaths {
			err := utils.WalkPruned(ctx, startPath, cfg.IgnoreMarker, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					logger.Warnf("Failed to access %s: %v", path, err)
					return nil
				}
				if d == nil || d.IsDir() {
					return nil
				}
				if !matcher.ShouldInclude(path) || !eligible.matches(path) {
					return nil
				}
				// Symlinks may point outside the checked tree.
				if d.Type()&fs.ModeSymlink != 0 && !utils.IsPathWithin(path, cfg.StartPaths) {
					logger.Debugf("Skipping symlink escaping start paths: %s", path)
					return nil
				}
				info, err := d.Info()
				if err == nil && cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
					w.UpdateMetrics(func(m *report.Metrics) { m.FilesSkipped++ })
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case tasks <- checkTask{path: path, info: info}:
					if ioLimiter != nil {
						if err := ioLimiter.Wait(ctx); err != nil {
							return err
						}
					}
				}
				return nil
			})
			if err != nil {
				logger.Warnf("Error walking path %s: %v", startPath, err)
			}
		}
	}()

	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				select {
				case <-ctx.Done():
					return
				default:
				}
				checkFile(ctx, task.path, task.info, cfg, reg, w)
				progressCh <- 1
			}
		}()
	}

	wg.Wait()
	close(progressCh)
	progressWG.Wait()
	if cfg.SkipCount {
		w.UpdateMetrics(func(m *report.Metrics) { m.TotalFiles = m.FilesChecked + m.FilesSkipped })
	}
	return ctx.Err()
}

func checkFile(ctx context.Context, path string, info os.FileInfo, cfg *config.Config, reg *registry.Registry, w *report.Writer) {
	ctx, endTask := tracing.StartTask(ctx, "check_file")
	tracing.Log(ctx, "file", path)
	defer endTask()

	if binary, err := isBinaryFile(path); err != nil {
		logger.Warnf("Failed to probe %s: %v", path, err)
		w.UpdateMetrics(func(m *report.Metrics) { m.FilesSkipped++ })
		return
	} else if binary {
		logger.Debugf("Skipping binary file %s", path)
		w.UpdateMetrics(func(m *report.Metrics) { m.FilesSkipped++ })
		return
	}

	endRegion := tracing.StartRegion(ctx, "parse_header")
	d, err := ParseFile(reg, path)
	endRegion()
	if err != nil {
		logger.Warnf("Failed to read %s: %v", path, err)
		w.UpdateMetrics(func(m *report.Metrics) { m.FilesSkipped++ })
		return
	}

	rec := &report.HeaderRecord{
		Path:                path,
		Category:            d.Category.String(),
		Status:              d.Status.String(),
		CopyrightYears:      d.CopyrightYears,
		CopyrightName:       d.CopyrightName,
		CopyrightIdentifier: d.CopyrightIdentifier,
		LicenseIdentifier:   d.LicenseIdentifier,
	}
	if info != nil {
		rec.Size = info.Size()
	}
	if content := d.Content(); content != "" {
		digest := blake3.Sum256([]byte(content))
		rec.ContentDigest = hex.EncodeToString(digest[:])
	}
	fillTimes(rec, path)
	fillNearest(rec, d, reg)

	w.WriteHeaderRecord(rec)
}

// fillNearest attaches a fuzzy nearest-template hint when the exact
// comparison came back unknown. The hint never changes an identifier.
func fillNearest(rec *report.HeaderRecord, d *Descriptor, reg *registry.Registry) {
	if d.LicenseIdentifier != registry.UnknownIdentifier {
		return
	}
	var part registry.Part
	switch d.Category {
	case License:
		part = registry.PartLicenseFile
	case Contributing:
		part = registry.PartContributingFile
	default:
		part = registry.PartFileHeader
	}
	if id, distance, ok := reg.NearestLicense(d.Content(), part); ok {
		rec.NearestLicense = id
		rec.NearestDistance = distance
	}
}

func fillTimes(rec *report.HeaderRecord, path string) {
	spec, err := djtimes.Stat(path)
	if err != nil {
		return
	}
	rec.ModTime = spec.ModTime().UTC().Format(time.RFC3339)
	if spec.HasChangeTime() {
		rec.ChangeTime = spec.ChangeTime().UTC().Format(time.RFC3339)
	}
	if spec.HasBirthTime() {
		rec.BirthTime = spec.BirthTime().UTC().Format(time.RFC3339)
	}
}

// isBinaryFile sniffs the first 261 bytes. A recognized binary signature or
// an embedded NUL disqualifies the file from header parsing.
func isBinaryFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 261)
	n, err := f.Read(buf)
	if n == 0 {
		return false, nil
	}
	buf = buf[:n]

	if kind, _ := filetype.Match(buf); kind != filetype.Unknown {
		return true, nil
	}
	return bytes.IndexByte(buf, 0) != -1, nil
}

// eligibility selects files worth classifying: configured source extensions
// plus the registry's canonical license and contributing basenames.
type eligibility struct {
	extensions map[string]struct{}
	basenames  map[string]struct{}
}

func newEligibility(cfg *config.Config, reg *registry.Registry) *eligibility {
	e := &eligibility{
		extensions: make(map[string]struct{}, len(cfg.HeaderExtensions)),
		basenames: map[string]struct{}{
			reg.LicenseFilename():      {},
			reg.ContributingFilename(): {},
		},
	}
	for _, ext := range cfg.HeaderExtensions {
		e.extensions[strings.ToLower(ext)] = struct{}{}
	}
	return e
}

func (e *eligibility) matches(path string) bool {
	if _, ok := e.basenames[filepath.Base(path)]; ok {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	_, ok := e.extensions[ext]
	return ok
}

func countFiles(ctx context.Context, startPath string, cfg *config.Config, matcher *utils.PatternMatcher, eligible *eligibility) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var total int
	err := utils.WalkPruned(ctx, startPath, cfg.IgnoreMarker, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warnf("Failed to access %s: %v", path, err)
			return nil
		}
		if d == nil || d.IsDir() {
			return nil
		}
		if !matcher.ShouldInclude(path) || !eligible.matches(path) {
			return nil
		}
		if info, err := d.Info(); err == nil && cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
			return nil
		}
		total++
		return nil
	})
	return total, err
}

func adjustJobs(cfg *config.Config) int {
	if cfg.JobsSet {
		return cfg.Jobs
	}
	numCPU := runtime.NumCPU()
	switch cfg.NiceLevel {
	case "high":
		return numCPU
	case "low":
		return 1
	default:
		if numCPU/2 < 1 {
			return 1
		}
		return numCPU / 2
	}
}

func progressVisible() bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv("TIDINGS_DISABLE_PROGRESS")))
	return value != "1" && value != "true" && value != "yes" && value != "on"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
