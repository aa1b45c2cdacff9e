package corrector

import (
	"context"
	"io/fs"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"bandfix/bands"
	"bandfix/config"
	"bandfix/exiftool"
	"bandfix/logger"
	"bandfix/report"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// ToolFactory opens one metadata tool process. Each worker gets its
// own, since a stay-open exiftool serves one command at a time.
type ToolFactory func() (exiftool.Tool, error)

// Run executes the batch correction: enumerate band image files under
// the configured roots and fold each file's outcome into the report.
// Per-file failures never abort the batch.
func Run(ctx context.Context, cfg *config.Config, table *bands.Table, newTool ToolFactory, w *report.Writer) error {
	adjustConcurrency(cfg)

	var bar *progressbar.ProgressBar
	if cfg.SkipCount {
		logger.Info("Skipping total file count")
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Correcting band metadata"),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetVisibility(progressVisible()),
			progressbar.OptionFullWidth(),
		)
	} else {
		logger.Info("Counting candidate files...")
		totalFiles := 0
		for _, root := range cfg.Roots {
			count, err := countCandidates(ctx, root, cfg)
			if err != nil {
				logger.Warnf("Failed to count files in %s: %v", root, err)
				continue
			}
			totalFiles += count
		}
		logger.Infof("Total candidate files: %d", totalFiles)
		w.SetTotalFiles(totalFiles)
		bar = progressbar.NewOptions(totalFiles,
			progressbar.OptionSetDescription("Correcting band metadata"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetVisibility(progressVisible()),
			progressbar.OptionFullWidth(),
		)
	}

	progressCh := make(chan int, maxInt(cfg.ConcurrencyLevel*4, 64))
	var progressWG sync.WaitGroup
	progressWG.Add(1)
	go func() {
		defer progressWG.Done()
		for delta := range progressCh {
			_ = bar.Add(delta)
		}
	}()

	var ioLimiter *rate.Limiter
	if cfg.MaxIOPerSecond > 0 {
		ioLimiter = rate.NewLimiter(rate.Limit(cfg.MaxIOPerSecond), cfg.MaxIOPerSecond)
	}

	filesChan := make(chan string, cfg.ConcurrencyLevel)
	var processedCounter atomic.Int64

	go func() {
		defer close(filesChan)
		for _, root := range cfg.Roots {
			err := walk(ctx, root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					logger.Warnf("Failed to access %s: %v", path, err)
					return nil
				}
				if d == nil || d.IsDir() {
					return nil
				}
				if !isCandidate(path, cfg) {
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case filesChan <- path:
					if ioLimiter != nil {
						if err := ioLimiter.Wait(ctx); err != nil {
							return err
						}
					}
				}
				return nil
			})
			if err != nil && err != context.Canceled {
				logger.Warnf("Error walking root %s: %v", root, err)
			}
		}
	}()

	var wg sync.WaitGroup
	for range cfg.ConcurrencyLevel {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tool, err := newTool()
			if err != nil {
				logger.Errorf("Failed to start metadata tool: %v", err)
				return
			}
			defer func() {
				if err := tool.Close(); err != nil {
					logger.Warnf("Metadata tool shutdown: %v", err)
				}
			}()
			for path := range filesChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				processFile(ctx, path, cfg, table, tool, w)
				processedCounter.Add(1)
				progressCh <- 1
			}
		}()
	}

	wg.Wait()
	close(progressCh)
	progressWG.Wait()
	return nil
}

// countCandidates pre-counts files so the progress bar can predict
// completion time.
func countCandidates(ctx context.Context, root string, cfg *config.Config) (int, error) {
	var total int
	err := walk(ctx, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warnf("Failed to access %s: %v", path, err)
			return nil
		}
		if d != nil && !d.IsDir() && isCandidate(path, cfg) {
			total++
		}
		return nil
	})
	return total, err
}

// isCandidate applies the extension and suffix filters.
func isCandidate(path string, cfg *config.Config) bool {
	lower := strings.ToLower(path)
	matched := false
	for _, ext := range cfg.Extensions {
		if strings.HasSuffix(lower, ext) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, suffix := range cfg.ExcludeSuffixes {
		if strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return false
		}
	}
	return true
}

func adjustConcurrency(cfg *config.Config) {
	if cfg.ConcurrencySet {
		return
	}
	numCPU := runtime.NumCPU()
	switch cfg.NiceLevel {
	case "high":
		cfg.ConcurrencyLevel = numCPU
	case "medium":
		cfg.ConcurrencyLevel = numCPU / 2
		if cfg.ConcurrencyLevel < 1 {
			cfg.ConcurrencyLevel = 1
		}
	case "low":
		cfg.ConcurrencyLevel = 1
	}
}

func progressVisible() bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv("BANDFIX_DISABLE_PROGRESS")))
	return value != "1" && value != "true" && value != "yes" && value != "on"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
