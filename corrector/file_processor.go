package corrector

import (
	"context"
	"os"
	"time"

	"bandfix/bands"
	"bandfix/config"
	"bandfix/digest"
	"bandfix/exiftool"
	"bandfix/logger"
	"bandfix/report"
	"bandfix/tracing"

	"github.com/djherbis/times"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

// processFile classifies one file and, outside dry run, rewrites its
// band tags. A failure here is fatal only to this file.
func processFile(ctx context.Context, path string, cfg *config.Config, table *bands.Table, tool exiftool.Tool, w *report.Writer) {
	ctx, endTask := tracing.StartTask(ctx, "process_file")
	tracing.Log(ctx, "file", path)
	defer endTask()

	rec := report.FileRecord{Path: path}
	fillFileTimes(&rec)

	band, ok := bands.ParseBandIndex(path)
	if !ok {
		rec.Outcome = report.OutcomeSkippedNoMapping
		w.Record(rec)
		return
	}
	rec.Band = band

	entry, ok := table.Lookup(band)
	if !ok {
		rec.Outcome = report.OutcomeSkippedNoMapping
		w.Record(rec)
		return
	}

	// A .tif extension on a non-TIFF payload would just make the tool
	// error out; route it as unmapped instead of burning a failure.
	if !isTIFF(path) {
		logger.Debugf("Not a TIFF despite extension, skipping: %s", path)
		rec.Outcome = report.OutcomeSkippedNoMapping
		w.Record(rec)
		return
	}

	want := targetValues(entry)
	rec.Expected = want

	current, err := tool.ReadTags(path, targetTags...)
	if err != nil {
		rec.Outcome = report.OutcomeFailed
		rec.ErrorDetail = err.Error()
		w.Record(rec)
		return
	}
	rec.Actual = current

	if alreadyCorrect(current, want) {
		rec.Outcome = report.OutcomeSkippedAlreadyCorrect
		w.Record(rec)
		return
	}

	if cfg.Verify {
		if d, err := digest.File(path); err == nil {
			rec.DigestBefore = d
		} else {
			logger.Warnf("Digest failed for %s: %v", path, err)
		}
	}

	if cfg.DryRun {
		rec.Outcome = report.OutcomeDryRunWouldUpdate
		if cfg.Verify {
			rec.DigestAfter = rec.DigestBefore
		}
		w.Record(rec)
		return
	}

	endRegion := tracing.StartRegion(ctx, "write_tags")
	err = tool.WriteTags(path, want)
	endRegion()
	if err != nil {
		rec.Outcome = report.OutcomeFailed
		rec.ErrorDetail = err.Error()
		w.Record(rec)
		return
	}

	if cfg.Verify {
		if d, err := digest.File(path); err == nil {
			rec.DigestAfter = d
			if rec.DigestBefore != "" && rec.DigestAfter == rec.DigestBefore {
				logger.Warnf("Content digest unchanged after update: %s", path)
			}
		} else {
			logger.Warnf("Digest failed for %s: %v", path, err)
		}
	}

	rec.Outcome = report.OutcomeUpdated
	w.Record(rec)
}

func fillFileTimes(rec *report.FileRecord) {
	ts, err := times.Stat(rec.Path)
	if err != nil {
		return
	}
	rec.ModTime = ts.ModTime().Format(time.RFC3339)
	if ts.HasChangeTime() {
		rec.ChangeTime = ts.ChangeTime().Format(time.RFC3339)
	}
}

// isTIFF sniffs the file signature. Only the header is read.
func isTIFF(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		// Let the tool report the real error downstream.
		return true
	}
	defer f.Close()

	buf := make([]byte, 261)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return false
	}
	return filetype.IsType(buf[:n], matchers.TypeTiff)
}
