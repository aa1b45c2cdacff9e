package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"bandfix/config"
	"bandfix/logger"
	"bandfix/sysinfo"
)

// Writer collects per-file records into an NDJSON report stream and the
// aggregate metrics. It is the only shared mutable state between
// workers; all mutation happens under the mutex.
type Writer struct {
	file     *os.File
	buf      *bufio.Writer
	mu       sync.Mutex
	metrics  Metrics
	failures []FileRecord
	otel     *otelLogger
	path     string
}

type runHeader struct {
	RecordType    string `json:"record_type"`
	SchemaVersion string `json:"schema_version"`
	TableVersion  string `json:"table_version"`
	DryRun        bool   `json:"dry_run"`
	Roots         string `json:"roots"`
}

// New opens the report file and writes the run and host header records.
func New(cfg *config.Config, sysInfo *sysinfo.SystemInfo, startTime string) (*Writer, error) {
	f, err := os.OpenFile(cfg.OutputFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}
	w := &Writer{
		file: f,
		buf:  bufio.NewWriterSize(f, 1024*1024),
		path: cfg.OutputFileName,
	}
	w.metrics.StartTime = startTime

	if cfg != nil {
		otel, err := newOtelLogger(cfg)
		if err != nil {
			logger.Warnf("OTEL export disabled: %v", err)
		} else {
			w.otel = otel
		}
	}

	tableVersion := cfg.TableVersion
	if cfg.TableFile != "" {
		tableVersion = cfg.TableFile
	}
	header := runHeader{
		RecordType:    "run",
		SchemaVersion: SchemaVersion,
		TableVersion:  tableVersion,
		DryRun:        cfg.DryRun,
		Roots:         strings.Join(cfg.Roots, ","),
	}
	if err := w.writeLine(header); err != nil {
		f.Close()
		return nil, err
	}
	w.emit("run", header)

	if sysInfo != nil {
		if err := w.writeLine(struct {
			RecordType string `json:"record_type"`
			*sysinfo.SystemInfo
		}{"system_info", sysInfo}); err != nil {
			f.Close()
			return nil, err
		}
		w.emit("system_info", sysInfo)
	}
	return w, nil
}

// Record folds one file outcome into the report.
func (w *Writer) Record(rec FileRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.metrics.FilesProcessed++
	switch rec.Outcome {
	case OutcomeUpdated:
		w.metrics.Updated++
	case OutcomeSkippedNoMapping:
		w.metrics.SkippedNoMapping++
	case OutcomeSkippedAlreadyCorrect:
		w.metrics.SkippedAlreadyCorrect++
	case OutcomeDryRunWouldUpdate:
		w.metrics.DryRunWouldUpdate++
	case OutcomeFailed:
		w.metrics.Failed++
		w.failures = append(w.failures, rec)
	}

	if err := w.writeLine(struct {
		RecordType string `json:"record_type"`
		FileRecord
	}{"file", rec}); err != nil {
		logger.Warnf("Failed to write report record for %s: %v", rec.Path, err)
	}
	w.emit("file", rec)
}

// SetTotalFiles stores the pre-counted file total, when counting was not
// skipped.
func (w *Writer) SetTotalFiles(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.metrics.TotalFiles = n
}

// Metrics returns a snapshot of the aggregate counters.
func (w *Writer) Metrics() Metrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := w.metrics
	if m.TotalFiles == 0 {
		m.TotalFiles = m.FilesProcessed
	}
	return m
}

// Failures returns the collected failed records.
func (w *Writer) Failures() []FileRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]FileRecord, len(w.failures))
	copy(out, w.failures)
	return out
}

// Close finalizes the metrics record, writes the failure manifest, and
// closes the report file.
func (w *Writer) Close(endTime string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.metrics.EndTime = endTime
	if w.metrics.TotalFiles == 0 {
		w.metrics.TotalFiles = w.metrics.FilesProcessed
	}
	if err := w.writeLine(struct {
		RecordType string `json:"record_type"`
		Metrics
	}{"metrics", w.metrics}); err != nil {
		logger.Warnf("Failed to write metrics record: %v", err)
	}
	w.emit("metrics", w.metrics)

	_ = w.buf.Flush()
	_ = w.file.Sync()
	_ = w.file.Close()

	if len(w.failures) > 0 {
		if err := w.writeFailedManifest(); err != nil {
			logger.Warnf("Failed to write retry manifest: %v", err)
		}
	}
	if w.otel != nil {
		w.otel.Shutdown()
	}
}

// writeFailedManifest writes one failed path per line next to the
// report, so a retry pass can be driven without parsing the NDJSON.
func (w *Writer) writeFailedManifest() error {
	f, err := os.OpenFile(w.path+".failed", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, rec := range w.failures {
		if _, err := fmt.Fprintln(f, rec.Path); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeLine(record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if _, err := w.buf.Write(data); err != nil {
		return err
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return err
	}
	return w.buf.Flush()
}

func (w *Writer) emit(recordType string, payload interface{}) {
	if w.otel == nil {
		return
	}
	w.otel.Emit(recordType, payload)
}

// WriteSummary prints the human-readable run summary.
func WriteSummary(out io.Writer, m Metrics, failures []FileRecord, dryRun bool) {
	fmt.Fprintln(out, "=== Band Correction Summary ===")
	if dryRun {
		fmt.Fprintln(out, "Mode: DRY RUN (no files were modified)")
	}
	fmt.Fprintf(out, "Files processed:         %d\n", m.FilesProcessed)
	fmt.Fprintf(out, "Updated:                 %d\n", m.Updated)
	fmt.Fprintf(out, "Would update (dry run):  %d\n", m.DryRunWouldUpdate)
	fmt.Fprintf(out, "Already correct:         %d\n", m.SkippedAlreadyCorrect)
	fmt.Fprintf(out, "No mapping:              %d\n", m.SkippedNoMapping)
	fmt.Fprintf(out, "Failed:                  %d\n", m.Failed)
	if len(failures) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Failures:")
		for _, rec := range failures {
			fmt.Fprintf(out, "  %s: %s\n", rec.Path, rec.ErrorDetail)
		}
	}
}
