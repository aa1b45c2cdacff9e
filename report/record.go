package report

// SchemaVersion identifies the report record layout.
const SchemaVersion = "1.0"

// Outcome classifies what happened to one file.
type Outcome string

const (
	OutcomeUpdated               Outcome = "updated"
	OutcomeSkippedNoMapping      Outcome = "skipped-no-mapping"
	OutcomeSkippedAlreadyCorrect Outcome = "skipped-already-correct"
	OutcomeDryRunWouldUpdate     Outcome = "dry-run-would-update"
	OutcomeFailed                Outcome = "failed"
)

// FileRecord captures the handling of a single file. Records are
// consumed into the run report as they are produced and not retained,
// except for failures, which are kept in full for the retry manifest.
type FileRecord struct {
	Path         string            `json:"path"`
	Band         int               `json:"band,omitempty"`
	Outcome      Outcome           `json:"outcome"`
	Expected     map[string]string `json:"expected,omitempty"`
	Actual       map[string]string `json:"actual,omitempty"`
	ErrorDetail  string            `json:"error_detail,omitempty"`
	ModTime      string            `json:"mod_time,omitempty"`
	ChangeTime   string            `json:"change_time,omitempty"`
	DigestBefore string            `json:"digest_before,omitempty"`
	DigestAfter  string            `json:"digest_after,omitempty"`
}

// Metrics aggregates outcome counts for one batch run.
type Metrics struct {
	StartTime             string `json:"start_time"`
	EndTime               string `json:"end_time"`
	TotalFiles            int    `json:"total_files"`
	FilesProcessed        int    `json:"files_processed"`
	Updated               int    `json:"updated"`
	SkippedNoMapping      int    `json:"skipped_no_mapping"`
	SkippedAlreadyCorrect int    `json:"skipped_already_correct"`
	DryRunWouldUpdate     int    `json:"dry_run_would_update"`
	Failed                int    `json:"failed"`
}
