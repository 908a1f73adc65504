package domain

import "time"

// NotebookRef identifies one remote notebook as listed by the source platform
type NotebookRef struct {
	Owner string `json:"owner"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Ref returns the canonical owner/slug identifier used by the source API
func (r NotebookRef) Ref() string {
	return r.Owner + "/" + r.Slug
}

// URL returns the public location of the notebook
func (r NotebookRef) URL() string {
	return "https://www.kaggle.com/code/" + r.Ref()
}

// SyncTarget is the repository a notebook maps to, derived per run
type SyncTarget struct {
	RepoName string
	Exists   bool
}

// NotebookBundle is a fetched notebook staged in a scratch directory.
// It lives only for the duration of one notebook's processing.
type NotebookBundle struct {
	NotebookPath string // the .ipynb with saved outputs
	MetadataPath string // sidecar kernel metadata, empty if none was delivered
	Bytes        int64
}

// Repo is a handle to a target repository
type Repo struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// CreateOptions control repository creation
type CreateOptions struct {
	Private     bool
	Description string
}

// FileAction reports what a file push did
type FileAction string

const (
	FileCreated FileAction = "created"
	FileUpdated FileAction = "updated"
)

// Stage represents a notebook's position in the sync state machine
type Stage string

const (
	StagePending  Stage = "pending"
	StageSlugged  Stage = "slugged"
	StageProbed   Stage = "probed"
	StageCreated  Stage = "created"
	StageFetched  Stage = "fetched"
	StagePushed   Stage = "pushed"
	StageRecorded Stage = "recorded"
)

// SyncStatus represents the terminal outcome for one notebook
type SyncStatus string

const (
	StatusSuccess SyncStatus = "success"
	StatusFailed  SyncStatus = "failed"
)

// SyncResult is the recorded outcome for one notebook
type SyncResult struct {
	Ref      NotebookRef   `json:"ref"`
	RepoName string        `json:"repo_name"`
	RepoURL  string        `json:"repo_url,omitempty"` // empty when the repository was never reached
	Status   SyncStatus    `json:"status"`
	Error    string        `json:"error,omitempty"` // human-readable cause, empty on success
	Attempts int           `json:"attempts"`        // most attempts any single operation needed
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration"`
}

// SyncReport aggregates one run's results in listing order. It is the only
// state that survives to the end of a run and is not persisted across runs.
type SyncReport struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Total      int          `json:"total"` // notebooks listed
	Succeeded  int          `json:"succeeded"`
	Results    []SyncResult `json:"results"`
}

// Failed returns the number of notebooks that did not sync
func (r *SyncReport) Failed() int {
	return len(r.Results) - r.Succeeded
}

// Skipped returns the number of listed notebooks never attempted,
// nonzero only when the run was interrupted
func (r *SyncReport) Skipped() int {
	return r.Total - len(r.Results)
}

// AllSucceeded reports whether every listed notebook synced
func (r *SyncReport) AllSucceeded() bool {
	return len(r.Results) == r.Total && r.Succeeded == r.Total
}
