package domain

import (
	"testing"
)

func TestNotebookRef_Ref(t *testing.T) {
	ref := NotebookRef{Owner: "alice", Slug: "titanic-eda", Title: "Titanic EDA"}
	if got := ref.Ref(); got != "alice/titanic-eda" {
		t.Errorf("Ref() = %q, want %q", got, "alice/titanic-eda")
	}
}

func TestNotebookRef_URL(t *testing.T) {
	ref := NotebookRef{Owner: "alice", Slug: "titanic-eda"}
	want := "https://www.kaggle.com/code/alice/titanic-eda"
	if got := ref.URL(); got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestSyncReport_Counts(t *testing.T) {
	report := SyncReport{
		Total:     4,
		Succeeded: 2,
		Results: []SyncResult{
			{Status: StatusSuccess},
			{Status: StatusFailed},
			{Status: StatusSuccess},
		},
	}

	if got := report.Failed(); got != 1 {
		t.Errorf("Failed() = %d, want 1", got)
	}
	if got := report.Skipped(); got != 1 {
		t.Errorf("Skipped() = %d, want 1", got)
	}
	if report.AllSucceeded() {
		t.Error("AllSucceeded() = true for a report with failures")
	}
}

func TestSyncReport_AllSucceeded(t *testing.T) {
	report := SyncReport{
		Total:     2,
		Succeeded: 2,
		Results:   []SyncResult{{Status: StatusSuccess}, {Status: StatusSuccess}},
	}
	if !report.AllSucceeded() {
		t.Error("AllSucceeded() = false for a fully successful run")
	}

	// Empty listing is a vacuous success.
	empty := SyncReport{}
	if !empty.AllSucceeded() {
		t.Error("AllSucceeded() = false for an empty run")
	}
}
