//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pintyy/kaggle-sync/internal/domain"
	"github.com/pintyy/kaggle-sync/internal/ghrepo"
	"github.com/pintyy/kaggle-sync/internal/kaggle"
	"github.com/pintyy/kaggle-sync/internal/syncer"
)

func newSyncer(t *testing.T, kaggleURL, githubURL string, opts syncer.Options) *syncer.Syncer {
	t.Helper()
	source := kaggle.New("ayse", "key", kaggle.Options{BaseURL: kaggleURL})
	target := ghrepo.New("ghp_test", ghrepo.Options{BaseURL: githubURL})
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialBackoff == 0 {
		opts.InitialBackoff = time.Millisecond
	}
	return syncer.New(source, target, nil, opts)
}

// TestSyncFlow_EndToEnd drives the full pipeline through real HTTP clients:
// listing, slugging, probing, creating, fetching and pushing both notebooks,
// then a second run over the now-existing repositories.
func TestSyncFlow_EndToEnd(t *testing.T) {
	notebooks := []notebookFixture{
		{
			Ref:      "ayse/titanic-eda",
			Title:    "Titanic EDA",
			Source:   `{"cells":[{"cell_type":"code","source":["print(1)"]}]}`,
			Metadata: `{"id":"ayse/titanic-eda","language":"python"}`,
		},
		{
			Ref:    "ayse/veri-analizi",
			Title:  "Veri Analizi Çalışması",
			Source: `{"cells":[]}`,
		},
	}
	kag := fakeKaggle(t, notebooks)
	gh := newFakeGitHub(t, "ayse")

	s := newSyncer(t, kag.URL, gh.Server.URL, syncer.Options{User: "ayse", Owner: "ayse"})

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.AllSucceeded() {
		t.Fatalf("report = %d/%d succeeded, results: %+v", report.Succeeded, report.Total, report.Results)
	}
	if report.Total != 2 {
		t.Errorf("Total = %d, want 2", report.Total)
	}

	for _, name := range []string{"titanic-eda", "veri-analizi-calismasi"} {
		if !gh.repoExists(name) {
			t.Errorf("repository %s was not created", name)
		}
	}

	if got := gh.fileContent("titanic-eda", "titanic-eda.ipynb"); string(got) != notebooks[0].Source {
		t.Errorf("pushed notebook = %q, want the pulled source", got)
	}
	if got := gh.fileContent("titanic-eda", "kernel-metadata.json"); string(got) != notebooks[0].Metadata {
		t.Errorf("pushed metadata = %q, want the pulled metadata", got)
	}
	readme := string(gh.fileContent("titanic-eda", "README.md"))
	if !strings.Contains(readme, "https://www.kaggle.com/code/ayse/titanic-eda") {
		t.Errorf("README lacks the notebook URL:\n%s", readme)
	}

	// No metadata fixture, so only the notebook and the README land.
	if gh.fileContent("veri-analizi-calismasi", "kernel-metadata.json") != nil {
		t.Error("metadata pushed for a notebook that has none")
	}
	if gh.fileContent("veri-analizi-calismasi", "veri-analizi.ipynb") == nil {
		t.Error("notebook file missing from veri-analizi-calismasi")
	}

	// A second run must reuse both repositories and overwrite in place.
	report, err = s.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if !report.AllSucceeded() {
		t.Fatalf("second run: %d/%d succeeded, results: %+v", report.Succeeded, report.Total, report.Results)
	}
	if gh.createCount() != 2 {
		t.Errorf("creates after second run = %d, want 2", gh.createCount())
	}
}

// TestSyncFlow_DeletedNotebookFailsAlone covers a notebook that vanishes
// between listing and fetch: that notebook fails permanently, the rest of
// the run is untouched, and the repository created for it stays behind.
func TestSyncFlow_DeletedNotebookFailsAlone(t *testing.T) {
	notebooks := []notebookFixture{
		{Ref: "ayse/ghost-analysis", Title: "Ghost Analysis", ListOnly: true},
		{Ref: "ayse/titanic-eda", Title: "Titanic EDA", Source: `{"cells":[]}`},
	}
	kag := fakeKaggle(t, notebooks)
	gh := newFakeGitHub(t, "ayse")

	s := newSyncer(t, kag.URL, gh.Server.URL, syncer.Options{User: "ayse", Owner: "ayse"})

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Succeeded != 1 || report.Total != 2 {
		t.Fatalf("report = %d/%d, want 1/2", report.Succeeded, report.Total)
	}
	if report.Failed() != 1 {
		t.Fatalf("Failed() = %d, want 1", report.Failed())
	}

	var failed []domain.SyncResult
	for _, res := range report.Results {
		if res.Status == domain.StatusFailed {
			failed = append(failed, res)
		}
	}
	if len(failed) != 1 {
		t.Fatalf("failed results = %d, want 1", len(failed))
	}
	if failed[0].Ref.Slug != "ghost-analysis" {
		t.Errorf("failed ref = %s, want ghost-analysis", failed[0].Ref.Ref())
	}
	if !strings.Contains(failed[0].Error, "no longer exists") {
		t.Errorf("failure error = %q, want the deleted-notebook message", failed[0].Error)
	}

	// The repository was created before the fetch failed and is kept.
	if !gh.repoExists("ghost-analysis") {
		t.Error("repository created before the failure should remain")
	}
	if gh.fileContent("ghost-analysis", "README.md") != nil {
		t.Error("no files should land in the failed notebook's repository")
	}
}

// TestSyncFlow_TransientCreateRetries exercises retry classification through
// the real GitHub client: a 502 on repository creation is retried and the
// run still succeeds.
func TestSyncFlow_TransientCreateRetries(t *testing.T) {
	notebooks := []notebookFixture{
		{Ref: "ayse/titanic-eda", Title: "Titanic EDA", Source: `{"cells":[]}`},
	}
	kag := fakeKaggle(t, notebooks)
	gh := newFakeGitHub(t, "ayse")
	gh.failCreates = 1

	s := newSyncer(t, kag.URL, gh.Server.URL, syncer.Options{User: "ayse", Owner: "ayse"})

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.AllSucceeded() {
		t.Fatalf("run did not recover from the transient create failure: %+v", report.Results)
	}
	if got := report.Results[0].Attempts; got != 2 {
		t.Errorf("Attempts = %d, want 2", got)
	}
	if !gh.repoExists("titanic-eda") {
		t.Error("repository missing after retried create")
	}
}

// TestSyncFlow_DryRun probes everything and changes nothing.
func TestSyncFlow_DryRun(t *testing.T) {
	notebooks := []notebookFixture{
		{Ref: "ayse/titanic-eda", Title: "Titanic EDA", Source: `{"cells":[]}`},
		{Ref: "ayse/veri-analizi", Title: "Veri Analizi", Source: `{"cells":[]}`},
	}
	kag := fakeKaggle(t, notebooks)
	gh := newFakeGitHub(t, "ayse")
	gh.seedRepo("titanic-eda", false)

	s := newSyncer(t, kag.URL, gh.Server.URL, syncer.Options{
		User: "ayse", Owner: "ayse", DryRun: true,
	})

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.AllSucceeded() {
		t.Fatalf("dry run failed: %+v", report.Results)
	}
	if gh.createCount() != 0 {
		t.Errorf("dry run created %d repositories", gh.createCount())
	}
	if gh.pushCount() != 0 {
		t.Errorf("dry run pushed %d files", gh.pushCount())
	}
}

// TestSyncFlow_RejectedKaggleKey aborts before anything reaches GitHub.
func TestSyncFlow_RejectedKaggleKey(t *testing.T) {
	badKaggle := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Unauthorized"}`)
	}))
	t.Cleanup(badKaggle.Close)
	gh := newFakeGitHub(t, "ayse")

	s := newSyncer(t, badKaggle.URL, gh.Server.URL, syncer.Options{User: "ayse", Owner: "ayse"})

	report, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("Run() succeeded with rejected credentials")
	}
	if !domain.IsAuth(err) {
		t.Errorf("error = %v, want auth classification", err)
	}
	if report != nil {
		t.Errorf("report = %+v, want nil when listing never succeeds", report)
	}
	if gh.createCount() != 0 {
		t.Error("repositories were created despite the aborted run")
	}
}
