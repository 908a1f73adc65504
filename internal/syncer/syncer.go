// Package syncer drives the per-notebook sync state machine over a full listing.
package syncer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"pkt.systems/pslog"

	"github.com/pintyy/kaggle-sync/internal/domain"
	"github.com/pintyy/kaggle-sync/internal/progress"
	"github.com/pintyy/kaggle-sync/internal/readme"
	"github.com/pintyy/kaggle-sync/internal/slug"
)

// Source lists a user's notebooks and fetches their content.
type Source interface {
	ListNotebooks(ctx context.Context, user string) ([]domain.NotebookRef, error)
	FetchBundle(ctx context.Context, ref domain.NotebookRef, dir string) (domain.NotebookBundle, error)
}

// Target manages repositories on the destination host.
type Target interface {
	RepositoryExists(ctx context.Context, owner, name string) (bool, error)
	CreateRepository(ctx context.Context, name string, opts domain.CreateOptions) (domain.Repo, error)
	PutFile(ctx context.Context, repo domain.Repo, path string, content []byte, message string) (domain.FileAction, error)
}

// Options configure a single run.
type Options struct {
	User        string   // source account whose notebooks are mirrored
	Owner       string   // destination account owning the repositories
	Private     bool     // create missing repositories as private
	MaxAttempts int      // tries per remote operation, first try included
	Parallel    int      // notebooks in flight; <=1 runs sequentially
	DryRun      bool     // probe only, change nothing
	Only        []string // source slugs to include; empty means everything

	// InitialBackoff is the delay before the first retry. Zero means one second.
	InitialBackoff time.Duration
}

// Syncer mirrors notebooks from a Source into repositories on a Target.
type Syncer struct {
	source Source
	target Target
	sink   progress.Sink
	opts   Options
}

// New builds a Syncer. A nil sink discards events.
func New(source Source, target Target, sink progress.Sink, opts Options) *Syncer {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if sink == nil {
		sink = progress.NopSink{}
	}
	if opts.Parallel > 1 {
		sink = progress.Locked(sink)
	}
	return &Syncer{source: source, target: target, sink: sink, opts: opts}
}

// Run lists the user's notebooks and syncs each one. It returns the report
// for everything attempted; the error is non-nil only when the run could not
// proceed at all or was aborted by an authentication failure. An interrupted
// run returns a partial report and a nil error.
func (s *Syncer) Run(ctx context.Context) (*domain.SyncReport, error) {
	report := &domain.SyncReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	refs, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	report.Total = len(refs)

	pslog.Ctx(ctx).Info("sync started",
		"run_id", report.RunID,
		"user", s.opts.User,
		"owner", s.opts.Owner,
		"notebooks", report.Total,
	)
	s.sink.Emit(progress.Event{Type: progress.EventRunStarted, Time: time.Now(), Total: report.Total})

	var fatal error
	if s.opts.Parallel > 1 {
		report.Results, fatal = s.runParallel(ctx, refs)
	} else {
		report.Results, fatal = s.runSequential(ctx, refs)
	}

	for _, res := range report.Results {
		if res.Status == domain.StatusSuccess {
			report.Succeeded++
		}
	}
	report.FinishedAt = time.Now()

	s.sink.Emit(progress.Event{Type: progress.EventRunFinished, Time: time.Now(), Report: report})
	return report, fatal
}

// listAll fetches the notebook listing and applies the Only filter.
func (s *Syncer) listAll(ctx context.Context) ([]domain.NotebookRef, error) {
	var refs []domain.NotebookRef
	_, err := s.retry(ctx, "list notebooks", domain.NotebookRef{}, func() error {
		var lerr error
		refs, lerr = s.source.ListNotebooks(ctx, s.opts.User)
		return lerr
	})
	if err != nil {
		return nil, fmt.Errorf("listing notebooks for %s: %w", s.opts.User, err)
	}
	if len(s.opts.Only) == 0 {
		return refs, nil
	}

	keep := make(map[string]bool, len(s.opts.Only))
	for _, name := range s.opts.Only {
		keep[name] = true
	}
	filtered := make([]domain.NotebookRef, 0, len(refs))
	for _, ref := range refs {
		if keep[ref.Slug] {
			filtered = append(filtered, ref)
		}
	}
	return filtered, nil
}

func (s *Syncer) runSequential(ctx context.Context, refs []domain.NotebookRef) ([]domain.SyncResult, error) {
	results := make([]domain.SyncResult, 0, len(refs))
	for i, ref := range refs {
		if ctx.Err() != nil {
			pslog.Ctx(ctx).Warn("sync interrupted", "completed", len(results), "total", len(refs))
			return results, nil
		}
		res, err := s.syncOne(ctx, i+1, len(refs), ref)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// runParallel syncs up to opts.Parallel notebooks at once. Each result lands
// at its listing position so the report keeps listing order.
func (s *Syncer) runParallel(ctx context.Context, refs []domain.NotebookRef) ([]domain.SyncResult, error) {
	results := make([]domain.SyncResult, len(refs))
	done := make([]bool, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Parallel)
	for i, ref := range refs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := s.syncOne(gctx, i+1, len(refs), ref)
			results[i] = res
			done[i] = true
			return err
		})
	}
	fatal := g.Wait()

	attempted := make([]domain.SyncResult, 0, len(refs))
	for i, res := range results {
		if done[i] {
			attempted = append(attempted, res)
		}
	}
	return attempted, fatal
}

// syncOne runs one notebook through slug, probe, create, fetch and push.
// The returned error is non-nil only for authentication failures, which
// abort the whole run; every other failure is recorded in the result and
// the run moves on.
func (s *Syncer) syncOne(ctx context.Context, index, total int, ref domain.NotebookRef) (domain.SyncResult, error) {
	started := time.Now()
	res := domain.SyncResult{Ref: ref, Status: domain.StatusFailed}

	track := func(attempts int) {
		if attempts > res.Attempts {
			res.Attempts = attempts
		}
	}
	fail := func(err error) (domain.SyncResult, error) {
		res.Error = err.Error()
		res.Duration = time.Since(started)
		pslog.Ctx(ctx).Warn("notebook failed", "ref", ref.Ref(), "err", err)
		s.sink.Emit(progress.Event{Type: progress.EventNotebookFinished, Time: time.Now(), Index: index, Total: total, Ref: ref, Result: &res})
		if domain.IsAuth(err) {
			return res, err
		}
		return res, nil
	}

	s.sink.Emit(progress.Event{Type: progress.EventNotebookStarted, Time: time.Now(), Index: index, Total: total, Ref: ref})

	target := domain.SyncTarget{RepoName: slug.Make(ref.Title)}
	res.RepoName = target.RepoName
	s.emitStage(ref, domain.StageSlugged, target.RepoName)

	attempts, err := s.retry(ctx, "probe repository", ref, func() error {
		var perr error
		target.Exists, perr = s.target.RepositoryExists(ctx, s.opts.Owner, target.RepoName)
		return perr
	})
	track(attempts)
	if err != nil {
		return fail(fmt.Errorf("probing repository %s: %w", target.RepoName, err))
	}
	if target.Exists {
		s.emitStage(ref, domain.StageProbed, "repository exists")
	} else {
		s.emitStage(ref, domain.StageProbed, "repository absent")
	}

	if s.opts.DryRun {
		detail := fmt.Sprintf("would create %s and push %s.ipynb", target.RepoName, ref.Slug)
		if target.Exists {
			detail = fmt.Sprintf("would push %s.ipynb to existing %s", ref.Slug, target.RepoName)
		}
		s.emitStage(ref, domain.StageRecorded, detail)
		res.Status = domain.StatusSuccess
		res.Duration = time.Since(started)
		s.sink.Emit(progress.Event{Type: progress.EventNotebookFinished, Time: time.Now(), Index: index, Total: total, Ref: ref, Result: &res})
		return res, nil
	}

	repo := domain.Repo{
		Owner: s.opts.Owner,
		Name:  target.RepoName,
		URL:   "https://github.com/" + s.opts.Owner + "/" + target.RepoName,
	}
	if !target.Exists {
		attempts, err = s.retry(ctx, "create repository", ref, func() error {
			var cerr error
			repo, cerr = s.target.CreateRepository(ctx, target.RepoName, domain.CreateOptions{
				Private:     s.opts.Private,
				Description: "Kaggle notebook: " + ref.Title,
			})
			return cerr
		})
		track(attempts)
		if err != nil {
			return fail(fmt.Errorf("creating repository %s: %w", target.RepoName, err))
		}
		s.emitStage(ref, domain.StageCreated, repo.URL)
	}
	res.RepoURL = repo.URL

	dir, err := os.MkdirTemp("", "kaggle-sync-*")
	if err != nil {
		return fail(fmt.Errorf("creating scratch dir: %w", err))
	}
	defer os.RemoveAll(dir)

	var bundle domain.NotebookBundle
	attempts, err = s.retry(ctx, "fetch notebook", ref, func() error {
		var ferr error
		bundle, ferr = s.source.FetchBundle(ctx, ref, dir)
		return ferr
	})
	track(attempts)
	if err != nil {
		return fail(fmt.Errorf("fetching %s: %w", ref.Ref(), err))
	}
	res.Bytes = bundle.Bytes
	s.emitStage(ref, domain.StageFetched, filepath.Base(bundle.NotebookPath))

	// Once content is pushed nothing waits on the cancellable context:
	// an interrupt lets in-flight uploads finish rather than leaving the
	// repository half written. Retry waits still honor the interrupt.
	pushCtx := context.WithoutCancel(ctx)
	push := func(op, path string, content []byte) error {
		n, perr := s.retry(ctx, op, ref, func() error {
			_, err := s.target.PutFile(pushCtx, repo, path, content, "")
			return err
		})
		track(n)
		return perr
	}

	pushed := make([]string, 0, 3)
	notebookName := filepath.Base(bundle.NotebookPath)
	data, err := os.ReadFile(bundle.NotebookPath)
	if err != nil {
		return fail(fmt.Errorf("reading staged notebook: %w", err))
	}
	if err := push("push notebook", notebookName, data); err != nil {
		return fail(fmt.Errorf("pushing %s: %w", notebookName, err))
	}
	pushed = append(pushed, notebookName)

	if bundle.MetadataPath != "" {
		meta, err := os.ReadFile(bundle.MetadataPath)
		if err != nil {
			return fail(fmt.Errorf("reading staged metadata: %w", err))
		}
		metaName := filepath.Base(bundle.MetadataPath)
		if err := push("push metadata", metaName, meta); err != nil {
			return fail(fmt.Errorf("pushing %s: %w", metaName, err))
		}
		pushed = append(pushed, metaName)
	}

	doc, err := readme.Render(ref)
	if err != nil {
		return fail(fmt.Errorf("rendering README: %w", err))
	}
	if err := push("push README", "README.md", []byte(doc)); err != nil {
		return fail(fmt.Errorf("pushing README.md: %w", err))
	}
	pushed = append(pushed, "README.md")
	s.emitStage(ref, domain.StagePushed, strings.Join(pushed, ", "))

	res.Status = domain.StatusSuccess
	res.Duration = time.Since(started)
	pslog.Ctx(ctx).Info("notebook synced",
		"ref", ref.Ref(),
		"repo", repo.URL,
		"bytes", res.Bytes,
		"attempts", res.Attempts,
	)
	s.sink.Emit(progress.Event{Type: progress.EventNotebookFinished, Time: time.Now(), Index: index, Total: total, Ref: ref, Result: &res})
	return res, nil
}

func (s *Syncer) emitStage(ref domain.NotebookRef, stage domain.Stage, detail string) {
	s.sink.Emit(progress.Event{
		Type:   progress.EventStageReached,
		Time:   time.Now(),
		Ref:    ref,
		Stage:  stage,
		Detail: detail,
	})
}
