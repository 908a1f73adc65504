package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/pintyy/kaggle-sync/internal/batch"
	"github.com/pintyy/kaggle-sync/internal/config"
	"github.com/pintyy/kaggle-sync/internal/domain"
	"github.com/pintyy/kaggle-sync/internal/ghrepo"
	"github.com/pintyy/kaggle-sync/internal/kaggle"
	"github.com/pintyy/kaggle-sync/internal/notify"
	"github.com/pintyy/kaggle-sync/internal/progress"
	"github.com/pintyy/kaggle-sync/internal/syncer"
	"github.com/pintyy/kaggle-sync/tui"
)

var (
	syncDryRun   bool
	syncPrivate  bool
	syncParallel int
	syncManifest string
	syncTUI      bool
	syncJSON     bool
	syncVerbose  bool
	watchCron    string
)

func init() {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync all notebooks once",
		RunE:  runSync,
	}
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "probe only, create and push nothing")
	syncCmd.Flags().BoolVar(&syncPrivate, "private", false, "create missing repositories as private")
	syncCmd.Flags().IntVar(&syncParallel, "parallel", 0, "notebooks to sync at once (default from config)")
	syncCmd.Flags().StringVar(&syncManifest, "manifest", "", "YAML manifest restricting which notebooks sync")
	syncCmd.Flags().BoolVar(&syncTUI, "tui", false, "show a live dashboard instead of log lines")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "write the final report as JSON to stdout")
	syncCmd.Flags().BoolVar(&syncVerbose, "verbose", false, "print every stage as it is reached")
	rootCmd.AddCommand(syncCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the notebooks that would sync",
		RunE:  runList,
	}
	rootCmd.AddCommand(listCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Run sync repeatedly on a cron schedule",
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVar(&watchCron, "cron", "", "cron schedule (default from config)")
	rootCmd.AddCommand(watchCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kaggle-sync %s (%s, %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(config.ExpandPath(path))
}

// clients builds both API clients from resolved credentials. All environment
// access happens here; everything downstream works from explicit values.
func clients(cfg *config.Config) (*kaggle.Client, *ghrepo.Client, *config.Credentials, error) {
	creds, err := config.ResolveCredentials()
	if err != nil {
		return nil, nil, nil, err
	}
	timeout := time.Duration(cfg.Sync.RequestTimeout)
	source := kaggle.New(creds.KaggleUsername, creds.KaggleKey, kaggle.Options{
		Timeout:  timeout,
		PageSize: cfg.Kaggle.PageSize,
	})
	target := ghrepo.New(creds.GitHubToken, ghrepo.Options{Timeout: timeout})
	return source, target, creds, nil
}

// syncOptions merges config, flags and resolved accounts into run options.
// Flags win over the config file.
func syncOptions(ctx context.Context, cmd *cobra.Command, cfg *config.Config, creds *config.Credentials, target *ghrepo.Client) (syncer.Options, error) {
	user := cfg.Kaggle.User
	if user == "" {
		user = creds.KaggleUsername
	}

	owner := cfg.GitHub.Owner
	if owner == "" {
		var err error
		owner, err = target.AuthenticatedUser(ctx)
		if err != nil {
			return syncer.Options{}, fmt.Errorf("resolving repository owner: %w", err)
		}
	}

	private := cfg.Sync.Private()
	if cmd.Flags().Changed("private") {
		private = syncPrivate
	}
	parallel := cfg.Sync.Parallel
	if cmd.Flags().Changed("parallel") {
		parallel = syncParallel
	}

	opts := syncer.Options{
		User:        user,
		Owner:       owner,
		Private:     private,
		MaxAttempts: cfg.Sync.MaxAttempts,
		Parallel:    parallel,
		DryRun:      syncDryRun,
	}
	if syncManifest != "" {
		only, err := readManifest(syncManifest)
		if err != nil {
			return syncer.Options{}, err
		}
		opts.Only = only
	}
	return opts, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	source, target, creds, err := clients(cfg)
	if err != nil {
		return err
	}
	opts, err := syncOptions(ctx, cmd, cfg, creds, target)
	if err != nil {
		return err
	}

	if syncTUI {
		return runSyncTUI(ctx, cfg, source, target, opts)
	}

	var sink progress.Sink
	if syncJSON {
		sink = progress.NewJSON(os.Stdout)
	} else {
		sink = progress.NewConsole(os.Stdout, syncVerbose)
	}

	report, err := syncer.New(source, target, sink, opts).Run(ctx)
	notifyReport(ctx, cfg, report)
	if err != nil {
		return err
	}
	if !report.AllSucceeded() {
		return errSyncIncomplete
	}
	return nil
}

// runSyncTUI drives the run with the live dashboard attached. The syncer
// runs in its own goroutine and feeds events into the bubbletea program.
func runSyncTUI(ctx context.Context, cfg *config.Config, source *kaggle.Client, target *ghrepo.Client, opts syncer.Options) error {
	p := tea.NewProgram(tui.NewModel(opts.User), tea.WithAltScreen())
	s := syncer.New(source, target, tui.NewSink(p), opts)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var report *domain.SyncReport
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		report, runErr = s.Run(runCtx)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return err
	}
	cancel() // quitting the dashboard early aborts the run
	<-done

	// The alternate screen is gone; render the summary somewhere it survives.
	if report != nil {
		progress.NewConsole(os.Stdout, false).Emit(progress.Event{
			Type:   progress.EventRunFinished,
			Report: report,
		})
	}
	notifyReport(ctx, cfg, report)
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return errSyncIncomplete
		}
		return runErr
	}
	if report == nil || !report.AllSucceeded() {
		return errSyncIncomplete
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	source, _, creds, err := clients(cfg)
	if err != nil {
		return err
	}
	user := cfg.Kaggle.User
	if user == "" {
		user = creds.KaggleUsername
	}

	refs, err := source.ListNotebooks(ctx, user)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		fmt.Printf("no notebooks found for %s\n", user)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REF\tTITLE\tURL")
	for _, ref := range refs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ref.Ref(), ref.Title, ref.URL())
	}
	return w.Flush()
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	source, target, creds, err := clients(cfg)
	if err != nil {
		return err
	}
	opts, err := syncOptions(ctx, cmd, cfg, creds, target)
	if err != nil {
		return err
	}

	expr := cfg.Watch.Cron
	if watchCron != "" {
		expr = watchCron
	}
	sched, err := batch.New(expr)
	if err != nil {
		return err
	}

	s := syncer.New(source, target, progress.NewConsole(os.Stdout, false), opts)
	return sched.Run(ctx, func(tickCtx context.Context) error {
		report, err := s.Run(tickCtx)
		notifyReport(tickCtx, cfg, report)
		return err
	})
}

// notifyReport sends the end-of-run summary if any channel is configured.
func notifyReport(ctx context.Context, cfg *config.Config, report *domain.SyncReport) {
	if report == nil {
		return
	}
	var notifiers []notify.Notifier
	if cfg.Notifications.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notifications.SlackWebhook))
	}
	if cfg.Notifications.Desktop {
		notifiers = append(notifiers, notify.NewDesktopNotifier(true))
	}
	if len(notifiers) == 0 {
		return
	}
	if err := notify.NewMultiNotifier(notifiers...).Send(notify.FromReport(report)); err != nil {
		pslog.Ctx(ctx).Warn("notification failed", "err", err)
	}
}
