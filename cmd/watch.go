package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/linkwatch/internal/classify"
	"github.com/conneroisu/linkwatch/internal/config"
	lwerrors "github.com/conneroisu/linkwatch/internal/errors"
	"github.com/conneroisu/linkwatch/internal/logging"
	"github.com/conneroisu/linkwatch/internal/mirror"
	"github.com/conneroisu/linkwatch/internal/notify"
	"github.com/conneroisu/linkwatch/internal/proxy"
	"github.com/conneroisu/linkwatch/internal/publish"
)

var watchDebounceMs int

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Start a filtered watch session over the configured package roots",
	Long: `Watch resolves the configured package table into an immutable root set,
collects the candidate watch sets beneath those roots, and runs them through
the classification proxy: only relevant paths reach the OS watcher, ignored
paths are reported with the sentinel timestamp, and files whose canonical
source lives outside the watched tree get a mirror task.

The session runs until interrupted. On shutdown all mirror tasks are
cancelled and the watch handle is closed.`,
	RunE: runWatchCommand,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().IntVar(&watchDebounceMs, "debounce", 250, "change batch debounce interval in milliseconds")
}

func runWatchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if len(cfg.Packages) == 0 {
		return fmt.Errorf("no packages configured; run 'linkwatch init' and edit .linkwatch.yml")
	}

	logger := newLogger(cfg)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Root resolution fails fast: classification cannot be trusted until
	// every configured package maps to a real directory.
	roots, err := cfg.ResolveRoots()
	if err != nil {
		logger.Fatal(ctx, err, "resolving watch roots")
		return err
	}

	collector := lwerrors.NewCollector()

	sources := make(map[string]string, len(roots))
	classifyRoots := make([]classify.Root, 0, len(roots))
	for _, root := range roots {
		sources[root.Name] = root.Source
		classifyRoots = append(classifyRoots, classify.Root{Name: root.Name, Path: root.Root})
		logger.Info(ctx, "registered watch root", "name", root.Name, "root", root.Root, "source", root.Source)
	}

	mirrors := mirror.NewManager(sources,
		time.Duration(cfg.Watch.PollIntervalMs)*time.Millisecond, collector, logger)
	defer mirrors.Stop()

	classifier := classify.New(classifyRoots, cfg.Watch.ExcludeMarker, mirrors)
	watcher := proxy.NewProxy(proxy.NewPollWatcher(logger), classifier, logger)
	publisher := publish.NewPublisher(cfg.Publish.BuildDir, cfg.Publish.Destination, logger)

	var hub *notify.Hub
	if cfg.Reload.Enabled {
		hub = notify.NewHub(logger)
		defer hub.Shutdown()
		go serveReload(ctx, cfg, hub, logger)
	}

	files, dirs := collectCandidates(roots)

	req := proxy.Request{
		Files:     files,
		Dirs:      dirs,
		StartTime: time.Now(),
		Options: proxy.Options{
			DebounceInterval: time.Duration(watchDebounceMs) * time.Millisecond,
		},
	}

	onChange := func(snap proxy.Snapshot) {
		if snap.Err != nil {
			logger.Error(ctx, snap.Err, "watch error")
			return
		}

		changed := append(append([]string{}, snap.FilesModified...), snap.DirsModified...)
		logger.Info(ctx, "change batch",
			"files", len(snap.FilesModified), "dirs", len(snap.DirsModified),
			"removed", len(snap.RemovedFiles))

		if publisher.Enabled() {
			if err := publisher.Publish(ctx); err != nil {
				logger.Error(ctx, err, "publish step failed")
			} else if hub != nil {
				hub.BroadcastPublish(ctx)
			}
		}
		if hub != nil {
			hub.BroadcastReload(ctx, changed)
		}
	}

	handle, err := watcher.Watch(req, onChange, nil)
	if err != nil {
		return fmt.Errorf("starting watch session: %w", err)
	}
	defer handle.Close()

	logger.Info(ctx, "watch session started",
		"files", len(files), "dirs", len(dirs), "mirror_tasks", mirrors.TaskCount())

	<-ctx.Done()

	logger.Info(context.Background(), "shutting down",
		"sync_errors", len(collector.SyncErrors()))

	return nil
}

// collectCandidates walks every resolved root and gathers the full candidate
// watch sets. Classification, not collection, decides what actually gets
// watched, so the walk deliberately includes everything.
func collectCandidates(roots []config.ResolvedRoot) (files, dirs []string) {
	for _, root := range roots {
		filepath.Walk(root.Root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				dirs = append(dirs, path)
			} else {
				files = append(files, path)
			}
			return nil
		})
	}
	return files, dirs
}

func serveReload(ctx context.Context, cfg *config.Config, hub *notify.Hub, logger logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/reload", hub)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Reload.Host, cfg.Reload.Port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "reload server listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error(ctx, err, "reload server failed")
	}
}

func newLogger(cfg *config.Config) logging.Logger {
	level := logging.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}
