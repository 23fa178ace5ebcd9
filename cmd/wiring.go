package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/viper"

	"github.com/kasuboski/reelwatch/config"
	"github.com/kasuboski/reelwatch/pkg/blocklist"
	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/downloadclient"
	"github.com/kasuboski/reelwatch/pkg/eventbus"
	"github.com/kasuboski/reelwatch/pkg/importpipeline"
	"github.com/kasuboski/reelwatch/pkg/indexerclient"
	dio "github.com/kasuboski/reelwatch/pkg/io"
	"github.com/kasuboski/reelwatch/pkg/manager"
	"github.com/kasuboski/reelwatch/pkg/metadataclient"
	"github.com/kasuboski/reelwatch/pkg/notifier"
	"github.com/kasuboski/reelwatch/pkg/resilience"
	"github.com/kasuboski/reelwatch/pkg/scheduler"
	"github.com/kasuboski/reelwatch/pkg/storage"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite"
)

// app bundles everything a cmd needs once a config is loaded: the store,
// the wired manager and scheduler, and the event bus they share. Every
// subcommand builds one of these instead of reaching for package globals.
type app struct {
	cfg   config.Config
	store storage.Store
	bus   *eventbus.Bus
	mgr   *manager.Manager
	sched *scheduler.Scheduler
}

func loadConfig() (config.Config, error) {
	return config.New(viper.GetViper())
}

// newApp opens the store, runs migrations, builds every external client
// behind its resilience.Policy, and wires the manager and scheduler. Every
// long-running or one-shot command funnels through this so wiring never
// drifts between serve and the manual inspection commands.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	store, err := sqlite.New(ctx, cfg.Storage.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.RunMigrations(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	bus := eventbus.New(256)

	bl := blocklist.New(store.Blocklist(), nil)

	sched := scheduler.New(store, bl, bus, scheduler.ConfigFromSettings(
		cfg.Jobs.WorkerCount,
		cfg.Jobs.PollInterval,
		cfg.Jobs.LeaseDuration,
		cfg.Jobs.LowPriorityAgeAfter,
		cfg.Jobs.CleanupPeriod,
		cfg.Scheduler.SearchSweepInterval,
	))

	indexer, err := indexerclient.NewProwlarrClient(http.DefaultClient, indexerclient.Config{
		Implementation: "prowlarr",
		Scheme:         cfg.Indexer.Scheme,
		Host:           cfg.Indexer.Host,
		Port:           cfg.Indexer.Port,
		APIKey:         cfg.Indexer.APIKey,
		Enabled:        true,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build indexer client: %w", err)
	}

	downloader, err := buildDownloadClient(cfg.Download)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build download client: %w", err)
	}

	metadataClient := metadataclient.NewTMDBClient(http.DefaultClient, fmt.Sprintf("%s://%s", cfg.Metadata.Scheme, cfg.Metadata.Host), cfg.Metadata.APIKey)

	indexerPolicy := newPolicy("indexer", bus, cfg.Resilience, classifyIndexerError)
	downloadPolicy := newPolicy("download_client", bus, cfg.Resilience, classifyDownloadError)
	metadataPolicy := newPolicy("metadata", bus, cfg.Resilience, classifyMetadataError)

	mgr := manager.New(store, indexer, downloader, metadataClient, bl, bus, sched, &dio.MediaFileSystem{},
		indexerPolicy, downloadPolicy, metadataPolicy,
		manager.Config{
			SearchCategories: cfg.Indexer.Categories,
			DownloadCategory: cfg.Download.Category,
			SearchCooldown:   cfg.Jobs.SearchCooldown,
			MonitorInterval:  cfg.Jobs.MonitorInterval,
			StallWindow:      cfg.Jobs.StallWindow,
			Import: importpipeline.Settings{
				RootFolder:      cfg.Library.MovieDir,
				MinVideoBytes:   cfg.Import.MinVideoBytes,
				RecycleBinDir:   cfg.Import.RecycleBinDir,
				FolderTemplate:  cfg.Import.FolderTemplate,
				FileTemplate:    cfg.Import.FileTemplate,
				ReplaceExisting: cfg.Import.ReplaceExisting,
			},
		},
	)
	mgr.RegisterHandlers()

	return &app{cfg: cfg, store: store, bus: bus, mgr: mgr, sched: sched}, nil
}

func (a *app) Close() {
	a.store.Close()
}

func buildDownloadClient(cfg config.DownloadClient) (downloadclient.Client, error) {
	switch cfg.Implementation {
	case "", "sabnzbd":
		return downloadclient.NewMonotonicClient(downloadclient.NewSabnzbdClient(http.DefaultClient, cfg.Scheme, hostPort(cfg.Host, cfg.Port), cfg.APIKey)), nil
	case "transmission":
		return downloadclient.NewMonotonicClient(downloadclient.NewTransmissionClient(http.DefaultClient, cfg.Scheme, cfg.Host, cfg.Port)), nil
	default:
		return nil, fmt.Errorf("unknown download client implementation %q", cfg.Implementation)
	}
}

func hostPort(host string, port int) string {
	if port == 0 {
		return host
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// newPolicy builds a resilience.Policy with its own circuit breaker whose
// state transitions publish eventbus.KindBreakerTransition, the wiring
// pkg/manager itself deliberately leaves to the caller.
func newPolicy(endpoint string, bus *eventbus.Bus, r config.Resilience, classify resilience.RetryClassifier) resilience.Policy {
	breaker := resilience.NewCircuitBreaker(endpoint, resilience.BreakerConfig{
		FailureThreshold: r.FailureThreshold,
		SuccessThreshold: r.SuccessThreshold,
		RecoveryTimeout:  r.RecoveryTimeout,
		OnStateChange: func(endpoint string, from, to resilience.BreakerState) {
			bus.Publish(context.Background(), eventbus.Event{
				Kind:      eventbus.KindBreakerTransition,
				Publisher: endpoint,
				Payload: eventbus.BreakerTransitionPayload{
					Endpoint: endpoint,
					From:     string(from),
					To:       string(to),
				},
			})
		},
	})

	return resilience.Policy{
		Endpoint:       endpoint,
		Breaker:        breaker,
		Limiter:        resilience.NewLimiter(r.RatePerSecond, r.Burst),
		RequestTimeout: r.RequestTimeout,
		OverallBudget:  r.OverallBudget,
		Classify:       classify,
	}
}

func classifyIndexerError(err error) domain.BlockReason {
	return classifyTransportError(err)
}

func classifyDownloadError(err error) domain.BlockReason {
	return domain.ReasonDownloadClientError
}

func classifyMetadataError(err error) domain.BlockReason {
	return classifyTransportError(err)
}

// classifyTransportError maps an error that reports Timeout() == true to
// ReasonConnectionTimeout; any other error is treated as a generic network
// error, matching spec's taxonomy of last resort.
func classifyTransportError(err error) domain.BlockReason {
	switch {
	case isTimeout(err):
		return domain.ReasonConnectionTimeout
	default:
		return domain.ReasonNetworkError
	}
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	te, ok := err.(timeouter)
	return ok && te.Timeout()
}

// buildNotifier wires the optional webhook sink. A zero-value Notifier
// (no URL) leaves the service running with no sinks registered, so
// publishing never blocks on a channel nobody drains wrongly: the
// eventbus subscription channel itself is still consumed to avoid filling
// its buffer.
func buildNotifier(cfg config.Config) *notifier.Service {
	svc := notifier.New(cfg.Instance)
	if cfg.Notifier.URL != "" {
		svc.Register(notifier.NewWebhookSink(cfg.Instance, notifier.Settings{
			URL:            cfg.Notifier.URL,
			Method:         cfg.Notifier.Method,
			Username:       cfg.Notifier.Username,
			Password:       cfg.Notifier.Password,
			Headers:        cfg.Notifier.Headers,
			ApplicationURL: cfg.Notifier.ApplicationURL,
		}, http.DefaultClient))
	}
	return svc
}
