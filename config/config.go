package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the acquisition control plane.
type Config struct {
	Metadata    Metadata    `json:"metadata" yaml:"metadata" mapstructure:"metadata"`
	Indexer     Indexer     `json:"indexer" yaml:"indexer" mapstructure:"indexer"`
	Library     Library     `json:"library" yaml:"library" mapstructure:"library"`
	Storage     Storage     `json:"storage" yaml:"storage" mapstructure:"storage"`
	Jobs        Jobs        `json:"jobs" yaml:"jobs" mapstructure:"jobs"`
	Resilience  Resilience  `json:"resilience" yaml:"resilience" mapstructure:"resilience"`
	Import      Import      `json:"import" yaml:"import" mapstructure:"import"`
	Scheduler   Scheduler   `json:"scheduler" yaml:"scheduler" mapstructure:"scheduler"`
	Download    DownloadClient `json:"download" yaml:"download" mapstructure:"download"`
	Notifier    Notifier    `json:"notifier" yaml:"notifier" mapstructure:"notifier"`
	Instance    string      `json:"instance" yaml:"instance" mapstructure:"instance"`
}

// Notifier configures the single webhook sink cmd/serve wires up, if URL
// is set. Concrete provider formatting (Discord, Slack, Pushover) is out
// of scope; every event type posts the same generic payload shape.
type Notifier struct {
	URL            string            `json:"url" yaml:"url" mapstructure:"url"`
	Method         string            `json:"method" yaml:"method" mapstructure:"method"`
	Username       string            `json:"username" yaml:"username" mapstructure:"username"`
	Password       string            `json:"password" yaml:"password" mapstructure:"password"`
	Headers        map[string]string `json:"headers" yaml:"headers" mapstructure:"headers"`
	ApplicationURL string            `json:"applicationUrl" yaml:"applicationUrl" mapstructure:"applicationUrl"`
}

// Metadata describes how to reach the external movie-metadata lookup service.
type Metadata struct {
	Scheme string `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
	Host   string `json:"host" yaml:"host" mapstructure:"host"`
	APIKey string `json:"apiKey" yaml:"apiKey" mapstructure:"apiKey"`
}

// Indexer describes how to reach the external indexer aggregation service.
type Indexer struct {
	Scheme     string `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
	Host       string `json:"host" yaml:"host" mapstructure:"host"`
	Port       int    `json:"port" yaml:"port" mapstructure:"port"`
	APIKey     string `json:"apiKey" yaml:"apiKey" mapstructure:"apiKey"`
	Categories []int  `json:"categories" yaml:"categories" mapstructure:"categories"`
}

// DownloadClient describes how to reach the single configured download
// backend (torrent or usenet; Implementation picks which adapter cmd/ wires).
type DownloadClient struct {
	Implementation string `json:"implementation" yaml:"implementation" mapstructure:"implementation"`
	Scheme         string `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
	Host           string `json:"host" yaml:"host" mapstructure:"host"`
	Port           int    `json:"port" yaml:"port" mapstructure:"port"`
	APIKey         string `json:"apiKey" yaml:"apiKey" mapstructure:"apiKey"`
	Category       string `json:"category" yaml:"category" mapstructure:"category"`
}

// Library describes where the media library's root folders live.
type Library struct {
	MovieDir string `json:"movie" yaml:"movie" mapstructure:"movie"`
}

// Storage configuration is assumed to be sqlite-only currently.
type Storage struct {
	FilePath string `json:"filePath" yaml:"filePath" mapstructure:"filePath"`
}

// Jobs configures the scheduler's recurring cadences and worker pool.
type Jobs struct {
	WorkerCount        int           `json:"workerCount" yaml:"workerCount" mapstructure:"workerCount"`
	PollInterval       time.Duration `json:"pollInterval" yaml:"pollInterval" mapstructure:"pollInterval"`
	LeaseDuration      time.Duration `json:"leaseDuration" yaml:"leaseDuration" mapstructure:"leaseDuration"`
	LowPriorityAgeAfter time.Duration `json:"lowPriorityAgeAfter" yaml:"lowPriorityAgeAfter" mapstructure:"lowPriorityAgeAfter"`
	SearchCooldown     time.Duration `json:"searchCooldown" yaml:"searchCooldown" mapstructure:"searchCooldown"`
	SearchCooldownMiss time.Duration `json:"searchCooldownMiss" yaml:"searchCooldownMiss" mapstructure:"searchCooldownMiss"`
	MonitorInterval    time.Duration `json:"monitorInterval" yaml:"monitorInterval" mapstructure:"monitorInterval"`
	StallWindow        time.Duration `json:"stallWindow" yaml:"stallWindow" mapstructure:"stallWindow"`
	CleanupPeriod      time.Duration `json:"cleanupPeriod" yaml:"cleanupPeriod" mapstructure:"cleanupPeriod"`
	MinJobsToKeep      int           `json:"minJobsToKeep" yaml:"minJobsToKeep" mapstructure:"minJobsToKeep"`
}

// Scheduler holds recurring sweep cadences layered above the worker pool
// (distinct from per-job retry backoff in Jobs). Only SearchSweepInterval
// is read when the scheduler is wired; BlocklistSweepInterval and
// DeadLetterSweepInterval are not used, and blocklist cleanup runs on
// Jobs.CleanupPeriod.
type Scheduler struct {
	SearchSweepInterval   time.Duration `json:"searchSweepInterval" yaml:"searchSweepInterval" mapstructure:"searchSweepInterval"`
	BlocklistSweepInterval time.Duration `json:"blocklistSweepInterval" yaml:"blocklistSweepInterval" mapstructure:"blocklistSweepInterval"`
	DeadLetterSweepInterval time.Duration `json:"deadLetterSweepInterval" yaml:"deadLetterSweepInterval" mapstructure:"deadLetterSweepInterval"`
}

// Resilience configures circuit breaker and rate limiter behavior. The same
// settings are applied to every external endpoint; there is no per-service
// override.
type Resilience struct {
	FailureThreshold int           `json:"failureThreshold" yaml:"failureThreshold" mapstructure:"failureThreshold"`
	SuccessThreshold int           `json:"successThreshold" yaml:"successThreshold" mapstructure:"successThreshold"`
	RecoveryTimeout  time.Duration `json:"recoveryTimeout" yaml:"recoveryTimeout" mapstructure:"recoveryTimeout"`
	RatePerSecond    float64       `json:"ratePerSecond" yaml:"ratePerSecond" mapstructure:"ratePerSecond"`
	Burst            int           `json:"burst" yaml:"burst" mapstructure:"burst"`
	RequestTimeout   time.Duration `json:"requestTimeout" yaml:"requestTimeout" mapstructure:"requestTimeout"`
	OverallBudget    time.Duration `json:"overallBudget" yaml:"overallBudget" mapstructure:"overallBudget"`
}

// Import configures the import pipeline's placement behavior.
type Import struct {
	MinVideoBytes    int64  `json:"minVideoBytes" yaml:"minVideoBytes" mapstructure:"minVideoBytes"`
	RecycleBinDir    string `json:"recycleBinDir" yaml:"recycleBinDir" mapstructure:"recycleBinDir"`
	FolderTemplate   string `json:"folderTemplate" yaml:"folderTemplate" mapstructure:"folderTemplate"`
	FileTemplate     string `json:"fileTemplate" yaml:"fileTemplate" mapstructure:"fileTemplate"`
	ReplaceExisting  bool   `json:"replaceExisting" yaml:"replaceExisting" mapstructure:"replaceExisting"`
}

// ConfigUnmarshaler abstracts viper for testability.
type ConfigUnmarshaler interface {
	ReadInConfig() error
	Unmarshal(any, ...viper.DecoderConfigOption) error
	ConfigFileUsed() string
}

// New reads configuration, applying defaults before any config file overrides.
func New(cu ConfigUnmarshaler) (Config, error) {
	c := defaults()

	if cu.ConfigFileUsed() != "" {
		if err := cu.ReadInConfig(); err != nil {
			return c, err
		}
	}

	err := cu.Unmarshal(&c)
	return c, err
}

func defaults() Config {
	return Config{
		Instance: "reelwatch",
		Storage: Storage{
			FilePath: "reelwatch.db",
		},
		Indexer: Indexer{
			Categories: []int{2000, 2010, 2020, 2030, 2040, 2045, 2050, 2060}, // Radarr's Movies category tree
		},
		Download: DownloadClient{
			Category: "movies",
		},
		Jobs: Jobs{
			WorkerCount:         8,
			PollInterval:        5 * time.Second,
			LeaseDuration:       2 * time.Minute,
			LowPriorityAgeAfter: 10 * time.Minute,
			SearchCooldown:      30 * time.Minute,
			SearchCooldownMiss:  6 * time.Hour,
			MonitorInterval:     30 * time.Second,
			StallWindow:         30 * time.Minute,
			CleanupPeriod:       30 * 24 * time.Hour,
			MinJobsToKeep:       50,
		},
		Scheduler: Scheduler{
			SearchSweepInterval:    time.Minute,
			BlocklistSweepInterval: time.Hour,
			DeadLetterSweepInterval: time.Hour,
		},
		Resilience: Resilience{
			FailureThreshold: 5,
			SuccessThreshold: 3,
			RecoveryTimeout:  60 * time.Second,
			RatePerSecond:    1,
			Burst:            5,
			RequestTimeout:   30 * time.Second,
			OverallBudget:    2 * time.Minute,
		},
		Import: Import{
			MinVideoBytes:   50 * 1024 * 1024,
			RecycleBinDir:   ".recycle",
			FolderTemplate:  "{title} ({year})",
			FileTemplate:    "{title} ({year}) {quality}",
			ReplaceExisting: false,
		},
	}
}
