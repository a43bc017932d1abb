package config

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults for the SIRENE open-data endpoint and dataset names. The archive
// naming convention is <year>-<month>-01-<DatasetName>.zip.
const (
	DefaultArchiveBaseURL = "https://files.data.gouv.fr/insee-sirene/"
	LegalUnitDataset      = "StockUniteLegale_utf8"
	EstablishmentDataset  = "StockEtablissement_utf8"
)

// Pipeline captures everything the ingestion binary needs from the
// environment. The struct is passed explicitly; nothing else in the repo
// reads the environment after startup.
type Pipeline struct {
	DatabaseURL    string
	DataDir        string
	ArchiveBaseURL string
	WebhookURL     string
	MirrorBucket   string
	MirrorRegion   string
	MetricsAddr    string
	FragmentLines  int
}

// FromEnv builds a Pipeline config from environment variables so main stays lean.
func FromEnv() Pipeline {
	cfg := Pipeline{
		DatabaseURL:    os.Getenv("SIRENE_DATABASE_URL"),
		DataDir:        os.Getenv("SIRENE_DATA_DIR"),
		ArchiveBaseURL: os.Getenv("SIRENE_ARCHIVE_BASE_URL"),
		WebhookURL:     os.Getenv("SIRENE_WEBHOOK_URL"),
		MirrorBucket:   os.Getenv("SIRENE_MIRROR_BUCKET"),
		MirrorRegion:   os.Getenv("AWS_REGION"),
		MetricsAddr:    os.Getenv("SIRENE_METRICS_ADDR"),
		FragmentLines:  50000,
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.ArchiveBaseURL == "" {
		cfg.ArchiveBaseURL = DefaultArchiveBaseURL
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}
	if v := os.Getenv("SIRENE_FRAGMENT_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FragmentLines = n
		}
	}
	return cfg
}

// Validate rejects configurations the pipeline cannot run with.
func (p Pipeline) Validate() error {
	if p.DatabaseURL == "" {
		return fmt.Errorf("SIRENE_DATABASE_URL is required")
	}
	if p.FragmentLines <= 0 {
		return fmt.Errorf("fragment line limit must be positive, got %d", p.FragmentLines)
	}
	return nil
}
