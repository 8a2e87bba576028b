package values

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that yaml-decodes from strings like "15m" or
// "90s". yaml.v3 would otherwise only accept raw nanosecond integers.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// SyncValues carries the tunables of the refresh engine. Zero values are
// replaced with the defaults below when the config file omits them.
type SyncValues struct {
	BulkMinInterval       Duration          `yaml:"bulk-min-interval"`
	SingleItemMinInterval Duration          `yaml:"single-item-min-interval"`
	FetchPageSize         int               `yaml:"fetch-page-size"`
	FetchTimeout          Duration          `yaml:"fetch-timeout"`
	FetchPagesPerSecond   int               `yaml:"fetch-pages-per-second"`
	StagingTTL            Duration          `yaml:"staging-ttl"`
	StatusMapping         map[string]string `yaml:"status-mapping"`
}

const (
	DefaultBulkMinInterval       = 15 * time.Minute
	DefaultSingleItemMinInterval = 5 * time.Minute
	DefaultFetchPageSize         = 200
	DefaultFetchTimeout          = 60 * time.Second
	DefaultFetchPagesPerSecond   = 3
	DefaultStagingTTL            = 30 * time.Minute
)

func (v *SyncValues) ApplyDefaults() {
	if v.BulkMinInterval == 0 {
		v.BulkMinInterval = Duration(DefaultBulkMinInterval)
	}
	if v.SingleItemMinInterval == 0 {
		v.SingleItemMinInterval = Duration(DefaultSingleItemMinInterval)
	}
	if v.FetchPageSize == 0 {
		v.FetchPageSize = DefaultFetchPageSize
	}
	if v.FetchTimeout == 0 {
		v.FetchTimeout = Duration(DefaultFetchTimeout)
	}
	if v.FetchPagesPerSecond == 0 {
		v.FetchPagesPerSecond = DefaultFetchPagesPerSecond
	}
	if v.StagingTTL == 0 {
		v.StagingTTL = Duration(DefaultStagingTTL)
	}
}
