package strata

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// EncodingConfig configures the segment encoders.
type EncodingConfig struct {
	// FrameOfReferenceBlockSize is the values-per-block split of the
	// frame-of-reference encoder.
	FrameOfReferenceBlockSize int `yaml:"frame_of_reference_block_size"`

	// LZ4MaxInputSize is the maximum raw byte image the LZ4 encoder
	// accepts per segment.
	LZ4MaxInputSize int64 `yaml:"lz4_max_input_size"`
}

// DefaultEncodingConfig returns default encoder configuration.
func DefaultEncodingConfig() EncodingConfig {
	return EncodingConfig{
		FrameOfReferenceBlockSize: 2048,
		LZ4MaxInputSize:           2 << 30,
	}
}

// StatisticsConfig configures histogram generation.
type StatisticsConfig struct {
	// HistogramType selects the histogram variant to build per segment.
	HistogramType HistogramType `yaml:"histogram_type"`

	// BucketCount is the target number of buckets per histogram.
	BucketCount int `yaml:"bucket_count"`

	// StringPrefixLength is the number of leading bytes used for the
	// numeric domain of string histograms.
	StringPrefixLength int `yaml:"string_prefix_length"`
}

// DefaultStatisticsConfig returns default statistics configuration.
func DefaultStatisticsConfig() StatisticsConfig {
	return StatisticsConfig{
		HistogramType:      HistogramEqualDistinctCount,
		BucketCount:        10,
		StringPrefixLength: 4,
	}
}

// Config bundles all tunables of the storage core.
type Config struct {
	Encoding   EncodingConfig   `yaml:"encoding"`
	Statistics StatisticsConfig `yaml:"statistics"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Encoding:   DefaultEncodingConfig(),
		Statistics: DefaultStatisticsConfig(),
	}
}

// LoadConfig parses a YAML configuration, filling omitted fields with
// defaults.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks configuration bounds.
func (c Config) Validate() error {
	if c.Encoding.FrameOfReferenceBlockSize <= 0 {
		return fmt.Errorf("frame_of_reference_block_size must be positive, got %d", c.Encoding.FrameOfReferenceBlockSize)
	}
	if c.Encoding.LZ4MaxInputSize <= 0 {
		return fmt.Errorf("lz4_max_input_size must be positive, got %d", c.Encoding.LZ4MaxInputSize)
	}
	if c.Statistics.BucketCount <= 0 {
		return fmt.Errorf("bucket_count must be positive, got %d", c.Statistics.BucketCount)
	}
	if c.Statistics.StringPrefixLength <= 0 || c.Statistics.StringPrefixLength > 7 {
		return fmt.Errorf("string_prefix_length must be in [1, 7], got %d", c.Statistics.StringPrefixLength)
	}
	return nil
}

// UnmarshalYAML parses a histogram type from its string form.
func (h *HistogramType) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	switch name {
	case "equal-distinct-count":
		*h = HistogramEqualDistinctCount
	case "equal-width":
		*h = HistogramEqualWidth
	case "generic":
		*h = HistogramGeneric
	default:
		return fmt.Errorf("unknown histogram type %q", name)
	}
	return nil
}

// MarshalYAML renders a histogram type as its string form.
func (h HistogramType) MarshalYAML() (any, error) {
	return h.String(), nil
}
