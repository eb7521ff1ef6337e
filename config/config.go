// Package config loads and validates the flat run configuration for the
// anonymization pipeline, read from YAML with command-line overrides
// applied on top.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ha1tch/cobolanon/naming"
)

// Config is the complete, flattened run configuration.
type Config struct {
	InputDir      string   `yaml:"input_dir"`
	OutputDir     string   `yaml:"output_dir"`
	Extensions    []string `yaml:"extensions"`
	Encoding      string   `yaml:"encoding"`
	CopybookPaths []string `yaml:"copybook_paths"`
	MappingFile   string   `yaml:"mapping_file"`
	LoadMappings  string   `yaml:"load_mappings"`

	AnonymizePrograms  bool `yaml:"anonymize_programs"`
	AnonymizeCopybooks bool `yaml:"anonymize_copybooks"`
	AnonymizeData      bool `yaml:"anonymize_data"`
	AnonymizeParagraphs bool `yaml:"anonymize_paragraphs"`
	AnonymizeSections  bool `yaml:"anonymize_sections"`
	AnonymizeComments  bool `yaml:"anonymize_comments"`
	AnonymizeLiterals  bool `yaml:"anonymize_literals"`
	StripComments      bool `yaml:"strip_comments"`
	PreserveExternal   bool `yaml:"preserve_external"`
	CleanSequenceArea  bool `yaml:"clean_sequence_area"`

	ValidateColumns     bool `yaml:"validate_columns"`
	ValidateIdentifiers bool `yaml:"validate_identifiers"`

	DryRun       bool `yaml:"dry_run"`
	ValidateOnly bool `yaml:"validate_only"`

	Verbose      bool          `yaml:"verbose"`
	Quiet        bool          `yaml:"quiet"`
	Seed         int64         `yaml:"seed"`
	NamingScheme naming.Scheme `yaml:"naming_scheme"`
	LogLevel     string        `yaml:"log_level"`
	Overwrite    bool          `yaml:"overwrite"`
}

// Default returns the configuration used when no file or overrides are
// supplied.
func Default() Config {
	return Config{
		InputDir:            ".",
		OutputDir:           "anonymized",
		Extensions:          []string{".cob", ".cbl", ".cpy"},
		Encoding:            "latin-1",
		AnonymizePrograms:   true,
		AnonymizeCopybooks:  true,
		AnonymizeData:       true,
		AnonymizeParagraphs: true,
		AnonymizeSections:   true,
		AnonymizeComments:   true,
		AnonymizeLiterals:   true,
		CleanSequenceArea:   true,
		ValidateColumns:     true,
		ValidateIdentifiers: true,
		NamingScheme:        naming.Corporate,
		LogLevel:            "INFO",
	}
}

// Load reads a YAML configuration file from path, starting from Default
// and overwriting whichever fields the file sets.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var validLogLevels = map[string]bool{
	"DEBUG": true, "INFO": true, "WARNING": true, "ERROR": true, "CRITICAL": true,
}

var validSchemes = map[naming.Scheme]bool{
	naming.Numeric: true, naming.Animals: true, naming.Food: true, naming.Fantasy: true, naming.Corporate: true,
}

// Validate checks cfg for structural problems, returning every error found
// rather than stopping at the first.
func (c Config) Validate() []string {
	var errs []string

	if _, err := os.Stat(c.InputDir); err != nil {
		errs = append(errs, fmt.Sprintf("input directory does not exist: %s", c.InputDir))
	}

	if !c.ValidateOnly && !c.DryRun {
		if info, err := os.Stat(c.OutputDir); err == nil && !info.IsDir() {
			errs = append(errs, fmt.Sprintf("output path is not a directory: %s", c.OutputDir))
		}
	}

	if c.MappingFile != "" {
		if info, err := os.Stat(c.MappingFile); err == nil && info.IsDir() {
			errs = append(errs, fmt.Sprintf("mapping file is not a file: %s", c.MappingFile))
		}
	}

	for _, cp := range c.CopybookPaths {
		if _, err := os.Stat(cp); err != nil {
			errs = append(errs, fmt.Sprintf("copybook path does not exist: %s", cp))
		}
	}

	if !validLogLevels[strings.ToUpper(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s", c.LogLevel))
	}

	if !validSchemes[c.NamingScheme] {
		errs = append(errs, fmt.Sprintf("invalid naming scheme: %s", c.NamingScheme))
	}

	return errs
}

// IsValid reports whether Validate found no problems.
func (c Config) IsValid() bool {
	return len(c.Validate()) == 0
}

// Merge layers override's non-default fields on top of base, matching the
// Python implementation's merge_configs: a field only takes override's
// value when that value differs from Default's.
func Merge(base, override Config) Config {
	def := Default()
	merged := base

	if override.InputDir != def.InputDir {
		merged.InputDir = override.InputDir
	}
	if override.OutputDir != def.OutputDir {
		merged.OutputDir = override.OutputDir
	}
	if len(override.Extensions) > 0 && !stringSlicesEqual(override.Extensions, def.Extensions) {
		merged.Extensions = override.Extensions
	}
	if override.Encoding != def.Encoding {
		merged.Encoding = override.Encoding
	}
	if len(override.CopybookPaths) > 0 {
		merged.CopybookPaths = override.CopybookPaths
	}
	if override.MappingFile != def.MappingFile {
		merged.MappingFile = override.MappingFile
	}
	if override.LoadMappings != def.LoadMappings {
		merged.LoadMappings = override.LoadMappings
	}
	if override.NamingScheme != def.NamingScheme {
		merged.NamingScheme = override.NamingScheme
	}
	if override.LogLevel != def.LogLevel {
		merged.LogLevel = override.LogLevel
	}
	if override.Seed != def.Seed {
		merged.Seed = override.Seed
	}

	merged.AnonymizePrograms = override.AnonymizePrograms
	merged.AnonymizeCopybooks = override.AnonymizeCopybooks
	merged.AnonymizeData = override.AnonymizeData
	merged.AnonymizeParagraphs = override.AnonymizeParagraphs
	merged.AnonymizeSections = override.AnonymizeSections
	merged.AnonymizeComments = override.AnonymizeComments
	merged.AnonymizeLiterals = override.AnonymizeLiterals
	merged.StripComments = override.StripComments
	merged.PreserveExternal = override.PreserveExternal
	merged.CleanSequenceArea = override.CleanSequenceArea
	merged.ValidateColumns = override.ValidateColumns
	merged.ValidateIdentifiers = override.ValidateIdentifiers
	merged.DryRun = override.DryRun
	merged.ValidateOnly = override.ValidateOnly
	merged.Verbose = override.Verbose
	merged.Quiet = override.Quiet
	merged.Overwrite = override.Overwrite

	return merged
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
