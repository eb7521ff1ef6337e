// Command cobolanon anonymizes COBOL source trees: program names, copybook
// names, paragraphs, sections, data names, comments, and (optionally)
// string literal content, while preserving column layout and REDEFINES
// relationships.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ha1tch/cobolanon/config"
	"github.com/ha1tch/cobolanon/internal/logging"
	"github.com/ha1tch/cobolanon/mapping"
	"github.com/ha1tch/cobolanon/naming"
	"github.com/ha1tch/cobolanon/pipeline"
)

var (
	flagOutputDir     string
	flagConfigFile    string
	flagCopybookPaths []string
	flagMappingFile   string
	flagLoadMappings  string

	flagNoPrograms         bool
	flagNoCopybooks        bool
	flagNoData             bool
	flagNoParagraphs       bool
	flagNoComments         bool
	flagStripComments      bool
	flagNoPreserveExternal bool
	flagNoLiterals         bool

	flagDryRun       bool
	flagValidateOnly bool
	flagVerbose      bool
	flagQuiet        bool
	flagOverwrite    bool
	flagSeed         int64
	flagNamingScheme string
	flagLogLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "cobolanon INPUT_DIR --output DIR",
	Short: "Anonymize COBOL source code while preserving structure and logic",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnonymize,
}

func init() {
	rootCmd.Flags().StringVarP(&flagOutputDir, "output", "o", "anonymized", "Output directory for anonymized files")
	rootCmd.Flags().StringVarP(&flagConfigFile, "config", "c", "", "YAML configuration file")
	rootCmd.Flags().StringArrayVar(&flagCopybookPaths, "copybook-path", nil, "Additional path to search for copybooks (repeatable)")
	rootCmd.Flags().StringVar(&flagMappingFile, "mapping-file", "", "Path to save the mapping table (JSON)")
	rootCmd.Flags().StringVar(&flagLoadMappings, "load-mappings", "", "Load existing mappings from file to resume a prior run")

	rootCmd.Flags().BoolVar(&flagNoPrograms, "no-programs", false, "Don't anonymize program names")
	rootCmd.Flags().BoolVar(&flagNoCopybooks, "no-copybooks", false, "Don't anonymize copybook names")
	rootCmd.Flags().BoolVar(&flagNoData, "no-data", false, "Don't anonymize data names")
	rootCmd.Flags().BoolVar(&flagNoParagraphs, "no-paragraphs", false, "Don't anonymize paragraph names")
	rootCmd.Flags().BoolVar(&flagNoComments, "no-comments", false, "Don't anonymize comments")
	rootCmd.Flags().BoolVar(&flagStripComments, "strip-comments", false, "Remove comment content entirely")
	rootCmd.Flags().BoolVar(&flagNoPreserveExternal, "no-preserve-external", false, "Don't preserve EXTERNAL item names")
	rootCmd.Flags().BoolVar(&flagNoLiterals, "no-literals", false, "Don't anonymize string literal content")

	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Process files but don't write output")
	rootCmd.Flags().BoolVar(&flagValidateOnly, "validate-only", false, "Only validate files, don't transform")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress normal output")
	rootCmd.Flags().BoolVar(&flagOverwrite, "overwrite", false, "Overwrite existing output files")
	rootCmd.Flags().Int64Var(&flagSeed, "seed", 0, "Random seed for deterministic output")
	rootCmd.Flags().StringVar(&flagNamingScheme, "naming-scheme", "corporate", "Naming scheme: numeric, animals, food, fantasy, corporate")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "INFO", "Log level: DEBUG, INFO, WARNING, ERROR, CRITICAL")
}

func buildConfig(inputDir string) (config.Config, error) {
	cfg := config.Default()

	if flagConfigFile != "" {
		loaded, err := config.Load(flagConfigFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	override := config.Default()
	override.InputDir = inputDir
	override.OutputDir = flagOutputDir
	override.CopybookPaths = flagCopybookPaths
	override.MappingFile = flagMappingFile
	override.LoadMappings = flagLoadMappings

	override.AnonymizePrograms = !flagNoPrograms
	override.AnonymizeCopybooks = !flagNoCopybooks
	override.AnonymizeData = !flagNoData
	override.AnonymizeParagraphs = !flagNoParagraphs
	override.AnonymizeComments = !flagNoComments
	override.AnonymizeLiterals = !flagNoLiterals
	override.StripComments = flagStripComments
	override.PreserveExternal = !flagNoPreserveExternal

	override.DryRun = flagDryRun
	override.ValidateOnly = flagValidateOnly
	override.Verbose = flagVerbose
	override.Quiet = flagQuiet
	override.Overwrite = flagOverwrite
	override.Seed = flagSeed
	override.NamingScheme = naming.Scheme(flagNamingScheme)
	override.LogLevel = flagLogLevel

	return config.Merge(cfg, override), nil
}

func runAnonymize(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(args[0])
	if err != nil {
		return err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "Configuration error: %s\n", e)
		}
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Verbose: cfg.Verbose})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	if cfg.ValidateOnly {
		return runValidateOnly(cfg)
	}

	if !cfg.Quiet {
		fmt.Printf("cobolanon\nInput: %s\nOutput: %s\n\n", cfg.InputDir, cfg.OutputDir)
	}

	start := time.Now()
	runner := pipeline.New(cfg, logger)
	result, err := runner.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.MappingFile != "" && !cfg.DryRun {
		if err := writeMappingFile(result.MappingTable, cfg.MappingFile); err != nil {
			return err
		}
		if !cfg.Quiet {
			fmt.Printf("Saved mappings to %s\n", cfg.MappingFile)
		}
	}

	if !cfg.Quiet {
		fmt.Println()
		fmt.Println(result.Report.ToText())
		fmt.Printf("\nCompleted in %.2f seconds\n", time.Since(start).Seconds())
	}

	return nil
}

func runValidateOnly(cfg config.Config) error {
	if !cfg.Quiet {
		fmt.Printf("Validating files in %s...\n", cfg.InputDir)
	}

	runner := pipeline.New(cfg, nil)
	result, err := runner.Run()
	if err != nil {
		return err
	}

	vr := result.ValidateResult
	if !cfg.Quiet {
		fmt.Printf("Validated %d files\n", len(result.FileResults))
		if errs := vr.Errors(); len(errs) > 0 {
			fmt.Printf("\nErrors (%d):\n", len(errs))
			for _, e := range errs {
				fmt.Printf("  %s\n", e.String())
			}
		}
		if warnings := vr.Warnings(); len(warnings) > 0 {
			limit := 10
			fmt.Printf("\nWarnings (%d):\n", len(warnings))
			for i, w := range warnings {
				if i >= limit {
					fmt.Printf("  ... and %d more\n", len(warnings)-limit)
					break
				}
				fmt.Printf("  %s\n", w.String())
			}
		}
	}

	if !vr.IsValid() {
		os.Exit(1)
	}
	return nil
}

func writeMappingFile(table *mapping.Table, path string) error {
	jsonFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer jsonFile.Close()
	if err := table.WriteJSON(jsonFile); err != nil {
		return err
	}

	csvPath := strings.TrimSuffix(path, ".json") + ".csv"
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return err
	}
	defer csvFile.Close()
	return table.WriteCSV(csvFile)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
