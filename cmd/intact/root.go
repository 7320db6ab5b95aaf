package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/intact-tools/intact/pkg/intact/config"
	"github.com/intact-tools/intact/pkg/intact/logging"
	"github.com/intact-tools/intact/pkg/intact/output"
)

// Exit codes. Differences and bitrot are distinguishable from plain
// failure so scripts can branch on the result.
const (
	exitClean  = 0 // no differences
	exitFatal  = 1 // fatal error, or per-path warnings only
	exitDiff   = 2 // differences found, none of them bitrot
	exitBitrot = 3 // bitrot found
)

// exitError carries a process exit code through cobra's RunE chain.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// exitWithCode returns a silent exitError: the report has already been
// printed, only the code needs to travel.
func exitWithCode(code int) error {
	if code == exitClean {
		return nil
	}
	return &exitError{code: code}
}

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "intact",
		Short: "Audit directory trees for integrity drift",
		Long: `Intact maintains a checksum index over a directory tree and reports
how the tree has drifted since the index was written: added, removed,
updated, and moved files, plus bitrot (content changed while the
modification time did not).

The index lives in two files at the audited root: .checksums.sha256
(compatible with "sha256sum -c") and .checksums.meta. Paths matched by
.intactignore are excluded.

Examples:
  intact init ~/photos         # Build the initial index
  intact update ~/photos       # Incremental refresh (trusts metadata)
  intact audit ~/photos        # Re-hash everything, detect bitrot
  intact audit --update ~/p    # Audit, then persist the new index
  intact watch ~/photos        # Report live divergence from the index

Exit codes: 0 clean, 1 error, 2 differences, 3 bitrot.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/intact/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format: "+strings.Join(output.Available(), ", "))
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "hash worker count (0=auto)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress the progress line")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output on stderr")
	rootCmd.PersistentFlags().Bool("no-progress", false, "disable the progress line")
	rootCmd.PersistentFlags().String("log-level", "", "log file level (debug, info, warn, error)")

	// Bind flags to viper
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no_progress", rootCmd.PersistentFlags().Lookup("no-progress"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "intact"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "intact"))
		}
	}

	// Set environment variable prefix and enable auto env binding
	viper.SetEnvPrefix("INTACT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()

	setupLogging()
}

// setupLogging initializes the file logger; --verbose mirrors debug
// output to stderr. Logging failures are not fatal.
func setupLogging() {
	cfg := logging.Config{
		Level: viper.GetString("logging.level"),
		Path:  viper.GetString("logging.path"),
	}
	if cfg.Level == "" {
		cfg.Level = config.DefaultLogLevel
	}
	if getVerbose() {
		cfg.Level = "debug"
		cfg.ConsoleLevel = "debug"
	} else if cl := viper.GetString("logging.console_level"); cl != "" {
		cfg.ConsoleLevel = cl
	}

	if err := logging.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()

	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	if ee, ok := err.(*exitError); ok {
		if ee.msg != "" {
			printError("%s", ee.msg)
		}
		return err
	}
	printError("%v", err)
	return err
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// progressEnabled reports whether the live progress line should render.
func progressEnabled() bool {
	return !getQuiet() && !viper.GetBool("no_progress")
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
