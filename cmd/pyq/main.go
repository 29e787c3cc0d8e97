package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	"github.com/pbaille/pyq/internal/config"
	"github.com/pbaille/pyq/internal/pipeline"
	"github.com/pbaille/pyq/internal/store"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pyq",
		Short:         "Organize past exam questions by syllabus unit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "user database path (overrides auth.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline stages to stderr")

	rootCmd.AddCommand(organizeCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 when the input must change, 1 otherwise
func exitCode(err error) int {
	var perr *pipeline.Error
	if errors.As(err, &perr) && perr.Kind.InputFault() {
		return 2
	}
	return 1
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Auth.DB = config.ExpandHome(dbPath)
	}
	return cfg, nil
}

func getStore(cfg *config.Config) (*store.Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(cfg.Auth.DB)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(cfg.Auth.DB)
}

func logf() func(format string, args ...any) {
	if !verbose {
		return nil
	}
	return log.New(os.Stderr, "", log.LstdFlags).Printf
}

func newRunID() string {
	return ulid.MustNew(ulid.Now(), ulid.Monotonic(rand.Reader, 0)).String()
}

func readSyllabus(text, path string, stdin io.Reader) (string, error) {
	switch {
	case text != "" && path != "":
		return "", errors.New("use either --syllabus or --syllabus-file, not both")
	case path == "-":
		b, err := io.ReadAll(stdin)
		return string(b), err
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read syllabus: %w", err)
		}
		return string(b), nil
	}
	return text, nil
}
