package main

import (
	"errors"
	"fmt"

	"github.com/jonathan/power-automate-api/internal/config"
	"github.com/jonathan/power-automate-api/internal/logging"
	"github.com/jonathan/power-automate-api/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort     int
	serveKeysFile string
	serveStrategy string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the alert parsing and exclusion filter endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().StringVar(&serveKeysFile, "keys-file", "", "Path to the API keys file (overrides API_KEYS_FILE)")
	serveCmd.Flags().StringVar(&serveStrategy, "strategy", "", "Table reading strategy: pattern or markup (overrides TABLE_STRATEGY)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load()
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveKeysFile != "" {
		cfg.APIKeysFile = serveKeysFile
	}
	if serveStrategy != "" {
		cfg.TableStrategy = serveStrategy
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer := logging.Setup(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Dir:        cfg.LogDir,
		FileName:   config.LogFileName(),
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer func() { _ = closer.Close() }()

	keys, err := config.LoadKeyStore(cfg.APIKeysFile)
	if err != nil {
		logger.Error("failed to load API keys", "path", cfg.APIKeysFile, "error", err)
		return keyStoreExit(err)
	}
	logger.Info("loaded API keys", "count", keys.Len())

	srv, err := server.New(cfg, keys, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// keyStoreExit maps key loading failures to exit codes: 1 when the file
// cannot be read, 2 when it holds no usable key.
func keyStoreExit(err error) error {
	var noKeys *config.NoKeysError
	if errors.As(err, &noKeys) {
		return &exitError{code: 2, err: err}
	}
	return &exitError{code: 1, err: err}
}
