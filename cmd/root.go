package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"teamsbridge/pkg/config"
	"teamsbridge/pkg/digester"
	"teamsbridge/pkg/lang"
	"teamsbridge/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "teamsbridge",
	Short: "Digest messages between Microsoft Teams and a chatbot API",
	Long: "Converts Teams activities into chatbot API messages and chatbot answers into Teams cards. " +
		"The commands read JSON payloads from a file or stdin and print the digested result.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runtime bundles what every digest command needs.
type runtime struct {
	cfg      *config.Config
	lang     *lang.Catalog
	digester *digester.Digester
	log      *slog.Logger
}

func loadRuntime(component string, strict bool) (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	slog.SetDefault(appLogger)

	return newRuntime(cfg, strict, appLogger.With("component", component))
}

func newRuntime(cfg *config.Config, strict bool, log *slog.Logger) (*runtime, error) {
	catalog, err := lang.Load(cfg.Lang.Locale, cfg.Lang.Overrides)
	if err != nil {
		return nil, fmt.Errorf("load %s catalog: %w", cfg.Lang.Locale, err)
	}

	if strict {
		cfg.Digester.Strict = true
	}

	return &runtime{
		cfg:      cfg,
		lang:     catalog,
		digester: digester.New(cfg.Digester, catalog, log),
		log:      log,
	}, nil
}

// readInput reads the named file, or stdin when the name is empty or "-".
func readInput(args []string, stdin io.Reader) ([]byte, error) {
	name := ""
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	if name == "" || name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
