package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tender-barbarian/npm-lens/internal/cache"
	"github.com/tender-barbarian/npm-lens/internal/config"
	"github.com/tender-barbarian/npm-lens/internal/finder"
	"github.com/tender-barbarian/npm-lens/internal/indexer"
	"github.com/tender-barbarian/npm-lens/internal/logging"
	"github.com/tender-barbarian/npm-lens/internal/registry"
	"github.com/tender-barbarian/npm-lens/internal/search"
	"github.com/tender-barbarian/npm-lens/internal/tools"
)

// Version is set by build flags.
var Version = "0.1.0"

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the root command with its flags bound into v.
func newRootCmd(v *viper.Viper) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:          "npm-lens",
		Short:        "MCP server exposing the declarations of installed npm packages",
		Version:      Version,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(v, cfgFile)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./npm-lens.yaml or ~/.config/npm-lens/npm-lens.yaml)")
	flags.String("root", "", "project root holding package.json and node_modules (default: detected from the working directory)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")
	_ = v.BindPFlag("root", flags.Lookup("root"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))

	return cmd
}

func run(v *viper.Viper, cfgFile string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.Root != "" {
		if err := checkRoot(cfg.Root); err != nil {
			return err
		}
	}

	s := server.NewMCPServer("npm-lens", Version)
	tools.Register(s, newFinder(cfg, log))

	log.WithField("root", cfg.Root).Info("serving MCP on stdio")
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("serving MCP: %w", err)
	}
	return nil
}

// newFinder assembles the query stack described by cfg.
func newFinder(cfg *config.Config, log logrus.FieldLogger) *finder.Finder {
	idx := indexer.New(indexer.Options{
		MaxFiles:     cfg.Index.MaxFiles,
		MaxFileBytes: cfg.Index.MaxFileBytes,
		Ignore:       cfg.Index.Ignore,
	}, log)
	searcher := search.New(search.Options{
		MaxFileBytes: cfg.Index.MaxFileBytes,
		Ignore:       cfg.Index.Ignore,
	}, log)

	return finder.New(registry.New(log), cache.New(idx, log), searcher, finder.Options{
		Root:       cfg.Root,
		MaxLines:   cfg.Read.MaxLines,
		Padding:    cfg.Symbol.Padding,
		MaxResults: cfg.Search.MaxResults,
	}, log)
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("invalid --root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("--root %q is not a directory", root)
	}
	return nil
}
