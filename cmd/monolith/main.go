// monolith is the interactive shell for unifying multi-rate sensor logs.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mizzou-racing/monolith/internal/cli"
	"github.com/mizzou-racing/monolith/internal/config"
	"github.com/mizzou-racing/monolith/internal/logging"
	"github.com/mizzou-racing/monolith/internal/session"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfgPath := flag.String("config", "monolith.yaml", "config file path")
	dataDir := flag.String("data", "", "data directory (overrides config)")
	logLevel := flag.String("log-level", "", "log level (overrides config)")
	jsonLogs := flag.Bool("json", false, "JSON log output")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("monolith %s\n", Version)
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = config.DefaultConfig()
		} else {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
	}

	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *jsonLogs {
		cfg.Logging.JSON = true
	}

	// Log lines go to stderr so they never interleave with the prompt.
	logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.JSON)
	log := logging.Component("main")
	log.Info("monolith starting", "version", Version, "data_dir", cfg.DataDir)

	sess := session.New(cfg)
	cli.New(sess).Run()

	if d := sess.Dirty(); d.Data || d.Settings {
		log.Warn("exiting with unsaved changes", "data", d.Data, "settings", d.Settings)
	}
}
