// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"github.com/flokiorg/blkreader/reader"
)

const (
	defaultConfigFilename = "blkreader.conf"
	defaultLogFilename    = "blkreader.log"
	defaultLogLevel       = "info"
)

// config defines blkreader's command-line and config-file options.
//
// See loadConfig for the two-pass load process.
type config struct {
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`

	MaxBlocks   uint32 `long:"max-blocks" description:"Stop after emitting this many blocks (0 = unlimited)"`
	MaxOrphans  int    `long:"max-orphans" description:"Stop once this many orphan blocks are queued (0 = unlimited)"`
	MaxFiles    int    `long:"max-files" description:"Process at most this many blk*.dat files (0 = unlimited)"`
	Drain       bool   `long:"drain" description:"Drain the final sub-confirmation-depth tail after reading completes"`
	Decode      bool   `long:"decode" description:"Decode each block's transactions instead of printing header-only info"`
	LogLevel    string `long:"log-level" description:"Logging level {trace, debug, info, warn, error, critical, off}"`
	LogFile     string `long:"log-file" description:"Log file path, rotated automatically; empty disables file logging"`
	MetricsAddr string `long:"metrics-addr" description:"host:port to serve Prometheus metrics on /metrics; empty disables"`

	Positional struct {
		Dir string `positional-arg-name:"dir" description:"directory containing blk*.dat files"`
	} `positional-args:"yes"`
}

func cleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.Replace(path, "~", home, 1)
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// loadConfig proceeds as follows:
//  1. Start with a default config with sane settings.
//  2. Pre-parse the command line to check for an alternative config file or
//     the version flag.
//  3. Load the config file, overwriting defaults with any specified options.
//  4. Parse CLI options again so they take precedence over the file.
func loadConfig() (*config, error) {
	cfg := config{
		ConfigFile: defaultConfigFilename,
		MaxBlocks:  reader.DefaultMaxBlocks,
		MaxOrphans: reader.DefaultMaxOrphans,
		LogLevel:   defaultLogLevel,
		LogFile:    defaultLogFilename,
	}

	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag|flags.PassDoubleDash)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return nil, err
		}
	}

	if preCfg.ShowVersion {
		fmt.Println("blkreader version", version())
		os.Exit(0)
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if preCfg.ConfigFile != "" {
		if err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile); err != nil {
			if _, ok := err.(*os.PathError); !ok {
				fmt.Fprintf(os.Stderr, "error parsing config file: %v\n", err)
				return nil, err
			}
		}
	}

	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if cfg.Positional.Dir == "" {
		return nil, fmt.Errorf("a block directory is required")
	}
	cfg.Positional.Dir = cleanAndExpandPath(cfg.Positional.Dir)
	cfg.LogFile = cleanAndExpandPath(cfg.LogFile)

	return &cfg, nil
}

func version() string {
	return "0.1.0"
}
