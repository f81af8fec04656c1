// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	flags "github.com/jessevdk/go-flags"
	"github.com/jrick/logrotate/rotator"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flokiorg/blkreader/blockcache"
	"github.com/flokiorg/blkreader/chain"
	blog "github.com/flokiorg/blkreader/log"
	"github.com/flokiorg/blkreader/metrics"
	"github.com/flokiorg/blkreader/reader"
	"github.com/flokiorg/blkreader/wire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	logger, closeLog, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	chain.UseLogger(logger)
	reader.UseLogger(logger)
	wire.UseLogger(logger)

	var recorder *metrics.Recorder
	if cfg.MetricsAddr != "" {
		recorder = metrics.New()
		stopMetrics := serveMetrics(cfg.MetricsAddr, recorder, logger)
		defer stopMetrics()
	}

	var stop atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Infof("received interrupt, stopping after the current record")
		stop.Store(true)
	}()

	opts := readerOptions(cfg, recorder, &stop, logger)

	r := reader.New(cfg.Positional.Dir, opts)
	if err := r.Read(); err != nil {
		return err
	}
	if cfg.Drain {
		r.Drain()
	}
	return nil
}

func buildLogger(cfg *config) (logger blog.Logger, closeFn func(), err error) {
	level, ok := blog.LevelFromString(cfg.LogLevel)
	if !ok {
		return nil, nil, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}

	var out io.Writer = os.Stdout
	closeFn = func() {}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
			return nil, nil, err
		}
		r, err := rotator.New(cfg.LogFile, 10*1024, false, 3)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create log rotator: %w", err)
		}
		out = r
		closeFn = func() { r.Close() }
	}

	handler := blog.NewDefaultHandler(out)
	handler.SetLevel(level)
	return blog.NewSLogger(handler), closeFn, nil
}

func serveMetrics(addr string, recorder *metrics.Recorder, logger blog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(recorder.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("metrics server: %v", err)
		}
	}()

	return func() { srv.Close() }
}

func readerOptions(cfg *config, recorder *metrics.Recorder, stop *atomic.Bool, logger blog.Logger) reader.Options {
	opts := reader.DefaultOptions()
	opts.Metrics = recorder
	opts.StopFlag = stop

	if cfg.MaxBlocks == 0 {
		opts.MaxBlocks = nil
	} else {
		maxBlocks := cfg.MaxBlocks
		opts.MaxBlocks = &maxBlocks
	}

	if cfg.MaxOrphans == 0 {
		opts.MaxOrphans = nil
	} else {
		maxOrphans := cfg.MaxOrphans
		opts.MaxOrphans = &maxOrphans
	}

	if cfg.MaxFiles > 0 {
		maxFiles := cfg.MaxFiles
		opts.MaxBlkFiles = &maxFiles
	}

	var cache *blockcache.Cache
	if cfg.Decode {
		cache = blockcache.New(4096, recorder)
	}

	opts.BlockFunc = func(block wire.LazyBlock, height uint32) {
		if cache != nil {
			decoded, err := cache.Get(&block)
			if err != nil {
				logger.Errorf("decode %s: %v", block.ID(), err)
				return
			}
			fmt.Printf("%d %s txs=%d\n", height, block.ID(), len(decoded.Txs))
			return
		}
		fmt.Printf("%d %s prev=%s\n", height, block.ID(), block.PrevID())
	}

	opts.FileFunc = func(path string, height uint32, lastHeaderTime uint32) {
		logger.Debugf("finished %s height=%d last-header-time=%d", path, height, lastHeaderTime)
	}

	return opts
}
