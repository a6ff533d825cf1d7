// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"github.com/tbsync/tbsync/testbench/logging"
)

type options struct {
	LogLevel      string        `long:"log-level" env:"TBSIM_LOG_LEVEL" default:"info" description:"log level"`
	Sequences     int           `long:"sequences" env:"TBSIM_SEQUENCES" default:"4" description:"number of sequences running concurrently on the sequencer"`
	Items         int           `long:"items" env:"TBSIM_ITEMS" default:"16" description:"write/read pairs issued by each sequence"`
	DriverLatency time.Duration `long:"driver-latency" env:"TBSIM_DRIVER_LATENCY" default:"1ms" description:"time the driver spends on each item"`
	MonitorDepth  int           `long:"monitor-depth" env:"TBSIM_MONITOR_DEPTH" default:"8" description:"capacity of the FIFO between driver and monitor"`
	ResponseDepth int           `long:"response-depth" env:"TBSIM_RESPONSE_DEPTH" default:"0" description:"response queue depth, 0 for unbounded"`
	HTTPAddr      string        `long:"http-addr" env:"TBSIM_HTTP_ADDR" description:"serve /metrics and /state on this address while the bench runs"`
}

func main() {
	opts := getCLIArgs()
	if err := logging.SetLogLevel(opts.LogLevel); err != nil {
		log.WithError(err).Fatal("Invalid log level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := newBench(opts)
	if err != nil {
		log.WithError(err).Fatal("Failed to build bench")
	}

	if opts.HTTPAddr != "" {
		srv := startHTTPServer(opts.HTTPAddr, b)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("HTTP server shutdown")
			}
		}()
	}

	summary, err := b.run(ctx)
	log.WithFields(log.Fields{
		"driven":     summary.Driven,
		"writes":     summary.Writes,
		"reads":      summary.Reads,
		"mismatches": summary.Mismatches,
	}).Info("Bench finished")
	if err != nil {
		log.WithError(err).Error("Bench failed")
		os.Exit(1)
	}
}

func getCLIArgs() options {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.WithError(err).Fatal("Failed to parse command line arguments:", os.Args)
	}
	return opts
}
