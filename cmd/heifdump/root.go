// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "heifdump",
	Short: "Inspect HEIF still-image containers and extract their HEVC bitstreams.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(logLevel, logJSON)
	},
	Version:         "v0.1.0",
	SilenceUsage:    true,
	TraverseChildren: true,
}

var (
	logLevel string
	logJSON  bool
)

// Execute registers the persistent logging flags on the root command
// (its child commands are added by the init functions of dump.go and
// extract.go) and runs it. Called once by main.main.
func Execute() int {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "INFO", "set log level")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as json instead of colorized console output")

	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func initLogger(logLevel string, logJSON bool) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05.999Z0700"

	var writer io.Writer
	if !logJSON {
		noColor := runtime.GOOS == "windows"
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339Nano, NoColor: noColor}
	} else {
		writer = os.Stderr
	}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()

	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "INFO":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "WARN":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
