package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	log      = logrus.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "stride",
		Short:         "whole-body walking controller for a simulated biped",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			log.SetOutput(os.Stderr)
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".stride", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newWalkCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCmd(),
		newCheckCmd(),
		newPresetsCmd(),
		newTuneCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
