package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wikirelay/wikirelay/tools/eventgen/internal/generator"
)

var (
	profilePath string
	seed        int64
	profile     generator.Profile
)

var rootCmd = &cobra.Command{
	Use:   "eventgen",
	Short: "Synthetic recent-change event generator",
	Long: `eventgen generates fake MediaWiki recent-change events for developing
and load testing the relay pipeline without hitting the real feed.

It can emit events to stdout or serve them over HTTP with the same
capability document and stream paths the real service exposes.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initProfile)

	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "YAML event profile (default: built-in mix)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed (0 for time-based)")
}

func initProfile() {
	if profilePath == "" {
		profile = generator.DefaultProfile()
		return
	}
	var err error
	profile, err = generator.LoadProfile(profilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load profile: %v\n", err)
		os.Exit(1)
	}
}
