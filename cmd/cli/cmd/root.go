package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "handoffctl",
	Short: "Handoffctl is a command line tool for interacting with the handoff service",
	Long: `handoffctl is the command-line interface for the handoff job service.

Handoff moves batches of files from submitters to workers through a blob
store. Submitters register jobs and upload inputs via presigned URLs;
workers fetch the oldest pending job, download its inputs, upload the
processed archive and report the result.

Common workflows:

  Register a job for two input files:
    handoffctl prepare in/report.pdf in/data.csv

  Get a presigned upload URL for a single object:
    handoffctl upload-url --key in/report.pdf

  Claim the oldest pending job (worker side):
    handoffctl fetch --claimant my-worker

  Check a job:
    handoffctl status <job-id>

  Report a result:
    handoffctl report <job-id> --status completed --output-key out/result.zip

Configuration:
  Set the API endpoint via environment variables or a config file:
    HANDOFF_URL    API endpoint (default: http://localhost:6161)`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".handoffctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".handoffctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "HANDOFF_VARNAME"
	viper.SetEnvPrefix("HANDOFF")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.handoffctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6161", "Handoff Controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
}
