package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"handoff/pkg/api"
)

var (
	reportStatus    string
	reportOutputKey string
	reportError     string
)

var reportCmd = &cobra.Command{
	Use:   "report [job_id]",
	Short: "Report the terminal result of a claimed job",
	Long: `Record the outcome of a claimed job. Status must be "completed" or
"failed". Completed jobs need --output-key; failed jobs may carry --error.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if reportStatus != api.StatusCompleted && reportStatus != api.StatusFailed {
			cmd.Println("Status must be completed or failed")
			return
		}

		client := NewJobClient(viper.GetString("url"))

		err := client.ReportResult(args[0], api.ReportResultRequest{
			Status:    reportStatus,
			OutputKey: reportOutputKey,
			Error:     reportError,
		})
		if err != nil {
			cmd.Printf("Request failed: %v\n", err)
			return
		}

		cmd.Printf("Result recorded: %s\n", colorizeStatus(reportStatus))
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportStatus, "status", "", "Terminal status: completed or failed")
	reportCmd.Flags().StringVar(&reportOutputKey, "output-key", "", "Object key of the uploaded result archive")
	reportCmd.Flags().StringVar(&reportError, "error", "", "Error message for a failed job")
	reportCmd.MarkFlagRequired("status")

	rootCmd.AddCommand(reportCmd)
}
