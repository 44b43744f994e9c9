package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var fetchClaimant string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Claim the oldest pending job",
	Long: `Atomically claim the oldest pending job and print its download URLs.
An empty queue is not an error; the command reports that no job is pending.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := NewJobClient(viper.GetString("url"))

		job, err := client.FetchJob(fetchClaimant)
		if err != nil {
			cmd.Printf("Request failed: %v\n", err)
			return
		}

		if job == nil {
			cmd.Println("No job pending.")
			return
		}

		cmd.Printf("🔒 Job claimed!\n")
		cmd.Printf("%sJob ID:%s %s\n", colorDim, colorReset, job.JobID)
		cmd.Printf("%sStatus:%s %s\n", colorDim, colorReset, colorizeStatus(job.Status))

		if len(job.Files) > 0 {
			cmd.Printf("\nInputs (%d):\n", len(job.Files))
			for _, f := range job.Files {
				cmd.Printf("  %s\n    %s\n", f.Key, f.URL)
			}
		}

		if job.ReportURL != "" {
			cmd.Printf("\n%sReport result to:%s %s\n", colorDim, colorReset, job.ReportURL)
		}
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchClaimant, "claimant", "", "Claimant identity recorded on the job")

	rootCmd.AddCommand(fetchCmd)
}
