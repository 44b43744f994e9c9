package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare [key...]",
	Short: "Register a job for a set of input files",
	Long: `Register a new job covering the given object keys. The response includes a
presigned upload URL for every key that is not yet in the blob store, plus
a download URL for the job manifest.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewJobClient(viper.GetString("url"))

		resp, err := client.PrepareJob(args)
		if err != nil {
			cmd.Printf("Request failed: %v\n", err)
			return
		}

		cmd.Printf("📦 Job registered!\n")
		cmd.Printf("%sJob ID:%s %s\n", colorDim, colorReset, resp.JobID)
		cmd.Printf("%sFiles:%s  %d\n", colorDim, colorReset, resp.FilesCount)

		if len(resp.UploadURLs) > 0 {
			cmd.Printf("\nUpload the missing inputs (%d):\n", len(resp.UploadURLs))
			for _, u := range resp.UploadURLs {
				cmd.Printf("  %s\n    %s\n", u.Key, u.URL)
			}
		} else {
			cmd.Println("\nAll inputs are already uploaded.")
		}

		if resp.JobFileURL != "" {
			cmd.Printf("\n%sManifest:%s %s\n", colorDim, colorReset, resp.JobFileURL)
		}
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
}
