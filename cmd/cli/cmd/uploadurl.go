package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	uploadURLKey         string
	uploadURLJobID       string
	uploadURLContentType string
)

var uploadURLCmd = &cobra.Command{
	Use:   "upload-url",
	Short: "Get a presigned upload URL",
	Long: `Request a presigned PUT URL, either for an explicit object key or for a
job's result archive (--job-id). The URL is valid for a limited time and
needs no further credentials.`,
	Run: func(cmd *cobra.Command, args []string) {
		if uploadURLKey == "" && uploadURLJobID == "" {
			cmd.Println("Either --key or --job-id is required")
			return
		}

		client := NewJobClient(viper.GetString("url"))

		if uploadURLJobID != "" {
			signed, err := client.GetJobUploadURL(uploadURLJobID)
			if err != nil {
				cmd.Printf("Request failed: %v\n", err)
				return
			}
			printUploadURL(cmd, signed.Key, signed.URL)
			return
		}

		signed, err := client.GetUploadURL(uploadURLKey, uploadURLContentType)
		if err != nil {
			cmd.Printf("Request failed: %v\n", err)
			return
		}
		printUploadURL(cmd, signed.Key, signed.URL)
	},
}

func printUploadURL(cmd *cobra.Command, key, url string) {
	cmd.Printf("%sKey:%s %s\n", colorDim, colorReset, key)
	cmd.Printf("%sURL:%s %s\n", colorDim, colorReset, url)
	cmd.Println("\nUpload with:")
	cmd.Printf("  curl -X PUT --upload-file <file> '%s'\n", url)
}

func init() {
	uploadURLCmd.Flags().StringVar(&uploadURLKey, "key", "", "Object key to upload to")
	uploadURLCmd.Flags().StringVar(&uploadURLJobID, "job-id", "", "Job whose result archive will be uploaded")
	uploadURLCmd.Flags().StringVar(&uploadURLContentType, "content-type", "", "Content type the upload must use")

	rootCmd.AddCommand(uploadURLCmd)
}
