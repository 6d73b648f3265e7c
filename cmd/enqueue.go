package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"resty.dev/v3"
)

func enqueueCmd() *cobra.Command {
	var (
		server   string
		bucket   string
		filename string
		filePath string
	)

	var command = &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a document on a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := resty.New().SetBaseURL(server)
			defer cli.Close()

			var out struct {
				ID *string `json:"id"`
			}
			resp, err := cli.R().
				SetBody(map[string]string{
					"bucket":    bucket,
					"filename":  filename,
					"file_path": filePath,
				}).
				SetResult(&out).
				Post("/tasks")
			if err != nil {
				return err
			}
			if resp.IsError() && resp.StatusCode() != 409 {
				return fmt.Errorf("server returned %s: %s", resp.Status(), resp.String())
			}

			if out.ID == nil {
				log.Info().Msgf("document %s/%s is already being processed", bucket, filename)
				return nil
			}
			log.Info().Msgf("task queued with id %s", *out.ID)
			return nil
		},
	}

	command.Flags().StringVar(&server, "server", "http://localhost:8080", "Queue server base URL")
	command.Flags().StringVar(&bucket, "bucket", "", "Storage bucket holding the document")
	command.Flags().StringVar(&filename, "filename", "", "Document filename within the bucket")
	command.Flags().StringVar(&filePath, "file-path", "", "Display path, defaults to filename")
	_ = command.MarkFlagRequired("bucket")
	_ = command.MarkFlagRequired("filename")

	return command
}
