package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Demo formatting pipeline commands",
	}

	cmd.AddCommand(newDemoSubmitCmd())
	cmd.AddCommand(newDemoStatusCmd())
	cmd.AddCommand(newDemoWatchCmd())

	return cmd
}

func newDemoSubmitCmd() *cobra.Command {
	var title string
	var words int

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a manuscript to the demo pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"title": title, "word_count": words}
			var result Job

			if err := client.Post("/api/v1/demo/jobs", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Manuscript title (required)")
	cmd.Flags().IntVar(&words, "words", 0, "Word count (required)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("words")

	return cmd
}

func newDemoStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a demo job's current stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Job

			if err := client.Get("/api/v1/demo/jobs/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newDemoWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Stream a demo job's progress until it completes",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := args[0]
			out := NewOutput(cfg.Output)

			err := streamTopic("demo:"+jobID, func(event, data string) bool {
				switch event {
				case "job_progress", "job_complete":
					var envelope struct {
						Payload struct {
							Stage    string `json:"stage"`
							Progress int    `json:"progress"`
						} `json:"payload"`
					}
					if err := json.Unmarshal([]byte(data), &envelope); err != nil {
						return true
					}
					out.PrintMessage(fmt.Sprintf("%s %d%% %s",
						progressBar(envelope.Payload.Progress),
						envelope.Payload.Progress,
						envelope.Payload.Stage))
					// Stop once the job reaches its terminal stage
					return event != "job_complete"
				}
				return true
			}, cfg.Output != "json")
			if err != nil {
				return err
			}

			// Show the final job state
			var result Job
			if err := client.Get("/api/v1/demo/jobs/"+jobID, &result); err != nil {
				return err
			}
			out.Print(result)
			return nil
		},
		Args: cobra.ExactArgs(1),
	}
}
