package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect refresh jobs",
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status [jobId]",
	Short: "Show the status of a refresh job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := http.NewRequest(http.MethodGet, baseURL+"/internal/jobs/"+args[0], nil)
		if err != nil {
			return err
		}
		addInternalAuth(req)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()
		return printJSON(cmd, resp)
	},
}

func init() {
	jobsCmd.AddCommand(jobsStatusCmd)
}
