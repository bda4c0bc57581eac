package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var (
	sourceName    string
	sourceURL     string
	sourceAdapter string
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage registered price sources",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := http.NewRequest(http.MethodGet, baseURL+"/internal/admin/sources", nil)
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

var sourcesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new source",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := json.Marshal(map[string]string{
			"name":     sourceName,
			"base_url": sourceURL,
			"adapter":  sourceAdapter,
		})
		if err != nil {
			return err
		}

		req, err := http.NewRequest(http.MethodPost, baseURL+"/internal/admin/sources", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		addInternalAuth(req)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()
		return printJSON(cmd, resp)
	},
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Deactivate a source by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := http.NewRequest(http.MethodDelete, baseURL+"/internal/admin/sources/"+args[0], nil)
		if err != nil {
			return err
		}
		addInternalAuth(req)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNoContent {
			fmt.Fprintln(cmd.OutOrStdout(), "deactivated")
			return nil
		}
		return printJSON(cmd, resp)
	},
}

func addInternalAuth(req *http.Request) {
	if key := os.Getenv("INTERNAL_API_KEY"); key != "" {
		req.Header.Set("X-Internal-API-Key", key)
	}
}

func printJSON(cmd *cobra.Command, resp *http.Response) error {
	var out any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	sourcesAddCmd.Flags().StringVar(&sourceName, "name", "", "source name")
	sourcesAddCmd.Flags().StringVar(&sourceURL, "base-url", "", "source base URL")
	sourcesAddCmd.Flags().StringVar(&sourceAdapter, "adapter", "json_api", "adapter kind: json_api or html_scrape")
	sourcesAddCmd.MarkFlagRequired("name")
	sourcesAddCmd.MarkFlagRequired("base-url")

	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)
}
