package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var searchForceRefresh bool

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a one-shot search query against the service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]

		u, err := url.Parse(baseURL + "/api/v1/search")
		if err != nil {
			return fmt.Errorf("invalid --url: %w", err)
		}
		q := u.Query()
		q.Set("query", query)
		if searchForceRefresh {
			q.Set("force_refresh", "true")
		}
		u.RawQuery = q.Encode()

		resp, err := http.Get(u.String())
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		var out map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("search failed (%d): %v", resp.StatusCode, out)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchForceRefresh, "force-refresh", false, "bypass the cache and trigger a fresh scrape")
}
