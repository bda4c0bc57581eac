package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var baseURL string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "search-cli",
	Short: "Search Service CLI - a thin client for the search service HTTP API",
	Long: `A CLI tool for querying and administering a running search service.
It talks to the service over HTTP; it does not touch the database directly.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:3000", "base URL of the running search service")
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(jobsCmd)
}

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
