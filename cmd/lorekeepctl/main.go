package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "lorekeepctl",
		Short: "CLI client for the lorekeep REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8000", "Lorekeep service base URL")

	// search subcommand
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Semantic search across indexed entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			limit, _ := cmd.Flags().GetInt("limit")
			return runSearch(apiFlag, query, limit, os.Stdout)
		},
	}
	searchCmd.Flags().StringP("query", "q", "", "Search query text (required)")
	searchCmd.Flags().IntP("limit", "l", 10, "Maximum number of results")
	_ = searchCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(searchCmd)

	// generate subcommand
	generateCmd := &cobra.Command{
		Use:   "generate <entityType> <entityId>",
		Short: "Kick off summary generation for an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(apiFlag, args[0], args[1], os.Stdout)
		},
	}
	rootCmd.AddCommand(generateCmd)

	// status subcommand
	statusCmd := &cobra.Command{
		Use:   "status <entityType> <entityId>",
		Short: "Show the stored generation record for an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(apiFlag, args[0], args[1], os.Stdout)
		},
	}
	rootCmd.AddCommand(statusCmd)

	// note subcommand
	noteCmd := &cobra.Command{
		Use:   "note <subjectType> <subjectId> <text>",
		Short: "Attach a user note to a character, location or episode",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddNote(apiFlag, args[0], args[1], args[2], os.Stdout)
		},
	}
	rootCmd.AddCommand(noteCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
