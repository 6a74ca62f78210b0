package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "nodegraph",
		Short:         "Node graph editor, document store and HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (YAML)")

	var logFile string
	editCmd := &cobra.Command{
		Use:   "edit [document-id]",
		Short: "Edit a stored document in the terminal, or start a new one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runEdit(cmd.Context(), configPath, id, logFile)
		},
	}
	editCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the editor owns the terminal")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document store over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Node template catalog operations",
	}
	templatesCheckCmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Parse template files and report diagnostics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkTemplates(cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
		},
	}
	templatesListCmd := &cobra.Command{
		Use:   "list",
		Short: "List the templates available to the editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTemplates(cmd.OutOrStdout(), configPath)
		},
	}
	templatesCmd.AddCommand(templatesCheckCmd, templatesListCmd)

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Create or drop the store schema",
	}
	schemaCmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Create the store schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSchema(cmd.Context(), configPath, true)
			},
		},
		&cobra.Command{
			Use:   "drop",
			Short: "Drop the store schema and every stored document",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSchema(cmd.Context(), configPath, false)
			},
		},
	)

	var exportOut string
	exportCmd := &cobra.Command{
		Use:   "export <document-id>",
		Short: "Print a stored document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), configPath, args[0], exportOut)
		},
	}
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Write to a file instead of stdout")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a document JSON file and print its ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), configPath, args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), cmd.OutOrStdout(), configPath)
		},
	}

	rootCmd.AddCommand(editCmd, serveCmd, templatesCmd, schemaCmd, exportCmd, importCmd, listCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
