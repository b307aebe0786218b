package main

import (
	"os"

	"github.com/spf13/cobra"

	"dicomdesk/internal/interfaces/cli/migrate"
	"dicomdesk/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dicomdesk",
		Short: "DicomDesk - clinical imaging session orchestrator",
		Long:  `DicomDesk runs the clinical imaging API server, remote session reclamation, and the DICOM ingestion pipeline.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
