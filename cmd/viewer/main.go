package main

import (
	"fmt"
	"log"
	"os"

	"bim-viewer/internal/common/config"
	"bim-viewer/internal/viewer/gateway"
	"bim-viewer/internal/viewer/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// ============================================================
// BIM Viewer Client
// ============================================================

func main() {
	cfg := config.Load()

	var backendURL string

	root := &cobra.Command{
		Use:   "viewer [ifc-file...]",
		Short: "Terminal BIM viewer for IFC models",
		Long: "Loads IFC files through the BIM IFC API server and inspects element\n" +
			"properties interactively. Click elements to select them, ctrl-click to\n" +
			"extend the selection, right-click for the context menu.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := gateway.New(backendURL)
			app := tui.NewApp(client, client, args)

			p := tea.NewProgram(app,
				tea.WithAltScreen(),
				tea.WithMouseAllMotion(),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run viewer: %w", err)
			}
			return nil
		},
	}

	root.Flags().StringVar(&backendURL, "backend", cfg.BackendURL, "base URL of the IFC backend")

	if err := root.Execute(); err != nil {
		log.Printf("viewer: %v", err)
		os.Exit(1)
	}
}
