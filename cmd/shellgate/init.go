package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/shellgate/shellgate/internal/builder"
)

func newInitCommand() *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively build a route config file",
		Long: `Launches a terminal wizard for entering method/path/handler triples.
Each route is validated with the same parser the server uses before it
is accepted. No handler is ever spawned by this command; it only writes
the resulting routes to a TOML config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(filePath)
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "shellgate.toml", "Config file to write routes into")

	return cmd
}

func runInit(filePath string) error {
	if !isatty() {
		return fmt.Errorf("init requires a terminal; write the TOML file directly instead")
	}

	p := tea.NewProgram(builder.New())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("route builder error: %w", err)
	}

	m := finalModel.(builder.Model)
	if !m.Saved() || len(m.Routes()) == 0 {
		return fmt.Errorf("cancelled, no routes saved")
	}

	if err := builder.Save(filePath, m.Routes()); err != nil {
		return fmt.Errorf("saving %q: %w", filePath, err)
	}

	fmt.Printf("saved %d route(s) to %s\n", len(m.Routes()), filePath)
	return nil
}

func isatty() bool {
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
