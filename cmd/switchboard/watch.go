package main

import (
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lightswitch/switchboard/internal/app"
	"github.com/lightswitch/switchboard/internal/client"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	var (
		wsURL   string
		logPath string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the terminal observer",
		Long: `Connect to a controller and mirror its output lines in the terminal.

Keys 1-8 toggle lines 1-8, r reconnects for a fresh snapshot, d opens
the debug log and q quits.

Examples:
  switchboard watch
  switchboard watch --url=ws://pi.local:3000/ws --log=watch.log`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The TUI owns the terminal; send the standard logger elsewhere.
			if logPath != "" {
				f, err := tea.LogToFile(logPath, "watch")
				if err != nil {
					return err
				}
				defer f.Close()
			} else {
				log.SetOutput(io.Discard)
			}

			m := app.New(client.NewWSClient(wsURL), wsURL)
			_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&wsURL, "url", "u", "ws://127.0.0.1:3000/ws", "WebSocket URL of the controller")
	cmd.Flags().StringVar(&logPath, "log", "", "Write debug logs to this file")

	return cmd
}
