package main

import (
	"fmt"

	"github.com/lightswitch/switchboard/internal/client"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	var (
		baseURL string
		toggle  int
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the controller's current output state",
		Long: `Fetch /api/state from a controller and print the lines with their
decimal and hex values. With --toggle, flip one line (1-8) first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.NewHTTPClient(baseURL)

			var (
				st  *client.State
				err error
			)
			if toggle > 0 {
				st, err = c.Toggle(toggle - 1)
			} else {
				st, err = c.GetState()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "  Lines:    %s\n", formatLines(st.Lines))
			fmt.Fprintf(out, "  Decimal:  %d\n", st.Decimal)
			fmt.Fprintf(out, "  Hex:      #%s\n", st.Hex)
			fmt.Fprintf(out, "  Version:  %d\n", st.Version)
			return nil
		},
	}

	cmd.Flags().StringVarP(&baseURL, "url", "u", "http://127.0.0.1:3000", "Base HTTP URL of the controller")
	cmd.Flags().IntVarP(&toggle, "toggle", "t", 0, "Toggle this line (1-8) before printing")

	return cmd
}

func formatLines(lines []int) string {
	buf := make([]byte, 0, len(lines))
	for _, l := range lines {
		buf = append(buf, byte('0'+l&1))
	}
	return string(buf)
}
