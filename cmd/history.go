package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gwbench/internal/cli"
	"gwbench/internal/tui/history"
)

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	c := &cobra.Command{
		Use:   "history",
		Short: "List runs stored with --history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(v)
			if err != nil {
				return &exitError{code: exitSetup, err: err}
			}
			defer store.Close()

			items, err := store.List(v.GetInt("history.limit"))
			if err != nil {
				return &exitError{code: exitSetup, err: err}
			}

			out := cmd.OutOrStdout()
			switch {
			case v.GetBool("history.json"):
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			case cli.Interactive() && !v.GetBool("history.plain"):
				_, err := tea.NewProgram(history.NewModel(items), tea.WithAltScreen()).Run()
				return err
			}

			for _, item := range items {
				fmt.Fprintf(out, "%s  %s  %s  threads=%d  requests=%d  qps=%.2f  p99_ms=%.2f\n",
					item.ID,
					item.Timestamp.Format(time.RFC3339),
					item.Config.Endpoint,
					item.Config.Threads,
					item.Summary.Requests,
					item.Summary.QPS,
					item.Summary.P99Ms,
				)
			}
			return nil
		},
	}

	f := c.Flags()
	f.Int("limit", 20, "maximum number of runs to show, newest first")
	f.Bool("json", false, "print runs as JSON")
	f.Bool("plain", false, "print one line per run instead of the table browser")
	v.BindPFlag("history.limit", f.Lookup("limit"))
	v.BindPFlag("history.json", f.Lookup("json"))
	v.BindPFlag("history.plain", f.Lookup("plain"))
	return c
}
