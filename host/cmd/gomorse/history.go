package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gomorse/host/store"
)

var (
	historyLimit     int
	historyDirection string
)

// record logs e unless history is disabled; failures are only logged
func record(ctx context.Context, e store.Entry) {
	if noHistory {
		return
	}
	st, err := store.Open(historyPath)
	if err != nil {
		logger.Warn("failed to open history", "path", historyPath, "error", err)
		return
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("failed to close history", "error", cerr)
		}
	}()
	if _, err := st.Insert(ctx, e); err != nil {
		logger.Warn("failed to record message", "error", err)
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently sent and received messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var dir store.Direction
			switch historyDirection {
			case "", "all":
			case "tx", "sent":
				dir = store.Sent
			case "rx", "received":
				dir = store.Received
			default:
				return fmt.Errorf("--direction must be tx, rx or all")
			}
			if historyLimit <= 0 {
				return fmt.Errorf("--limit must be > 0")
			}

			st, err := store.Open(historyPath)
			if err != nil {
				return fmt.Errorf("failed to open db: %w", err)
			}
			defer st.Close()

			entries, err := st.Recent(cmd.Context(), historyLimit, dir)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tDIR\tWPM\tDURATION\tTEXT\tMORSE")
			for _, e := range entries {
				text := e.Text
				if e.Aborted {
					text += " (aborted)"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%s\t%s\n",
					e.At.Local().Format("2006-01-02 15:04:05"), e.Direction, e.WPM, e.Duration, text, e.Morse)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&historyLimit, "limit", 20, "number of messages")
	cmd.Flags().StringVar(&historyDirection, "direction", "all", "tx, rx or all")
	return cmd
}
