package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwtrainer/internal/store"
	"github.com/ColonelBlimp/cwtrainer/internal/trainer"
)

var (
	statsUser  string
	statsMode  string
	statsLimit int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show best results and history for an account",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsUser, "user", "u", "", "account to report on (required)")
	statsCmd.Flags().StringVarP(&statsMode, "mode", "m", "", "only show this mode")
	statsCmd.Flags().IntVarP(&statsLimit, "limit", "l", store.HistoryLimit, "history rows to show")
	_ = statsCmd.MarkFlagRequired("user")
}

func runStats(cmd *cobra.Command, args []string) error {
	var mode trainer.Mode
	if statsMode != "" {
		m, err := trainer.ParseMode(statsMode)
		if err != nil {
			return err
		}
		mode = m
	}

	return withStore(func(st *store.Store) error {
		ctx := cmd.Context()
		user, err := st.LookupUser(ctx, statsUser)
		if err != nil {
			return err
		}

		modes := trainer.Modes
		if mode != "" {
			modes = []trainer.Mode{mode}
		}
		best := make([]store.Record, 0, len(modes))
		for _, m := range modes {
			rec, ok, err := st.BestResult(ctx, user.ID, m)
			if err != nil {
				return err
			}
			if ok {
				best = append(best, rec)
			}
		}
		history, err := st.History(ctx, user.ID, mode, statsLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Results for %s\n\n", user.Username)
		if len(history) == 0 {
			fmt.Fprintln(out, "no results yet")
			return nil
		}
		renderRecords(out, "Best", best)
		fmt.Fprintln(out)
		renderRecords(out, "History", history)
		return nil
	})
}

func renderRecords(w io.Writer, title string, records []store.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Mode", "Score", "WPM", "Accuracy", "Time", "Symbols", "Correct", "Wrong", "Date"})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.Mode.Title(),
			r.Score,
			fmt.Sprintf("%.1f", r.WPM),
			fmt.Sprintf("%.1f%%", r.Accuracy),
			fmt.Sprintf("%.1fs", r.Elapsed.Seconds()),
			r.SymbolsCompleted,
			r.Correct,
			r.Incorrect,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	t.Render()
}
