package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fxposquad/termbot/internal/llm"
	"github.com/fxposquad/termbot/internal/store"
)

const rule = "─"

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the event log of lookups, quiz answers and LLM calls",
}

// withEvents opens the event log, runs fn and closes the log.
func withEvents(cmd *cobra.Command, fn func(repo store.EventRepo, out io.Writer) error) error {
	repo, closer, err := openEvents(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()
	return fn(repo, cmd.OutOrStdout())
}

func queryOpts(cmd *cobra.Command) store.QueryOpts {
	limit, _ := cmd.Flags().GetInt("limit")
	user, _ := cmd.Flags().GetString("user")
	return store.QueryOpts{Limit: limit, UserID: user}
}

var eventsLookupsCmd = &cobra.Command{
	Use:   "lookups",
	Short: "List recent term lookups",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		return withEvents(cmd, func(repo store.EventRepo, out io.Writer) error {
			events, err := repo.QueryLookups(cmd.Context(), queryOpts(cmd))
			if err != nil {
				return fmt.Errorf("query lookups: %w", err)
			}
			if len(events) == 0 {
				fmt.Fprintln(out, "No lookups found.")
				return nil
			}

			fmt.Fprintf(out, "%-5s  %-19s  %-10s  %-10s  %-24s  %5s  %s\n",
				"ID", "Timestamp", "User", "Kind", "Key", "Score", "Query")
			fmt.Fprintln(out, strings.Repeat(rule, 100))
			for _, e := range events {
				if kind != "" && e.Kind != kind {
					continue
				}
				mode := ""
				if e.Detailed {
					mode = " [d]"
				}
				fmt.Fprintf(out, "%-5d  %-19s  %-10s  %-10s  %-24s  %5.2f  %s%s\n",
					e.ID,
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					truncate(e.UserID, 10),
					e.Kind,
					truncate(e.Key, 24),
					e.Score,
					e.Query,
					mode,
				)
			}
			return nil
		})
	},
}

var eventsAnswersCmd = &cobra.Command{
	Use:   "answers",
	Short: "List recent quiz answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEvents(cmd, func(repo store.EventRepo, out io.Writer) error {
			events, err := repo.QueryAnswers(cmd.Context(), queryOpts(cmd))
			if err != nil {
				return fmt.Errorf("query answers: %w", err)
			}
			if len(events) == 0 {
				fmt.Fprintln(out, "No quiz answers found.")
				return nil
			}

			fmt.Fprintf(out, "%-5s  %-19s  %-10s  %-6s  %-24s  %-9s  %8s\n",
				"ID", "Timestamp", "User", "Flow", "Key", "Outcome", "Elapsed")
			fmt.Fprintln(out, strings.Repeat(rule, 92))
			for _, e := range events {
				fmt.Fprintf(out, "%-5d  %-19s  %-10s  %-6s  %-24s  %-9s  %7.1fs\n",
					e.ID,
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					truncate(e.UserID, 10),
					e.Flow,
					truncate(e.Key, 24),
					e.Outcome,
					e.Elapsed.Seconds(),
				)
			}
			return nil
		})
	},
}

var eventsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "List recent LLM and embedding requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		purpose, _ := cmd.Flags().GetString("purpose")
		return withEvents(cmd, func(repo store.EventRepo, out io.Writer) error {
			events, err := repo.QueryLLMEvents(cmd.Context(), queryOpts(cmd))
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			if len(events) == 0 {
				fmt.Fprintln(out, "No LLM events found.")
				return nil
			}

			fmt.Fprintf(out, "%-5s  %-19s  %-14s  %-28s  %-6s  %-6s  %-7s  %s\n",
				"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
			fmt.Fprintln(out, strings.Repeat(rule, 100))
			for _, e := range events {
				if purpose != "" && e.Purpose != purpose {
					continue
				}
				ok := "✓"
				if !e.Success {
					ok = "✗"
				}
				fmt.Fprintf(out, "%-5d  %-19s  %-14s  %-28s  %-6d  %-6d  %-7d  %s\n",
					e.ID,
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.Purpose,
					truncate(e.Model, 28),
					e.InputTokens,
					e.OutputTokens,
					e.LatencyMs,
					ok,
				)
			}
			return nil
		})
	},
}

var eventsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}
		return withEvents(cmd, func(repo store.EventRepo, out io.Writer) error {
			e, err := repo.GetLLMEvent(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", id)
			}

			sep := strings.Repeat(rule, 60)
			fmt.Fprintf(out, "ID:        %d\n", e.ID)
			fmt.Fprintf(out, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
			fmt.Fprintf(out, "Model:     %s\n", e.Model)
			fmt.Fprintf(out, "Purpose:   %s\n", e.Purpose)
			fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
			fmt.Fprintf(out, "Latency:   %dms\n", e.LatencyMs)
			fmt.Fprintf(out, "Success:   %v\n", e.Success)
			if e.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:     %s\n", e.ErrorMessage)
			}

			for _, part := range []struct{ title, body string }{
				{"REQUEST", e.RequestBody},
				{"RESPONSE", e.ResponseBody},
			} {
				fmt.Fprintln(out)
				fmt.Fprintln(out, sep)
				fmt.Fprintln(out, part.title)
				fmt.Fprintln(out, sep)
				if part.body == "" {
					fmt.Fprintln(out, "(not captured)")
					continue
				}
				fmt.Fprintln(out, part.body)
			}
			return nil
		})
	},
}

var eventsTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show every event type in sequence order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEvents(cmd, func(repo store.EventRepo, out io.Writer) error {
			entries, err := repo.Timeline(cmd.Context(), queryOpts(cmd))
			if err != nil {
				return fmt.Errorf("query timeline: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No events found.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%6d  %-19s  %-7s  %s\n",
					e.Sequence, e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Type, e.Summary)
			}
			return nil
		})
	},
}

var eventsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lookup branches, quiz accuracy per term and LLM cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEvents(cmd, func(repo store.EventRepo, out io.Writer) error {
			ctx := cmd.Context()

			kinds, err := repo.LookupsByKind(ctx)
			if err != nil {
				return fmt.Errorf("query lookups: %w", err)
			}
			fmt.Fprintln(out, "Lookups by Branch")
			fmt.Fprintln(out, strings.Repeat(rule, 32))
			var lookups int
			for _, k := range kinds {
				fmt.Fprintf(out, "%-16s  %8d\n", k.Kind, k.Count)
				lookups += k.Count
			}
			fmt.Fprintf(out, "%-16s  %8d\n", "TOTAL", lookups)

			terms, err := repo.AnswersByTerm(ctx)
			if err != nil {
				return fmt.Errorf("query answers: %w", err)
			}
			if len(terms) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Quiz Answers by Term")
				fmt.Fprintln(out, strings.Repeat(rule, 72))
				fmt.Fprintf(out, "%-24s  %7s  %9s  %7s  %8s  %8s\n",
					"Term", "Correct", "Incorrect", "Expired", "Accuracy", "Avg s")
				fmt.Fprintln(out, strings.Repeat(rule, 72))
				for _, t := range terms {
					acc := float64(t.Correct) / float64(max(t.Total(), 1)) * 100
					fmt.Fprintf(out, "%-24s  %7d  %9d  %7d  %7.0f%%  %8.1f\n",
						truncate(t.Key, 24), t.Correct, t.Incorrect, t.Expired, acc, t.AvgElapsed.Seconds())
				}
			}

			return printLLMUsage(cmd, repo, out)
		})
	},
}

func printLLMUsage(cmd *cobra.Command, repo store.EventRepo, out io.Writer) error {
	ctx := cmd.Context()
	stats, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		return fmt.Errorf("query usage: %w", err)
	}
	if len(stats) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "LLM Usage by Purpose")
	fmt.Fprintln(out, strings.Repeat(rule, 72))
	fmt.Fprintf(out, "%-16s  %6s  %10s  %10s  %10s  %8s\n",
		"Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
	fmt.Fprintln(out, strings.Repeat(rule, 72))
	var totalCalls, totalIn, totalOut int
	for _, st := range stats {
		fmt.Fprintf(out, "%-16s  %6d  %10d  %10d  %10d  %8d\n",
			st.Purpose, st.Calls, st.InputTokens, st.OutputTokens, st.InputTokens+st.OutputTokens, st.AvgLatencyMs)
		totalCalls += st.Calls
		totalIn += st.InputTokens
		totalOut += st.OutputTokens
	}
	fmt.Fprintln(out, strings.Repeat(rule, 72))
	fmt.Fprintf(out, "%-16s  %6d  %10d  %10d  %10d\n", "TOTAL", totalCalls, totalIn, totalOut, totalIn+totalOut)

	models, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		return fmt.Errorf("query model usage: %w", err)
	}
	if len(models) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Estimated Cost (USD)")
	fmt.Fprintln(out, strings.Repeat(rule, 72))
	var total float64
	var unknown []string
	for _, mu := range models {
		cost := llm.LookupCost(mu.Model)
		if cost == nil {
			unknown = append(unknown, mu.Model)
			fmt.Fprintf(out, "%-32s  %6d  %10s\n", truncate(mu.Model, 32), mu.Calls, "?")
			continue
		}
		c := cost.Cost(mu.InputTokens, mu.OutputTokens)
		total += c
		fmt.Fprintf(out, "%-32s  %6d  %10s\n", truncate(mu.Model, 32), mu.Calls, formatCost(c))
	}
	label := "TOTAL"
	if len(unknown) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Fprintln(out, strings.Repeat(rule, 72))
	fmt.Fprintf(out, "%-32s  %6s  %10s\n", label, "", formatCost(total))
	if len(unknown) > 0 {
		fmt.Fprintf(out, "\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
	}
	return nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	for _, c := range []*cobra.Command{eventsLookupsCmd, eventsAnswersCmd, eventsLLMCmd, eventsTimelineCmd} {
		c.Flags().IntP("limit", "n", 20, "Number of events to show")
		c.Flags().StringP("user", "u", "", "Only events of this user")
	}
	eventsLookupsCmd.Flags().StringP("kind", "k", "", "Filter by branch (exact, alias, semantic, suggestion, not_found)")
	eventsLLMCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. enrich, embed-index, embed-query)")

	eventsCmd.AddCommand(eventsLookupsCmd)
	eventsCmd.AddCommand(eventsAnswersCmd)
	eventsCmd.AddCommand(eventsLLMCmd)
	eventsCmd.AddCommand(eventsViewCmd)
	eventsCmd.AddCommand(eventsTimelineCmd)
	eventsCmd.AddCommand(eventsStatsCmd)
}
