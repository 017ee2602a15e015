package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbaille/contentforge/internal/api"
	"github.com/pbaille/contentforge/internal/domain"
	"github.com/pbaille/contentforge/internal/export"
	"github.com/pbaille/contentforge/internal/generator"
	"github.com/pbaille/contentforge/internal/planner"
	"github.com/pbaille/contentforge/internal/scorer"
	"github.com/pbaille/contentforge/internal/workflow"
)

func generateCmd() *cobra.Command {
	var (
		b     generator.Brief
		ref   string
		local bool
		pick  string
		day   string
		at    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate caption variants for a brief",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			d := a.deps(local)
			if ref != "" {
				fmt.Print("Fetching reference... ")
				if err := workflow.AttachReference(ctx, d.Fetcher, &b, ref); err != nil {
					fmt.Println("failed")
					return err
				}
				fmt.Println("done")
			}

			fmt.Printf("Generating with %s (%s plan)...\n", d.GeneratorName, a.tier.Name)
			variants, err := workflow.Run(ctx, d, a.sess, a.tier, b)
			if err != nil {
				return err
			}

			for _, v := range variants {
				printVariant(cmd.OutOrStdout(), v)
			}

			return a.finishGeneration(ctx, variants, pick, b.Platform, day, at)
		},
	}

	cmd.Flags().StringVar(&b.Brand, "brand", "", "brand name")
	cmd.Flags().StringVar(&b.Niche, "niche", "", "brand niche")
	cmd.Flags().StringVar(&b.Tone, "tone", "profissional", "tone: "+strings.Join(generator.Tones, ", "))
	cmd.Flags().StringVar((*string)(&b.Platform), "platform", string(domain.PlatformInstagram), "instagram or tiktok")
	cmd.Flags().StringVar((*string)(&b.CopyMode), "mode", string(domain.CopyModeSales), "copy mode: Venda, Storytelling or Educacional")
	cmd.Flags().StringVar(&b.Goal, "goal", "", "what the post should achieve")
	cmd.Flags().StringVar(&b.Extra, "extra", "", "extra details (offer, dates, product)")
	cmd.Flags().StringVar(&ref, "ref", "", "reference page URL")
	cmd.Flags().BoolVar(&local, "local", false, "use local templates instead of the model")
	cmd.Flags().StringVar(&pick, "pick", "", "schedule the variant with this id")
	cmd.Flags().StringVar(&day, "day", time.Now().Format(domain.DateLayout), "day for --pick (YYYY-MM-DD)")
	cmd.Flags().StringVar(&at, "time", "18:00", "time for --pick (HH:MM)")
	cmd.MarkFlagRequired("brand")
	return cmd
}

// finishGeneration schedules the picked variant, if any, and always saves:
// the batch already counts against today's quota.
func (a *app) finishGeneration(ctx context.Context, variants []domain.Variant, pick string, platform domain.Platform, day, at string) error {
	var pickErr error
	if pick != "" {
		if v, ok := findVariant(variants, pick); !ok {
			pickErr = fmt.Errorf("no variant %q in this batch", pick)
		} else if e, err := workflow.Schedule(a.planner, a.sess, a.tier, v, platform, day, at); err != nil {
			pickErr = err
		} else {
			fmt.Printf("Scheduled %s for %s %s (%s)\n", v.ID, e.Day, e.Time, shortID(e.ID))
		}
	}

	fmt.Printf("Generations today: %d/%d\n", a.sess.GenerationCountToday, a.tier.DailyGenerations)
	if err := a.save(ctx); err != nil {
		return errors.Join(pickErr, err)
	}
	return pickErr
}

func findVariant(variants []domain.Variant, id string) (domain.Variant, bool) {
	for _, v := range variants {
		if strings.EqualFold(v.ID, id) {
			return v, true
		}
	}
	return domain.Variant{}, false
}

func printVariant(w io.Writer, v domain.Variant) {
	marker := " "
	if v.Recommended {
		marker = "*"
	}
	fmt.Fprintf(w, "\n%s [%s] %s\n", marker, v.ID, v.Title)
	if v.Angle != "" {
		fmt.Fprintf(w, "  angle: %s\n", v.Angle)
	}
	fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(v.Caption, "\n", "\n  "))
	if len(v.Hashtags) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(v.Hashtags, " "))
	}
	if v.Metrics != nil {
		printMetrics(w, *v.Metrics)
	}
	if v.RepeatOf != "" {
		fmt.Fprintf(w, "  warning: close to planned post %s\n", shortID(v.RepeatOf))
	}
}

func printMetrics(w io.Writer, m domain.ScoreResult) {
	fmt.Fprintf(w, "  score %.1f  clarity %.1f  conversion %.1f  engagement %.1f  emotion %.1f  credibility %.1f  platform %.1f\n",
		m.Final, m.Clarity, m.Conversion, m.Engagement, m.Emotion, m.Credibility, m.PlatformFit)
}

func scoreCmd() *cobra.Command {
	var sc scorer.Context

	cmd := &cobra.Command{
		Use:   "score [caption]",
		Short: "Score a caption",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.tier.AnalysisEnabled {
				return fmt.Errorf("caption analysis is not available on the %s plan", a.tier.Name)
			}

			printMetrics(cmd.OutOrStdout(), scorer.Score(strings.Join(args, " "), sc))
			return nil
		},
	}

	cmd.Flags().StringVar(&sc.Objective, "goal", "", "post objective")
	cmd.Flags().StringVar((*string)(&sc.CopyMode), "mode", "", "copy mode")
	cmd.Flags().StringVar((*string)(&sc.Platform), "platform", "", "instagram or tiktok")
	return cmd
}

func scheduleCmd() *cobra.Command {
	var (
		in    planner.EventInput
		tags  []string
		score float64
	)

	cmd := &cobra.Command{
		Use:   "schedule [day] [time]",
		Short: "Add a post to the planner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			in.Day, in.Time = args[0], args[1]
			in.Hashtags = tags
			if cmd.Flags().Changed("score") {
				in.Score = &score
			}

			e, err := workflow.ScheduleAt(time.Now(), a.planner, a.sess, a.tier, in)
			if err != nil {
				return err
			}

			fmt.Printf("Scheduled: %s  %s %s  %s\n", shortID(e.ID), e.Day, e.Time, e.Title)
			return a.save(ctx)
		},
	}

	cmd.Flags().StringVar((*string)(&in.Platform), "platform", string(domain.PlatformInstagram), "instagram or tiktok")
	cmd.Flags().StringVar(&in.Title, "title", "", "post title")
	cmd.Flags().StringVar(&in.Caption, "caption", "", "caption text")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "hashtags, comma separated")
	cmd.Flags().Float64Var(&score, "score", 0, "known score (0-10)")
	cmd.MarkFlagRequired("title")
	return cmd
}

func weekCmd() *cobra.Command {
	var (
		anchor string
		offset int
		today  bool
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the weekly planner",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			a.sess.Roll(time.Now())
			d, err := a.sess.AnchorDate()
			if err != nil {
				return err
			}
			switch {
			case today:
				d = planner.Date(time.Now())
			case anchor != "":
				if d, err = planner.ParseDate(anchor); err != nil {
					return fmt.Errorf("invalid --anchor: %w", err)
				}
			}
			d = planner.ShiftWeek(d, offset)
			a.sess.SetAnchor(d)

			week := a.planner.EventsInWeek(d)
			fmt.Printf("Week %s → %s\n", week.Start, week.End)
			for _, day := range week.Days {
				fmt.Printf("\n%s %s\n", day.Label, day.Date)
				if len(day.Events) == 0 {
					fmt.Println("  -")
					continue
				}
				for _, e := range day.Events {
					fmt.Printf("  %s  %s  %-9s  %s%s\n", shortID(e.ID), e.Time, e.Platform, truncate(e.Title, 50), formatScore(e.Score))
				}
			}

			return a.save(ctx)
		},
	}

	cmd.Flags().StringVar(&anchor, "anchor", "", "any day in the week to show (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "move by this many weeks")
	cmd.Flags().BoolVar(&today, "today", false, "jump back to the current week")
	return cmd
}

func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return fmt.Sprintf("  (%.1f)", *score)
}

func doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done [id]",
		Short: "Mark a planned post as published",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.resolveID(args[0])
			if err != nil {
				return err
			}
			e, err := a.planner.Complete(id)
			if err != nil {
				return err
			}

			fmt.Printf("Done: %s  %s\n", shortID(e.ID), e.Title)
			return a.save(ctx)
		},
	}
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [id]",
		Short: "Remove a planned post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.resolveID(args[0])
			if err != nil {
				return err
			}
			if err := a.planner.Remove(id); err != nil {
				return err
			}

			fmt.Printf("Removed: %s\n", shortID(id))
			return a.save(ctx)
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List published posts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.tier.PerformanceEnabled {
				return fmt.Errorf("performance history is not available on the %s plan", a.tier.Name)
			}

			events := a.planner.History()
			if len(events) == 0 {
				fmt.Println("No published posts yet. Use 'contentforge done' to mark one.")
				return nil
			}
			if limit > 0 && len(events) > limit {
				events = events[:limit]
			}

			for _, e := range events {
				fmt.Printf("%s  %s %s  %-9s  %s%s\n", shortID(e.ID), e.Day, e.Time, e.Platform, truncate(e.Title, 50), formatScore(e.Score))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of posts to show")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		asCSV bool
		out   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the planner as text or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if asCSV && !a.tier.CSVExport {
				return fmt.Errorf("CSV export is not available on the %s plan", a.tier.Name)
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			events := a.planner.Events()
			if asCSV {
				err = export.WriteCSV(w, events)
			} else {
				err = export.WriteText(w, events)
			}
			if err != nil {
				return err
			}

			if out != "" && out != "-" {
				fmt.Printf("Exported %d posts to %s\n", len(events), out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of text")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func serveCmd() *cobra.Command {
	var (
		addr  string
		local bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Addr
			}

			server := api.New(api.Options{
				Addr:     addr,
				Tier:     a.tier,
				Planner:  a.planner,
				Session:  a.sess,
				Backend:  a.backend,
				Workflow: a.deps(local),
				Log:      a.log,
			})
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (default $CONTENTFORGE_ADDR or :8080)")
	cmd.Flags().BoolVar(&local, "local", false, "use local templates instead of the model")
	return cmd
}
