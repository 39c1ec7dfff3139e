package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/askcampus/internal/app"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"github.com/mohammad-safakhou/askcampus/models"
)

func askCMD(cfgPath *string) *cobra.Command {
	var threshold float64
	var maxPages int
	var plain bool

	var ask = &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the configured site's pages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer rt.close()

			svc, err := app.Build(ctx, rt.cfg, rt.logger, nil)
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(); err != nil {
					rt.logger.Warn("closing store", zap.Error(err))
				}
			}()

			opts := app.AskOptions{MaxPages: maxPages}
			if cmd.Flags().Changed("threshold") {
				opts.Threshold = &threshold
			}
			answer, err := svc.Ask(ctx, strings.Join(args, " "), opts)
			if err != nil {
				return err
			}
			return printAnswer(cmd.OutOrStdout(), answer, !plain)
		},
	}
	ask.Flags().Float64Var(&threshold, "threshold", 0, "relevance threshold override in [0,1]")
	ask.Flags().IntVar(&maxPages, "max-pages", 0, "maximum pages to fetch (0 = configured value)")
	ask.Flags().BoolVar(&plain, "plain", false, "print the answer without markdown rendering")
	return ask
}

func printAnswer(w io.Writer, answer app.Answer, render bool) error {
	r := answer.Result
	body := r.FinalAnswer
	if render {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			if out, err := renderer.Render(body); err == nil {
				body = out
			}
		}
	}
	fmt.Fprintln(w, strings.TrimRight(body, "\n"))
	printSources(w, r)
	if len(answer.Files) > 0 {
		fmt.Fprintln(w, "\nSaved:")
		keys := make([]string, 0, len(answer.Files))
		for k := range answer.Files {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, answer.Files[k])
		}
	}
	return nil
}

func printSources(w io.Writer, r models.ResearchResult) {
	if len(r.Sources) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for _, line := range helpers.FormatSources(r.Sources) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%s pages kept after filtering, %s duplicates removed (%s)\n",
		helpers.Thousands(len(r.FilteredPages)), helpers.Thousands(r.DuplicatesRemoved), r.State)
}
