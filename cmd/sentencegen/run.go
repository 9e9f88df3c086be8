package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"sentence-generator/internal/usecase"
)

// errItemsFailed makes the process exit with status 2 when the run finished
// but some items failed.
var errItemsFailed = errors.New("some items failed")

type runOptions struct {
	vocabulary  string
	words       []string
	model       string
	mock        bool
	simple      bool
	concurrency int
	retries     int
	jsonOutput  bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate and store sentences for every word without a stored result",
		Example: `  sentencegen run -c config.yaml --vocabulary s3://vocab/hsk1.txt
  sentencegen run --mock --word 爱 --word 八`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.vocabulary == "" && len(opts.words) == 0 {
				return errors.New("one of --vocabulary or --word is required")
			}

			cfg, logger, err := root.loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("model") {
				cfg.Model.Name = opts.model
				cfg.Model.Provider = ""
			}
			if flags.Changed("simple") {
				cfg.Prompt.Simple = opts.simple
			}
			if flags.Changed("concurrency") {
				cfg.Run.Concurrency = opts.concurrency
			}
			if flags.Changed("retries") {
				cfg.Run.MaxRetries = opts.retries
			}

			ctx := cmd.Context()
			a, err := root.buildApp(ctx, cfg, logger, opts.mock)
			if err != nil {
				return err
			}

			var summary usecase.Summary
			if len(opts.words) > 0 {
				items, perr := usecase.ParseVocabulary([]byte(strings.Join(opts.words, "\n")), false)
				if perr != nil {
					return perr
				}
				summary, err = a.RunItems(ctx, items)
			} else {
				summary, err = a.Run(ctx, opts.vocabulary)
			}
			if err != nil {
				return err
			}

			if err := writeSummary(cmd.OutOrStdout(), summary, opts.jsonOutput); err != nil {
				return err
			}
			if summary.Failed > 0 {
				return errItemsFailed
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.vocabulary, "vocabulary", "v", "", "vocabulary source: local path or s3://bucket/key (.yaml/.yml or plain text)")
	f.StringArrayVarP(&opts.words, "word", "w", nil, "word to generate for; repeatable, overrides --vocabulary")
	f.StringVarP(&opts.model, "model", "m", "", "model name (Haiku, Sonnet, Opus, free, or a provider model id)")
	f.BoolVar(&opts.mock, "mock", false, "use the offline mock provider")
	f.BoolVar(&opts.simple, "simple", false, "restrict sentences to the most common characters")
	f.IntVar(&opts.concurrency, "concurrency", 0, "maximum generation requests in flight")
	f.IntVar(&opts.retries, "retries", 0, "retries per item after the first attempt")
	f.BoolVar(&opts.jsonOutput, "json", false, "print the summary as JSON")
	return cmd
}

func writeSummary(w io.Writer, s usecase.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	if _, err := fmt.Fprintf(w, "run %s: %d succeeded, %d failed, %d skipped\n", s.RunID, s.Succeeded, s.Failed, s.Skipped); err != nil {
		return err
	}
	for _, o := range s.Outcomes {
		if o.Status == usecase.StatusSucceeded || o.Reason == usecase.ReasonAlreadyCompleted {
			continue
		}
		line := fmt.Sprintf("  %-9s %s attempts=%d", o.Status, o.ID, o.Attempts)
		if o.Reason != "" {
			line += " reason=" + o.Reason
		}
		if o.Error != "" {
			line += " error=" + o.Error
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
