package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sentence-generator/internal/app"
	"sentence-generator/internal/coverage"
	"sentence-generator/internal/domain"
)

type coverageOptions struct {
	vocabulary string
	extraWords string
	limit      int
	output     string
}

func newCoverageCommand(root *rootOptions) *cobra.Command {
	opts := &coverageOptions{}
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Report how many stored sentences use each vocabulary word",
		Long: "A stored sentence is fully covered when every chunk is a vocabulary word, an extra word,\n" +
			"or contains no Chinese characters. Each word is counted against fully covered sentences only.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := root.buildApp(ctx, cfg, logger, true)
			if err != nil {
				return err
			}

			vocab, err := loadWords(cmd, a, opts.vocabulary)
			if err != nil {
				return err
			}
			var extra []string
			if opts.extraWords != "" {
				if extra, err = loadWords(cmd, a, opts.extraWords); err != nil {
					return err
				}
			}

			results, err := a.Results(ctx)
			if err != nil {
				return err
			}
			var sentences []domain.Sentence
			for _, r := range results {
				sentences = append(sentences, r.Sentences...)
			}

			rep := coverage.Analyze(vocab, extra, sentences)
			if err := rep.Write(cmd.OutOrStdout(), opts.limit); err != nil {
				return err
			}
			if opts.output == "" {
				return nil
			}
			return writeSentences(opts.output, rep.CoveredSentences)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.vocabulary, "vocabulary", "v", "", "primary vocabulary list: local path or s3://bucket/key")
	f.StringVar(&opts.extraWords, "extra-words", "", "additional accepted words, same formats as --vocabulary")
	f.IntVar(&opts.limit, "limit", 0, "only list words covered fewer than this many times")
	f.StringVarP(&opts.output, "output", "o", "", "write the fully covered sentences to this YAML file")
	_ = cmd.MarkFlagRequired("vocabulary")
	return cmd
}

func loadWords(cmd *cobra.Command, a *app.App, source string) ([]string, error) {
	items, err := a.LoadVocabulary(cmd.Context(), source)
	if err != nil {
		return nil, err
	}
	words := make([]string, len(items))
	for i, it := range items {
		words[i] = it.Text
	}
	return words, nil
}

func writeSentences(path string, sentences []domain.Sentence) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(sentences); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %q: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
