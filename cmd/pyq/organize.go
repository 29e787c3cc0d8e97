package main

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/pbaille/pyq/internal/classifier"
	"github.com/pbaille/pyq/internal/config"
	"github.com/pbaille/pyq/internal/domain"
	"github.com/pbaille/pyq/internal/extract"
	"github.com/pbaille/pyq/internal/fetcher"
	"github.com/pbaille/pyq/internal/pipeline"
	"github.com/spf13/cobra"
)

func organizeCmd() *cobra.Command {
	var syllabus, syllabusFile string

	cmd := &cobra.Command{
		Use:   "organize [paper ...]",
		Short: "Group the questions of one or more papers (files or URLs) by syllabus unit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			text, err := readSyllabus(syllabus, syllabusFile, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx := pipeline.WithRunID(cmd.Context(), newRunID())
			docs, err := loadDocuments(ctx, args)
			if err != nil {
				return err
			}

			p, err := newPipeline(cfg)
			if err != nil {
				return err
			}
			result, err := p.Run(ctx, docs, text)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVarP(&syllabus, "syllabus", "s", "", "syllabus text, one unit per line")
	cmd.Flags().StringVarP(&syllabusFile, "syllabus-file", "f", "", "read the syllabus from a file (- for stdin)")
	return cmd
}

func newPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	svc, err := classifier.New(classifier.Options{
		Provider:  cfg.Classifier.Provider,
		APIKey:    cfg.Classifier.APIKey,
		Model:     cfg.Classifier.Model,
		BaseURL:   cfg.Classifier.BaseURL,
		MaxTokens: cfg.Classifier.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return pipeline.New(extract.New(cfg.Pipeline.Parallel()), svc, pipeline.Config{
		MaxDocuments: cfg.Pipeline.MaxDocuments,
		Timeout:      cfg.Pipeline.Timeout,
		Logf:         logf(),
	}), nil
}

// loadDocuments reads local paths and downloads URLs, keeping argument order
func loadDocuments(ctx context.Context, args []string) ([]domain.InputDocument, error) {
	var f *fetcher.Fetcher
	docs := make([]domain.InputDocument, 0, len(args))
	for _, arg := range args {
		if fetcher.IsURL(arg) {
			if f == nil {
				f = fetcher.New()
			}
			doc, err := f.Fetch(ctx, arg)
			if err != nil {
				return nil, fmt.Errorf("fetch %s: %w", arg, err)
			}
			docs = append(docs, doc)
			continue
		}

		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.InputDocument{
			Name:        filepath.Base(arg),
			ContentType: mime.TypeByExtension(filepath.Ext(arg)),
			Data:        data,
		})
	}
	return docs, nil
}
