package main

import (
	"context"
	"fmt"

	"github.com/bnema/safari-blocker-converter/internal/fetcher"
	"github.com/bnema/safari-blocker-converter/internal/logging"
	"github.com/bnema/safari-blocker-converter/internal/models"
	"github.com/bnema/safari-blocker-converter/internal/pipeline"
	"github.com/spf13/cobra"
)

type convertFlags struct {
	dryRun       bool
	watch        bool
	strict       bool
	reportFormat string
}

func newConvertCmd(a *app) *cobra.Command {
	var f convertFlags
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert filter lists to Safari content blockers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, f)
		},
	}

	cmd.Flags().StringP("output", "o", "", "output directory (default: output.dir from config)")
	cmd.Flags().IntP("workers", "w", 0, "lists converted concurrently (default: conversion.workers from config)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "parse and convert without writing files")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "convert again whenever the config file changes")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "exit with an error when a list fails or a category is over limit")
	cmd.Flags().StringVar(&f.reportFormat, "report-format", pipeline.FormatText, "report format (text, json, yaml)")
	return cmd
}

func (a *app) runConvert(cmd *cobra.Command, f convertFlags) error {
	switch f.reportFormat {
	case pipeline.FormatText, pipeline.FormatJSON, pipeline.FormatYAML:
	default:
		return fmt.Errorf("invalid --report-format %q, want text, json or yaml", f.reportFormat)
	}

	err := a.setup(cmd, map[string]string{
		"output.dir":         "output",
		"conversion.workers": "workers",
	})
	if err != nil {
		return err
	}

	ctx := logging.WithContext(cmd.Context(), a.logger)
	err = a.convertOnce(ctx, a.cfg, f)
	if !f.watch {
		return err
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("conversion failed")
	}
	return a.watch(ctx, f)
}

func (a *app) convertOnce(ctx context.Context, cfg models.Config, f convertFlags) error {
	fetch := fetcher.New(cfg.HTTP, fetcher.WithFs(a.fs), fetcher.WithLogger(a.logger))
	report, err := pipeline.New(cfg, fetch, a.fs).Run(ctx, pipeline.RunOptions{DryRun: f.dryRun})
	if report != nil {
		if rerr := report.Render(a.stdout, f.reportFormat); rerr != nil {
			return rerr
		}
	}
	if err != nil {
		return err
	}
	if f.strict && !report.Clean() {
		return errStrict
	}
	return nil
}

// watch converts again on every valid config change until ctx is done
func (a *app) watch(ctx context.Context, f convertFlags) error {
	reload := make(chan models.Config, 1)
	a.loader.Watch(func(cfg models.Config, err error) {
		if err != nil {
			a.logger.Error().Err(err).Msg("config change rejected")
			return
		}
		select {
		case <-reload:
		default:
		}
		reload <- cfg
	})
	a.logger.Info().Str("file", a.loader.ConfigFile()).Msg("watching config for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-reload:
			a.logger.Info().Msg("config changed, converting again")
			if err := a.convertOnce(ctx, cfg, f); err != nil && ctx.Err() == nil {
				a.logger.Error().Err(err).Msg("conversion failed")
			}
		}
	}
}
