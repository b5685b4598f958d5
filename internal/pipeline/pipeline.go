package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/bnema/safari-blocker-converter/internal/aggregator"
	"github.com/bnema/safari-blocker-converter/internal/converter"
	"github.com/bnema/safari-blocker-converter/internal/emitter"
	"github.com/bnema/safari-blocker-converter/internal/fetcher"
	"github.com/bnema/safari-blocker-converter/internal/logging"
	"github.com/bnema/safari-blocker-converter/internal/models"
	"github.com/bnema/safari-blocker-converter/internal/parser"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
)

// ErrNoLists is returned when the config enables no filter list
var ErrNoLists = errors.New("no enabled filter lists found in config")

// Fetcher returns the raw content of a filter list source
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// RunOptions are per-run overrides of the config
type RunOptions struct {
	OutputDir string // overrides output.dir
	DryRun    bool
	Workers   int // overrides conversion.workers
}

// Pipeline downloads, converts, aggregates and writes filter lists
type Pipeline struct {
	cfg     models.Config
	fetcher Fetcher
	fs      afero.Fs
}

// New creates a pipeline. Output files are written to fs.
func New(cfg models.Config, f Fetcher, fs afero.Fs) *Pipeline {
	return &Pipeline{cfg: cfg, fetcher: f, fs: fs}
}

// ConverterOptions maps the conversion config to converter options
func ConverterOptions(c models.ConversionConfig) converter.Options {
	return converter.Options{
		TargetVersion:  c.TargetVersion,
		Optimize:       c.Optimize,
		EmitAdvanced:   c.EmitAdvanced,
		AdvancedFormat: c.AdvancedFormat,
		MaxRules:       c.MaxRules,
		MaxJSONBytes:   c.MaxJSONBytes,
	}
}

// Run converts every enabled list. Failures of single lists are part of
// the report; the returned error is set when the run itself failed or was
// cancelled, in which case nothing is written.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	ctx = logging.WithComponent(ctx, "pipeline")
	logger := logging.FromContext(ctx)

	lists := p.cfg.EnabledLists()
	if len(lists) == 0 {
		return nil, ErrNoLists
	}

	convOpts := ConverterOptions(p.cfg.Conversion)
	if err := convOpts.Validate(); err != nil {
		return nil, err
	}
	conv := converter.New(convOpts, *logger)

	workers := opts.Workers
	if workers <= 0 {
		workers = p.cfg.Conversion.Workers
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	report := &Report{
		RunID:     newRunID(),
		StartedAt: time.Now(),
		DryRun:    opts.DryRun,
	}
	logger.Info().Str("run_id", report.RunID).Int("lists", len(lists)).Int("workers", workers).Msg("starting conversion")

	index := make(map[string]int, len(p.cfg.Lists))
	for i, l := range p.cfg.Lists {
		index[l.Name] = i
	}

	wp := pool.NewWithResults[aggregator.ListResult]().WithMaxGoroutines(workers)
	for _, list := range lists {
		if ctx.Err() != nil {
			break
		}
		idx := index[list.Name]
		wp.Go(func() aggregator.ListResult {
			return p.processList(ctx, idx, list, conv)
		})
	}
	results := wp.Wait()

	if err := ctx.Err(); err != nil {
		logger.Warn().Err(err).Int("finished", len(results)).Msg("run cancelled, nothing written")
		return nil, err
	}

	agg := aggregator.New(p.cfg.Categories, aggregator.Options{Deduplicate: p.cfg.Output.Deduplicate}, *logger)
	out := agg.Aggregate(results)
	report.fill(out, results)

	if !opts.DryRun {
		dir := opts.OutputDir
		if dir == "" {
			dir = p.cfg.Output.Dir
		}
		w := emitter.NewWriter(p.fs, dir, p.cfg.Output.Indent, *logger)
		written, err := emitter.New(w, p.cfg.Output).WriteOutput(out, report.RunID)
		report.Written = written
		report.OutputDir = dir
		if err != nil {
			return report, err
		}
	}

	report.Duration = time.Since(report.StartedAt)
	logger.Info().
		Str("run_id", report.RunID).
		Int("converted", report.Stats.ConvertedCount).
		Int("advanced", report.Stats.AdvancedBlockingConvertedCount).
		Int("errors", report.Stats.ErrorsCount).
		Int("failed_lists", len(report.Errors)).
		Dur("duration", report.Duration).
		Msg("conversion finished")
	return report, nil
}

// processList runs fetch, decode, parse and convert for one list
func (p *Pipeline) processList(ctx context.Context, idx int, list models.FilterList, conv *converter.Converter) aggregator.ListResult {
	ctx = logging.WithList(ctx, list.Name)
	logger := logging.FromContext(ctx)
	res := aggregator.ListResult{Index: idx, List: list}

	fail := func(err error) aggregator.ListResult {
		logger.Warn().Err(err).Msg("list failed")
		res.Err = &models.ListError{List: list.Name, Category: list.Category, Err: err}
		return res
	}

	data, err := p.fetcher.Fetch(ctx, list.Source())
	if err != nil {
		return fail(err)
	}
	text, err := fetcher.Decode(data)
	if err != nil {
		return fail(err)
	}
	if fetcher.LooksLikeHTML(text) {
		return fail(fmt.Errorf("%w: received an HTML page", models.ErrParseFailure))
	}

	res.Result = conv.Convert(parser.Parse(text))
	logger.Info().
		Int("bytes", len(data)).
		Int("converted", res.Result.ConvertedCount).
		Int("advanced", res.Result.AdvancedBlockingConvertedCount).
		Int("errors", res.Result.ErrorsCount).
		Bool("over_limit", res.Result.OverLimit).
		Msg("list converted")
	return res
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
