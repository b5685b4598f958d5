package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/bnema/safari-blocker-converter/internal/config"
	"github.com/bnema/safari-blocker-converter/internal/converter"
	"github.com/bnema/safari-blocker-converter/internal/fetcher"
	"github.com/bnema/safari-blocker-converter/internal/models"
	"github.com/bnema/safari-blocker-converter/internal/parser"
	"github.com/bnema/safari-blocker-converter/internal/pipeline"
	"github.com/bnema/safari-blocker-converter/internal/schema"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		format      string
		diagnostics int
	)
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Convert a single local filter list and print statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			return a.runCheck(cmd, args[0], format, diagnostics)
		},
	}
	cmd.Flags().StringVar(&format, "format", pipeline.FormatText, "output format (text, json, yaml)")
	cmd.Flags().IntVar(&diagnostics, "diagnostics", 20, "number of rejected rules to print")
	return cmd
}

func (a *app) runCheck(cmd *cobra.Command, path, format string, diagnostics int) error {
	fetch := fetcher.New(a.cfg.HTTP, fetcher.WithFs(a.fs), fetcher.WithLogger(a.logger))
	data, err := fetch.Fetch(cmd.Context(), path)
	if err != nil {
		return err
	}
	text, err := fetcher.Decode(data)
	if err != nil {
		return err
	}

	conv := converter.New(pipeline.ConverterOptions(a.cfg.Conversion), a.logger)
	res := conv.Convert(parser.Parse(text))

	switch format {
	case pipeline.FormatJSON:
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(res)
	case pipeline.FormatYAML:
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	case pipeline.FormatText:
		a.printCheck(path, res, diagnostics)
		return nil
	}
	return fmt.Errorf("invalid --format %q, want text, json or yaml", format)
}

func (a *app) printCheck(path string, res *models.ConversionResult, diagnostics int) {
	a.printf("%s\n", path)
	a.printf("  %s\n", res.Message)

	if len(res.Kinds) > 0 {
		a.printf("\nFilters by kind:\n")
		for _, kind := range slices.Sorted(maps.Keys(res.Kinds)) {
			a.printf("  %-20s %d\n", kind, res.Kinds[kind])
		}
	}

	if len(res.ErrorReasons) > 0 {
		a.printf("\nErrors by reason:\n")
		reasons := slices.Collect(maps.Keys(res.ErrorReasons))
		slices.SortFunc(reasons, func(x, y string) int {
			if d := res.ErrorReasons[y] - res.ErrorReasons[x]; d != 0 {
				return d
			}
			if x < y {
				return -1
			}
			return 1
		})
		for _, r := range reasons {
			a.printf("  %6d  %s\n", res.ErrorReasons[r], r)
		}
	}

	if diagnostics > 0 && len(res.Diagnostics) > 0 {
		a.printf("\nRejected rules:\n")
		for _, d := range res.Diagnostics[:min(diagnostics, len(res.Diagnostics))] {
			a.printf("  %5d  %-50s %s\n", d.Line, d.Raw, d.Reason)
		}
		if rest := len(res.Diagnostics) - diagnostics; rest > 0 {
			a.printf("  ... and %d more\n", rest)
		}
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured filter lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			a.runList()
			return nil
		},
	}
}

func (a *app) runList() {
	a.printf("Configured filter lists:\n\n")
	for _, list := range a.cfg.Lists {
		status := "enabled"
		if !list.Enabled {
			status = "disabled"
		}
		file := list.Category + ".json"
		if cat, ok := a.cfg.Category(list.Category); ok {
			file = cat.File
		}
		a.printf("  [%s] %s -> %s\n", status, list.Name, file)
		a.printf("         %s\n\n", list.Source())
	}
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit()
		},
	}
}

func (a *app) runInit() error {
	path := config.DefaultPath
	if a.cfgFile != "" {
		path = a.cfgFile
	}

	exists, err := afero.Exists(a.fs, path)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("config file already exists: %s", path)
	}

	data, err := config.RenderDefault()
	if err != nil {
		return err
	}
	if err := a.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := afero.WriteFile(a.fs, path, data, 0o644); err != nil {
		return err
	}

	a.printf("Created config file: %s\n", path)
	return nil
}

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "schema <standard|advanced>",
		Short:     "Print the JSON schema of the generated files",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{schema.KindStandard, schema.KindAdvanced},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schema.Generate(args[0])
			if err != nil {
				return err
			}
			a.printf("%s\n", data)
			return nil
		},
	}
}
