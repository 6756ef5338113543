package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/logging"
	"github.com/goliatone/go-formengine/pkg/orchestrator"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/jsontree"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
	"github.com/goliatone/go-formengine/pkg/renderers/vanilla"
	"github.com/goliatone/go-formengine/pkg/schema"
)

type globalFlags struct {
	logLevel  string
	logFormat string
	presets   []string
}

// app holds the streams and flags shared by every subcommand.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	flags  globalFlags
	logger *zap.Logger
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "formengine",
		Short:         "Render and fill JSON form documents",
		Long:          `formengine turns form documents (or OpenAPI operations) into rendered forms, interactive terminal sessions and validated submissions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := a.flags.logLevel
			if level == "" {
				level = logging.LevelFromEnv("")
			}
			logger, err := logging.New(level, a.flags.logFormat, a.errOut)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to $"+logging.EnvLevel)
	flags.StringVar(&a.flags.logFormat, "log-format", logging.FormatConsole, "log format: console or json")
	flags.StringSliceVar(&a.flags.presets, "preset", nil, "preset file (JSON or YAML) applied to the document; repeatable")

	root.AddCommand(
		a.renderCommand(),
		a.submitCommand(),
		a.fillCommand(),
		a.lintCommand(),
		a.importCommand(),
	)
	return root
}

// orchestrator builds the pipeline used by every subcommand.
func (a *app) orchestrator(extra ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	registry := render.NewRegistry()
	html, err := vanilla.New()
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: %w", err)
	}
	registry.MustRegister(html)
	registry.MustRegister(jsontree.New())
	registry.MustRegister(tui.New(tui.WithOutputFormat(tui.OutputFormatPrettyText)))

	options := []orchestrator.Option{
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(html.Name()),
		orchestrator.WithLogger(a.logger),
	}
	for _, path := range a.flags.presets {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read preset: %w", err)
		}
		preset, err := orchestrator.NewPresetTransformer(raw)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", path, err)
		}
		options = append(options, orchestrator.WithSchemaTransformer(preset))
	}
	return orchestrator.New(append(options, extra...)...), nil
}

func (a *app) interactive() bool {
	file, ok := a.in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// parseSource maps a CLI argument onto a document source.
func parseSource(raw string) (schema.Source, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return nil, fmt.Errorf("document path is required")
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return schema.SourceFromURL(path), nil
	}
	return schema.SourceFromFile(path), nil
}

// readValues loads a JSON or YAML object of field values.
func readValues(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	values, err := schema.DecodeOverrides(raw)
	if err != nil {
		return nil, fmt.Errorf("decode values %s: %w", path, err)
	}
	return values, nil
}

func writeOutput(out io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
