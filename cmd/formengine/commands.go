package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/drafts"
	"github.com/goliatone/go-formengine/pkg/engine"
	pkgopenapi "github.com/goliatone/go-formengine/pkg/openapi"
	"github.com/goliatone/go-formengine/pkg/orchestrator"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

func (a *app) renderCommand() *cobra.Command {
	var (
		operation  string
		renderer   string
		output     string
		valuesPath string
		validate   bool
		action     string
		method     string
	)
	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Render a form document or OpenAPI operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := parseSource(args[0])
			if err != nil {
				return err
			}
			values, err := readValues(valuesPath)
			if err != nil {
				return err
			}
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}
			out, err := orch.Generate(cmd.Context(), orchestrator.Request{
				Source:      src,
				OperationID: operation,
				Renderer:    renderer,
				Values:      values,
				Validate:    validate,
				RenderOptions: render.RenderOptions{
					Action: action,
					Method: method,
				},
			})
			if err != nil {
				return err
			}
			return writeOutput(a.out, output, out)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&operation, "operation", "", "OpenAPI operation id (optional when the document has one operation)")
	flags.StringVarP(&renderer, "renderer", "r", "", "renderer: vanilla, json or tui")
	flags.StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	flags.StringVar(&valuesPath, "values", "", "JSON or YAML file of field values to prefill")
	flags.BoolVar(&validate, "validate", false, "validate prefilled values and render field errors")
	flags.StringVar(&action, "action", "", "form action URL")
	flags.StringVar(&method, "method", "", "form method")
	return cmd
}

type submissionOutput struct {
	Values map[string]any    `json:"values"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (a *app) submitCommand() *cobra.Command {
	var (
		operation  string
		valuesPath string
	)
	cmd := &cobra.Command{
		Use:   "submit <document>",
		Short: "Validate values against a form and print the active values",
		Long:  `submit mounts the form with the given values, drops values of hidden fields and validates the rest. It exits non-zero when a field is invalid.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := parseSource(args[0])
			if err != nil {
				return err
			}
			values, err := readValues(valuesPath)
			if err != nil {
				return err
			}
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}
			form, err := orch.Form(cmd.Context(), orchestrator.Request{Source: src, OperationID: operation, Values: values})
			if err != nil {
				return err
			}
			defer form.Close()

			submission, submitErr := form.Submit()
			if submitErr != nil && !errors.Is(submitErr, validation.ErrInvalid) {
				return submitErr
			}
			payload, err := json.MarshalIndent(submissionOutput{Values: submission.Values, Errors: submission.Errors}, "", "  ")
			if err != nil {
				return fmt.Errorf("encode submission: %w", err)
			}
			if err := writeOutput(a.out, "", append(payload, '\n')); err != nil {
				return err
			}
			if submitErr != nil {
				return fmt.Errorf("%d invalid field(s): %w", len(submission.Errors), validation.ErrInvalid)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&operation, "operation", "", "OpenAPI operation id")
	cmd.Flags().StringVar(&valuesPath, "values", "", "JSON or YAML file of field values")
	return cmd
}

func (a *app) fillCommand() *cobra.Command {
	var (
		operation string
		format    string
		output    string
		draftPath string
		draftKey  string
	)
	cmd := &cobra.Command{
		Use:   "fill <document>",
		Short: "Fill a form interactively in the terminal",
		Long:  `fill prompts for every visible field, re-asking invalid ones, and prints the submission. With --drafts, answers of an interrupted session are saved and offered again next time.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.interactive() {
				return errors.New("fill requires an interactive terminal on stdin")
			}
			src, err := parseSource(args[0])
			if err != nil {
				return err
			}
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}
			doc, err := orch.Document(cmd.Context(), orchestrator.Request{Source: src, OperationID: operation})
			if err != nil {
				return err
			}

			var store *drafts.Store
			if draftPath != "" {
				store, err = drafts.Open(draftPath, drafts.WithLogger(a.logger))
				if err != nil {
					return err
				}
				defer store.Close()
			}

			form, err := a.openForm(store, draftKey, doc)
			if err != nil {
				return err
			}
			defer form.Close()

			renderer := tui.New(
				tui.WithPromptDriver(tui.NewSurveyDriver(a.errOut)),
				tui.WithOutputFormat(tui.OutputFormat(format)),
			)
			out, fillErr := renderer.Fill(cmd.Context(), form)
			if store != nil {
				if fillErr != nil {
					if err := store.SaveForm(draftKey, form); err != nil {
						a.logger.Error("save draft", zap.Error(err))
					} else {
						a.logger.Info("draft saved", zap.String("form", doc.ID), zap.String("key", draftKey))
					}
				} else if err := store.Delete(doc.ID, draftKey); err != nil {
					a.logger.Warn("delete draft", zap.Error(err))
				}
			}
			if fillErr != nil {
				return fillErr
			}
			return writeOutput(a.out, output, out)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&operation, "operation", "", "OpenAPI operation id")
	flags.StringVar(&format, "format", string(tui.OutputFormatJSON), "submission format: json, form or pretty")
	flags.StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	flags.StringVar(&draftPath, "drafts", "", "bbolt database keeping unfinished answers")
	flags.StringVar(&draftKey, "key", "default", "draft key within the drafts database")
	return cmd
}

func (a *app) openForm(store *drafts.Store, key string, doc schema.Document) (*engine.Form, error) {
	options := []engine.Option{engine.WithLogger(a.logger)}
	if store == nil {
		return engine.New(doc, options...)
	}
	return store.Resume(key, doc, options...)
}

func (a *app) lintCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "lint <document>...",
		Short: "Report problems in form documents",
		Long:  `lint checks form documents, or the forms scaffolded from every operation of an OpenAPI document, for unknown ui types, broken rules and dangling references.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}
			reports := make(map[string]validation.Result)
			for _, path := range args {
				found, err := a.lintPath(cmd, orch, path)
				if err != nil {
					return err
				}
				for name, result := range found {
					reports[name] = result
				}
			}

			if asJSON {
				payload, err := json.MarshalIndent(reports, "", "  ")
				if err != nil {
					return err
				}
				if _, err := a.out.Write(append(payload, '\n')); err != nil {
					return err
				}
			}

			failed := 0
			for _, name := range sortedKeys(reports) {
				result := reports[name]
				if !asJSON {
					for _, issue := range result.Issues {
						fmt.Fprintf(a.out, "%s: %s: %s: %s\n", name, issue.Severity, issue.Path, issue.Message)
					}
				}
				if !result.Valid {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d document(s) failed lint", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func (a *app) lintPath(cmd *cobra.Command, orch *orchestrator.Orchestrator, path string) (map[string]validation.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	src := schema.SourceFromFile(path)
	results := make(map[string]validation.Result)

	if !pkgopenapi.Detect(raw) {
		doc, err := orch.Document(cmd.Context(), orchestrator.Request{Source: src})
		if err != nil {
			return nil, err
		}
		results[path] = validation.Lint(doc, nil)
		return results, nil
	}

	operations, err := orch.Operations(cmd.Context(), src)
	if err != nil {
		return nil, err
	}
	for _, id := range sortedKeys(operations) {
		doc, err := orch.Document(cmd.Context(), orchestrator.Request{Source: src, OperationID: id})
		if errors.Is(err, pkgopenapi.ErrNoRequestBody) {
			a.logger.Debug("skipping operation without request body", zap.String("operation", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		results[path+"#"+id] = validation.Lint(doc, nil)
	}
	return results, nil
}

func (a *app) importCommand() *cobra.Command {
	var (
		operation   string
		output      string
		submitLabel string
		readOnly    bool
	)
	cmd := &cobra.Command{
		Use:   "import-openapi <document>",
		Short: "Scaffold a form document from an OpenAPI operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := parseSource(args[0])
			if err != nil {
				return err
			}
			var scaffold []pkgopenapi.ScaffoldOption
			if strings.TrimSpace(submitLabel) != "" {
				scaffold = append(scaffold, pkgopenapi.WithSubmitLabel(submitLabel))
			}
			scaffold = append(scaffold, pkgopenapi.WithReadOnlyFields(readOnly))

			orch, err := a.orchestrator(orchestrator.WithScaffoldOptions(scaffold...))
			if err != nil {
				return err
			}
			doc, err := orch.Document(cmd.Context(), orchestrator.Request{Source: src, OperationID: operation})
			if err != nil {
				return err
			}
			encoded, err := schema.EncodeDocument(doc)
			if err != nil {
				return fmt.Errorf("encode document: %w", err)
			}
			return writeOutput(a.out, output, append(encoded, '\n'))
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&operation, "operation", "", "OpenAPI operation id (optional when the document has one operation)")
	flags.StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	flags.StringVar(&submitLabel, "submit-label", "", "submit button text")
	flags.BoolVar(&readOnly, "read-only", false, "keep readOnly properties")
	return cmd
}
