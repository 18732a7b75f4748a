package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"racedesk/document"
	"racedesk/generator"
	"racedesk/layout"
	"racedesk/publisher"
	"racedesk/store"
)

type generateOpts struct {
	instructions []string
	target       string
	layout       string
	format       string
	save         string
}

func newGenerateCmd() *cobra.Command {
	var o generateOpts
	cmd := &cobra.Command{
		Use:   "generate [report-file]",
		Short: "Draft a document from a raw race report",
		Long: `Draft a document from a raw race report read from a file or stdin, then
apply any --instruct revisions in order. The result is rendered to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, o)
		},
	}
	cmd.Flags().StringArrayVarP(&o.instructions, "instruct", "i", nil, "revision instruction (repeatable)")
	cmd.Flags().StringVarP(&o.target, "target", "t", "whole", "field the instructions address (whole, headline, subheadline, body, quote, quoteAttribution)")
	cmd.Flags().StringVar(&o.layout, "layout", "auto", "template override (auto, visual, editorial, longform)")
	cmd.Flags().StringVarP(&o.format, "format", "f", "pretty", "output format (pretty, markdown, html, json, yaml)")
	cmd.Flags().StringVar(&o.save, "save", "", "save the result as a build with this name")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string, o generateOpts) error {
	target, err := document.ParseTarget(o.target)
	if err != nil {
		return err
	}
	override, err := layout.ParseOverride(o.layout)
	if err != nil {
		return err
	}
	pretty := o.format == "pretty"
	var format publisher.Format
	if !pretty {
		if format, err = publisher.ParseFormat(o.format); err != nil {
			return err
		}
	}
	raw, err := readReport(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	sess := generator.NewSession("", a.agent, a.cfg.UndoCapacity, a.log)
	sess.SetLayout(override)
	out, err := sess.Generate(ctx, raw)
	if err != nil {
		return describeFailure(err)
	}
	reportAdvisories(cmd.ErrOrStderr(), out)

	if target != document.TargetWhole {
		sess.SetTarget(target)
	}
	for _, instr := range o.instructions {
		out, err := sess.Instruct(ctx, instr, "")
		if err != nil {
			return describeFailure(err)
		}
		reportAdvisories(cmd.ErrOrStderr(), out)
	}

	st := sess.Snapshot()
	if o.save != "" {
		builds, err := store.Open(a.cfg.Store.Path)
		if err != nil {
			return err
		}
		defer builds.Close()
		b, err := builds.Save(ctx, o.save, st.Document, st.Messages, st.Model)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "saved build %s (%s)\n", b.Name, b.ID)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "model: %s, template: %s\n", st.Model, st.Template.DisplayName())
	if pretty {
		return renderPretty(cmd.OutOrStdout(), st.Document)
	}
	data, err := publisher.Render(st.Document, st.Template, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func readReport(stdin io.Reader, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return string(data), nil
}

func renderPretty(w io.Writer, doc document.Document) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return err
	}
	s, err := r.Render(doc.Markdown())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

func reportAdvisories(w io.Writer, out generator.Outcome) {
	if out.Kind == document.FragmentDegraded {
		fmt.Fprintln(w, "warning: model output was not valid JSON; it was placed in the body")
	}
	for _, v := range out.Advisories {
		fmt.Fprintf(w, "brand check: avoid %q\n", v.Match)
	}
}

// describeFailure adds the rejected payload to guardrail errors.
func describeFailure(err error) error {
	var gerr *generator.GuardrailError
	if errors.As(err, &gerr) {
		lines := ""
		for _, v := range gerr.Violations {
			lines += "\n  - " + v.String()
		}
		return fmt.Errorf("%w%s\nraw output:\n%s", err, lines, gerr.Raw)
	}
	return err
}
