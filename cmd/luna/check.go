package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/segmentio/encoding/json"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/luna/analysis"
)

var errDiagnostics = errors.New("errors reported")

// finding is a diagnostic located in a file, as printed by check.
type finding struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

type checkResult struct {
	Files    int       `json:"files"`
	Findings []finding `json:"findings"`
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Aliases:   []string{"lint"},
		Usage:     "Report diagnostics for Lua files",
		ArgsUsage: "[paths...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print findings as JSON",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log scanning progress to stderr",
			},
		},
		Action: runCheck,
	}
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool("verbose"))
	if err != nil {
		return err
	}

	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	result, err := check(ctx, logger, paths)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		err = writeJSON(os.Stdout, result)
	} else {
		err = printFindings(os.Stdout, newStyles(os.Stdout), result)
	}

	if err != nil {
		return err
	}

	for _, f := range result.Findings {
		if f.Severity == analysis.SeverityError.String() {
			return errDiagnostics
		}
	}

	return nil
}

// check analyzes every path and collects the findings that survive the configured filter.
func check(ctx context.Context, logger *zap.Logger, paths []string) (*checkResult, error) {
	result := &checkResult{Findings: []finding{}}

	for _, path := range paths {
		p, err := loadProject(ctx, logger, path)
		if err != nil {
			return nil, err
		}

		for _, f := range p.own() {
			diags, err := p.filter.Apply(f.Diagnostics)
			if err != nil {
				return nil, err
			}

			file, _ := p.rel(f.Path)
			result.Files++

			for _, d := range diags {
				result.Findings = append(result.Findings, finding{
					File:     file,
					Line:     d.Span.Start.Line,
					Column:   d.Span.Start.Column,
					Severity: d.Severity.String(),
					Code:     d.Code,
					Message:  d.Message,
				})
			}
		}
	}

	return result, nil
}

func writeJSON(w io.Writer, result *checkResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

func printFindings(w io.Writer, s *styles, result *checkResult) error {
	var errCount, warnCount int

	for _, f := range result.Findings {
		var sev string

		switch f.Severity {
		case analysis.SeverityError.String():
			errCount++
			sev = s.Error.Render(f.Severity)
		case analysis.SeverityWarning.String():
			warnCount++
			sev = s.Warning.Render(f.Severity)
		default:
			sev = s.Info.Render(f.Severity)
		}

		_, err := fmt.Fprintf(w, "%s:%d:%d: %s %s %s\n",
			s.Path.Render(f.File), f.Line, f.Column, sev, f.Message, s.Dim.Render("["+f.Code+"]"))
		if err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("%d files checked, %d errors, %d warnings", result.Files, errCount, warnCount)

	var err error
	if errCount == 0 {
		_, err = fmt.Fprintf(w, "%s %s\n", s.Pass.Render(s.SymbolPass), summary)
	} else {
		_, err = fmt.Fprintf(w, "%s %s\n", s.Error.Render(s.SymbolFail), summary)
	}

	return err
}
