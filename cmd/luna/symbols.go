package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/rlch/luna/analysis"
	"github.com/rlch/luna/workspace"
)

var errNoFiles = errors.New("no files given")

var symbolKinds = map[analysis.SymbolKind]string{
	analysis.SymbolKindClass:    "class",
	analysis.SymbolKindFunction: "function",
	analysis.SymbolKindMethod:   "method",
	analysis.SymbolKindField:    "field",
	analysis.SymbolKindVariable: "variable",
}

func symbolsCommand() *cli.Command {
	return &cli.Command{
		Name:      "symbols",
		Aliases:   []string{"outline"},
		Usage:     "Print the outline of Lua files",
		ArgsUsage: "<files...>",
		Action:    runSymbols,
	}
}

func runSymbols(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return errNoFiles
	}

	s := newStyles(os.Stdout)
	analyzer := analysis.NewAnalyzer()

	for _, path := range args {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return err
		}

		f := analyzer.Analyze(workspace.PathToURI(path), string(data))

		fmt.Fprintln(os.Stdout, s.Path.Render(path))
		printSymbols(os.Stdout, s, f.Symbols, "")
	}

	return nil
}

func printSymbols(w io.Writer, s *styles, symbols []*analysis.Symbol, indent string) {
	for i, sym := range symbols {
		branch, next := s.TreeMiddle, s.TreeBar
		if i == len(symbols)-1 {
			branch, next = s.TreeEnd, "  "
		}

		line := fmt.Sprintf("%s%s %s %s", indent, s.Dim.Render(branch), symbolKinds[sym.Kind], s.Bold.Render(sym.Name))
		if sym.Detail != "" {
			line += " " + s.Dim.Render(sym.Detail)
		}

		fmt.Fprintf(w, "%s %s\n", line, s.Dim.Render(fmt.Sprintf(":%d", sym.Span.Start.Line)))

		printSymbols(w, s, sym.Children, indent+s.Dim.Render(next))
	}
}
