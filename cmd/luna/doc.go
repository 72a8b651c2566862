package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/luna/analysis"
	documentation "github.com/rlch/luna/documentation"
)

var (
	errNoName   = errors.New("expected a name such as Class, Class.member or global")
	errNotFound = errors.New("no documentation found")
)

func docCommand() *cli.Command {
	return &cli.Command{
		Name:      "doc",
		Usage:     "Show the documentation of a class, member or global",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "workspace to index",
				Value:   ".",
			},
		},
		Action: runDoc,
	}
}

func runDoc(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errNoName
	}

	p, err := loadProject(ctx, zap.NewNop(), cmd.String("root"))
	if err != nil {
		return err
	}

	return lookupDoc(os.Stdout, p.index, cmd.Args().First())
}

// lookupDoc writes the Markdown documentation of name. A dotted or colon name selects a member.
func lookupDoc(w io.Writer, index *analysis.Index, name string) error {
	sctx := analysis.NewSearchContext(index)

	if class, member, ok := cutMember(name); ok {
		m, found := index.FindMember(class, member)
		if !found {
			return fmt.Errorf("%w for %s", errNotFound, name)
		}

		_, err := fmt.Fprintln(w, documentation.MemberDoc(sctx, m))

		return err
	}

	var docs []string

	if c, ok := index.FindClass(name); ok {
		docs = append(docs, documentation.GenerateDoc(sctx, c.Tag))
	}

	for _, g := range index.FindGlobal(name) {
		docs = append(docs, documentation.GlobalDoc(sctx, g))
	}

	if len(docs) == 0 {
		return fmt.Errorf("%w for %s", errNotFound, name)
	}

	_, err := fmt.Fprintln(w, strings.Join(docs, "\n\n---\n\n"))

	return err
}

func cutMember(name string) (string, string, bool) {
	if i := strings.LastIndexAny(name, ".:"); i > 0 && i < len(name)-1 {
		return name[:i], name[i+1:], true
	}

	return "", "", false
}
