// Package docs renders hover text for declarations from their types and doc comments.
//
// The package clause is "docs" because go/build ignores every file that declares
// package "documentation"; importers alias it back to documentation.
package docs

import (
	"strings"

	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
	"github.com/rlch/luna/ty"
)

// RenderComment renders the free text and tags of a doc comment as Markdown paragraphs.
// Consecutive text lines form one paragraph; malformed tags are left out.
func RenderComment(ctx *analysis.SearchContext, c *luna.Comment) string {
	if c == nil {
		return ""
	}

	var (
		sections []string
		text     []string
	)

	flush := func() {
		if len(text) > 0 {
			if p := strings.TrimSpace(strings.Join(text, "\n")); p != "" {
				sections = append(sections, p)
			}

			text = nil
		}
	}

	for _, item := range c.Items {
		if t, ok := item.(*luna.DocText); ok {
			text = append(text, t.Text)

			continue
		}

		flush()

		if s := renderTag(ctx, item); s != "" {
			sections = append(sections, s)
		}
	}

	flush()

	return strings.Join(sections, "\n\n")
}

//nolint:cyclop // One case per tag.
func renderTag(ctx *analysis.SearchContext, item luna.Node) string {
	var b strings.Builder

	switch t := item.(type) {
	case *luna.ParamTag:
		b.WriteString("*@param* `" + t.Name + "`")

		if t.Optional {
			b.WriteString("?")
		}

		b.WriteString(" " + code(renderDocType(ctx, t.Type)))
		writeDesc(&b, t.Desc)
	case *luna.ReturnTag:
		b.WriteString("*@return* ")

		for i, r := range t.Types {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(code(renderDocType(ctx, r)))
		}

		writeDesc(&b, t.Desc)
	case *luna.FieldTag:
		b.WriteString("*@field* ")

		if t.Access != "" {
			b.WriteString(t.Access + " ")
		}

		b.WriteString("`" + t.Name + "` " + code(renderDocType(ctx, t.Type)))
		writeDesc(&b, t.Desc)
	case *luna.ClassTag:
		b.WriteString("*class* `" + t.Name + "`")

		if t.Super != "" {
			b.WriteString(" : `" + t.Super + "`")
		}

		writeDesc(&b, t.Desc)
	case *luna.TypeTag:
		b.WriteString("*@type* " + code(renderDocType(ctx, t.Type)))
		writeDesc(&b, t.Desc)
	case *luna.OverloadTag:
		b.WriteString("*@overload* " + code(renderDocType(ctx, t.Fun)))
		writeDesc(&b, t.Desc)
	case *luna.SeeTag:
		ref := t.Class
		if t.Member != "" {
			ref += "#" + t.Member
		}

		b.WriteString("*@see* `" + ref + "`")
		writeDesc(&b, t.Desc)
	}

	return b.String()
}

func writeDesc(b *strings.Builder, desc string) {
	if desc != "" {
		b.WriteString(" - " + desc)
	}
}

func code(s string) string {
	return "`" + s + "`"
}

// renderDocType renders a doc type expression through the type model, so that names resolve
// the same way they do for inference.
func renderDocType(ctx *analysis.SearchContext, d *luna.DocType) string {
	return ty.Render(ctx.DocType(d))
}

// codeBlock wraps a declaration line in a Lua fence.
func codeBlock(line string) string {
	return "```lua\n" + line + "\n```"
}

// join assembles the header block and the rendered comment.
func join(header, body string) string {
	if body == "" {
		return header
	}

	return header + "\n\n" + body
}
