package ty

import (
	"strconv"
	"strings"
)

// Render returns the display form of t.
func Render(t Type) string {
	switch x := t.(type) {
	case nil, unknownType:
		return "any"
	case Primitive:
		return x.Name
	case StringLiteral:
		return strconv.Quote(x.Content)
	case Class:
		return x.Name
	case Array:
		return Render(x.Elem) + "[]"
	case *Function:
		return "fun" + RenderSignature(x.Main())
	case *Union:
		seen := make(map[string]bool, len(x.members))
		parts := make([]string, 0, len(x.members))

		for _, m := range x.members {
			s := Render(m)
			if seen[s] {
				continue
			}

			seen[s] = true
			parts = append(parts, s)
		}

		return strings.Join(parts, "|")
	default:
		return "any"
	}
}

// RenderSignature renders `(name: T, ...): R`.
func RenderSignature(sig Signature) string {
	var b strings.Builder

	b.WriteByte('(')

	for i, p := range sig.Params {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(p.Name)

		if p.Optional {
			b.WriteByte('?')
		}

		b.WriteString(": ")
		b.WriteString(Render(p.Type))
	}

	b.WriteString("): ")
	b.WriteString(Render(sig.Return))

	return b.String()
}
