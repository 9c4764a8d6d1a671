package decoy

import (
	"fmt"
	"strings"
)

const indent = "    "

// render emits the Zephir class: the dispatcher first, then every method in
// the given order separated by blank lines.
func render(entry, data, iv, tag string, methods []Method) string {
	var b strings.Builder

	b.WriteString("namespace Zephir;\n\n")
	b.WriteString("class Encrypter\n{\n")
	fmt.Fprintf(&b, "%spublic static function decrypt(var %s, var %s, var %s = null)\n", indent, data, iv, tag)
	fmt.Fprintf(&b, "%s{\n", indent)
	fmt.Fprintf(&b, "%s%sreturn eval(self::%s(%s, %s, %s));\n", indent, indent, entry, data, iv, tag)
	fmt.Fprintf(&b, "%s}\n", indent)

	for _, m := range methods {
		b.WriteString("\n")
		renderMethod(&b, m)
	}

	b.WriteString("}\n")
	return b.String()
}

func renderMethod(b *strings.Builder, m Method) {
	in2 := indent + indent
	in3 := in2 + indent

	fmt.Fprintf(b, "%sprotected static function %s(var %s, var %s, var %s)\n", indent, m.Name, m.DataParam, m.IVParam, m.TagParam)
	fmt.Fprintf(b, "%s{\n", indent)
	fmt.Fprintf(b, "%svar %s;\n\n", in2, m.KeyVar)
	fmt.Fprintf(b, "%slet %s = %s;\n\n", in2, m.KeyVar, arrayLiteral(m.Fragments()))
	fmt.Fprintf(b, "%sreturn openssl_decrypt(\n", in2)
	fmt.Fprintf(b, "%s%s,\n", in3, m.DataParam)
	fmt.Fprintf(b, "%s\"%s\",\n", in3, strings.ToLower(m.Cipher))
	fmt.Fprintf(b, "%shex2bin(implode(%s)),\n", in3, m.KeyVar)
	fmt.Fprintf(b, "%s0,\n", in3)
	if m.Authenticated() {
		fmt.Fprintf(b, "%sbase64_decode(%s),\n", in3, m.IVParam)
		fmt.Fprintf(b, "%sbase64_decode(%s)\n", in3, m.TagParam)
	} else {
		fmt.Fprintf(b, "%sbase64_decode(%s)\n", in3, m.IVParam)
	}
	fmt.Fprintf(b, "%s);\n", in2)
	fmt.Fprintf(b, "%s}\n", indent)
}

// minifySource surrounds every line with 1-16 random spaces on each side and
// joins the lines without separators. The artifact has no line comments, so
// removing line breaks keeps its meaning.
func (g *Generator) minifySource(source string) (string, error) {
	lines := strings.Split(strings.TrimSuffix(source, "\n"), "\n")

	var b strings.Builder
	for _, line := range lines {
		left, err := g.src.intn(1, 16)
		if err != nil {
			return "", err
		}
		right, err := g.src.intn(1, 16)
		if err != nil {
			return "", err
		}
		b.WriteString(strings.Repeat(" ", left))
		b.WriteString(line)
		b.WriteString(strings.Repeat(" ", right))
	}
	return b.String(), nil
}
