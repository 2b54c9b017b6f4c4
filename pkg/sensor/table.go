package sensor

import "strings"

// MarkdownTable renders rows as a markdown document titled with the given
// header lines. Columns follow the keys of the first row.
func MarkdownTable(header []string, rows []Reading) string {
	var b strings.Builder
	b.WriteString("# Data For the Identifiers:\n")
	for _, h := range header {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	if len(rows) == 0 {
		return b.String()
	}

	keys := rows[0].Keys()
	b.WriteString("\n|")
	for _, k := range keys {
		b.WriteString(cell(k))
		b.WriteByte('|')
	}
	b.WriteString("\n|")
	for range keys {
		b.WriteString("-|")
	}
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteByte('|')
		for _, k := range keys {
			v, _ := r.Get(k)
			b.WriteString(cell(FormatValue(v)))
			b.WriteByte('|')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
