package parse

import (
	"fmt"

	"github.com/dekarrin/rosed"
)

// Dump renders the ACTION/GOTO table as a readable grid, one row per
// state, terminals then non-terminals across the columns.
func (t *Table) Dump() string {
	terms := t.Grammar.Terminals()
	terms = append(terms, "$")
	nts := t.Grammar.NonTerminals()

	header := []string{"state"}
	header = append(header, terms...)
	header = append(header, "|")
	header = append(header, nts...)

	data := [][]string{header}

	for i := range t.States {
		row := []string{fmt.Sprintf("%d", i)}
		for _, term := range terms {
			cell := ""
			if a, ok := t.actionFor(i, term); ok {
				cell = a.String()
			}
			row = append(row, cell)
		}
		row = append(row, "|")
		for _, nt := range nts {
			cell := ""
			if s, ok := t.Goto[i][nt]; ok {
				cell = fmt.Sprintf("%d", s)
			}
			row = append(row, cell)
		}
		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
