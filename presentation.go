package fsds

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// PresentationRow is one pre.txt row: where one concept sits in the
// rendered layout of one statement of one filing.
type PresentationRow struct {
	Accession string
	Report    int    // report number within the filing
	Line      int    // line number within the report
	Statement string // statement role code ("BS", "IS", ...)
	Depth     int    // inpth: indentation level
	Source    string // rfile: rendered from 'H' (html) or 'D' (data)
	Concept   string
	Version   string
	Label     string // preferred label as the filer rendered it
	Prole     string // preferred-label role, where the vintage carries it
	Negating  bool   // display sign flips relative to the stored sign
}

// PresentationEdge is one parent/child relation derived from the flat
// rows: Parent "" marks a root of the statement's forest. Ordinal
// preserves report-then-line document order.
type PresentationEdge struct {
	Parent   string
	Child    string
	Ordinal  int
	Depth    int
	Label    string
	Prole    string
	Negating bool
}

// PresentationSet indexes pre.txt rows by filing.
type PresentationSet struct {
	rows     []PresentationRow
	byFiling map[string][]int
}

// ParsePresentation parses a pre.txt stream. Rows without a concept or
// with unparseable position columns are collected as integrity issues.
func ParsePresentation(r io.Reader) (*PresentationSet, []IntegrityIssue, error) {
	table, err := readTSV(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse presentation file: %w", err)
	}

	set := &PresentationSet{byFiling: make(map[string][]int)}
	var issues []IntegrityIssue
	for i, record := range table.rows {
		row := PresentationRow{
			Accession: NormalizeAccession(table.field(record, "adsh")),
			Statement: table.field(record, "stmt"),
			Source:    table.field(record, "rfile"),
			Concept:   table.field(record, "tag"),
			Version:   table.field(record, "version"),
			Label:     NormalizeLabel(table.field(record, "plabel")),
			Prole:     table.field(record, "prole"),
			Negating:  table.field(record, "negating") == "1",
		}
		if row.Accession == "" || row.Concept == "" {
			issues = append(issues, IntegrityIssue{
				File: "pre", Record: i + 1, Message: "missing accession or concept",
			})
			continue
		}

		ints := map[string]*int{
			"report": &row.Report,
			"line":   &row.Line,
			"inpth":  &row.Depth,
		}
		bad := false
		for col, dst := range ints {
			v, err := strconv.Atoi(table.field(record, col))
			if err != nil {
				issues = append(issues, IntegrityIssue{
					File: "pre", Record: i + 1,
					Message: fmt.Sprintf("invalid %s %q for %s", col, table.field(record, col), row.Concept),
				})
				bad = true
				break
			}
			*dst = v
		}
		if bad {
			continue
		}

		idx := len(set.rows)
		set.rows = append(set.rows, row)
		set.byFiling[row.Accession] = append(set.byFiling[row.Accession], idx)
	}

	return set, issues, nil
}

// LoadPresentation reads and parses a pre.txt file from disk.
func LoadPresentation(path string) (*PresentationSet, []IntegrityIssue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open presentation file: %w", err)
	}
	defer f.Close()
	return ParsePresentation(f)
}

// RowsFor returns every presentation row of one filing, in file order.
func (p *PresentationSet) RowsFor(accession string) []PresentationRow {
	idxs := p.byFiling[NormalizeAccession(accession)]
	out := make([]PresentationRow, len(idxs))
	for i, idx := range idxs {
		out[i] = p.rows[idx]
	}
	return out
}

// StatementRoles returns the statement roles a filing actually published,
// derived purely from which roles have at least one row. Sorted in the
// conventional BS/IS/CF/EQ/CI order, variants and extras after.
func (p *PresentationSet) StatementRoles(accession string) []string {
	seen := make(map[string]bool)
	for _, row := range p.RowsFor(accession) {
		if row.Statement != "" {
			seen[row.Statement] = true
		}
	}

	rank := func(role string) int {
		for i, core := range CoreStatementRoles {
			if roleFamily(role) == core {
				return i
			}
		}
		return len(CoreStatementRoles)
	}

	roles := make([]string, 0, len(seen))
	for role := range seen {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool {
		if rank(roles[i]) != rank(roles[j]) {
			return rank(roles[i]) < rank(roles[j])
		}
		return roles[i] < roles[j]
	})
	return roles
}

// StatementRows returns the rows of one (filing, statement role), sorted
// by report then line, the order the filer rendered them in.
func (p *PresentationSet) StatementRows(accession, role string) []PresentationRow {
	var out []PresentationRow
	for _, row := range p.RowsFor(accession) {
		if row.Statement == role {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Report != out[j].Report {
			return out[i].Report < out[j].Report
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// reportOrdinalSpan keeps line ordinals from different reports of one
// statement in document order when they land under a shared root.
const reportOrdinalSpan = 100000

// Edges derives the parent/child/ordinal relation for one (filing,
// statement role) from the flat depth-and-line layout: walking rows in
// render order, a row's parent is the nearest preceding row one level
// shallower within the same report.
func (p *PresentationSet) Edges(accession, role string) []PresentationEdge {
	rows := p.StatementRows(accession, role)
	if len(rows) == 0 {
		return nil
	}

	var edges []PresentationEdge
	var stack []string // concept at each depth on the current path
	report := -1
	for _, row := range rows {
		if row.Report != report {
			report = row.Report
			stack = stack[:0]
		}

		depth := row.Depth
		if depth < 0 {
			depth = 0
		}
		if depth > len(stack) {
			// Filer skipped a level; clamp to the deepest open parent.
			depth = len(stack)
		}
		stack = stack[:depth]

		parent := ""
		if depth > 0 {
			parent = stack[depth-1]
		}

		edges = append(edges, PresentationEdge{
			Parent:   parent,
			Child:    row.Concept,
			Ordinal:  row.Report*reportOrdinalSpan + row.Line,
			Depth:    depth,
			Label:    row.Label,
			Prole:    row.Prole,
			Negating: row.Negating,
		})
		stack = append(stack, row.Concept)
	}

	return edges
}
