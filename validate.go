package fsds

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// subtotalTolerance is the absolute slack allowed per contributing line
// when recomputing a subtotal, tolerant of rounding to the reporting unit.
const subtotalTolerance = 0.5

// SubtotalCheck records one recomputed subtotal: the sum of the node's
// immediate children's displayed values against the node's own.
type SubtotalCheck struct {
	Concept  string
	Label    string
	Expected float64 // sum of children
	Actual   float64 // the subtotal line itself
	Delta    float64
	Passed   bool
}

// CoverageReport is the per-(filing, statement role) diagnostic: how much
// of the structure resolved to data, and whether subtotals add up.
// Subtotal mismatches are warnings, not failures: rounding and
// non-additive presentations are expected in real filings.
type CoverageReport struct {
	Accession       string
	Role            string
	Rows            int
	NonAbstract     int
	Resolved        int
	CoverageRatio   float64 // Resolved / NonAbstract
	MissingConcepts []string
	SubtotalChecks  []SubtotalCheck
}

// SubtotalWarnings counts the subtotal checks that did not add up.
func (r *CoverageReport) SubtotalWarnings() int {
	n := 0
	for _, check := range r.SubtotalChecks {
		if !check.Passed {
			n++
		}
	}
	return n
}

// Validate reconstructs one statement and computes its coverage and
// subtotal diagnostics.
func (d *Dataset) Validate(accession, role string) (*CoverageReport, error) {
	rows, err := d.Reconstruct(accession, role, ReconstructOptions{})
	if err != nil {
		return nil, err
	}

	report := &CoverageReport{
		Accession: NormalizeAccession(accession),
		Role:      role,
		Rows:      len(rows),
	}

	for _, row := range rows {
		if row.Abstract {
			continue
		}
		report.NonAbstract++
		if row.HasValue() {
			report.Resolved++
		} else {
			report.MissingConcepts = append(report.MissingConcepts, row.Concept)
		}
	}
	if report.NonAbstract > 0 {
		report.CoverageRatio = float64(report.Resolved) / float64(report.NonAbstract)
	}

	if tree, err := d.BuildTree(accession, role); err == nil {
		report.SubtotalChecks = subtotalChecks(tree, rows)
	}

	return report, nil
}

// subtotalChecks recomputes every node whose own value and children's
// values all resolved: the node acts as the subtotal of its children.
// Rows and tree nodes share document order, so index i maps node to row.
func subtotalChecks(tree *StatementTree, rows []StatementRow) []SubtotalCheck {
	if tree.Len() != len(rows) {
		return nil
	}

	var checks []SubtotalCheck
	for i, node := range tree.Nodes {
		row := rows[i]
		if len(node.Children) == 0 || row.Display == nil {
			continue
		}

		sum := 0.0
		complete := true
		for _, ci := range node.Children {
			child := rows[ci]
			if child.Abstract {
				continue
			}
			if child.Display == nil {
				complete = false
				break
			}
			sum += *child.Display
		}
		if !complete {
			continue
		}

		delta := math.Abs(sum - *row.Display)
		checks = append(checks, SubtotalCheck{
			Concept:  row.Concept,
			Label:    row.Label,
			Expected: sum,
			Actual:   *row.Display,
			Delta:    delta,
			Passed:   delta <= subtotalTolerance*float64(len(node.Children)),
		})
	}
	return checks
}

// ReferenceRow is one line of an approved reference table, the golden
// fields the exactness contract compares.
type ReferenceRow struct {
	Ordinal   int
	Depth     int
	Concept   string
	Label     string
	Formatted string
	DDate     string
	Qtrs      int
}

// Diff names the first divergence between a reconstruction and its
// approved reference.
type Diff struct {
	Index int
	Field string
	Got   string
	Want  string
}

func (d *Diff) String() string {
	return fmt.Sprintf("row %d: %s = %q, reference has %q", d.Index, d.Field, d.Got, d.Want)
}

// CompareToReference checks a reconstruction against an approved
// reference table: row count, ordinal sequence, concept sequence and
// formatted display values must match exactly. nil means exact match; any
// divergence returns the first differing row.
func CompareToReference(rows []StatementRow, ref []ReferenceRow) *Diff {
	n := len(rows)
	if len(ref) < n {
		n = len(ref)
	}

	for i := 0; i < n; i++ {
		got, want := rows[i], ref[i]
		switch {
		case got.Ordinal != want.Ordinal:
			return &Diff{Index: i, Field: "ordinal", Got: fmt.Sprint(got.Ordinal), Want: fmt.Sprint(want.Ordinal)}
		case got.Concept != want.Concept:
			return &Diff{Index: i, Field: "concept", Got: got.Concept, Want: want.Concept}
		case got.Formatted != want.Formatted:
			return &Diff{Index: i, Field: "formatted value", Got: got.Formatted, Want: want.Formatted}
		}
	}

	if len(rows) != len(ref) {
		return &Diff{Index: n, Field: "row count", Got: fmt.Sprint(len(rows)), Want: fmt.Sprint(len(ref))}
	}
	return nil
}

// FilingReport aggregates the per-statement diagnostics of one filing.
// Statement roles whose hierarchy is structurally invalid are listed, not
// fatal.
type FilingReport struct {
	Accession          string
	Statements         map[string]*CoverageReport
	StructuralFailures []string
	Err                string // non-structural failure, "" when the filing processed
}

// BatchReport is the outcome of validating many filings.
type BatchReport struct {
	Count   int
	Reports map[string]*FilingReport
}

// RoleHealth summarizes one statement role across a batch.
type RoleHealth struct {
	Checked   int
	Passed    int // full coverage and clean subtotals
	PassRatio float64
}

// Scorecard condenses a batch report to the numbers a proof run prints.
type Scorecard struct {
	Filings            int
	StatementsChecked  int
	AvgCoverage        float64
	MinCoverage        float64
	StructuralFailures int
	SubtotalWarnings   int
	FilingErrors       int
	PerRole            map[string]RoleHealth
}

// ValidateFiling validates every requested statement role of one filing,
// recording structural failures instead of aborting.
func (d *Dataset) ValidateFiling(accession string, roles []string) *FilingReport {
	if len(roles) == 0 {
		roles = CoreStatementRoles
	}

	report := &FilingReport{
		Accession:  NormalizeAccession(accession),
		Statements: make(map[string]*CoverageReport),
	}

	for _, role := range roles {
		cov, err := d.Validate(accession, role)
		if err != nil {
			var serr *StructuralError
			if errors.As(err, &serr) {
				report.StructuralFailures = append(report.StructuralFailures, role)
				continue
			}
			report.Err = err.Error()
			continue
		}
		report.Statements[role] = cov
	}

	return report
}

// ValidateBatch validates many filings in parallel. Each filing is an
// independent reconstruction over the immutable dataset, so the fan-out
// needs no locking beyond collecting results; a filing that fails is
// recorded in its report and never stops the batch.
func (d *Dataset) ValidateBatch(ctx context.Context, accessions []string, roles []string, parallelism int) (*BatchReport, error) {
	if parallelism <= 0 {
		parallelism = 4
	}

	batch := &BatchReport{
		Count:   len(accessions),
		Reports: make(map[string]*FilingReport, len(accessions)),
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for _, accession := range accessions {
		accession := accession
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report := d.ValidateFiling(accession, roles)
			mu.Lock()
			batch.Reports[report.Accession] = report
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batch, nil
}

// Scorecard condenses the batch into aggregate health numbers.
func (b *BatchReport) Scorecard() *Scorecard {
	card := &Scorecard{
		Filings:     len(b.Reports),
		MinCoverage: math.NaN(),
		PerRole:     make(map[string]RoleHealth),
	}

	totalCoverage := 0.0
	for _, report := range b.Reports {
		if report.Err != "" {
			card.FilingErrors++
		}
		card.StructuralFailures += len(report.StructuralFailures)

		for role, cov := range report.Statements {
			card.StatementsChecked++
			totalCoverage += cov.CoverageRatio
			if math.IsNaN(card.MinCoverage) || cov.CoverageRatio < card.MinCoverage {
				card.MinCoverage = cov.CoverageRatio
			}
			card.SubtotalWarnings += cov.SubtotalWarnings()

			health := card.PerRole[role]
			health.Checked++
			if cov.CoverageRatio == 1.0 && cov.SubtotalWarnings() == 0 {
				health.Passed++
			}
			card.PerRole[role] = health
		}
	}

	if card.StatementsChecked > 0 {
		card.AvgCoverage = totalCoverage / float64(card.StatementsChecked)
	}
	if math.IsNaN(card.MinCoverage) {
		card.MinCoverage = 0
	}
	for role, health := range card.PerRole {
		if health.Checked > 0 {
			health.PassRatio = float64(health.Passed) / float64(health.Checked)
		}
		card.PerRole[role] = health
	}

	return card
}

// SortedRoles returns the roles the scorecard covers in stable order,
// for report output.
func (c *Scorecard) SortedRoles() []string {
	roles := make([]string, 0, len(c.PerRole))
	for role := range c.PerRole {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}
