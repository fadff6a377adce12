package fsds

import (
	"errors"
	"math"
	"sort"
	"strings"
)

// StatementRow is one reconstructed statement line. Row presence reflects
// structure, row value reflects data availability: a line with no
// resolvable fact keeps its position with a nil Value.
type StatementRow struct {
	Accession string
	Role      string
	Ordinal   int // emission index; strictly increasing in document order
	Depth     int
	Concept   string
	Label     string
	Abstract  bool
	Negating  bool
	Value     *float64 // raw value exactly as stored
	Display   *float64 // sign-adjusted value as rendered
	Formatted string   // grouped/parenthesized Display; "" when unresolved
	Unit      string
	DDate     string // resolved period end, YYYYMMDD
	Qtrs      int    // resolved quarter count; -1 when no context resolved
	Segments  string
	Coreg     string
	// CandidateCount records how many facts competed for this line; values
	// above 1 mean the disambiguation chain did real work.
	CandidateCount int
}

// HasValue reports whether the line resolved to a fact.
func (r *StatementRow) HasValue() bool { return r.Value != nil }

// ReconstructOptions narrows fact resolution to a reporting period.
// The zero value infers the statement's own latest context.
type ReconstructOptions struct {
	AsOf        string // YYYYMMDD: resolve against instant facts as of this date
	PeriodStart string // YYYYMMDD: with PeriodEnd, derives the target quarter count
	PeriodEnd   string // YYYYMMDD: resolve against duration facts ending here
	Qtrs        int    // explicit quarter count; <= 0 means derive or infer
}

// resolveTarget is the single (period end, quarter count) context a whole
// statement table resolves against. qtrs 0 selects instant facts, -1
// leaves the span open.
type resolveTarget struct {
	ddate string
	qtrs  int
}

// BuildTree reconstructs the presentation hierarchy for one filing and
// statement role. A cycle or an empty hierarchy returns a *StructuralError.
func (d *Dataset) BuildTree(accession, role string) (*StatementTree, error) {
	accession, err := checkStatementArgs(accession, role)
	if err != nil {
		return nil, err
	}
	return buildTree(accession, role, d.Presentation.Edges(accession, role))
}

// Reconstruct emits the statement table for one filing and statement role
// in document order. Repeated calls on unchanged input produce identical
// row sequences. A filing without usable presentation rows for the role
// returns a *StructuralError, except CI, which falls back to synthesizing
// the table from comprehensive-income facts when no CI hierarchy exists.
func (d *Dataset) Reconstruct(accession, role string, opts ReconstructOptions) ([]StatementRow, error) {
	accession, err := checkStatementArgs(accession, role)
	if err != nil {
		return nil, err
	}

	edges := d.Presentation.Edges(accession, role)
	if len(edges) == 0 && roleFamily(role) == RoleComprehensiveIncome {
		if rows := d.comprehensiveIncomeFallback(accession, role, opts); len(rows) > 0 {
			return rows, nil
		}
	}

	tree, err := buildTree(accession, role, edges)
	if err != nil {
		return nil, err
	}

	target := d.resolveStatementTarget(accession, role, tree, opts)

	rows := make([]StatementRow, 0, tree.Len())
	for _, node := range tree.Nodes {
		concept := d.Concepts.Lookup(node.Concept)

		label := node.Label
		if label == "" {
			label = concept.Label
		}

		row := StatementRow{
			Accession: accession,
			Role:      role,
			Ordinal:   len(rows),
			Depth:     node.Depth,
			Concept:   node.Concept,
			Label:     label,
			Abstract:  concept.Abstract,
			Negating:  node.Negating,
			Qtrs:      -1,
		}

		// Abstract concepts are structural headers; they carry no value by
		// construction and never touch the fact index.
		if !concept.Abstract {
			candidates := d.candidateFacts(accession, node.Concept, target)
			row.CandidateCount = len(candidates)
			if chosen := chooseFact(candidates, target); chosen != nil {
				v := *chosen.Value
				dv := displaySign(role, node.Concept, v, node.Negating)
				row.Value = &v
				row.Display = &dv
				row.Formatted = FormatDisplayValue(dv)
				row.Unit = chosen.Unit
				row.DDate = chosen.DDate
				row.Qtrs = chosen.Qtrs
				row.Segments = chosen.Segments
				row.Coreg = chosen.Coreg
			} else {
				row.DDate = target.ddate
				row.Qtrs = target.qtrs
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// ReconstructFiling reconstructs several statement tables of one filing.
// Roles without a usable hierarchy are skipped, not fatal; the returned
// map holds an entry per role that reconstructed.
func (d *Dataset) ReconstructFiling(accession string, roles []string) (map[string][]StatementRow, error) {
	if len(roles) == 0 {
		roles = CoreStatementRoles
	}

	tables := make(map[string][]StatementRow)
	for _, role := range roles {
		rows, err := d.Reconstruct(accession, role, ReconstructOptions{})
		if err != nil {
			var serr *StructuralError
			if errors.As(err, &serr) {
				continue
			}
			return nil, err
		}
		tables[role] = rows
	}
	return tables, nil
}

func checkStatementArgs(accession, role string) (string, error) {
	accession = NormalizeAccession(accession)
	if accession == "" {
		return "", ErrEmptyAccession
	}
	if !ValidStatementRole(role) {
		return "", ErrUnknownStatementRole
	}
	return accession, nil
}

// resolveStatementTarget decides the single context a table resolves
// against: caller-supplied bounds win; otherwise the statement's own
// facts vote: latest period end among the tree's concepts, modal quarter
// count at that date, instant facts for balance-sheet-family roles.
func (d *Dataset) resolveStatementTarget(accession, role string, tree *StatementTree, opts ReconstructOptions) resolveTarget {
	if opts.AsOf != "" {
		return resolveTarget{ddate: opts.AsOf, qtrs: 0}
	}
	if opts.PeriodEnd != "" {
		qtrs := -1
		if opts.Qtrs > 0 {
			qtrs = opts.Qtrs
		} else if opts.PeriodStart != "" {
			start, serr := parseDDate(opts.PeriodStart)
			end, eerr := parseDDate(opts.PeriodEnd)
			if serr == nil && eerr == nil {
				qtrs = quartersBetween(start, end)
			}
		}
		return resolveTarget{ddate: opts.PeriodEnd, qtrs: qtrs}
	}
	return d.inferStatementContext(accession, role, tree)
}

func (d *Dataset) inferStatementContext(accession, role string, tree *StatementTree) resolveTarget {
	concepts := make(map[string]bool, tree.Len())
	for _, node := range tree.Nodes {
		concepts[node.Concept] = true
	}

	instant := roleFamily(role) == RoleBalanceSheet

	filter := func(primaryOnly bool) []NumericFact {
		var out []NumericFact
		for _, f := range d.Facts.FactsFor(accession) {
			if !concepts[f.Concept] || f.Value == nil {
				continue
			}
			if instant != f.IsInstant() {
				continue
			}
			if primaryOnly && !f.IsPrimaryContext() {
				continue
			}
			out = append(out, f)
		}
		return out
	}

	facts := filter(true)
	if len(facts) == 0 {
		facts = filter(false)
	}
	if len(facts) == 0 {
		qtrs := -1
		if instant {
			qtrs = 0
		}
		return resolveTarget{qtrs: qtrs}
	}

	latest := ""
	for _, f := range facts {
		if f.DDate > latest {
			latest = f.DDate
		}
	}

	if instant {
		return resolveTarget{ddate: latest, qtrs: 0}
	}

	var atLatest []NumericFact
	for _, f := range facts {
		if f.DDate == latest {
			atLatest = append(atLatest, f)
		}
	}
	return resolveTarget{ddate: latest, qtrs: modalQtrs(atLatest)}
}

// modalQtrs returns the most common quarter count, lowest winning ties.
func modalQtrs(facts []NumericFact) int {
	counts := make(map[int]int)
	for _, f := range facts {
		counts[f.Qtrs]++
	}
	best, bestCount := -1, 0
	for q, n := range counts {
		if n > bestCount || (n == bestCount && (best == -1 || q < best)) {
			best, bestCount = q, n
		}
	}
	return best
}

// candidateFacts gathers the valued facts a tree node can resolve to,
// progressively relaxing the target when a strict match yields nothing:
// exact (date, span) first, then any span ending on the date, then any
// fact of the right duration kind, where date proximity decides.
func (d *Dataset) candidateFacts(accession, concept string, target resolveTarget) []NumericFact {
	valued := func(facts []NumericFact) []NumericFact {
		var out []NumericFact
		for _, f := range facts {
			if f.Value != nil {
				out = append(out, f)
			}
		}
		return out
	}

	if target.qtrs == 0 {
		if target.ddate != "" {
			if strict := valued(d.Facts.InstantFacts(accession, concept, target.ddate)); len(strict) > 0 {
				return strict
			}
		}
		return valued(d.Facts.InstantFacts(accession, concept, ""))
	}

	if target.ddate != "" {
		if strict := valued(d.Facts.DurationFacts(accession, concept, target.ddate, target.qtrs)); len(strict) > 0 {
			return strict
		}
		if relaxed := valued(d.Facts.DurationFacts(accession, concept, target.ddate, -1)); len(relaxed) > 0 {
			return relaxed
		}
	}
	return valued(d.Facts.DurationFacts(accession, concept, "", -1))
}

// chooseFact applies the disambiguation chain: the consolidated,
// undimensioned context beats segmented views, higher precision beats
// lower, an exact span match beats a near one, date proximity to the
// target beats distance, and the lexically lowest context key is the
// deterministic last resort.
func chooseFact(candidates []NumericFact, target resolveTarget) *NumericFact {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		return &candidates[0]
	}

	sorted := make([]NumericFact, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return factPreferred(&sorted[i], &sorted[j], target)
	})
	return &sorted[0]
}

func factPreferred(a, b *NumericFact, target resolveTarget) bool {
	if seg := (a.Segments == ""); seg != (b.Segments == "") {
		return seg
	}
	if coreg := (a.Coreg == ""); coreg != (b.Coreg == "") {
		return coreg
	}
	if a.Decimals != b.Decimals {
		return a.Decimals > b.Decimals
	}
	if target.qtrs > 0 {
		if exact := (a.Qtrs == target.qtrs); exact != (b.Qtrs == target.qtrs) {
			return exact
		}
	}
	if target.ddate != "" && a.DDate != b.DDate {
		da, db := dateDistance(a.DDate, target.ddate), dateDistance(b.DDate, target.ddate)
		if da != db {
			return da < db
		}
	}
	if a.DDate != b.DDate {
		return a.DDate > b.DDate // most recent period wins
	}
	return a.contextKey() < b.contextKey()
}

func dateDistance(ddate, target string) float64 {
	d, err1 := parseDDate(ddate)
	t, err2 := parseDDate(target)
	if err1 != nil || err2 != nil {
		return math.MaxFloat64
	}
	return math.Abs(d.Sub(t).Hours())
}

// displaySign converts a stored value to its as-rendered sign. The
// negating flag on the presentation edge carries the orientation conflict
// the filer encoded; cash-flow and equity flow lines additionally get the
// conventional direction of their activity.
func displaySign(role, concept string, value float64, negating bool) float64 {
	signed := value
	if negating {
		signed = -signed
	}

	lower := strings.ToLower(concept)
	switch roleFamily(role) {
	case RoleCashFlow:
		switch {
		case containsAny(lower, "payment", "repurchase", "repay", "purchase"):
			signed = -math.Abs(signed)
		case containsAny(lower, "proceeds", "issuance", "borrow"):
			signed = math.Abs(signed)
		}
	case RoleEquity:
		if containsAny(lower, "dividend", "repurchase", "purchases", "payment") {
			signed = -math.Abs(signed)
		}
	}

	return signed
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// comprehensiveIncomeFallback synthesizes a CI table from num.txt when the
// filer published no standalone CI hierarchy: one line per
// comprehensive-income concept at the statement's latest duration context.
func (d *Dataset) comprehensiveIncomeFallback(accession, role string, opts ReconstructOptions) []StatementRow {
	facts := d.Facts.Query(accession).
		ByConcept("ComprehensiveIncome").
		DurationOnly().
		Get()

	var valued []NumericFact
	for _, f := range facts {
		if f.Value != nil {
			valued = append(valued, f)
		}
	}
	if len(valued) == 0 {
		return nil
	}

	target := resolveTarget{ddate: opts.PeriodEnd, qtrs: -1}
	if opts.Qtrs > 0 {
		target.qtrs = opts.Qtrs
	}
	if target.ddate == "" {
		for _, f := range valued {
			if f.DDate > target.ddate {
				target.ddate = f.DDate
			}
		}
	}
	if target.qtrs <= 0 {
		var atDate []NumericFact
		for _, f := range valued {
			if f.DDate == target.ddate {
				atDate = append(atDate, f)
			}
		}
		target.qtrs = modalQtrs(atDate)
	}

	byConcept := make(map[string][]NumericFact)
	for _, f := range valued {
		if f.DDate != target.ddate || (target.qtrs > 0 && f.Qtrs != target.qtrs) {
			continue
		}
		byConcept[f.Concept] = append(byConcept[f.Concept], f)
	}

	concepts := make([]string, 0, len(byConcept))
	for c := range byConcept {
		concepts = append(concepts, c)
	}
	sort.Strings(concepts)

	var rows []StatementRow
	for _, concept := range concepts {
		chosen := chooseFact(byConcept[concept], target)
		if chosen == nil {
			continue
		}
		v := *chosen.Value
		dv := displaySign(role, concept, v, false)
		rows = append(rows, StatementRow{
			Accession:      accession,
			Role:           role,
			Ordinal:        len(rows),
			Depth:          0,
			Concept:        concept,
			Label:          d.Concepts.Label(concept),
			Value:          &v,
			Display:        &dv,
			Formatted:      FormatDisplayValue(dv),
			Unit:           chosen.Unit,
			DDate:          chosen.DDate,
			Qtrs:           chosen.Qtrs,
			Segments:       chosen.Segments,
			Coreg:          chosen.Coreg,
			CandidateCount: len(byConcept[concept]),
		})
	}

	return rows
}
