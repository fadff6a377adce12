package fsds

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// NumericFact is one num.txt row: a reported value keyed by filing,
// concept, reporting context (segments/coreg), unit and duration
// qualifier. Write-once per load, never mutated.
type NumericFact struct {
	Accession string
	Concept   string
	Version   string // taxonomy version the filer used for this tag
	DDate     string // period end date (instant date for qtrs == 0), YYYYMMDD
	Qtrs      int    // 0 = instant, N = duration spanning N quarters ending on DDate
	Unit      string // uom: "USD", "shares", "pure", ...
	Segments  string // dimensional segment description, "" = consolidated total
	Coreg     string // co-registrant, "" = parent filer
	Value     *float64
	Decimals  int // reported precision; 0 on vintages without the column
	Footnote  string

	record int // 1-based num.txt record this fact came from; 0 when built in memory
}

// IsInstant reports whether this is an as-of measurement (balance-sheet style).
func (f *NumericFact) IsInstant() bool { return f.Qtrs == 0 }

// IsDuration reports whether this fact spans a period ending on DDate.
func (f *NumericFact) IsDuration() bool { return f.Qtrs > 0 }

// IsPrimaryContext reports whether the fact belongs to the consolidated,
// undimensioned reporting view, the one base statement lines come from.
func (f *NumericFact) IsPrimaryContext() bool {
	return f.Segments == "" && f.Coreg == ""
}

// EndDate parses the fact's period end date.
func (f *NumericFact) EndDate() (time.Time, error) {
	return parseDDate(f.DDate)
}

// contextKey is the deterministic identity of a fact's reporting context,
// used as the last-resort tie-break when all preferences are exhausted.
func (f *NumericFact) contextKey() string {
	return f.Segments + "|" + f.Coreg + "|" + f.Unit
}

type factKey struct {
	accession string
	concept   string
}

// FactIndex indexes numeric facts by filing and by (filing, concept).
// Built once per data-set load, then treated as immutable: concurrent
// lookups need no coordination.
type FactIndex struct {
	facts           []NumericFact
	byFiling        map[string][]int
	byFilingConcept map[factKey][]int
	issues          []IntegrityIssue
}

// ParseNumericFacts parses a num.txt stream. Rows with unparseable
// numeric columns are recorded as integrity issues and skipped, not fatal.
func ParseNumericFacts(r io.Reader) ([]NumericFact, []IntegrityIssue, error) {
	table, err := readTSV(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse numeric file: %w", err)
	}

	decimalsCol := ""
	for _, name := range []string{"decimals", "dcml"} {
		if table.hasColumn(name) {
			decimalsCol = name
			break
		}
	}

	var facts []NumericFact
	var issues []IntegrityIssue
	for i, record := range table.rows {
		fact := NumericFact{
			Accession: NormalizeAccession(table.field(record, "adsh")),
			Concept:   table.field(record, "tag"),
			Version:   table.field(record, "version"),
			DDate:     table.field(record, "ddate"),
			Unit:      table.field(record, "uom"),
			Segments:  table.field(record, "segments"),
			Coreg:     table.field(record, "coreg"),
			Footnote:  table.field(record, "footnote"),
			record:    i + 1,
		}
		if fact.Accession == "" || fact.Concept == "" {
			issues = append(issues, IntegrityIssue{
				File: "num", Record: i + 1, Message: "missing accession or concept",
			})
			continue
		}

		qtrs, err := strconv.Atoi(table.field(record, "qtrs"))
		if err != nil || qtrs < 0 {
			issues = append(issues, IntegrityIssue{
				File: "num", Record: i + 1,
				Message: fmt.Sprintf("invalid quarter count %q for %s", table.field(record, "qtrs"), fact.Concept),
			})
			continue
		}
		fact.Qtrs = qtrs

		// A missing value is legitimate (footnote-only rows); a malformed
		// one is an integrity issue worth reporting.
		if raw := table.field(record, "value"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				issues = append(issues, IntegrityIssue{
					File: "num", Record: i + 1,
					Message: fmt.Sprintf("invalid value %q for %s", raw, fact.Concept),
				})
				continue
			}
			fact.Value = &v
		}

		if decimalsCol != "" {
			if d, err := strconv.Atoi(table.field(record, decimalsCol)); err == nil {
				fact.Decimals = d
			}
		}

		facts = append(facts, fact)
	}

	return facts, issues, nil
}

// NewFactIndex builds the fact index. When a submission set is supplied,
// every fact's filing is checked against it; referential mismatches are
// collected as integrity issues, never raised.
func NewFactIndex(facts []NumericFact, subs *SubmissionSet) *FactIndex {
	ix := &FactIndex{
		facts:           facts,
		byFiling:        make(map[string][]int),
		byFilingConcept: make(map[factKey][]int),
	}

	for i, fact := range facts {
		ix.byFiling[fact.Accession] = append(ix.byFiling[fact.Accession], i)
		key := factKey{accession: fact.Accession, concept: fact.Concept}
		ix.byFilingConcept[key] = append(ix.byFilingConcept[key], i)

		if subs != nil && !subs.Has(fact.Accession) {
			// Point at the source file line, not the slice position: the
			// parser may have skipped records before this fact.
			rec := fact.record
			if rec == 0 {
				rec = i + 1
			}
			ix.issues = append(ix.issues, IntegrityIssue{
				File: "num", Record: rec,
				Message: fmt.Sprintf("fact %s references filing %s absent from submission index", fact.Concept, fact.Accession),
			})
		}
	}

	return ix
}

// LoadFactIndex reads a num.txt file and indexes it against subs
// (which may be nil to skip the referential check).
func LoadFactIndex(path string, subs *SubmissionSet) (*FactIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open numeric file: %w", err)
	}
	defer f.Close()

	facts, issues, err := ParseNumericFacts(f)
	if err != nil {
		return nil, err
	}
	ix := NewFactIndex(facts, subs)
	ix.issues = append(issues, ix.issues...)
	return ix, nil
}

// FactsFor returns every fact of one filing. Empty slice, never an error,
// when the filing reported nothing.
func (ix *FactIndex) FactsFor(accession string) []NumericFact {
	return ix.collect(ix.byFiling[NormalizeAccession(accession)])
}

// ConceptFacts returns the facts reported under one concept of one filing.
func (ix *FactIndex) ConceptFacts(accession, concept string) []NumericFact {
	key := factKey{accession: NormalizeAccession(accession), concept: concept}
	return ix.collect(ix.byFilingConcept[key])
}

// InstantFacts returns instantaneous facts for a concept, optionally
// restricted to a target as-of date (YYYYMMDD; "" = any).
func (ix *FactIndex) InstantFacts(accession, concept, asOf string) []NumericFact {
	var out []NumericFact
	for _, f := range ix.ConceptFacts(accession, concept) {
		if !f.IsInstant() {
			continue
		}
		if asOf != "" && f.DDate != asOf {
			continue
		}
		out = append(out, f)
	}
	return out
}

// DurationFacts returns duration facts for a concept, optionally
// restricted to a period end date ("" = any) and quarter count (< 0 = any).
func (ix *FactIndex) DurationFacts(accession, concept, end string, qtrs int) []NumericFact {
	var out []NumericFact
	for _, f := range ix.ConceptFacts(accession, concept) {
		if !f.IsDuration() {
			continue
		}
		if end != "" && f.DDate != end {
			continue
		}
		if qtrs >= 0 && f.Qtrs != qtrs {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Issues returns the integrity issues collected during construction.
func (ix *FactIndex) Issues() []IntegrityIssue {
	return ix.issues
}

// Len returns the number of indexed facts.
func (ix *FactIndex) Len() int { return len(ix.facts) }

func (ix *FactIndex) collect(idxs []int) []NumericFact {
	if len(idxs) == 0 {
		return nil
	}
	out := make([]NumericFact, len(idxs))
	for i, idx := range idxs {
		out[i] = ix.facts[idx]
	}
	return out
}
