package fsds

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Dataset is one loaded quarter of the financial statement data sets: the
// submission index, the fact index, the concept dictionary and the
// presentation relation. Built once per directory load and read-only
// afterwards, so reconstruction requests for different filings (or
// different statements of one filing) can run in parallel without
// coordination.
type Dataset struct {
	Submissions  *SubmissionSet
	Facts        *FactIndex
	Concepts     *ConceptDictionary
	Presentation *PresentationSet

	issues []IntegrityIssue
}

// NewDataset assembles a dataset from already-parsed parts. Facts and
// Presentation are required for reconstruction; Submissions and Concepts
// may be nil and degrade to lookups that find nothing.
func NewDataset(subs *SubmissionSet, facts *FactIndex, concepts *ConceptDictionary, pres *PresentationSet) *Dataset {
	d := &Dataset{
		Submissions:  subs,
		Facts:        facts,
		Concepts:     concepts,
		Presentation: pres,
	}
	if facts != nil {
		d.issues = append(d.issues, facts.Issues()...)
	}
	return d
}

// LoadDataset loads a quarter directory containing sub.txt, num.txt,
// pre.txt and tag.txt. num.txt and pre.txt are required; sub.txt and
// tag.txt are optional and their absence degrades lookups gracefully.
func LoadDataset(dir string) (*Dataset, error) {
	var subs *SubmissionSet
	if path := filepath.Join(dir, "sub.txt"); fileExists(path) {
		var err error
		subs, err = LoadSubmissions(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	var concepts *ConceptDictionary
	if path := filepath.Join(dir, "tag.txt"); fileExists(path) {
		var err error
		concepts, err = LoadConcepts(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	facts, err := LoadFactIndex(filepath.Join(dir, "num.txt"), subs)
	if err != nil {
		return nil, err
	}

	pres, preIssues, err := LoadPresentation(filepath.Join(dir, "pre.txt"))
	if err != nil {
		return nil, err
	}

	d := NewDataset(subs, facts, concepts, pres)
	d.issues = append(d.issues, preIssues...)

	// Presentation rows naming concepts absent from the dictionary are
	// legitimate for custom tags, but a row referencing a filing absent
	// from the submission index is a referential mismatch worth reporting.
	if subs != nil {
		seen := make(map[string]bool)
		for i, row := range pres.rows {
			if seen[row.Accession] {
				continue
			}
			if !subs.Has(row.Accession) {
				seen[row.Accession] = true
				d.issues = append(d.issues, IntegrityIssue{
					File: "pre", Record: i + 1,
					Message: fmt.Sprintf("presentation rows reference filing %s absent from submission index", row.Accession),
				})
			}
		}
	}

	return d, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// IntegrityIssues returns every referential and row-level problem found
// while loading. Issues are informational; they never abort a load.
func (d *Dataset) IntegrityIssues() []IntegrityIssue {
	out := make([]IntegrityIssue, len(d.issues))
	copy(out, d.issues)
	return out
}

// Filing looks up a filing's submission metadata by accession number.
func (d *Dataset) Filing(accession string) (Submission, bool) {
	if d.Submissions == nil {
		return Submission{}, false
	}
	return d.Submissions.ByAccession(accession)
}

// CompanyInfo looks up the filer identity for a CIK.
func (d *Dataset) CompanyInfo(cik string) (Company, bool) {
	if d.Submissions == nil {
		return Company{}, false
	}
	return d.Submissions.CompanyInfo(cik)
}

// FilingsForCompany returns all filings of one company in the quarter.
func (d *Dataset) FilingsForCompany(cik string) []Submission {
	if d.Submissions == nil {
		return nil
	}
	return d.Submissions.FilingsForCIK(cik)
}

// StatementRoles returns the statement roles a filing published.
func (d *Dataset) StatementRoles(accession string) []string {
	return d.Presentation.StatementRoles(accession)
}

// ConceptLabel returns the display label for a concept name, falling back
// to the raw name for unknown concepts.
func (d *Dataset) ConceptLabel(name string) string {
	return d.Concepts.Label(name)
}

// PeriodLabelFor derives a human period label ("FY-2024", "Q3-2024") from
// a filing's duration facts, falling back to the filing date's year.
func (d *Dataset) PeriodLabelFor(accession string) string {
	latest := ""
	var atLatest []NumericFact
	for _, f := range d.Facts.FactsFor(accession) {
		if !f.IsDuration() || !f.IsPrimaryContext() || f.Value == nil {
			continue
		}
		if f.DDate > latest {
			latest = f.DDate
			atLatest = atLatest[:0]
		}
		if f.DDate == latest {
			atLatest = append(atLatest, f)
		}
	}

	if latest != "" {
		if end, err := parseDDate(latest); err == nil {
			return PeriodLabel(end, modalQtrs(atLatest))
		}
	}

	if sub, ok := d.Filing(accession); ok && len(sub.Filed) >= 4 {
		return "FY-" + sub.Filed[:4]
	}
	return ""
}

// SampleAccessions picks filings for batch workflows: newest first by
// filing date, optionally restricted to form types and to one filing per
// company for a broader sample.
func (d *Dataset) SampleAccessions(limit int, forms []string, uniqueCIK bool) []string {
	if d.Submissions == nil {
		return nil
	}

	subs := d.Submissions.All()
	if len(forms) > 0 {
		var filtered []Submission
		for _, form := range forms {
			filtered = append(filtered, FilterByForm(subs, form)...)
		}
		subs = filtered
	}

	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].Filed != subs[j].Filed {
			return subs[i].Filed > subs[j].Filed
		}
		return subs[i].Accession < subs[j].Accession
	})

	seenCIK := make(map[string]bool)
	seenAccession := make(map[string]bool)
	var out []string
	for _, sub := range subs {
		if limit > 0 && len(out) >= limit {
			break
		}
		if seenAccession[sub.Accession] {
			continue
		}
		if uniqueCIK && seenCIK[sub.CIK] {
			continue
		}
		seenAccession[sub.Accession] = true
		seenCIK[sub.CIK] = true
		out = append(out, sub.Accession)
	}
	return out
}
