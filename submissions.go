package fsds

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Submission is one row of the submission index (sub.txt): a single
// filing with its filer metadata. Immutable once loaded.
type Submission struct {
	Accession     string // adsh, e.g. "0000320193-24-000123"
	CIK           string
	Name          string
	SIC           string
	CountryInc    string
	StateInc      string
	EIN           string
	FiscalYearEnd string // fye, e.g. "1231"
	Form          string // "10-K", "10-Q", ...
	Period        string // balance date of the report, YYYYMMDD
	FiscalYear    string
	FiscalPeriod  string // "FY", "Q1", ...
	Filed         string // filing date, YYYYMMDD
	Accepted      string
	Instance      string // name of the XBRL instance document
}

// Company is the filer identity carried on each submission row.
type Company struct {
	CIK           string
	Name          string
	SIC           string
	Country       string
	State         string
	EIN           string
	FiscalYearEnd string
}

// SubmissionSet indexes the submission rows of one data set by accession
// number and by CIK.
type SubmissionSet struct {
	subs        []Submission
	byAccession map[string]int
	byCIK       map[string][]int
}

// ParseSubmissions parses a sub.txt stream.
func ParseSubmissions(r io.Reader) (*SubmissionSet, error) {
	table, err := readTSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse submission file: %w", err)
	}

	set := &SubmissionSet{
		byAccession: make(map[string]int),
		byCIK:       make(map[string][]int),
	}

	for _, record := range table.rows {
		sub := Submission{
			Accession:     NormalizeAccession(table.field(record, "adsh")),
			CIK:           table.field(record, "cik"),
			Name:          table.field(record, "name"),
			SIC:           table.field(record, "sic"),
			CountryInc:    table.field(record, "countryinc"),
			StateInc:      table.field(record, "stprinc"),
			EIN:           table.field(record, "ein"),
			FiscalYearEnd: table.field(record, "fye"),
			Form:          table.field(record, "form"),
			Period:        table.field(record, "period"),
			FiscalYear:    table.field(record, "fy"),
			FiscalPeriod:  table.field(record, "fp"),
			Filed:         table.field(record, "filed"),
			Accepted:      table.field(record, "accepted"),
			Instance:      table.field(record, "instance"),
		}
		if sub.Accession == "" {
			continue
		}
		idx := len(set.subs)
		set.subs = append(set.subs, sub)
		set.byAccession[sub.Accession] = idx
		set.byCIK[sub.CIK] = append(set.byCIK[sub.CIK], idx)
	}

	return set, nil
}

// LoadSubmissions reads and parses a sub.txt file from disk.
func LoadSubmissions(path string) (*SubmissionSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open submission file: %w", err)
	}
	defer f.Close()
	return ParseSubmissions(f)
}

// All returns every submission in file order.
func (s *SubmissionSet) All() []Submission {
	out := make([]Submission, len(s.subs))
	copy(out, s.subs)
	return out
}

// ByAccession looks up a filing by accession number.
func (s *SubmissionSet) ByAccession(accession string) (Submission, bool) {
	idx, ok := s.byAccession[NormalizeAccession(accession)]
	if !ok {
		return Submission{}, false
	}
	return s.subs[idx], true
}

// Has reports whether the accession number exists in the index.
func (s *SubmissionSet) Has(accession string) bool {
	_, ok := s.byAccession[NormalizeAccession(accession)]
	return ok
}

// FilingsForCIK returns all filings of one company, in file order.
func (s *SubmissionSet) FilingsForCIK(cik string) []Submission {
	var out []Submission
	for _, idx := range s.byCIK[cik] {
		out = append(out, s.subs[idx])
	}
	return out
}

// CompanyInfo returns the filer identity for a CIK from its first
// submission row.
func (s *SubmissionSet) CompanyInfo(cik string) (Company, bool) {
	idxs := s.byCIK[cik]
	if len(idxs) == 0 {
		return Company{}, false
	}
	sub := s.subs[idxs[0]]
	return Company{
		CIK:           sub.CIK,
		Name:          sub.Name,
		SIC:           sub.SIC,
		Country:       sub.CountryInc,
		State:         sub.StateInc,
		EIN:           sub.EIN,
		FiscalYearEnd: sub.FiscalYearEnd,
	}, true
}

// Companies returns the unique filers in the set, sorted by CIK.
func (s *SubmissionSet) Companies() []Company {
	ciks := make([]string, 0, len(s.byCIK))
	for cik := range s.byCIK {
		ciks = append(ciks, cik)
	}
	sort.Strings(ciks)

	out := make([]Company, 0, len(ciks))
	for _, cik := range ciks {
		if c, ok := s.CompanyInfo(cik); ok {
			out = append(out, c)
		}
	}
	return out
}

// FilterByForm filters submissions by form type.
// The base form matches its amendments: "10-K" matches "10-K" and "10-K/A".
func FilterByForm(subs []Submission, formType string) []Submission {
	formType = strings.TrimSpace(formType)
	var filtered []Submission
	for _, sub := range subs {
		if sub.Form == formType || strings.HasPrefix(sub.Form, formType+"/") {
			filtered = append(filtered, sub)
		}
	}
	return filtered
}

// FilterByFiledRange filters submissions by filing date (inclusive).
// Dates are YYYYMMDD strings, which compare correctly as text.
func FilterByFiledRange(subs []Submission, from, to string) []Submission {
	var filtered []Submission
	for _, sub := range subs {
		if sub.Filed >= from && sub.Filed <= to {
			filtered = append(filtered, sub)
		}
	}
	return filtered
}

// NormalizeAccession formats an accession number with its conventional
// dashes: "000032019324000123" -> "0000320193-24-000123". Already-dashed
// and malformed inputs pass through unchanged.
func NormalizeAccession(accession string) string {
	accession = strings.TrimSpace(accession)
	if len(accession) == 18 && !strings.Contains(accession, "-") {
		return accession[:10] + "-" + accession[10:12] + "-" + accession[12:]
	}
	return accession
}
