package fsds

import (
	"fmt"
	"io"
	"os"
)

// BalanceType is the accounting balance orientation of a monetary concept.
type BalanceType int

const (
	BalanceNone BalanceType = iota // non-monetary or orientation not applicable
	BalanceDebit
	BalanceCredit
)

func (b BalanceType) String() string {
	switch b {
	case BalanceDebit:
		return "debit"
	case BalanceCredit:
		return "credit"
	default:
		return "none"
	}
}

// Concept is one tag.txt row: the process-wide metadata of a named
// reporting item. Known is false on the sentinel returned for concepts
// absent from the dictionary; filer-custom tags outside the loaded
// vintage are legitimate, and downstream code must tolerate them.
type Concept struct {
	Name     string
	Version  string // taxonomy version, or the filer's adsh for custom tags
	Label    string
	Datatype string
	Balance  BalanceType
	Abstract bool
	Custom   bool
	Doc      string
	Known    bool
}

// ConceptDictionary indexes concept metadata by concept name.
// Built once per data-set load, read-only afterwards.
type ConceptDictionary struct {
	byName map[string]Concept
}

// ParseConcepts parses a tag.txt stream.
func ParseConcepts(r io.Reader) (*ConceptDictionary, error) {
	table, err := readTSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tag file: %w", err)
	}

	dict := &ConceptDictionary{byName: make(map[string]Concept, len(table.rows))}
	for _, record := range table.rows {
		name := table.field(record, "tag")
		if name == "" {
			continue
		}

		balance := BalanceNone
		switch table.field(record, "crdr") {
		case "D":
			balance = BalanceDebit
		case "C":
			balance = BalanceCredit
		}

		concept := Concept{
			Name:     name,
			Version:  table.field(record, "version"),
			Label:    NormalizeLabel(table.field(record, "tlabel")),
			Datatype: table.field(record, "datatype"),
			Balance:  balance,
			Abstract: table.field(record, "abstract") == "1",
			Custom:   table.field(record, "custom") == "1",
			Doc:      table.field(record, "doc"),
			Known:    true,
		}
		if concept.Label == "" {
			concept.Label = fallbackLabel(name)
		}

		// Standard taxonomy rows win over filer-custom duplicates of the
		// same name; otherwise first row wins.
		if existing, ok := dict.byName[name]; ok {
			if existing.Custom || !concept.Custom {
				continue
			}
		}
		dict.byName[name] = concept
	}

	return dict, nil
}

// LoadConcepts reads and parses a tag.txt file from disk.
func LoadConcepts(path string) (*ConceptDictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag file: %w", err)
	}
	defer f.Close()
	return ParseConcepts(f)
}

// Lookup returns the metadata for a concept name. Unknown concepts get a
// sentinel record: no balance orientation, not abstract, label defaulting
// to a standardized name where one exists, otherwise the raw concept name.
// Lookup never fails.
func (d *ConceptDictionary) Lookup(name string) Concept {
	if d != nil {
		if c, ok := d.byName[name]; ok {
			return c
		}
	}
	return Concept{
		Name:    name,
		Label:   fallbackLabel(name),
		Balance: BalanceNone,
		Known:   false,
	}
}

// Label returns the display label for a concept name.
func (d *ConceptDictionary) Label(name string) string {
	return d.Lookup(name).Label
}

// IsAbstract reports whether the concept is a structural header that
// carries no directly reported value.
func (d *ConceptDictionary) IsAbstract(name string) bool {
	return d.Lookup(name).Abstract
}

// Len returns the number of concepts loaded.
func (d *ConceptDictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byName)
}

// fallbackLabel provides display labels for the concepts that appear on
// nearly every statement, so output stays readable even when a tag.txt
// vintage lacks the label or the concept entirely.
func fallbackLabel(concept string) string {
	if label, ok := standardLabels[concept]; ok {
		return label
	}
	return concept
}

var standardLabels = map[string]string{
	"Assets":                     "Total Assets",
	"AssetsCurrent":              "Total Current Assets",
	"Liabilities":                "Total Liabilities",
	"LiabilitiesCurrent":         "Total Current Liabilities",
	"LiabilitiesAndStockholdersEquity": "Total Liabilities and Stockholders' Equity",
	"StockholdersEquity":         "Stockholders' Equity",
	"CashAndCashEquivalentsAtCarryingValue": "Cash and Cash Equivalents",
	"Revenues":                   "Revenues",
	"RevenueFromContractWithCustomerExcludingAssessedTax": "Revenue",
	"CostOfRevenue":              "Cost of Revenue",
	"GrossProfit":                "Gross Profit",
	"OperatingExpenses":          "Total Operating Expenses",
	"OperatingIncomeLoss":        "Operating Income (Loss)",
	"NetIncomeLoss":              "Net Income (Loss)",
	"ComprehensiveIncomeNetOfTax": "Comprehensive Income (Loss)",
	"EarningsPerShareBasic":      "Earnings Per Share, Basic",
	"EarningsPerShareDiluted":    "Earnings Per Share, Diluted",
	"NetCashProvidedByUsedInOperatingActivities": "Net Cash Provided by Operating Activities",
	"NetCashProvidedByUsedInInvestingActivities": "Net Cash Provided by Investing Activities",
	"NetCashProvidedByUsedInFinancingActivities": "Net Cash Provided by Financing Activities",
}
