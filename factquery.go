package fsds

import (
	"fmt"
	"sort"
	"strings"
)

// FactQuery provides a fluent interface for querying the facts of one filing.
type FactQuery struct {
	facts         []NumericFact
	conceptFilter []string
	endFilter     string
	instantOnly   bool
	durationOnly  bool
	primaryOnly   bool
}

// Query returns a new FactQuery over every fact of one filing.
func (ix *FactIndex) Query(accession string) *FactQuery {
	return &FactQuery{facts: ix.FactsFor(accession)}
}

// ByConcept filters facts by concept name. A filter entry matches exactly
// or as a substring (e.g. "ComprehensiveIncome" matches the whole family).
func (q *FactQuery) ByConcept(concepts ...string) *FactQuery {
	q.conceptFilter = concepts
	return q
}

// ForPeriodEndingOn filters facts by period end date (YYYYMMDD).
func (q *FactQuery) ForPeriodEndingOn(ddate string) *FactQuery {
	q.endFilter = ddate
	return q
}

// InstantOnly returns only instant facts (balance sheet items).
func (q *FactQuery) InstantOnly() *FactQuery {
	q.instantOnly = true
	return q
}

// DurationOnly returns only duration facts (income statement items).
func (q *FactQuery) DurationOnly() *FactQuery {
	q.durationOnly = true
	return q
}

// PrimaryContextOnly returns only consolidated, undimensioned facts.
func (q *FactQuery) PrimaryContextOnly() *FactQuery {
	q.primaryOnly = true
	return q
}

// Get returns all matching facts.
func (q *FactQuery) Get() []NumericFact {
	var results []NumericFact

	for _, fact := range q.facts {
		if len(q.conceptFilter) > 0 {
			matched := false
			for _, concept := range q.conceptFilter {
				if fact.Concept == concept || strings.Contains(fact.Concept, concept) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}

		if q.endFilter != "" && fact.DDate != q.endFilter {
			continue
		}
		if q.instantOnly && !fact.IsInstant() {
			continue
		}
		if q.durationOnly && !fact.IsDuration() {
			continue
		}
		if q.primaryOnly && !fact.IsPrimaryContext() {
			continue
		}

		results = append(results, fact)
	}

	return results
}

// First returns the first matching fact, or an error if none match.
func (q *FactQuery) First() (*NumericFact, error) {
	results := q.Get()
	if len(results) == 0 {
		return nil, fmt.Errorf("no facts found")
	}
	return &results[0], nil
}

// MostRecent returns the matching fact with the latest period end date.
func (q *FactQuery) MostRecent() (*NumericFact, error) {
	results := q.Get()
	if len(results) == 0 {
		return nil, fmt.Errorf("no facts found")
	}

	// DDate is YYYYMMDD, so lexical order is date order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DDate > results[j].DDate
	})

	return &results[0], nil
}

// Sum returns the sum of all matching facts that carry a value.
func (q *FactQuery) Sum() (float64, error) {
	results := q.Get()
	if len(results) == 0 {
		return 0, fmt.Errorf("no facts found")
	}

	var sum float64
	for _, fact := range results {
		if fact.Value != nil {
			sum += *fact.Value
		}
	}

	return sum, nil
}
