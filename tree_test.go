package fsds

import (
	"errors"
	"testing"
)

func TestBuildTreeDocumentOrder(t *testing.T) {
	ds := loadQuarter(t)

	tree, err := ds.BuildTree(acmeAccession, "BS")
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}

	wantOrder := []string{
		"StatementOfFinancialPositionAbstract",
		"Assets",
		"AssetsCurrent",
		"AssetsNoncurrent",
		"LiabilitiesAndStockholdersEquity",
		"Liabilities",
		"StockholdersEquity",
	}
	if tree.Len() != len(wantOrder) {
		t.Fatalf("tree has %d nodes, want %d", tree.Len(), len(wantOrder))
	}
	for i, want := range wantOrder {
		if tree.Nodes[i].Concept != want {
			t.Errorf("node %d = %q, want %q", i, tree.Nodes[i].Concept, want)
		}
	}

	if len(tree.Roots) != 1 || tree.Nodes[tree.Roots[0]].Concept != "StatementOfFinancialPositionAbstract" {
		t.Errorf("unexpected roots: %v", tree.Roots)
	}

	assets := tree.Nodes[1]
	if len(assets.Children) != 2 {
		t.Fatalf("Assets has %d children, want 2", len(assets.Children))
	}
	if tree.Nodes[assets.Children[0]].Concept != "AssetsCurrent" {
		t.Errorf("first Assets child = %q, want AssetsCurrent", tree.Nodes[assets.Children[0]].Concept)
	}

	for i, node := range tree.Nodes {
		want := map[string]int{
			"StatementOfFinancialPositionAbstract": 0,
			"Assets":                               1,
			"AssetsCurrent":                        2,
			"AssetsNoncurrent":                     2,
			"LiabilitiesAndStockholdersEquity":     1,
			"Liabilities":                          2,
			"StockholdersEquity":                   2,
		}[node.Concept]
		if node.Depth != want {
			t.Errorf("node %d (%s) depth = %d, want %d", i, node.Concept, node.Depth, want)
		}
	}
}

func TestBuildTreeCycle(t *testing.T) {
	ds := loadQuarter(t)

	// Beta's balance sheet nests Assets under its own descendant.
	_, err := ds.BuildTree(betaAccession, "BS")
	var serr *StructuralError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *StructuralError, got %v", err)
	}
	if serr.Accession != betaAccession || serr.Role != "BS" {
		t.Errorf("StructuralError names %s %s, want %s BS", serr.Accession, serr.Role, betaAccession)
	}
}

func TestBuildTreeNoRows(t *testing.T) {
	ds := loadQuarter(t)

	_, err := ds.BuildTree(acmeAccession, "EQ")
	var serr *StructuralError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *StructuralError for a statement the filer never published, got %v", err)
	}
}

func TestBuildTreeArgumentErrors(t *testing.T) {
	ds := loadQuarter(t)

	if _, err := ds.BuildTree("", "BS"); !errors.Is(err, ErrEmptyAccession) {
		t.Errorf("empty accession: got %v, want ErrEmptyAccession", err)
	}
	if _, err := ds.BuildTree(acmeAccession, "PNL"); !errors.Is(err, ErrUnknownStatementRole) {
		t.Errorf("bad role: got %v, want ErrUnknownStatementRole", err)
	}
}

func TestBuildTreeDuplicateConceptPositions(t *testing.T) {
	// One concept under two different parents keeps both positions.
	edges := []PresentationEdge{
		{Parent: "", Child: "Root", Ordinal: 1, Depth: 0},
		{Parent: "Root", Child: "GroupA", Ordinal: 2, Depth: 1},
		{Parent: "GroupA", Child: "CashAndCashEquivalentsAtCarryingValue", Ordinal: 3, Depth: 2},
		{Parent: "Root", Child: "GroupB", Ordinal: 4, Depth: 1},
		{Parent: "GroupB", Child: "CashAndCashEquivalentsAtCarryingValue", Ordinal: 5, Depth: 2},
	}

	tree, err := buildTree("0001111111-24-000001", "BS", edges)
	if err != nil {
		t.Fatalf("buildTree failed: %v", err)
	}

	positions := 0
	for _, node := range tree.Nodes {
		if node.Concept == "CashAndCashEquivalentsAtCarryingValue" {
			positions++
		}
	}
	if positions != 2 {
		t.Errorf("duplicate concept occupies %d positions, want 2", positions)
	}
}
