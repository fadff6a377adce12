package fsds

import (
	"sort"
)

// TreeNode is one position in a statement's presentation hierarchy. A
// concept may occupy several positions when distinct edges place it under
// different parents (a subtotal can also appear as a detail line).
type TreeNode struct {
	Concept  string
	Label    string // preferred label from the edge; "" falls back to the dictionary
	Depth    int
	Ordinal  int // rank among siblings, unique per parent
	Negating bool
	Children []int // arena indices of this node's children, in ordinal order
}

// StatementTree is the ordered forest of one (filing, statement role),
// stored as an arena: Nodes is in document order (depth-first, sibling
// ordinals ascending), so walking it by index replays the filer's layout.
// Built per request, discarded after use.
type StatementTree struct {
	Accession string
	Role      string
	Nodes     []TreeNode
	Roots     []int
}

// Len returns the number of tree positions.
func (t *StatementTree) Len() int { return len(t.Nodes) }

// buildTree assembles the forest from flat edges. Children are grouped by
// parent and sorted by ordinal (ties broken by concept name for
// determinism); roots are the positions that never appear as a child.
// Revisiting a concept already on the current root-to-node path means the
// input is cyclic, and the whole statement is rejected as structurally
// invalid rather than recursed into.
func buildTree(accession, role string, edges []PresentationEdge) (*StatementTree, error) {
	if len(edges) == 0 {
		return nil, &StructuralError{Accession: accession, Role: role, Reason: "no presentation rows"}
	}

	children := make(map[string][]PresentationEdge)
	isChild := make(map[string]bool)
	for _, e := range edges {
		children[e.Parent] = append(children[e.Parent], e)
		if e.Parent != "" {
			isChild[e.Child] = true
		}
	}
	for parent := range children {
		group := children[parent]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Ordinal != group[j].Ordinal {
				return group[i].Ordinal < group[j].Ordinal
			}
			return group[i].Child < group[j].Child
		})
	}

	roots := children[""]
	if len(roots) == 0 {
		// No explicit roots in the relation: fall back to parents that are
		// never anyone's child. An empty result here means every concept is
		// somebody's child, which only a cycle can produce.
		roots = orphanParents(children, isChild)
		if len(roots) == 0 {
			return nil, &StructuralError{Accession: accession, Role: role, Reason: "presentation cycle: no root concept"}
		}
	}

	t := &StatementTree{Accession: accession, Role: role}
	onPath := make(map[string]bool)

	var insert func(e PresentationEdge, depth int) (int, error)
	insert = func(e PresentationEdge, depth int) (int, error) {
		if onPath[e.Child] {
			return 0, &StructuralError{
				Accession: accession, Role: role,
				Reason: "presentation cycle at concept " + e.Child,
			}
		}

		idx := len(t.Nodes)
		t.Nodes = append(t.Nodes, TreeNode{
			Concept:  e.Child,
			Label:    e.Label,
			Depth:    depth,
			Ordinal:  e.Ordinal,
			Negating: e.Negating,
		})

		onPath[e.Child] = true
		defer delete(onPath, e.Child)

		for _, ce := range children[e.Child] {
			ci, err := insert(ce, depth+1)
			if err != nil {
				return 0, err
			}
			t.Nodes[idx].Children = append(t.Nodes[idx].Children, ci)
		}
		return idx, nil
	}

	for _, root := range roots {
		ri, err := insert(root, 0)
		if err != nil {
			return nil, err
		}
		t.Roots = append(t.Roots, ri)
	}

	return t, nil
}

// orphanParents synthesizes root edges for parents that never appear as a
// child, ordered by their first child's ordinal.
func orphanParents(children map[string][]PresentationEdge, isChild map[string]bool) []PresentationEdge {
	var roots []PresentationEdge
	for parent, group := range children {
		if parent == "" || isChild[parent] {
			continue
		}
		roots = append(roots, PresentationEdge{
			Parent:  "",
			Child:   parent,
			Ordinal: group[0].Ordinal,
		})
	}
	sort.SliceStable(roots, func(i, j int) bool {
		if roots[i].Ordinal != roots[j].Ordinal {
			return roots[i].Ordinal < roots[j].Ordinal
		}
		return roots[i].Child < roots[j].Child
	})
	return roots
}
