package report

import (
	"sort"

	"budgetview/internal/core"
)

// Node is one level of a hierarchical breakdown. For every interior node the
// amount equals the sum of its children; expansion state is the consumer's
// concern, the tree only guarantees the sums.
type Node struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
	Nodes  []Node     `json:"nodes,omitempty"`
}

// CategoryTree builds the group -> category breakdown for a transaction set.
// Only groups touched by at least one transaction appear; unresolved
// categories roll into an Uncategorized group. Groups and leaves are ordered
// heaviest (most negative) first.
func CategoryTree(b *core.BudgetDetail, transactions []core.Transaction) []Node {
	type catMeta struct {
		name    string
		groupID string
	}
	cats := make(map[string]catMeta, len(b.Categories))
	for _, c := range b.Categories {
		cats[c.ID] = catMeta{name: c.Name, groupID: c.CategoryGroupID}
	}
	groupNames := make(map[string]string, len(b.CategoryGroups))
	for _, g := range b.CategoryGroups {
		groupNames[g.ID] = g.Name
	}

	// group id -> category id -> leaf
	groups := make(map[string]map[string]*Node)
	groupOrder := []string{}
	for _, t := range transactions {
		catID := t.CategoryID
		meta, ok := cats[catID]
		if !ok {
			catID = UncategorizedID
			meta = catMeta{name: UncategorizedName, groupID: UncategorizedID}
		}
		groupID := meta.groupID
		if _, ok := groupNames[groupID]; !ok && groupID != UncategorizedID {
			groupID = UncategorizedID
		}
		leaves, ok := groups[groupID]
		if !ok {
			leaves = make(map[string]*Node)
			groups[groupID] = leaves
			groupOrder = append(groupOrder, groupID)
		}
		leaf, ok := leaves[catID]
		if !ok {
			leaf = &Node{ID: catID, Name: meta.name}
			leaves[catID] = leaf
		}
		leaf.Amount = leaf.Amount.Add(t.Amount)
	}

	out := make([]Node, 0, len(groupOrder))
	for _, groupID := range groupOrder {
		name, ok := groupNames[groupID]
		if !ok {
			name = UncategorizedName
		}
		node := Node{ID: groupID, Name: name}
		for _, leaf := range groups[groupID] {
			node.Amount = node.Amount.Add(leaf.Amount)
			node.Nodes = append(node.Nodes, *leaf)
		}
		sort.SliceStable(node.Nodes, func(i, j int) bool {
			return node.Nodes[i].Amount.Cents < node.Nodes[j].Amount.Cents
		})
		out = append(out, node)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents < out[j].Amount.Cents
	})
	return out
}
