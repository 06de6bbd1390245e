package ast

// Passage is the denormalized projection of one passage node: the node
// id, its derived display reference and its quoted text.
type Passage struct {
	NodeID    string `json:"nodeId"`
	Reference string `json:"reference,omitempty"`
	Text      string `json:"text"`
}

// PassageIndex lists every passage node of a tree in pre-order, which
// matches document reading order.
type PassageIndex []Passage

// ExtractedQuote is the cached display projection of a quoted passage,
// ready for list views and export.
type ExtractedQuote struct {
	NodeID      string `json:"nodeId"`
	Reference   string `json:"reference,omitempty"`
	DisplayText string `json:"displayText"`
	Verified    bool   `json:"verified"`
	NonBiblical bool   `json:"nonBiblical"`
}

// Extracted is the cached set of quote projections derived from a root.
// It is regenerated atomically with every node-index rebuild and never
// mutated independently.
type Extracted struct {
	Quotes []ExtractedQuote `json:"quotes"`
}

// BuildPassageIndex derives the flat passage list from the tree in a
// single pre-order traversal. nodeIndex keys the traversal: only nodes
// reachable through it are considered, which keeps the passage index
// consistent with the node index it was built alongside.
func BuildPassageIndex(root *Node, nodeIndex NodeIndex) PassageIndex {
	passages := PassageIndex{}
	if root == nil {
		return passages
	}
	root.Walk(func(n *Node) bool {
		if n.Kind != KindPassage || !nodeIndex.Has(n.ID) {
			return true
		}
		passages = append(passages, Passage{
			NodeID:    n.ID,
			Reference: FormatReference(n.Ref),
			Text:      n.PlainText(),
		})
		return true
	})
	return passages
}

// BuildExtracted derives the cached quote projections in a single
// pre-order traversal.
func BuildExtracted(root *Node, nodeIndex NodeIndex) Extracted {
	extracted := Extracted{Quotes: []ExtractedQuote{}}
	if root == nil {
		return extracted
	}
	root.Walk(func(n *Node) bool {
		if n.Kind != KindPassage || !nodeIndex.Has(n.ID) {
			return true
		}
		quote := ExtractedQuote{
			NodeID:      n.ID,
			Reference:   FormatReference(n.Ref),
			DisplayText: n.PlainText(),
		}
		if n.Ref != nil {
			quote.Verified = n.Ref.Verified
			quote.NonBiblical = n.Ref.NonBiblical
		}
		extracted.Quotes = append(extracted.Quotes, quote)
		return true
	})
	return extracted
}
