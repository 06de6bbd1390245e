package ast

// NodeIndex is a lookup table from node id to node. It never owns the
// nodes it references; the tree does. A NodeIndex is only valid for the
// root it was built from and must be rebuilt whenever the root changes.
type NodeIndex map[string]*Node

// BuildNodeIndex walks the tree once and returns an index of every
// reachable node keyed by id, in O(n).
//
// Malformed nodes are repaired rather than rejected: a node without an
// id receives a fresh fallback id, and a node whose id collides with an
// already-indexed node is re-keyed. A partial document stays navigable;
// traversal never aborts.
func BuildNodeIndex(root *Node) NodeIndex {
	idx := make(NodeIndex)
	if root == nil {
		return idx
	}
	root.Walk(func(n *Node) bool {
		if n.ID == "" {
			n.ID = NewID()
		}
		if _, taken := idx[n.ID]; taken {
			n.ID = NewID()
		}
		idx[n.ID] = n
		return true
	})
	return idx
}

// Get returns the node for the id, or nil if the id is unknown.
func (idx NodeIndex) Get(id string) *Node {
	return idx[id]
}

// Has reports whether the id is present in the index.
func (idx NodeIndex) Has(id string) bool {
	_, ok := idx[id]
	return ok
}
