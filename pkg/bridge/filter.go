package bridge

// FilterDirtyAncestors returns the members of nodes that have no proper
// ancestor (at any depth) in nodes, in input order. Duplicates are dropped.
//
// Ancestor walks are memoized: every node visited on a walk is recorded with
// the walk's answer, so shared ancestry is traversed once.
func FilterDirtyAncestors(nodes []Node) []Node {
	if len(nodes) == 0 {
		return nil
	}
	in := make(map[Node]struct{}, len(nodes))
	for _, n := range nodes {
		in[n] = struct{}{}
	}

	memo := make(map[Node]bool)
	seen := make(map[Node]struct{}, len(nodes))
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if !hasDirtyAncestor(n, in, memo) {
			out = append(out, n)
		}
	}
	return out
}

func hasDirtyAncestor(n Node, in map[Node]struct{}, memo map[Node]bool) bool {
	if v, ok := memo[n]; ok {
		return v
	}
	var path []Node
	found := false
	for p := n.ParentNode(); p != nil; p = p.ParentNode() {
		if _, ok := in[p]; ok {
			found = true
			break
		}
		if v, ok := memo[p]; ok {
			found = v
			break
		}
		path = append(path, p)
	}
	memo[n] = found
	for _, p := range path {
		memo[p] = found
	}
	return found
}
