package progress

// Edge says Target cannot be attempted before Prerequisite is complete.
type Edge struct {
	Target       uint
	Prerequisite uint
}

// Graph is a read-only prerequisite adjacency lookup.
type Graph struct {
	prerequisites map[uint][]uint
}

// NewGraph indexes edges by dependent target.
func NewGraph(edges []Edge) Graph {
	index := make(map[uint][]uint, len(edges))
	for _, edge := range edges {
		index[edge.Target] = append(index[edge.Target], edge.Prerequisite)
	}
	return Graph{prerequisites: index}
}

// PrerequisitesOf returns the direct prerequisites of target.
func (g Graph) PrerequisitesOf(target uint) []uint {
	return g.prerequisites[target]
}

// WouldCycle reports whether adding target -> prerequisite closes a cycle,
// which is the case when target is already reachable from prerequisite.
func (g Graph) WouldCycle(target, prerequisite uint) bool {
	if target == prerequisite {
		return true
	}

	visited := map[uint]struct{}{}
	stack := []uint{prerequisite}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == target {
			return true
		}
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}
		stack = append(stack, g.prerequisites[current]...)
	}
	return false
}
