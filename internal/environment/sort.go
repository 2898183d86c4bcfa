package environment

// SortedComponents is the result of a topological sort: startup order
// (dependencies first) and its exact reverse for shutdown.
type SortedComponents struct {
	StartupOrder  []*Node
	ShutdownOrder []*Node
}

// TopologicalSort orders components so that every node appears after
// all of its Parents (dependencies); DFS-based, parents visited before self.
func (g *Graph) TopologicalSort() (*SortedComponents, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	for _, node := range g.Nodes {
		node.visited = false
	}

	var sorted []*Node
	var visit func(*Node) error
	visit = func(node *Node) error {
		if node.visited {
			return nil
		}
		node.visited = true

		for _, parent := range node.Parents {
			if err := visit(parent); err != nil {
				return err
			}
		}

		sorted = append(sorted, node)
		return nil
	}

	for _, node := range g.Nodes {
		if !node.visited {
			if err := visit(node); err != nil {
				return nil, err
			}
		}
	}

	shutdown := make([]*Node, len(sorted))
	for i, node := range sorted {
		shutdown[len(sorted)-1-i] = node
	}

	return &SortedComponents{StartupOrder: sorted, ShutdownOrder: shutdown}, nil
}
