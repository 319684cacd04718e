package pipeline

import (
	"fmt"
	"slices"
	"strings"
)

// CycleError reports nodes that depend on each other.
type CycleError struct {
	Path []string // ["a", "b", "a"]
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle: %s", strings.Join(e.Path, " -> "))
}

// Order returns the nodes of def so that every node comes after its input.
//
// The order is deterministic: declaration order is kept, except that a node
// is pulled in front of the first node that needs it. Connecting in this
// order also fixes the order dependents are visited in by a propagation walk.
//
// The algorithm is a depth-first walk in declaration order that emits a node
// after its input, using the usual white/grey/black colouring; meeting a
// grey node means a cycle, reported with its path.
func Order(def *Definition) ([]Node, error) {
	byName := make(map[string]int, len(def.Nodes))
	for i, n := range def.Nodes {
		byName[n.Name] = i
	}

	const (
		white = iota
		grey
		black
	)
	var (
		color = make([]int, len(def.Nodes))
		stack []string
		out   = make([]Node, 0, len(def.Nodes))
	)

	var visit func(i int) error
	visit = func(i int) error {
		switch color[i] {
		case black:
			return nil
		case grey:
			path := append([]string{}, stack[slices.Index(stack, def.Nodes[i].Name):]...)
			return &CycleError{Path: append(path, def.Nodes[i].Name)}
		}

		color[i] = grey
		stack = append(stack, def.Nodes[i].Name)

		// Sources and unknown names end the chain.
		if j, ok := byName[def.Nodes[i].Input]; ok {
			if err := visit(j); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		color[i] = black
		out = append(out, def.Nodes[i])
		return nil
	}

	for i := range def.Nodes {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return out, nil
}
