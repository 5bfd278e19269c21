package actions

import "fmt"

// DAG is the prerequisite graph derived from a mode's action_dependencies
// map. Nodes are action types; an edge A→B means B lists A as a prerequisite.
type DAG struct {
	needs map[string][]string
	order []string // topological order
}

// NewDAG builds a DAG from a dependency map using Kahn's algorithm.
// Every referenced prerequisite must itself appear as a node. Returns an
// error on cycles or unknown references so a misconfigured mode fails at
// config build time, not mid-cycle.
func NewDAG(deps map[string][]string) (*DAG, error) {
	d := &DAG{needs: make(map[string][]string, len(deps))}

	nodes := make(map[string]bool, len(deps))
	for name := range deps {
		nodes[name] = true
	}

	inDegree := make(map[string]int, len(deps))
	dependents := make(map[string][]string, len(deps))

	for name, needs := range deps {
		d.needs[name] = append([]string(nil), needs...)
		inDegree[name] += 0
		for _, need := range needs {
			if !nodes[need] {
				return nil, fmt.Errorf("action %q depends on unknown action %q", name, need)
			}
			inDegree[name]++
			dependents[need] = append(dependents[need], name)
		}
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	var order []string
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)

		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, fmt.Errorf("cycle detected in action dependencies")
	}

	d.order = order
	return d, nil
}

// Contains reports whether the action type is a node of the graph.
func (d *DAG) Contains(name string) bool {
	_, ok := d.needs[name]
	return ok
}

// Ready returns the action types whose prerequisites are all in the
// completed set, in topological order.
func (d *DAG) Ready(completed map[string]bool) []string {
	var ready []string
	for _, name := range d.order {
		if completed[name] {
			continue
		}
		allDone := true
		for _, need := range d.needs[name] {
			if !completed[need] {
				allDone = false
				break
			}
		}
		if allDone {
			ready = append(ready, name)
		}
	}
	return ready
}

// Len returns the number of nodes.
func (d *DAG) Len() int {
	return len(d.needs)
}
