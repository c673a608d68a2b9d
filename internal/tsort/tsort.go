// Package tsort implements a stable topological sort (Kahn's algorithm),
// used by the plugin registry to order the succeeds/preceeds edges between
// the plugins it has resolved into its load set.
package tsort

import (
	"fmt"
	"strings"
)

type (
	// Edge orders Predecessor strictly before Successor.
	Edge[T comparable] struct {
		Predecessor T
		Successor   T
	}

	// CycleError is returned by Sort when the graph contains a cycle, or
	// otherwise could not be fully ordered. Edges holds whatever edges
	// remained unresolved when the algorithm ran out of zero-in-degree
	// nodes to consume — every cycle in the graph appears in this set.
	CycleError[T comparable] struct {
		Edges []Edge[T]
	}
)

func (e *CycleError[T]) Error() string {
	parts := make([]string, 0, len(e.Edges))
	for _, edge := range e.Edges {
		parts = append(parts, fmt.Sprintf("%v -> %v", edge.Predecessor, edge.Successor))
	}
	return "tsort: cycle detected among edges: " + strings.Join(parts, ", ")
}

// Sort returns a topological ordering of nodes consistent with edges: for
// every edge predecessor->successor, the predecessor precedes the successor
// in the result. Nodes with no ordering constraint between them, relative
// to each other, retain their relative order from the input nodes slice
// (the algorithm processes the FIFO queue of zero-in-degree nodes in the
// order they were discovered, matching the input order for the initial
// batch and discovery order thereafter).
//
// Edges naming a node not present in nodes are ignored for degree
// accounting but never resolve, and so are reported as part of a
// CycleError, the same as an actual cycle; both conditions mean "could not
// produce a total order".
func Sort[T comparable](nodes []T, edges []Edge[T]) ([]T, error) {
	indegree := make(map[T]int, len(nodes))
	known := make(map[T]bool, len(nodes))
	for _, n := range nodes {
		indegree[n] = 0
		known[n] = true
	}
	for _, e := range edges {
		indegree[e.Successor]++
	}

	successors := make(map[T][]Edge[T], len(nodes))
	for _, e := range edges {
		successors[e.Predecessor] = append(successors[e.Predecessor], e)
	}

	queue := make([]T, 0, len(nodes))
	for _, n := range nodes {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	sorted := make([]T, 0, len(nodes))
	remaining := append([]Edge[T](nil), edges...)

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		sorted = append(sorted, node)

		for _, e := range successors[node] {
			if !known[e.Successor] {
				continue
			}
			remaining = removeEdge(remaining, e)
			indegree[e.Successor]--
			if indegree[e.Successor] == 0 {
				queue = append(queue, e.Successor)
			}
		}
	}

	if len(remaining) > 0 {
		return nil, &CycleError[T]{Edges: remaining}
	}

	return sorted, nil
}

func removeEdge[T comparable](edges []Edge[T], target Edge[T]) []Edge[T] {
	for i, e := range edges {
		if e == target {
			return append(edges[:i:i], edges[i+1:]...)
		}
	}
	return edges
}
