package vault

import (
	"fmt"
	"sort"
)

// nodeKind tags one graph node by entity type, so buildGraph can form
// edges without string-parsing ambiguity between e.g. a Hub and a
// Satellite that happen to share a name.
type nodeKind string

const (
	nodeHub       nodeKind = "hub"
	nodeLink      nodeKind = "link"
	nodeSatellite nodeKind = "sat"
	nodePIT       nodeKind = "pit"
	nodeBridge    nodeKind = "bridge"
)

func node(kind nodeKind, name string) string { return string(kind) + ":" + name }

func splitNode(n string) (nodeKind, string) {
	for i := 0; i < len(n); i++ {
		if n[i] == ':' {
			return nodeKind(n[:i]), n[i+1:]
		}
	}
	return "", n
}

// buildGraph forms the dependency graph §9 requires be acyclic: edges
// point from a dependency to its dependent (Hub -> Link that references
// it, Hub/Link -> Satellite parented on it, Hub/Satellite -> PIT,
// Hub/Link -> Bridge).
func buildGraph(model Model) map[string][]string {
	g := make(map[string][]string)
	addEdge := func(from, to string) { g[from] = append(g[from], to) }
	ensure := func(n string) {
		if _, ok := g[n]; !ok {
			g[n] = nil
		}
	}

	for _, h := range model.Hubs {
		ensure(node(nodeHub, h.Name))
	}
	for _, l := range model.Links {
		ln := node(nodeLink, l.Name)
		ensure(ln)
		for _, ref := range l.Refs {
			addEdge(node(nodeHub, ref.Hub), ln)
		}
	}
	for _, s := range model.Satellites {
		sn := node(nodeSatellite, s.Name)
		ensure(sn)
		switch s.ParentKind {
		case ParentHub:
			addEdge(node(nodeHub, s.ParentName), sn)
		case ParentLink:
			addEdge(node(nodeLink, s.ParentName), sn)
		}
	}
	for _, p := range model.PITs {
		pn := node(nodePIT, p.Name)
		ensure(pn)
		addEdge(node(nodeHub, p.Hub), pn)
		for _, s := range p.Satellites {
			addEdge(node(nodeSatellite, s), pn)
		}
	}
	for _, br := range model.Bridges {
		bn := node(nodeBridge, br.Name)
		ensure(bn)
		addEdge(node(nodeHub, br.Hub), bn)
		for _, l := range br.Links {
			addEdge(node(nodeLink, l), bn)
		}
	}
	return g
}

// topologicalOrder runs Kahn's algorithm over g (dependency -> dependents):
// repeatedly remove a zero-in-degree node and decrement its neighbors'
// in-degree. A DAG empties the queue into a full ordering; a cycle
// leaves nodes stranded with positive in-degree, the signal this vault
// model is invalid (§9: "the builder validates acyclicity by
// topological order before execution").
func topologicalOrder(g map[string][]string) ([]string, error) {
	inDegree := make(map[string]int, len(g))
	for n := range g {
		inDegree[n] = 0
	}
	for _, dependents := range g {
		for _, d := range dependents {
			inDegree[d]++
		}
	}

	var queue []string
	for n, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, n)
		}
	}
	sort.Strings(queue) // deterministic build order for same-degree nodes

	var order []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)

		var freed []string
		for _, d := range g[n] {
			inDegree[d]--
			if inDegree[d] == 0 {
				freed = append(freed, d)
			}
		}
		sort.Strings(freed)
		queue = append(queue, freed...)
	}

	if len(order) != len(g) {
		return nil, fmt.Errorf("vault: cyclic reference among hub/link/satellite/pit/bridge entities")
	}
	return order, nil
}
