// Package aggregate turns a filtered record set into the data each linked
// chart draws. Every aggregator is pure and returns a well-formed empty value
// for an empty input.
package aggregate

import "streamlens/catalog"

// NodeKind tags which filter dimension a chart element belongs to, so a
// click on it maps to exactly one filter field.
type NodeKind string

const (
	KindPlatform  NodeKind = "platform"
	KindGenre     NodeKind = "genre"
	KindAudience  NodeKind = "audience"
	KindCountry   NodeKind = "country"
	KindContinent NodeKind = "continent"
)

// NodeID identifies a node of the flow graph.
type NodeID struct {
	Kind  NodeKind `json:"kind"`
	Value string   `json:"value"`
}

// Node is a flow-graph node with its display label and the number of
// titles flowing through it.
type Node struct {
	NodeID
	Label string `json:"label"`
	Total int    `json:"total"`
}

// Edge is a weighted link between two adjacent layers.
type Edge struct {
	Source NodeID `json:"source"`
	Target NodeID `json:"target"`
	Count  int    `json:"count"`
}

// FlowGraph is the platform → genre → audience co-occurrence graph.
type FlowGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Valid int    `json:"valid"`
}

var audienceLabels = map[string]string{
	"adult":    "Adult",
	"child":    "Children",
	"teenager": "Teenager",
	"toddlers": "Toddler",
}

// AudienceLabel returns the display label of an audience category.
func AudienceLabel(audience string) string {
	if label, ok := audienceLabels[audience]; ok {
		return label
	}
	return audience
}

// ValidForFlow reports whether a record can be placed on the flow diagram.
func ValidForFlow(r catalog.Record) bool {
	return r.Platform != "" && r.MainGenre != "" && r.MainGenre != catalog.Unknown && r.Audience != ""
}

// Flow counts platform → main genre and main genre → audience links over the
// valid records. Nodes and edges keep first-appearance order, platform→genre
// edges before genre→audience edges.
func Flow(records []catalog.Record) FlowGraph {
	g := FlowGraph{Nodes: []Node{}, Edges: []Edge{}}

	nodeIndex := make(map[NodeID]int)
	addNode := func(id NodeID) {
		if i, ok := nodeIndex[id]; ok {
			g.Nodes[i].Total++
			return
		}
		label := id.Value
		if id.Kind == KindAudience {
			label = AudienceLabel(id.Value)
		}
		nodeIndex[id] = len(g.Nodes)
		g.Nodes = append(g.Nodes, Node{NodeID: id, Label: label, Total: 1})
	}

	var first, second []Edge
	firstIndex := make(map[[2]NodeID]int)
	secondIndex := make(map[[2]NodeID]int)
	addEdge := func(layer *[]Edge, index map[[2]NodeID]int, from, to NodeID) {
		key := [2]NodeID{from, to}
		if i, ok := index[key]; ok {
			(*layer)[i].Count++
			return
		}
		index[key] = len(*layer)
		*layer = append(*layer, Edge{Source: from, Target: to, Count: 1})
	}

	for _, r := range records {
		if !ValidForFlow(r) {
			continue
		}
		platform := NodeID{Kind: KindPlatform, Value: r.Platform}
		genre := NodeID{Kind: KindGenre, Value: r.MainGenre}
		audience := NodeID{Kind: KindAudience, Value: r.Audience}

		addNode(platform)
		addNode(genre)
		addNode(audience)
		addEdge(&first, firstIndex, platform, genre)
		addEdge(&second, secondIndex, genre, audience)
		g.Valid++
	}

	g.Edges = append(g.Edges, first...)
	g.Edges = append(g.Edges, second...)
	return g
}

// EdgeCount returns the count of the edge between two nodes, or zero.
func (g FlowGraph) EdgeCount(source, target NodeID) int {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target {
			return e.Count
		}
	}
	return 0
}

// LayerSums returns the summed counts of the platform→genre and
// genre→audience layers.
func (g FlowGraph) LayerSums() (platformGenre, genreAudience int) {
	for _, e := range g.Edges {
		switch e.Source.Kind {
		case KindPlatform:
			platformGenre += e.Count
		case KindGenre:
			genreAudience += e.Count
		}
	}
	return platformGenre, genreAudience
}
