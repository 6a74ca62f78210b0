package editor

import (
	"sort"
	"strings"

	"nodegraph/geom"
	"nodegraph/graph"
)

// NodeTemplate is a kind of node the finder can spawn.
type NodeTemplate[N any] interface {
	// FinderLabel is what the finder lists and filters on.
	FinderLabel() string
	// NodeLabel becomes the spawned node's label.
	NodeLabel() string
	Payload() N
	// BuildNode adds the template's slots to a freshly added node.
	BuildNode(g *graph.Graph[N], id graph.NodeID)
}

// Finder is the open node-finder popup.
type Finder struct {
	Query    string
	Position geom.Pos2
	// JustSpawned is set until the renderer acknowledges the popup opened.
	JustSpawned bool
}

// Matches returns the templates whose finder label contains the query,
// ignoring case, sorted by label.
func Matches[N any](query string, templates []NodeTemplate[N]) []NodeTemplate[N] {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []NodeTemplate[N]
	for _, t := range templates {
		if q == "" || strings.Contains(strings.ToLower(t.FinderLabel()), q) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FinderLabel() < out[j].FinderLabel() })
	return out
}

// OpenFinder shows the finder at pos, replacing any open one.
func (e *Editor[N]) OpenFinder(pos geom.Pos2) *Finder {
	e.finder = &Finder{Position: pos, JustSpawned: true}
	return e.finder
}

// CloseFinder hides the finder.
func (e *Editor[N]) CloseFinder() {
	e.finder = nil
}

// Finder returns the open finder, or nil.
func (e *Editor[N]) Finder() *Finder {
	return e.finder
}

// Spawn builds a node from t at pos, raises it and closes the finder. The
// CreatedNode response is delivered by the next Update.
func (e *Editor[N]) Spawn(t NodeTemplate[N], pos geom.Pos2) graph.NodeID {
	id := e.graph.AddNode(t.NodeLabel(), t.Payload())
	t.BuildNode(e.graph, id)
	e.session.NodePositions[id] = pos
	syncSession(&e.session, e.graph)
	e.session.Raise(id)
	e.finder = nil
	e.pending = append(e.pending, CreatedNode{Node: id})
	e.history.SaveState(e.graph, &e.session)
	e.log.Debug("node spawned", "node", id, "template", t.FinderLabel())
	return id
}
