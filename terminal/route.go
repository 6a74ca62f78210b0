package terminal

import (
	"container/heap"
	"errors"
)

// point is a cell on the grid.
type point struct{ X, Y int }

type direction int

const (
	dirNone direction = iota
	dirNorth
	dirEast
	dirSouth
	dirWest
)

func directionOf(a, b point) direction {
	switch {
	case b.X > a.X:
		return dirEast
	case b.X < a.X:
		return dirWest
	case b.Y > a.Y:
		return dirSouth
	case b.Y < a.Y:
		return dirNorth
	default:
		return dirNone
	}
}

// routeCost is the cost model for wire routing.
type routeCost struct {
	Straight int // Base cost for one step
	Turn     int // Penalty for changing direction
}

var defaultRouteCost = routeCost{Straight: 10, Turn: 20}

var errNoRoute = errors.New("no route found")

// searchNode represents a state in the A* search.
type searchNode struct {
	at     point
	g, f   int
	parent *searchNode
	dir    direction
	index  int
}

type searchQueue []*searchNode

func (q searchQueue) Len() int { return len(q) }
func (q searchQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	// Deterministic tie-break
	if q[i].at.Y != q[j].at.Y {
		return q[i].at.Y < q[j].at.Y
	}
	return q[i].at.X < q[j].at.X
}
func (q searchQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *searchQueue) Push(x any) {
	n := x.(*searchNode)
	n.index = len(*q)
	*q = append(*q, n)
}
func (q *searchQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.index = -1
	*q = old[:len(old)-1]
	return n
}

// router finds orthogonal wire paths around blocked cells.
type router struct {
	cost     routeCost
	maxNodes int
}

func newRouter() *router {
	return &router{cost: defaultRouteCost, maxNodes: 20000}
}

func (r *router) heuristic(p, goal point) int {
	dx, dy := abs(goal.X-p.X), abs(goal.Y-p.Y)
	h := (dx + dy) * r.cost.Straight
	if dx > 0 && dy > 0 {
		h += r.cost.Turn
	}
	return h
}

// route returns the cells from start to end inclusive. Start and end are
// never treated as blocked.
func (r *router) route(start, end point, blocked func(point) bool) ([]point, error) {
	if start == end {
		return []point{start}, nil
	}

	open := &searchQueue{}
	seen := map[point]*searchNode{}
	closed := map[point]bool{}

	first := &searchNode{at: start, f: r.heuristic(start, end)}
	heap.Push(open, first)
	seen[start] = first

	explored := 0
	for open.Len() > 0 {
		explored++
		if explored > r.maxNodes {
			return nil, errNoRoute
		}
		cur := heap.Pop(open).(*searchNode)
		if cur.at == end {
			return r.reconstruct(cur), nil
		}
		closed[cur.at] = true

		for _, next := range []point{
			{cur.at.X, cur.at.Y - 1},
			{cur.at.X + 1, cur.at.Y},
			{cur.at.X, cur.at.Y + 1},
			{cur.at.X - 1, cur.at.Y},
		} {
			if closed[next] || (next != end && blocked(next)) {
				continue
			}
			dir := directionOf(cur.at, next)
			g := cur.g + r.cost.Straight
			if cur.dir != dirNone && cur.dir != dir {
				g += r.cost.Turn
			}
			if n, ok := seen[next]; ok {
				if g < n.g {
					n.g, n.f, n.parent, n.dir = g, g+r.heuristic(next, end), cur, dir
					heap.Fix(open, n.index)
				}
				continue
			}
			n := &searchNode{at: next, g: g, f: g + r.heuristic(next, end), parent: cur, dir: dir}
			heap.Push(open, n)
			seen[next] = n
		}
	}
	return nil, errNoRoute
}

func (r *router) reconstruct(n *searchNode) []point {
	var path []point
	for ; n != nil; n = n.parent {
		path = append(path, n.at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// blockedBy returns an obstacle checker for the laid out boxes within a
// w by h grid.
func (l *Layout) blockedBy(w, h int) func(point) bool {
	return func(p point) bool {
		if p.X < 0 || p.Y < 0 || p.X >= w || p.Y >= h {
			return true
		}
		for _, b := range l.boxes {
			x0, y0 := cell(b.Rect.Min)
			x1, y1 := cell(b.Rect.Max)
			if p.X >= x0 && p.X < x1 && p.Y >= y0 && p.Y < y1 {
				return true
			}
		}
		return false
	}
}

// wireGlyph picks the box-drawing rune for a path cell from its neighbours.
func wireGlyph(prev, at, next point) rune {
	in := directionOf(at, prev)
	out := directionOf(at, next)
	has := func(d direction) bool { return in == d || out == d }
	switch {
	case has(dirEast) && has(dirWest):
		return '─'
	case has(dirNorth) && has(dirSouth):
		return '│'
	case has(dirSouth) && has(dirEast):
		return '┌'
	case has(dirSouth) && has(dirWest):
		return '┐'
	case has(dirNorth) && has(dirEast):
		return '└'
	case has(dirNorth) && has(dirWest):
		return '┘'
	case has(dirEast) || has(dirWest):
		return '─'
	default:
		return '│'
	}
}
