package terminal

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"nodegraph/editor"
	"nodegraph/geom"
	"nodegraph/graph"
	"nodegraph/templates"
)

var (
	styleDefault  = tcell.StyleDefault
	styleBorder   = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleWire     = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleDragWire = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleBox      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleInline   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus   = tcell.StyleDefault.Reverse(true)
	styleFinder   = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleFinderOn = tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorNavy)
)

var defaultTitle = colorful.Color{R: 0.35, G: 0.35, B: 0.45}

// titleColor resolves a payload colour. Selected nodes are lightened.
func titleColor(hex string, selected bool) colorful.Color {
	c := defaultTitle
	if hex != "" {
		if parsed, err := colorful.Hex(hex); err == nil {
			c = parsed
		}
	}
	if selected {
		c = c.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.35).Clamped()
	}
	return c
}

func tcellColor(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func cell(p geom.Pos2) (int, int) {
	return int(math.Floor(p.X)), int(math.Floor(p.Y))
}

// drawText writes s at x, y and returns the column after it.
func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) int {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
	return x
}

// drawLine plots a straight run of cells between two points.
func drawLine(s tcell.Screen, a, b geom.Pos2, style tcell.Style) {
	x0, y0 := cell(a)
	x1, y1 := cell(b)
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		s.SetContent(x0, y0, '·', nil, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func drawRect(s tcell.Screen, r geom.Rect, style tcell.Style) {
	x0, y0 := cell(r.Min)
	x1, y1 := cell(r.Max)
	for x := x0; x <= x1; x++ {
		s.SetContent(x, y0, '─', nil, style)
		s.SetContent(x, y1, '─', nil, style)
	}
	for y := y0; y <= y1; y++ {
		s.SetContent(x0, y, '│', nil, style)
		s.SetContent(x1, y, '│', nil, style)
	}
	s.SetContent(x0, y0, '┌', nil, style)
	s.SetContent(x1, y0, '┐', nil, style)
	s.SetContent(x0, y1, '└', nil, style)
	s.SetContent(x1, y1, '┘', nil, style)
}

// drawWires draws every connection, then the wire being dragged.
func (a *App) drawWires(l *Layout) {
	g := a.ed.Graph()
	w, h := a.screen.Size()
	blocked := l.blockedBy(w, h-1)
	r := newRouter()
	for _, c := range g.Connections() {
		from, ok1 := l.Port(c.Output.Slot())
		to, ok2 := l.Port(c.Input.Slot())
		if ok1 && ok2 {
			a.drawWire(r, blocked, from, to)
		}
	}

	if drag := a.ed.Session().ConnectionInProgress; drag != nil && a.hasPointer {
		if from, ok := l.Port(drag.Slot); ok {
			drawLine(a.screen, from, a.pointer, styleDragWire)
		}
	}
}

// drawWire routes a connection around boxes, leaving the output port
// rightwards and entering the input port from the left. Unroutable wires
// are drawn straight.
func (a *App) drawWire(r *router, blocked func(point) bool, from, to geom.Pos2) {
	fx, fy := cell(from)
	tx, ty := cell(to)
	start, end := point{fx + 1, fy}, point{tx - 1, ty}
	path, err := r.route(start, end, blocked)
	if err != nil {
		drawLine(a.screen, from.Add(geom.Vec2{X: 1}), to.Add(geom.Vec2{X: -1}), styleWire)
		return
	}
	for i, p := range path {
		prev, next := point{fx, fy}, point{tx, ty}
		if i > 0 {
			prev = path[i-1]
		}
		if i < len(path)-1 {
			next = path[i+1]
		}
		a.screen.SetContent(p.X, p.Y, wireGlyph(prev, p, next), nil, styleWire)
	}
}

func (a *App) drawBox(b *Box) {
	g := a.ed.Graph()
	n, ok := g.Node(b.Node)
	if !ok {
		return
	}
	s := a.screen
	x0, y0 := cell(b.Rect.Min)
	x1, y1 := int(b.Rect.Max.X)-1, int(b.Rect.Max.Y)-1

	for y := y0 + 1; y < y1; y++ {
		for x := x0 + 1; x < x1; x++ {
			s.SetContent(x, y, ' ', nil, styleDefault)
		}
	}
	drawRect(s, geom.Rect{Min: b.Rect.Min, Max: geom.Pos2{X: float64(x1), Y: float64(y1)}}, styleBox)

	title := tcell.StyleDefault.
		Background(tcellColor(titleColor(n.Payload.Color, a.ed.Session().IsSelected(b.Node)))).
		Foreground(tcell.ColorBlack).
		Bold(true)
	for x := x0 + 1; x < x1; x++ {
		s.SetContent(x, y0, ' ', nil, title)
	}
	drawText(s, x0+2, y0, title, runewidth.Truncate(b.Label, x1-x0-5, "…"))
	if b.CanClose {
		cx, cy := cell(b.closeCell())
		s.SetContent(cx, cy, 'x', nil, title)
	}

	for i, r := range b.rows {
		y := y0 + 1 + i
		if r.input != nil {
			if port, ok := a.layout.Port(r.input.ID); ok {
				s.SetContent(int(port.X), y, portGlyph(g, r.input.ID), nil, styleBorder)
			}
			x := drawText(s, x0+2, y, styleDefault, r.input.Name)
			if r.inline != "" {
				drawText(s, x+1, y, styleInline, r.inline)
			}
		}
		if r.output != nil {
			if port, ok := a.layout.Port(r.output.ID); ok {
				s.SetContent(int(port.X), y, portGlyph(g, r.output.ID), nil, styleBorder)
			}
			drawText(s, x1-1-runewidth.StringWidth(r.output.Name), y, styleDefault, r.output.Name)
		}
	}
}

func portGlyph(g *graph.Graph[templates.Payload], id graph.SlotID) rune {
	if g.IsConnected(id) {
		return '●'
	}
	return '○'
}

// drawFinder draws the finder popup and acknowledges it.
func (a *App) drawFinder(f *editor.Finder) {
	f.JustSpawned = false
	x, y := cell(f.Position)
	matches := a.matches()

	width := 24
	for _, t := range matches {
		width = max(width, runewidth.StringWidth(t.FinderLabel())+4)
	}
	line := func(row int, style tcell.Style, text string) {
		for i := 0; i < width; i++ {
			a.screen.SetContent(x+i, y+row, ' ', nil, style)
		}
		drawText(a.screen, x+1, y+row, style, text)
	}

	line(0, styleFinder, "> "+f.Query)
	for i, t := range matches {
		style := styleFinder
		if i == a.finderSel {
			style = styleFinderOn
		}
		line(i+1, style, t.FinderLabel())
	}
	if len(matches) == 0 {
		line(1, styleFinder, "no matches")
	}
}

func (a *App) drawStatus() {
	w, h := a.screen.Size()
	for x := 0; x < w; x++ {
		a.screen.SetContent(x, h-1, ' ', nil, styleStatus)
	}
	text := a.status
	if text == "" {
		text = "a:add  d:delete  u:undo  r:redo  s:save  e:edit json  q:quit"
	}
	drawText(a.screen, 1, h-1, styleStatus, runewidth.Truncate(text, w-2, "…"))
}

// Draw renders the whole surface.
func (a *App) Draw() {
	a.screen.Clear()
	a.drawWires(a.layout)
	for _, b := range a.layout.Boxes() {
		a.drawBox(b)
	}
	if anchor := a.ed.Session().OngoingBoxSelection; anchor != nil && a.hasPointer {
		drawRect(a.screen, geom.RectFromTwoPos(*anchor, a.pointer), styleDragWire)
	}
	if f := a.ed.Finder(); f != nil {
		a.drawFinder(f)
	}
	a.drawStatus()
}
