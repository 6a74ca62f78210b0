// Package terminal is a tcell host for the node editor. It lays nodes out as
// boxes on the cell grid, hit-tests the mouse, feeds the editor one
// FrameInput per mouse report and draws the result.
package terminal

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"nodegraph/document"
	"nodegraph/editor"
	"nodegraph/geom"
	"nodegraph/graph"
	"nodegraph/templates"
)

// SaveFunc persists a document and returns it as stored.
type SaveFunc func(doc *document.Document) (*document.Document, error)

// Options configures an App.
type Options struct {
	Catalog *templates.Catalog
	Logger  *slog.Logger
	// Save is called by the save key; nil disables saving.
	Save SaveFunc
	// Document is the document being edited, if it came from a store. Its
	// ID, name and metadata are kept across saves.
	Document *document.Document
}

// App is one terminal editing surface.
type App struct {
	screen tcell.Screen
	ed     *editor.Editor[templates.Payload]
	opts   Options
	log    *slog.Logger

	layout     *Layout
	mouse      mouse
	pointer    geom.Pos2
	hasPointer bool

	finderSel int
	status    string
	modified  bool

	// editFile replaces the external editor run by the edit key.
	editFile func(path string) error
}

// New creates an App drawing to screen. The screen must be initialised.
func New(screen tcell.Screen, ed *editor.Editor[templates.Payload], opts Options) *App {
	if opts.Catalog == nil {
		opts.Catalog = templates.Builtin()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	a := &App{
		screen: screen,
		ed:     ed,
		opts:   opts,
		log:    log.With("component", "terminal"),
	}
	a.layout = NewLayout(ed)
	return a
}

// Editor returns the controller the app drives.
func (a *App) Editor() *editor.Editor[templates.Payload] { return a.ed }

// Layout returns the current layout.
func (a *App) Layout() *Layout { return a.layout }

// Status returns the status line message.
func (a *App) Status() string { return a.status }

// step runs one editor frame against the current layout.
func (a *App) step(in editor.FrameInput) []editor.NodeResponse {
	a.layout.Frame(&in)
	responses := a.ed.Update(in)
	for _, r := range responses {
		a.log.Debug("response", "response", r.String())
		switch r := r.(type) {
		case editor.ConnectEventEnded:
			a.setStatus("connected %s to %s", a.slotName(r.Output.Slot()), a.slotName(r.Input.Slot()))
			a.modified = true
		case editor.DisconnectEvent:
			a.modified = true
		case editor.DeleteNodeFull:
			a.setStatus("deleted node")
			a.modified = true
		case editor.MoveNode, editor.CreatedNode:
			a.modified = true
		}
	}
	a.layout = NewLayout(a.ed)
	return responses
}

func (a *App) slotName(id graph.SlotID) string {
	if slot, ok := a.ed.Graph().Slot(id); ok {
		return slot.Name
	}
	return id.String()
}

func (a *App) setStatus(format string, args ...any) {
	a.status = fmt.Sprintf(format, args...)
}

// HandleEvent processes one tcell event. It returns true when the app
// should quit.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventMouse:
		a.handleMouse(ev)
	case *tcell.EventKey:
		return a.handleKey(ev)
	}
	return false
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	a.pointer = geom.Pos2{X: float64(x), Y: float64(y)}
	a.hasPointer = true

	if a.ed.Finder() != nil && ev.Buttons()&tcell.Button1 != 0 && !a.mouse.down {
		if a.clickFinder(a.pointer) {
			return
		}
	}
	for _, in := range a.mouse.translate(ev, a.layout) {
		a.step(in)
	}
}

func (a *App) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlC {
		return true
	}
	if a.ed.Finder() != nil {
		a.handleFinderKey(ev)
		return false
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		a.ed.Select()
		a.status = ""
	case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
		a.deleteSelected()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'a':
			a.ed.OpenFinder(a.pointer)
			a.finderSel = 0
		case 'd':
			a.deleteSelected()
		case 'u':
			if a.ed.Undo() {
				a.layout = NewLayout(a.ed)
				a.modified = true
				a.setStatus("undo")
			} else {
				a.setStatus("nothing to undo")
			}
		case 'r':
			if a.ed.Redo() {
				a.layout = NewLayout(a.ed)
				a.modified = true
				a.setStatus("redo")
			} else {
				a.setStatus("nothing to redo")
			}
		case 's':
			a.save()
		case 'e':
			if err := a.editExternally(); err != nil {
				a.setStatus("edit: %v", err)
			}
		}
	}
	return false
}

func (a *App) deleteSelected() {
	n := a.ed.DeleteSelected()
	if n == 0 {
		a.setStatus("nothing deletable selected")
		return
	}
	a.step(editor.FrameInput{})
	a.setStatus("deleted %d node(s)", n)
}

func (a *App) matches() []editor.NodeTemplate[templates.Payload] {
	f := a.ed.Finder()
	if f == nil {
		return nil
	}
	return editor.Matches(f.Query, a.opts.Catalog.NodeTemplates())
}

func (a *App) handleFinderKey(ev *tcell.EventKey) {
	f := a.ed.Finder()
	switch ev.Key() {
	case tcell.KeyEscape:
		a.ed.CloseFinder()
	case tcell.KeyEnter:
		a.spawnSelected()
	case tcell.KeyUp:
		if a.finderSel > 0 {
			a.finderSel--
		}
	case tcell.KeyDown:
		if a.finderSel < len(a.matches())-1 {
			a.finderSel++
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if q := []rune(f.Query); len(q) > 0 {
			f.Query = string(q[:len(q)-1])
			a.finderSel = 0
		}
	case tcell.KeyRune:
		f.Query += string(ev.Rune())
		a.finderSel = 0
	}
}

// clickFinder spawns the template under p. It reports whether p was on
// the popup.
func (a *App) clickFinder(p geom.Pos2) bool {
	f := a.ed.Finder()
	x, y := cell(f.Position)
	px, py := cell(p)
	row := py - y - 1
	if px < x || row < 0 || row >= len(a.matches()) {
		return false
	}
	a.finderSel = row
	a.spawnSelected()
	return true
}

func (a *App) spawnSelected() {
	matches := a.matches()
	if a.finderSel >= len(matches) {
		return
	}
	t := matches[a.finderSel]
	a.ed.Spawn(t, a.ed.Finder().Position)
	a.step(editor.FrameInput{})
	a.setStatus("added %s", t.NodeLabel())
}

// Document encodes the current graph, carrying over the identity of the
// document being edited.
func (a *App) Document() (*document.Document, error) {
	doc, err := document.Encode(a.ed.Graph(), a.ed.Session())
	if err != nil {
		return nil, err
	}
	if prev := a.opts.Document; prev != nil {
		doc.ID = prev.ID
		doc.Name = prev.Name
		doc.Metadata = prev.Metadata
	}
	return doc, nil
}

func (a *App) save() {
	if a.opts.Save == nil {
		a.setStatus("saving is disabled")
		return
	}
	doc, err := a.Document()
	if err != nil {
		a.log.Error("encode failed", "error", err)
		a.setStatus("save failed: %v", err)
		return
	}
	saved, err := a.opts.Save(doc)
	if err != nil {
		a.log.Error("save failed", "error", err)
		a.setStatus("save failed: %v", err)
		return
	}
	a.opts.Document = saved
	a.modified = false
	a.log.Info("document saved", "id", saved.ID, "nodes", len(saved.Nodes))
	a.setStatus("saved %s", saved.ID)
}

// Modified reports whether the graph changed since the last save.
func (a *App) Modified() bool { return a.modified }
