package terminal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/gdamore/tcell/v2"

	"nodegraph/document"
	"nodegraph/editor"
	"nodegraph/templates"
)

// Run opens the terminal, runs the editing loop until the user quits and
// restores the terminal.
func Run(ed *editor.Editor[templates.Payload], opts Options) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	// Ensure terminal is restored even on panic
	defer screen.Fini()

	screen.EnableMouse()
	screen.Clear()

	return New(screen, ed, opts).Loop()
}

// Loop draws and handles events until quit.
func (a *App) Loop() error {
	for {
		a.Draw()
		a.screen.Show()

		ev := a.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if a.HandleEvent(ev) {
			return nil
		}
	}
}

// findEditor picks the user's editor
func findEditor() (string, error) {
	if e := os.Getenv("EDITOR"); e != "" {
		return e, nil
	}
	if e := os.Getenv("VISUAL"); e != "" {
		return e, nil
	}
	for _, candidate := range []string{"vim", "nano", "vi"} {
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no editor found. Please set $EDITOR environment variable")
}

// runEditor suspends the screen and runs the user's editor on path.
func (a *App) runEditor(path string) error {
	editorCmd, err := findEditor()
	if err != nil {
		return err
	}
	if err := a.screen.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend screen: %w", err)
	}
	defer a.screen.Resume()

	cmd := exec.Command(editorCmd, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor failed: %w", err)
	}
	return nil
}

// editExternally opens the current document as JSON in $EDITOR and loads
// the result back. Undo history starts over.
func (a *App) editExternally() error {
	doc, err := a.Document()
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp("", "nodegraph-edit-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpFileName := tmpFile.Name()
	defer os.Remove(tmpFileName)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	// Some editors expect a trailing newline
	data = append(data, '\n')
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	run := a.editFile
	if run == nil {
		run = a.runEditor
	}
	if err := run(tmpFileName); err != nil {
		return err
	}

	editedData, err := os.ReadFile(tmpFileName)
	if err != nil {
		return fmt.Errorf("failed to read edited file: %w", err)
	}
	editedData = bytes.TrimSpace(editedData)
	// Unchanged or cleared: nothing to load
	if len(editedData) == 0 || bytes.Equal(editedData, bytes.TrimSpace(data)) {
		return nil
	}

	var edited document.Document
	if err := json.Unmarshal(editedData, &edited); err != nil {
		// Keep the invalid JSON around for the user
		debugFile := filepath.Join(os.TempDir(), "nodegraph-invalid.json")
		_ = os.WriteFile(debugFile, editedData, 0o644)

		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			lines := bytes.Split(editedData[:syntaxErr.Offset], []byte("\n"))
			line := len(lines)
			col := len(lines[line-1]) + 1
			return fmt.Errorf("JSON syntax error at line %d, column %d: %v (saved to %s)",
				line, col, err, debugFile)
		}
		return fmt.Errorf("invalid JSON after editing: %w (saved to %s)", err, debugFile)
	}

	g, s, err := document.Decode[templates.Payload](&edited)
	if err != nil {
		return err
	}
	a.ed.Reset(g, s)
	if a.opts.Document != nil {
		a.opts.Document.Name = edited.Name
		a.opts.Document.Metadata = edited.Metadata
	}
	a.layout = NewLayout(a.ed)
	a.modified = true
	a.setStatus("loaded edited document")
	return nil
}
