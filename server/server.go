// Package server exposes a store.Store over HTTP.
package server

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"

	"nodegraph/document"
	"nodegraph/observability"
	"nodegraph/store"
	"nodegraph/templates"
)

// Options configures New.
type Options struct {
	Store store.Store
	// Catalog is served under /templates when set.
	Catalog *templates.Catalog
	Logger  *slog.Logger
}

type server struct {
	store   store.Store
	catalog *templates.Catalog
	log     *slog.Logger
}

// New builds the fiber app with every route registered.
func New(opts Options) *fiber.App {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &server{store: opts.Store, catalog: opts.Catalog, log: log.With("component", "server")}

	app := fiber.New()
	app.Use(s.trace)

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", s.createSchema)
	app.Delete("/schema", s.dropSchema)

	// ── Graphs ────────────────────────────────────────────────────────
	app.Get("/graphs", s.listGraphs)
	app.Post("/graphs", s.createGraph)
	app.Get("/graphs/:id", s.getGraph)
	app.Put("/graphs/:id", s.putGraph)
	app.Delete("/graphs/:id", s.deleteGraph)

	// ── Templates ─────────────────────────────────────────────────────
	app.Get("/templates", s.listTemplates)

	return app
}

func (s *server) trace(c fiber.Ctx) error {
	ctx, span := observability.StartRequestSpan(c.Context(), c.Method(), c.Path())
	defer span.End()
	c.SetContext(ctx)

	err := c.Next()
	observability.RecordError(span, err)
	return err
}

// fail maps store and document errors onto status codes.
func (s *server) fail(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, document.ErrInvalid):
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	default:
		s.log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
}

func (s *server) createSchema(c fiber.Ctx) error {
	if err := s.store.CreateSchema(c.Context()); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "schema created"})
}

func (s *server) dropSchema(c fiber.Ctx) error {
	if err := s.store.DropSchema(c.Context()); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "schema dropped"})
}

func (s *server) listGraphs(c fiber.Ctx) error {
	list, err := s.store.List(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(list)
}

// createGraph always stores a new document; any ID in the body is ignored.
func (s *server) createGraph(c fiber.Ctx) error {
	var doc document.Document
	if err := c.Bind().JSON(&doc); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	doc.ID = ""
	saved, err := s.store.Save(c.Context(), &doc)
	if err != nil {
		return s.fail(c, err)
	}
	s.log.Info("graph created", "id", saved.ID, "nodes", len(saved.Nodes))
	return c.Status(201).JSON(saved)
}

func (s *server) getGraph(c fiber.Ctx) error {
	doc, err := s.store.Load(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(doc)
}

// putGraph creates or replaces the document at :id.
func (s *server) putGraph(c fiber.Ctx) error {
	var doc document.Document
	if err := c.Bind().JSON(&doc); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	doc.ID = c.Params("id")
	saved, err := s.store.Save(c.Context(), &doc)
	if err != nil {
		return s.fail(c, err)
	}
	s.log.Info("graph saved", "id", saved.ID, "nodes", len(saved.Nodes))
	return c.JSON(saved)
}

func (s *server) deleteGraph(c fiber.Ctx) error {
	if err := s.store.Delete(c.Context(), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	s.log.Info("graph deleted", "id", c.Params("id"))
	return c.SendStatus(204)
}

type slotInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Kind string `json:"kind,omitempty"`
}

type templateInfo struct {
	Name      string     `json:"name"`
	Label     string     `json:"label"`
	Color     string     `json:"color,omitempty"`
	Deletable bool       `json:"deletable"`
	Inputs    []slotInfo `json:"inputs"`
	Outputs   []slotInfo `json:"outputs"`
}

func (s *server) listTemplates(c fiber.Ctx) error {
	out := []templateInfo{}
	if s.catalog == nil {
		return c.JSON(out)
	}
	for _, name := range s.catalog.Names() {
		t, _ := s.catalog.Get(name)
		info := templateInfo{
			Name:      t.Name,
			Label:     t.Label,
			Color:     t.Color,
			Deletable: t.Deletable,
			Inputs:    []slotInfo{},
			Outputs:   []slotInfo{},
		}
		for _, in := range t.Inputs {
			info.Inputs = append(info.Inputs, slotInfo{Name: in.Name, Type: typeexpr.TypeString(in.Type), Kind: in.Kind.String()})
		}
		for _, o := range t.Outputs {
			info.Outputs = append(info.Outputs, slotInfo{Name: o.Name, Type: typeexpr.TypeString(o.Type)})
		}
		out = append(out, info)
	}
	return c.JSON(out)
}
