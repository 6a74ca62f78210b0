package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"nodegraph/config"
	"nodegraph/document"
	"nodegraph/editor"
	"nodegraph/graph"
	"nodegraph/logging"
	"nodegraph/observability"
	"nodegraph/server"
	"nodegraph/store"
	"nodegraph/store/jsonfile"
	"nodegraph/store/postgres"
	"nodegraph/templates"
	"nodegraph/terminal"
)

// env is what every command builds from the config.
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	store   store.Store
	tracing *observability.TracerProvider
	close   func()
}

func setup(ctx context.Context, configPath string, logOut io.Writer) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.Log, logOut)
	slog.SetDefault(log)

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.Endpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log, tracing: tp}
	var closeStore func()
	e.store, closeStore, err = openStore(ctx, cfg.Store)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	e.close = func() {
		closeStore()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}
	return e, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, func(), error) {
	switch cfg.Backend {
	case "", "file":
		return jsonfile.New(cfg.Dir), func() {}, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("store.database_url is not set")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		return postgres.New(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// loadCatalog returns the builtin templates plus any configured ones.
func loadCatalog(cfg config.TemplatesConfig) (*templates.Catalog, error) {
	catalog := templates.Builtin()
	if cfg.Path == "" {
		return catalog, nil
	}
	extra, err := templates.Load(cfg.Path)
	if err != nil {
		return nil, err
	}
	if diags := catalog.Merge(extra); diags.HasErrors() {
		return nil, diags
	}
	return catalog, nil
}

func runEdit(ctx context.Context, configPath, id, logFile string) error {
	// The editor owns the terminal, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}

	e, err := setup(ctx, configPath, logOut)
	if err != nil {
		return err
	}
	defer e.close()

	catalog, err := loadCatalog(e.cfg.Templates)
	if err != nil {
		return err
	}
	if err := e.store.CreateSchema(ctx); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	g := graph.New[templates.Payload]()
	session := editor.NewSession()
	var doc *document.Document
	if id != "" {
		doc, err = e.store.Load(ctx, id)
		if err != nil {
			return err
		}
		g, session, err = document.Decode[templates.Payload](doc)
		if err != nil {
			return err
		}
	}

	ed := editor.New(g, editor.Options[templates.Payload]{
		CaptureRadius: e.cfg.Editor.CaptureRadius,
		HistorySize:   e.cfg.Editor.HistorySize,
		Logger:        e.log,
	})
	ed.Reset(g, session)

	return terminal.Run(ed, terminal.Options{
		Catalog:  catalog,
		Logger:   e.log,
		Document: doc,
		Save: func(d *document.Document) (*document.Document, error) {
			return e.store.Save(ctx, d)
		},
	})
}

func runServe(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer e.close()

	catalog, err := loadCatalog(e.cfg.Templates)
	if err != nil {
		return err
	}

	app := server.New(server.Options{Store: e.store, Catalog: catalog, Logger: e.log})

	errCh := make(chan error, 1)
	go func() {
		e.log.Info("listening", "addr", e.cfg.Server.Addr, "store", e.cfg.Store.Backend)
		errCh <- app.Listen(e.cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		e.log.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

func checkTemplates(stdout, stderr io.Writer, paths []string) error {
	files := make(map[string]*hcl.File)
	var all hcl.Diagnostics
	total := 0
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[path] = &hcl.File{Bytes: src}
		catalog, diags := templates.Parse(src, path)
		all = append(all, diags...)
		total += catalog.Len()
	}

	if len(all) > 0 {
		wr := hcl.NewDiagnosticTextWriter(stderr, files, 78, false)
		if err := wr.WriteDiagnostics(all); err != nil {
			return err
		}
	}
	if all.HasErrors() {
		return fmt.Errorf("%d template file(s) have errors", len(paths))
	}
	fmt.Fprintf(stdout, "%d template(s) OK\n", total)
	return nil
}

func listTemplates(w io.Writer, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg.Templates)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLABEL\tINPUTS\tOUTPUTS")
	for _, name := range catalog.Names() {
		t, _ := catalog.Get(name)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", t.Name, t.Label, len(t.Inputs), len(t.Outputs))
	}
	return tw.Flush()
}

func runSchema(ctx context.Context, configPath string, create bool) error {
	e, err := setup(ctx, configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer e.close()

	if create {
		if err := e.store.CreateSchema(ctx); err != nil {
			return err
		}
		e.log.Info("schema created", "store", e.cfg.Store.Backend)
		return nil
	}
	if err := e.store.DropSchema(ctx); err != nil {
		return err
	}
	e.log.Info("schema dropped", "store", e.cfg.Store.Backend)
	return nil
}

func runExport(ctx context.Context, w io.Writer, configPath, id, out string) error {
	e, err := setup(ctx, configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer e.close()

	doc, err := e.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if out != "" {
		return jsonfile.WriteFile(out, doc)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func runImport(ctx context.Context, w io.Writer, configPath, path string) error {
	e, err := setup(ctx, configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer e.close()

	doc, err := jsonfile.ReadFile(path)
	if err != nil {
		return err
	}
	if err := e.store.CreateSchema(ctx); err != nil {
		return err
	}
	saved, err := e.store.Save(ctx, doc)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, saved.ID)
	return nil
}

func runList(ctx context.Context, w io.Writer, configPath string) error {
	e, err := setup(ctx, configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer e.close()

	list, err := e.store.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNODES\tUPDATED")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Nodes, s.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
