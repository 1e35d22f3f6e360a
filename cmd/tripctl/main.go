// Command tripctl is a terminal client for the family trip: it keeps a local
// copy of the trip in sqlite, imports documents into it and syncs it with the
// trip server.
//
// Usage:
//
//	tripctl show
//	tripctl import-file <path>
//	tripctl import-text [path|-]
//	tripctl set <field> <json>
//	tripctl pull
//	tripctl push
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pkordes/family-trip/internal/config"
	"github.com/pkordes/family-trip/internal/extract"
	"github.com/pkordes/family-trip/internal/importer"
	"github.com/pkordes/family-trip/internal/repo"
	"github.com/pkordes/family-trip/internal/roster"
	"github.com/pkordes/family-trip/internal/store"
)

const usage = `usage: tripctl <command> [args]

commands:
  show                  print the trip as JSON
  import-file <path>    import a PDF, image, text or HTML file
  import-text [path|-]  import pasted text (stdin when omitted)
  set <field> <json>    set one trip field, e.g. set gettingAround '"Ferry"'
  pull                  merge the server copy into the local one
  push                  upload the local copy to the server
`

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "tripctl:", err)
		os.Exit(1)
	}
}

// errUsage is returned for a bad command line; run has already printed usage.
var errUsage = errors.New("invalid arguments")

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tripctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	verbose := fs.Bool("v", false, "log at debug level")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	app, err := open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	switch cmd {
	case "show":
		return app.show(stdout)
	case "import-file":
		if len(rest) != 1 {
			fs.Usage()
			return errUsage
		}
		return app.importFile(ctx, rest[0], stdout)
	case "import-text":
		src := "-"
		if len(rest) > 0 {
			src = rest[0]
		}
		return app.importText(ctx, src, stdin, stdout)
	case "set":
		if len(rest) != 2 {
			fs.Usage()
			return errUsage
		}
		return app.set(ctx, rest[0], rest[1])
	case "pull":
		return app.store.LoadFromServer(ctx)
	case "push":
		return app.store.SaveToServer(ctx)
	default:
		fs.Usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// app is the wired client: a loaded store over the local sqlite file, an
// optional server remote, and an importer.
type app struct {
	store    *store.Store
	importer *importer.Importer
	log      *slog.Logger
	closeDB  func() error
}

func open(ctx context.Context, cfg config.ClientConfig, logger *slog.Logger) (*app, error) {
	families, err := roster.Load(cfg.RosterPath)
	if err != nil {
		return nil, err
	}
	db, err := repo.OpenSQLite(ctx, cfg.LocalDBPath)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: 90 * time.Second}
	opts := store.Options{
		Families:  families,
		Local:     repo.NewBlobStore(db),
		SaveDelay: cfg.SaveDebounce,
		Logger:    logger,
	}
	if cfg.TripAPIURL != "" {
		opts.Remote = store.NewHTTPRemote(cfg.TripAPIURL, httpClient, logger)
	}
	st := store.New(opts)
	st.Load(ctx)

	ex := extract.New(cfg.ParserURL, httpClient, logger)
	return &app{
		store:    st,
		importer: importer.New(st, ex, logger),
		log:      logger,
		closeDB:  db.Close,
	}, nil
}

// close pushes a pending change before the process exits.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.store.Close(ctx); err != nil {
		a.log.Warn("tripctl.final_save_failed", "error", err)
	}
	if err := a.closeDB(); err != nil {
		a.log.Warn("tripctl.close_db_failed", "error", err)
	}
}

func (a *app) show(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a.store.Snapshot())
}

func (a *app) importFile(ctx context.Context, path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	res, err := a.importer.ImportFile(ctx, filepath.Base(path), data)
	if res.ImageSaved {
		fmt.Fprintln(w, "image saved")
	}
	if err != nil {
		return err
	}
	return reportImport(w, res)
}

func (a *app) importText(ctx context.Context, src string, stdin io.Reader, w io.Writer) error {
	var (
		b   []byte
		err error
	)
	if src == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(src)
	}
	if err != nil {
		return err
	}
	res, err := a.importer.ImportText(ctx, string(b))
	if err != nil {
		return err
	}
	return reportImport(w, res)
}

func (a *app) set(ctx context.Context, field, raw string) error {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return fmt.Errorf("value for %s must be JSON: %w", field, err)
	}
	return a.store.UpdateField(ctx, field, v)
}

func reportImport(w io.Writer, res importer.Result) error {
	b, err := json.Marshal(res.Partial)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "imported %s: %s\n", res.Kind, b)
	return err
}
