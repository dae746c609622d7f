package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banshee-data/kitti-ingest/internal/config"
	"github.com/banshee-data/kitti-ingest/internal/db"
	"github.com/banshee-data/kitti-ingest/internal/fsutil"
	"github.com/banshee-data/kitti-ingest/internal/ingest"
	"github.com/banshee-data/kitti-ingest/internal/kitti/calib"
	"github.com/banshee-data/kitti-ingest/internal/kitti/label"
	"github.com/banshee-data/kitti-ingest/internal/kitti/velodyne"
	"github.com/banshee-data/kitti-ingest/internal/render"
	"github.com/banshee-data/kitti-ingest/internal/security"
	"github.com/banshee-data/kitti-ingest/internal/storage/sqlite"
	"github.com/banshee-data/kitti-ingest/internal/version"
)

var (
	root        = flag.String("root", "", "KITTI split directory containing calib/, label_2/ and velodyne/")
	dbFile      = flag.String("db", "", "Path to the SQLite results database (empty to skip)")
	configFile  = flag.String("config", "", "Path to an ingest config JSON file")
	plotDir     = flag.String("plot-dir", "", "Directory for per-frame bird's-eye PNGs (empty to skip)")
	summaryFile = flag.String("summary", "", "Path of the HTML difficulty summary (empty to skip)")
	workers     = flag.Int("workers", 0, "Override the configured worker count")
	verbose     = flag.Bool("v", false, "Enable diagnostic logging")
	trace       = flag.Bool("trace", false, "Enable per-object trace logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// options are the resolved flags of one invocation.
type options struct {
	Root        string
	DBPath      string
	PlotDir     string
	SummaryPath string
	Config      *config.IngestConfig
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if flag.Arg(0) == "migrate" {
		if err := db.RunMigrateCommand(flag.Args()[1:], *dbFile, os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}
	if *root == "" {
		log.Fatal("-root is required")
	}

	setLogWriters(os.Stderr, *verbose, *trace)

	cfg := config.DefaultIngestConfig()
	if *configFile != "" {
		loaded, err := config.LoadIngestConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *workers != 0 {
		cfg.Workers = workers
		if err := cfg.Validate(); err != nil {
			log.Fatalf("invalid -workers: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := options{
		Root:        *root,
		DBPath:      *dbFile,
		PlotDir:     *plotDir,
		SummaryPath: *summaryFile,
		Config:      cfg,
	}
	if err := run(ctx, fsutil.OSFileSystem{}, opts); err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
}

// setLogWriters routes every package's streams: ops always, diag with -v,
// trace with -trace.
func setLogWriters(w io.Writer, verbose, trace bool) {
	var diag, tr io.Writer
	if verbose || trace {
		diag = w
	}
	if trace {
		tr = w
	}
	velodyne.SetLogWriters(w, diag, tr)
	label.SetLogWriters(w, diag, tr)
	calib.SetLogWriters(w, diag, tr)
	ingest.SetLogWriters(w, diag, tr)
	db.SetLogWriters(w, diag, tr)
}

func run(ctx context.Context, fsys fsutil.FileSystem, opts options) error {
	paths, err := ingest.DiscoverFrames(fsys, opts.Root)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no frames found under %s", opts.Root)
	}

	frames, err := ingest.Batch(ctx, fsys, paths, opts.Config)
	if err != nil {
		return err
	}
	log.Printf("ingested %d frames from %s", len(frames), opts.Root)

	if opts.DBPath != "" {
		if err := persist(opts, frames); err != nil {
			return err
		}
	}

	if opts.PlotDir != "" {
		if err := fsys.MkdirAll(opts.PlotDir, 0o755); err != nil {
			return fmt.Errorf("create plot dir: %w", err)
		}
		for _, f := range frames {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := security.OutputPath(opts.PlotDir, f.ID, ".png")
			if err != nil {
				return err
			}
			bev := render.BEV{Title: f.ID, Mode: f.PointsMode, Points: f.Points, Boxes: f.Boxes, Names: f.Names}
			if err := render.SaveBEVPlot(fsys, path, bev); err != nil {
				return err
			}
		}
	}

	if opts.SummaryPath != "" {
		w, err := fsys.Create(opts.SummaryPath)
		if err != nil {
			return fmt.Errorf("create summary: %w", err)
		}
		if err := render.WriteSummaryHTML(w, "KITTI "+filepath.Base(opts.Root), ingest.CountByClass(frames)); err != nil {
			w.Close()
			return fmt.Errorf("write summary: %w", err)
		}
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}

func persist(opts options, frames []*ingest.Frame) error {
	database, err := db.OpenMigrated(opts.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	cfgJSON, err := json.Marshal(opts.Config)
	if err != nil {
		return err
	}
	mode, err := opts.Config.GetTargetMode()
	if err != nil {
		return err
	}
	store := sqlite.NewFrameStore(database.DB)
	ingestRun := &sqlite.Run{Dataset: opts.Root, TargetMode: mode, ConfigJSON: cfgJSON}
	if err := store.CreateRun(ingestRun); err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	for _, f := range frames {
		if err := store.InsertFrame(ingestRun.RunID, f); err != nil {
			return err
		}
	}
	log.Printf("stored run %s in %s", ingestRun.RunID, opts.DBPath)
	return nil
}
