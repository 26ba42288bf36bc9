package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/andresuchdata/replenish/internal/app"
	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/drive"
	"github.com/andresuchdata/replenish/internal/importer"
	"github.com/andresuchdata/replenish/internal/queue"
	"github.com/andresuchdata/replenish/internal/storage"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

type appKey struct{}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	cliApp := &cli.App{
		Name:  "importer",
		Usage: "Load sales and stock exports into the replenishment database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db-driver",
				Usage:   "Database backend: postgres, pgx or sqlite",
				EnvVars: []string{"DB_DRIVER"},
			},
			&cli.StringFlag{
				Name:    "sqlite-path",
				Usage:   "SQLite database file when --db-driver=sqlite",
				EnvVars: []string{"DB_SQLITE_PATH"},
			},
		},
		Before: initApp,
		After:  closeApp,
		Commands: []*cli.Command{
			{
				Name:      "file",
				Usage:     "Import one CSV or XLSX file",
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					kindFlag(true),
					&cli.Int64Flag{
						Name:  "warehouse-id",
						Usage: "Warehouse for mapped imports",
					},
					&cli.StringFlag{
						Name:  "snapshot-date",
						Usage: "Snapshot date for stock files without a date column",
					},
					&cli.StringSliceFlag{
						Name:  "map",
						Usage: "Column mapping as field=index, e.g. --map sku=0 --map quantity=3",
					},
				},
				Action: importFile,
			},
			{
				Name:      "run-dir",
				Usage:     "Import every sales_/stock_ file under a directory, oldest date first",
				ArgsUsage: "DIR",
				Action:    runDir,
			},
			{
				Name:  "run-bucket",
				Usage: "Import every sales_/stock_ object under a bucket prefix",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "prefix",
						Usage:   "Object key prefix",
						EnvVars: []string{"IMPORT_BUCKET_PREFIX"},
					},
				},
				Action: runBucket,
			},
			{
				Name:  "drive-folder",
				Usage: "Import every sales_/stock_ file in a Google Drive folder",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "folder-id",
						Usage:   "Drive folder id",
						EnvVars: []string{"GOOGLE_DRIVE_FOLDER_ID"},
					},
				},
				Action: driveFolder,
			},
			{
				Name:  "enqueue",
				Usage: "Queue an object storage file for the worker",
				Flags: []cli.Flag{
					kindFlag(true),
					&cli.StringFlag{
						Name:     "key",
						Usage:    "Object key",
						Required: true,
					},
				},
				Action: enqueueObject,
			},
			{
				Name:  "runs",
				Usage: "List recent batch runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
					},
				},
				Action: listRuns,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func kindFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "kind",
		Usage:    "Import kind: sales or stock",
		Required: required,
	}
}

func initApp(c *cli.Context) error {
	cfg := config.Load()
	if v := c.String("db-driver"); v != "" {
		cfg.Database.Driver = v
	}
	if v := c.String("sqlite-path"); v != "" {
		cfg.Database.SQLitePath = v
	}
	app.ConfigureLogging(cfg)

	a, err := app.New(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	c.Context = context.WithValue(c.Context, appKey{}, a)
	return nil
}

func closeApp(c *cli.Context) error {
	if a, ok := c.Context.Value(appKey{}).(*app.App); ok && a != nil {
		return a.Close()
	}
	return nil
}

func fromContext(c *cli.Context) *app.App {
	return c.Context.Value(appKey{}).(*app.App)
}

func importFile(c *cli.Context) error {
	a := fromContext(c)
	path := c.Args().First()
	if path == "" {
		return cli.Exit("missing PATH", 2)
	}
	kind, ok := domain.ParseImportKind(c.String("kind"))
	if !ok {
		return cli.Exit("kind must be sales or stock", 2)
	}

	req := importer.Request{Kind: kind, SnapshotDate: c.String("snapshot-date")}
	if c.IsSet("warehouse-id") {
		id := c.Int64("warehouse-id")
		req.WarehouseID = &id
	}
	if pairs := c.StringSlice("map"); len(pairs) > 0 {
		m, err := parseColumnMap(pairs)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		req.ColumnMap = m
	}

	res, err := a.Imports.ImportFile(c.Context, path, req)
	if err != nil {
		if res.Message != "" {
			return fmt.Errorf("%s: %w", res.Message, err)
		}
		return err
	}
	logResult(path, res)
	return nil
}

func runDir(c *cli.Context) error {
	dir := c.Args().First()
	if dir == "" {
		return cli.Exit("missing DIR", 2)
	}
	return runBatch(c, storage.NewLocalStorage(dir), "", "dir:"+dir)
}

func runBucket(c *cli.Context) error {
	a := fromContext(c)
	if a.Archive == nil {
		return cli.Exit("object storage is not configured (STORAGE_ENDPOINT, STORAGE_BUCKET, keys)", 2)
	}
	prefix := c.String("prefix")
	return runBatch(c, a.Archive, prefix, "bucket:"+a.Config.Storage.Bucket+"/"+prefix)
}

func driveFolder(c *cli.Context) error {
	a := fromContext(c)
	folderID := c.String("folder-id")
	if folderID == "" {
		return cli.Exit("missing --folder-id", 2)
	}
	svc, err := drive.NewService(c.Context, a.Config.Drive.CredentialsJSON)
	if err != nil {
		return err
	}
	ingest := drive.NewIngestService(svc, a.Imports, a.Orchestrator(), folderID, a.WorkDir())
	run, err := ingest.IngestFolder(c.Context, folderID)
	if err != nil {
		return err
	}
	return runOutcome(run)
}

func runBatch(c *cli.Context, src storage.ObjectStorage, prefix, label string) error {
	run, err := fromContext(c).Orchestrator().Run(c.Context, src, prefix, label)
	if err != nil {
		return err
	}
	return runOutcome(run)
}

func runOutcome(run *domain.ImportRun) error {
	ev := zlog.Info()
	if run.Status != domain.RunCompleted {
		ev = zlog.Error()
	}
	ev.Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Int("files", run.FilesDone).
		Int("total", run.FilesTotal).
		Msg("batch import finished")
	if run.Error != nil {
		return cli.Exit(*run.Error, 1)
	}
	return nil
}

func enqueueObject(c *cli.Context) error {
	a := fromContext(c)
	kind, ok := domain.ParseImportKind(c.String("kind"))
	if !ok {
		return cli.Exit("kind must be sales or stock", 2)
	}
	client, err := queue.NewClient(a.Config.Queue, a.Config.Cache)
	if err != nil {
		return err
	}
	defer client.Close()

	queued, err := client.EnqueueObject(c.Context, c.String("key"), kind)
	if err != nil {
		return err
	}
	if !queued {
		return cli.Exit("queue is disabled (QUEUE_ENABLED=false)", 1)
	}
	zlog.Info().Str("key", c.String("key")).Msg("queued")
	return nil
}

func listRuns(c *cli.Context) error {
	runs, err := fromContext(c).Store.Runs().ListRuns(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s\t%s\t%d/%d\t%s\t%s\n", r.ID, r.Status, r.FilesDone, r.FilesTotal, r.StartedAt.Format("2006-01-02 15:04:05"), r.Source)
	}
	return nil
}

func logResult(path string, res domain.ImportResult) {
	level := zerolog.InfoLevel
	if res.Skipped > 0 {
		level = zerolog.WarnLevel
	}
	zlog.WithLevel(level).
		Str("file", path).
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Msg(res.Message)
}
