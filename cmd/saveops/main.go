package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dailyquests/internal/config"
	"dailyquests/internal/ops"
	"dailyquests/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cmds := map[string]func(context.Context, []string) error{
		"inspect": cmdInspect,
		"migrate": cmdMigrate,
		"export":  cmdExport,
		"import":  cmdImport,
		"copy":    cmdCopy,
		"backup":  cmdBackup,
		"restore": cmdRestore,
	}
	run, ok := cmds[os.Args[1]]
	if !ok {
		printUsage()
		os.Exit(2)
	}
	if err := run(context.Background(), os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// target is the save location every store-facing subcommand shares.
type target struct {
	settings *string
	backend  *string
}

func addTarget(fs *flag.FlagSet) target {
	return target{
		settings: fs.String("settings", "", "settings file (yaml)"),
		backend:  fs.String("backend", "", "override storage backend"),
	}
}

func (t target) open(ctx context.Context) (storage.Store, func(), config.StorageSettings, error) {
	s, err := config.LoadSettings(*t.settings)
	if err != nil {
		return nil, nil, config.StorageSettings{}, err
	}
	if *t.backend != "" {
		s.Storage.Backend = *t.backend
	}
	st, closer, err := storage.Open(ctx, s.Storage)
	if err != nil {
		return nil, nil, config.StorageSettings{}, err
	}
	return st, func() { _ = closer.Close() }, s.Storage, nil
}

func cmdInspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	tgt := addTarget(fs)
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, done, ss, err := tgt.open(ctx)
	if err != nil {
		return err
	}
	defer done()

	r, err := ops.Inspect(ctx, st, ss.Namespace, ss.Key)
	if err != nil {
		return err
	}
	if *asJSON {
		return json.NewEncoder(os.Stdout).Encode(r)
	}
	fmt.Println(r)
	return nil
}

func cmdMigrate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	tgt := addTarget(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, done, ss, err := tgt.open(ctx)
	if err != nil {
		return err
	}
	defer done()

	r, err := ops.MigrateSave(ctx, st, ss.Namespace, ss.Key)
	if err != nil {
		return err
	}
	fmt.Printf("migrated from %s: %d tasks\n", r.Version, r.Tasks)
	return nil
}

func cmdExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	tgt := addTarget(fs)
	out := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, done, ss, err := tgt.open(ctx)
	if err != nil {
		return err
	}
	defer done()

	if *out == "" {
		return ops.Export(ctx, st, ss.Namespace, ss.Key, os.Stdout)
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := ops.Export(ctx, st, ss.Namespace, ss.Key, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func cmdImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	tgt := addTarget(fs)
	in := fs.String("in", "", "input file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("in is required")
	}
	st, done, ss, err := tgt.open(ctx)
	if err != nil {
		return err
	}
	defer done()

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()
	return ops.Import(ctx, st, ss.Namespace, ss.Key, f)
}

func cmdCopy(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("copy", flag.ContinueOnError)
	tgt := addTarget(fs)
	to := fs.String("to-backend", "", "destination storage backend")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *to == "" {
		return fmt.Errorf("to-backend is required")
	}
	src, done, ss, err := tgt.open(ctx)
	if err != nil {
		return err
	}
	defer done()

	dstSettings := ss
	dstSettings.Backend = *to
	dst, closer, err := storage.Open(ctx, dstSettings)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := ops.Copy(ctx, src, dst, ss.Namespace, ss.Key); err != nil {
		return err
	}
	fmt.Printf("copied %s/%s: %s -> %s\n", ss.Namespace, ss.Key, ss.Backend, *to)
	return nil
}

func cmdBackup(ctx context.Context, args []string) error {
	_ = ctx

	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "file backend data directory")
	out := fs.String("out", "", "output archive path (.tar.gz)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *out == "" {
		ts := time.Now().UTC().Format("20060102T150405Z")
		*out = filepath.Join("backups", "dailyquests-"+ts+".tar.gz")
	}

	n, err := ops.BackupDataDir(*dataDir, *out)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d saves)\n", *out, n)
	return nil
}

func cmdRestore(ctx context.Context, args []string) error {
	_ = ctx

	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	archive := fs.String("archive", "", "input backup archive (.tar.gz)")
	targetDir := fs.String("target-dir", "data-restored", "restore target directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *archive == "" {
		return fmt.Errorf("archive is required")
	}
	n, err := ops.RestoreDataDir(*archive, *targetDir)
	if err != nil {
		return err
	}
	fmt.Printf("restored %d saves into %s\n", n, *targetDir)
	return nil
}

func printUsage() {
	fmt.Println("usage:")
	fmt.Println("  saveops inspect [--settings f] [--backend b] [--json]")
	fmt.Println("  saveops migrate [--settings f] [--backend b]")
	fmt.Println("  saveops export  [--settings f] [--backend b] --out save.json")
	fmt.Println("  saveops import  [--settings f] [--backend b] --in save.json")
	fmt.Println("  saveops copy    [--settings f] [--backend b] --to-backend sqlite")
	fmt.Println("  saveops backup  --data-dir data --out backups/saves.tar.gz")
	fmt.Println("  saveops restore --archive backups/saves.tar.gz --target-dir data-restored")
}
