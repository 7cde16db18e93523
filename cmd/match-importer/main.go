package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/repo"
	"github.com/radieske/winmix-prediction-poc/internal/shared/config"
	"github.com/radieske/winmix-prediction-poc/internal/shared/db"
	"github.com/radieske/winmix-prediction-poc/internal/shared/logger"
)

func main() {
	migrateFirst := flag.Bool("migrate", true, "aplica as migrations antes de importar")
	dryRun := flag.Bool("dry-run", false, "só valida os arquivos, sem gravar")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: match-importer [-migrate=false] [-dry-run] matches.json [more.json ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "match-importer"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *migrateFirst && !*dryRun {
		if err := db.Migrate(cfg.DBDriver, cfg.DSN()); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	var matches *repo.MatchRepo
	if !*dryRun {
		conn, err := db.Connect(cfg.DBDriver, cfg.DSN())
		if err != nil {
			log.Fatal("db connect", zap.Error(err))
		}
		defer conn.Close()
		matches = repo.NewMatchRepo(conn, cfg.DBDriver)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	failed := false
	for _, path := range flag.Args() {
		if err := importFile(ctx, log, matches, path); err != nil {
			log.Error("import failed", zap.String("file", path), zap.Error(err))
			failed = true
		}
	}
	if failed {
		log.Sync()
		os.Exit(1)
	}
}

// importFile lê um arquivo {"matches": [...]} ou array; matches nil = dry-run
func importFile(ctx context.Context, log *zap.Logger, matches *repo.MatchRepo, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ms, err := repo.DecodeMatches(f)
	if err != nil {
		return err
	}

	if matches == nil {
		if err := repo.ValidateMatches(ms); err != nil {
			return err
		}
		log.Info("file decoded (dry run)", zap.String("file", path), zap.Int("matches", len(ms)))
		return nil
	}

	n, err := matches.ImportMatches(ctx, ms)
	if err != nil {
		return err
	}
	log.Info("matches imported",
		zap.String("file", path),
		zap.Int("read", len(ms)),
		zap.Int("imported", n),
		zap.Int("skipped", len(ms)-n))
	return nil
}
