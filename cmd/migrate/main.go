package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/infrastructure/config"
	"github.com/pharmawms/backend/internal/infrastructure/logger"
	"github.com/pharmawms/backend/internal/infrastructure/migration"
)

func main() {
	var (
		dir      string
		logLevel string
		envFile  string
	)
	flag.StringVar(&dir, "path", "migrations", "migrations directory")
	flag.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	flag.StringVar(&envFile, "env", ".env", "dotenv file loaded before the configuration")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	log := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	defer func() { _ = log.Sync() }()

	abs, err := filepath.Abs(dir)
	if err != nil {
		log.Fatal("resolve migrations path", zap.Error(err))
	}

	// create and list work on files only
	switch args[0] {
	case "create":
		if len(args) < 2 {
			log.Fatal("usage: migrate create <name> [description]")
		}
		var description string
		if len(args) > 2 {
			description = args[2]
		}
		f, err := migration.Create(abs, args[1], description, time.Now())
		if err != nil {
			log.Fatal("create migration", zap.Error(err))
		}
		log.Info("migration created", zap.String("up", f.UpPath), zap.String("down", f.DownPath))
		return
	case "list":
		files, err := migration.List(abs)
		if err != nil {
			log.Fatal("list migrations", zap.Error(err))
		}
		for _, f := range files {
			fmt.Printf("%d  %s\n", f.Version, f.Name)
		}
		return
	}

	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		log.Warn("dotenv file not loaded", zap.String("file", envFile), zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load configuration", zap.Error(err))
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatal("migrations target postgres only", zap.String("driver", cfg.Database.Driver))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("ping database", zap.Error(err))
	}

	m, err := migration.New(db, abs, log)
	if err != nil {
		log.Fatal("init migrator", zap.Error(err))
	}
	defer m.Close()

	if err := run(m, args); err != nil {
		log.Fatal("migration failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(m *migration.Migrator, args []string) error {
	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("version must not be negative")
		}
		return m.GoTo(uint(n))
	case "force":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(n)
	case "status":
		st, err := m.Status()
		if err != nil {
			return err
		}
		if st.Applied {
			fmt.Printf("version %d dirty=%t\n", st.Version, st.Dirty)
		} else {
			fmt.Println("no migrations applied")
		}
		for _, f := range st.Pending {
			fmt.Printf("pending %d  %s\n", f.Version, f.Name)
		}
		return nil
	}
	usage()
	return fmt.Errorf("unknown command %q", args[0])
}

func intArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s needs a number", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", args[0], args[1])
	}
	return n, nil
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: migrate [flags] <command> [args]

Commands:
  up                    apply every pending migration
  down                  roll back every migration
  step <n>              apply n migrations, negative rolls back
  goto <version>        migrate to version
  force <version>       set the version without running anything
  status                show the applied version and pending files
  create <name> [desc]  scaffold an up/down pair
  list                  list migration files

Flags:
`)
	flag.PrintDefaults()
}
