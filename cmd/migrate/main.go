package main

import (
	"errors"
	"flag"
	"log"

	"blog_cms/internal/pkg/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var (
		dir  = flag.String("path", "migrations", "migrations directory")
		down = flag.Bool("down", false, "roll back one version")
	)
	flag.Parse()

	config.LoadConfig()
	cfg := config.GlobalConfig.Database
	if cfg.Driver != "postgres" {
		log.Fatalf("migrate only supports postgres, got %q (sqlite uses AutoMigrate on startup)", cfg.Driver)
	}

	m, err := migrate.New("file://"+*dir, cfg.URL())
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	if *down {
		if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal(err)
		}
		log.Println("Rolled back one version")
		return
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		// dirty 状态时强制回到记录的版本再重试
		var dirty migrate.ErrDirty
		if !errors.As(err, &dirty) {
			log.Fatal(err)
		}
		log.Printf("Database is dirty at version %d, forcing...", dirty.Version)
		if err := m.Force(dirty.Version); err != nil {
			log.Fatal("Failed to force version:", err)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal(err)
		}
	}

	version, _, _ := m.Version()
	log.Printf("Migration successful, version %d", version)
}
