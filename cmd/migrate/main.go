package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/shared/config"
)

func main() {
	var (
		set     string
		command string
		dbURL   string
	)

	flag.StringVar(&set, "module", "deck", "Migration set under migrations/")
	flag.StringVar(&command, "cmd", "up", "Migration command (up, down, steps, version, force)")
	flag.StringVar(&dbURL, "database", "", "Database URL (defaults to DATABASE_URL)")
	flag.Parse()

	if dbURL == "" {
		dbURL = config.LoadConfig().DatabaseURL
	}

	migrationPath := fmt.Sprintf("file://migrations/%s", set)
	log.Printf("🔄 Running %s migrations from %s", set, migrationPath)
	log.Printf("💾 Database: %s", maskDatabaseURL(dbURL))

	m, err := migrate.New(migrationPath, dbURL)
	if err != nil {
		log.Fatalf("❌ Failed to create migrate instance: %v", err)
	}
	defer m.Close()

	switch command {
	case "up":
		check("UP", m.Up())
	case "down":
		check("DOWN", m.Down())
	case "steps":
		n := intArg("steps")
		check(fmt.Sprintf("STEPS %d", n), m.Steps(n))
	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.Fatalf("❌ Failed to get version: %v", err)
		}
		log.Printf("📌 Current version: %d (dirty: %t)", version, dirty)
	case "force":
		v := intArg("force")
		if err := m.Force(v); err != nil {
			log.Fatalf("❌ Force failed: %v", err)
		}
		log.Printf("✅ Forced version to: %d", v)
	default:
		log.Fatalf("❌ Unknown command: %s (use: up, down, steps, version, force)", command)
	}
}

func check(label string, err error) {
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("❌ Migration %s failed: %v", label, err)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Printf("ℹ️  Migration %s: no change", label)
		return
	}
	log.Printf("✅ Migration %s completed", label)
}

func intArg(command string) int {
	if flag.NArg() < 1 {
		log.Fatalf("❌ %s needs a number argument", command)
	}
	n, err := strconv.Atoi(flag.Arg(0))
	if err != nil {
		log.Fatalf("❌ %s: invalid number %q", command, flag.Arg(0))
	}
	return n
}

// maskDatabaseURL hides credentials in the database URL for logging
func maskDatabaseURL(url string) string {
	if len(url) < 20 {
		return "***"
	}
	return url[:12] + "***" + url[len(url)-10:]
}
