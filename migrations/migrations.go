package main

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of all database migrations
var Migrations = migrate.NewMigrations()

func init() {
	// Each migration file registers itself via Migrations.MustRegister in
	// its init function.
}
