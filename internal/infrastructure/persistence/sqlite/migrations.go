package sqlite

import "embed"

// MigrationsDir is the directory of Migrations holding the schema files
const MigrationsDir = "migrations"

// Migrations holds the voucher schema, applied in file name order
//
//go:embed migrations/*.sql
var Migrations embed.FS
