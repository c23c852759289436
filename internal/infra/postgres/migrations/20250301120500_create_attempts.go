package migrations

import (
	_ "embed"
)

//go:embed 20250301120500_create_attempts.up.sql
var createAttemptsSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createAttemptsSQL),
		execSQL(`DROP TABLE IF EXISTS attempts`),
	)
}
