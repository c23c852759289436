package migrations

import (
	_ "embed"
)

//go:embed 20250301120000_create_quiz_tables.up.sql
var createQuizTablesSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createQuizTablesSQL),
		execSQL(`DROP TABLE IF EXISTS questions; DROP TABLE IF EXISTS quizzes`),
	)
}
