package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed sql/*.sql
var files embed.FS

const dialect = "postgres"

var set = migrate.MigrationSet{TableName: "schema_migrations"}

func source() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{FileSystem: files, Root: "sql"}
}

// Up applies every pending migration and returns how many ran.
func Up(db *sql.DB) (int, error) {
	n, err := set.Exec(db, dialect, source(), migrate.Up)
	if err != nil {
		return n, fmt.Errorf("apply migrations: %w", err)
	}
	return n, nil
}

// Down rolls back at most steps migrations. steps <= 0 rolls back everything.
func Down(db *sql.DB, steps int) (int, error) {
	n, err := set.ExecMax(db, dialect, source(), migrate.Down, steps)
	if err != nil {
		return n, fmt.Errorf("roll back migrations: %w", err)
	}
	return n, nil
}

// Applied lists the ids of migrations recorded in the database.
func Applied(db *sql.DB) ([]string, error) {
	records, err := set.GetMigrationRecords(db, dialect)
	if err != nil {
		return nil, fmt.Errorf("read migration records: %w", err)
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.Id)
	}
	return ids, nil
}
