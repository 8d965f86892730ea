package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
)

// migrate runs each statement of schema on its own; the libsql driver
// rejects multi-statement Exec.
func migrate(db *sql.DB, schema string) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
