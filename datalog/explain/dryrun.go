package explain

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DryRun validates a compiled report's SQL shape against an in-memory
// SQLite database carrying the given schema DDL. It never touches real
// data -- the relational engine stays an external collaborator -- this is
// strictly a syntax/column-shape sanity check useful in tests and the
// explain CLI command, substituting placeholder NULLs for every bound
// parameter so EXPLAIN can run without real inputs.
func DryRun(ddl string, r *Report) error {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("explain: opening dry-run database: %w", err)
	}
	defer db.Close()

	if ddl != "" {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("explain: applying dry-run schema: %w", err)
		}
	}

	args := make([]interface{}, len(r.Params))
	for i := range r.Params {
		args[i] = nil
	}

	if _, err := db.Exec("EXPLAIN "+r.SQL, args...); err != nil {
		return fmt.Errorf("explain: dry-run EXPLAIN failed: %w", err)
	}
	return nil
}
