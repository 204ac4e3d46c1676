package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.
	//   "file:visa.db?_pragma=busy_timeout(5000)"
	//   "visa.db"
	DSN string

	// Table is the destination table. Dotted names such as
	// "main.visa_cases" are accepted.
	Table string

	// Columns is the ordered list of destination columns.
	Columns []string
}
