// Package all registers every built-in sink backend with the storage
// factory. Import it for side effects:
//
//	import _ "visaprep/internal/storage/all"
//
// after which storage.Write accepts kinds "postgres", "mssql", "mysql" and
// "sqlite".
package all

import (
	_ "visaprep/internal/storage/mssql"
	_ "visaprep/internal/storage/mysql"
	_ "visaprep/internal/storage/postgres"
	_ "visaprep/internal/storage/sqlite"
)
