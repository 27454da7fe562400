package common

// JournalPath returns the rollback journal path for a database file.
// The journal always lives next to its database.
func JournalPath(dbPath string) string {
	return dbPath + "-journal"
}
