package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create threads and thread messages",
		SQL: `
			CREATE TABLE threads (
				id          TEXT PRIMARY KEY,
				created_at  TEXT NOT NULL,
				updated_at  TEXT NOT NULL
			);

			CREATE TABLE thread_messages (
				seq         INTEGER PRIMARY KEY AUTOINCREMENT,
				thread_id   TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
				role        TEXT NOT NULL,
				content     TEXT NOT NULL,
				node        TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL
			);

			CREATE INDEX idx_thread_messages_thread ON thread_messages (thread_id, seq);
		`,
	},
	{
		Version: 2,
		Name:    "index threads by recency",
		SQL:     `CREATE INDEX idx_threads_updated ON threads (updated_at);`,
	},
}
