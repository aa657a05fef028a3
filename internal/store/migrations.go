package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS schedule_cache (
	session_id   TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	project_id   INTEGER NOT NULL,
	payload      TEXT NOT NULL,
	total_days   INTEGER NOT NULL DEFAULT 0,
	generated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (session_id, project_id)
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS view_prefs (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	project_id INTEGER NOT NULL,
	view       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (session_id, project_id)
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
