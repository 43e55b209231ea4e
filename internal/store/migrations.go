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
		Name:    "create credential tables",
		SQL: `
			CREATE TABLE robot_tokens (
				robot_id        TEXT NOT NULL,
				conversation_id TEXT NOT NULL,
				access_token    TEXT NOT NULL,
				updated_at      TEXT NOT NULL DEFAULT (datetime('now')),
				PRIMARY KEY (robot_id, conversation_id)
			);

			CREATE TABLE session_webhooks (
				robot_id        TEXT NOT NULL,
				conversation_id TEXT NOT NULL,
				webhook_url     TEXT NOT NULL,
				expires_at      INTEGER NOT NULL,
				updated_at      TEXT NOT NULL DEFAULT (datetime('now')),
				PRIMARY KEY (robot_id, conversation_id)
			);
		`,
	},
}
