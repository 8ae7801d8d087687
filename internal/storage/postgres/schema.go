package postgres

// Schema is the base PostgreSQL schema. The embedding column is added
// separately so the schema applies cleanly without the pgvector extension.
const Schema = `
CREATE TABLE IF NOT EXISTS memories (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	content       TEXT NOT NULL,
	category      TEXT NOT NULL DEFAULT 'general',
	importance    DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	keywords      TEXT,
	metadata      JSONB,
	created_at    TIMESTAMPTZ NOT NULL,
	last_accessed TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memories_user_rank
	ON memories(user_id, importance DESC, last_accessed DESC);

CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversations_user_updated
	ON conversations(user_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	role            TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
	content         TEXT NOT NULL,
	timestamp       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages(conversation_id, timestamp);
`
