package db

// SchemaSQL defines the relational schema. latest_message_id is SET
// NULL on message delete so conversation deletion can remove messages
// first inside one transaction without tripping the back-reference.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS users (
    id             UUID PRIMARY KEY,
    username       TEXT UNIQUE,
    email          TEXT NOT NULL DEFAULT '',
    email_verified BOOLEAN NOT NULL DEFAULT FALSE,
    image          TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS conversations (
    id                UUID PRIMARY KEY,
    latest_message_id UUID,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS messages (
    id              UUID PRIMARY KEY,
    conversation_id UUID NOT NULL REFERENCES conversations(id),
    sender_id       UUID NOT NULL REFERENCES users(id),
    body            TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS messages_conversation_created_idx
    ON messages (conversation_id, created_at DESC);

DO $$ BEGIN
    ALTER TABLE conversations
        ADD CONSTRAINT conversations_latest_message_fk
        FOREIGN KEY (latest_message_id) REFERENCES messages(id)
        ON DELETE SET NULL;
EXCEPTION
    WHEN duplicate_object THEN NULL;
END $$;

CREATE TABLE IF NOT EXISTS conversation_participants (
    id                      UUID PRIMARY KEY,
    conversation_id         UUID NOT NULL REFERENCES conversations(id),
    user_id                 UUID NOT NULL REFERENCES users(id),
    has_seen_latest_message BOOLEAN NOT NULL DEFAULT FALSE,
    created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (conversation_id, user_id)
);

CREATE INDEX IF NOT EXISTS conversation_participants_user_idx
    ON conversation_participants (user_id);
`
