package store

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS robots (
    id            BIGINT PRIMARY KEY,
    location_id   BIGINT,
    status        TEXT NOT NULL DEFAULT 'idle',
    target        BIGINT NOT NULL DEFAULT 0,
    task          TEXT NOT NULL DEFAULT '',
    assigned_tick BIGINT NOT NULL DEFAULT 0,
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS locations (
    id            BIGINT PRIMARY KEY,
    x             BIGINT NOT NULL DEFAULT 0,
    y             BIGINT NOT NULL DEFAULT 0,
    task_capacity INTEGER NOT NULL DEFAULT 0,
    occupancy     TEXT NOT NULL DEFAULT 'available',
    occupant      BIGINT NOT NULL DEFAULT 0,
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS location_tasks (
    location_id BIGINT NOT NULL REFERENCES locations(id),
    position    INTEGER NOT NULL,
    task        TEXT NOT NULL,
    PRIMARY KEY (location_id, position)
);

CREATE TABLE IF NOT EXISTS command_queue (
    queue       TEXT NOT NULL,
    robot_id    BIGINT NOT NULL DEFAULT 0,
    position    INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    location_id BIGINT NOT NULL DEFAULT 0,
    task        TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (queue, robot_id, position)
);

CREATE TABLE IF NOT EXISTS swarm_meta (
    key   TEXT PRIMARY KEY,
    value BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outbox (
    id          BIGSERIAL PRIMARY KEY,
    topic       TEXT NOT NULL,
    payload     BYTEA NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    station_id  TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    sent_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_log (
    id          BIGSERIAL PRIMARY KEY,
    entity_type TEXT NOT NULL,
    entity_id   BIGINT NOT NULL DEFAULT 0,
    action      TEXT NOT NULL,
    old_value   TEXT NOT NULL DEFAULT '',
    new_value   TEXT NOT NULL DEFAULT '',
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS admin_users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
