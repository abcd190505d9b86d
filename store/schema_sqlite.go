package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS robots (
    id            INTEGER PRIMARY KEY,
    location_id   INTEGER,
    status        TEXT NOT NULL DEFAULT 'idle',
    target        INTEGER NOT NULL DEFAULT 0,
    task          TEXT NOT NULL DEFAULT '',
    assigned_tick INTEGER NOT NULL DEFAULT 0,
    updated_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS locations (
    id            INTEGER PRIMARY KEY,
    x             INTEGER NOT NULL DEFAULT 0,
    y             INTEGER NOT NULL DEFAULT 0,
    task_capacity INTEGER NOT NULL DEFAULT 0,
    occupancy     TEXT NOT NULL DEFAULT 'available',
    occupant      INTEGER NOT NULL DEFAULT 0,
    updated_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS location_tasks (
    location_id INTEGER NOT NULL REFERENCES locations(id),
    position    INTEGER NOT NULL,
    task        TEXT NOT NULL,
    PRIMARY KEY (location_id, position)
);

CREATE TABLE IF NOT EXISTS command_queue (
    queue       TEXT NOT NULL,
    robot_id    INTEGER NOT NULL DEFAULT 0,
    position    INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    location_id INTEGER NOT NULL DEFAULT 0,
    task        TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (queue, robot_id, position)
);

CREATE TABLE IF NOT EXISTS swarm_meta (
    key   TEXT PRIMARY KEY,
    value INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outbox (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    topic       TEXT NOT NULL,
    payload     BLOB NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    station_id  TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    sent_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_type TEXT NOT NULL,
    entity_id   INTEGER NOT NULL DEFAULT 0,
    action      TEXT NOT NULL,
    old_value   TEXT NOT NULL DEFAULT '',
    new_value   TEXT NOT NULL DEFAULT '',
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS admin_users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
`
