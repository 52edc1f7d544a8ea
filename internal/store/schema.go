package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS networks (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'active',
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS locations (
	id          TEXT PRIMARY KEY,
	network_id  TEXT NOT NULL,
	name        TEXT NOT NULL,
	timezone    TEXT NOT NULL DEFAULT 'UTC',
	status      TEXT NOT NULL DEFAULT 'active',
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_locations_network ON locations(network_id);

CREATE TABLE IF NOT EXISTS members (
	network_id  TEXT NOT NULL,
	uid         TEXT NOT NULL,
	role        TEXT NOT NULL DEFAULT 'viewer',
	PRIMARY KEY (network_id, uid)
);

CREATE TABLE IF NOT EXISTS shelves (
	id           TEXT PRIMARY KEY,
	network_id   TEXT NOT NULL,
	location_id  TEXT NOT NULL,
	name         TEXT NOT NULL,
	order_index  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_shelves_scope ON shelves(network_id, location_id);

CREATE TABLE IF NOT EXISTS slots (
	id                  TEXT PRIMARY KEY,
	network_id          TEXT NOT NULL,
	location_id         TEXT NOT NULL,
	shelf_id            TEXT NOT NULL,
	name                TEXT NOT NULL,
	node_id             TEXT NOT NULL DEFAULT '',
	sku_id              TEXT NOT NULL DEFAULT '',
	tare_g              REAL NOT NULL DEFAULT 0,
	calibration_factor  REAL NOT NULL DEFAULT 0,
	hysteresis_g        REAL NOT NULL DEFAULT 0,
	min_qty_step        INTEGER NOT NULL DEFAULT 1,
	status              TEXT NOT NULL DEFAULT 'provisioning'
);
CREATE INDEX IF NOT EXISTS idx_slots_scope ON slots(network_id, location_id);

CREATE TABLE IF NOT EXISTS skus (
	id                  TEXT PRIMARY KEY,
	network_id          TEXT NOT NULL,
	location_id         TEXT NOT NULL,
	name                TEXT NOT NULL,
	unit_weight_g       REAL NOT NULL DEFAULT 0,
	tolerance_g         REAL NOT NULL DEFAULT 0,
	packaging_weight_g  REAL NOT NULL DEFAULT 0,
	active              BOOLEAN NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_skus_scope ON skus(network_id, location_id);

CREATE TABLE IF NOT EXISTS brains (
	id                TEXT PRIMARY KEY,
	network_id        TEXT NOT NULL,
	location_id       TEXT NOT NULL,
	type              TEXT NOT NULL DEFAULT 'brain',
	status            TEXT NOT NULL DEFAULT 'provisioning',
	firmware_version  TEXT NOT NULL DEFAULT '',
	last_seen         TEXT NOT NULL DEFAULT '',
	ip_address        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_brains_scope ON brains(network_id, location_id);

CREATE TABLE IF NOT EXISTS nodes (
	network_id        TEXT NOT NULL,
	location_id       TEXT NOT NULL,
	id                TEXT NOT NULL,
	node_mac          TEXT NOT NULL,
	paired_to_brain   TEXT NOT NULL DEFAULT '',
	firmware_version  TEXT NOT NULL DEFAULT '',
	last_seen         TEXT NOT NULL DEFAULT '',
	rssi              INTEGER NOT NULL DEFAULT 0,
	error_counters    TEXT NOT NULL DEFAULT '{}',
	status            TEXT NOT NULL DEFAULT 'provisioning',
	PRIMARY KEY (network_id, location_id, id)
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS networks (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'active',
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS locations (
	id          TEXT PRIMARY KEY,
	network_id  TEXT NOT NULL,
	name        TEXT NOT NULL,
	timezone    TEXT NOT NULL DEFAULT 'UTC',
	status      TEXT NOT NULL DEFAULT 'active',
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_locations_network ON locations(network_id);

CREATE TABLE IF NOT EXISTS members (
	network_id  TEXT NOT NULL,
	uid         TEXT NOT NULL,
	role        TEXT NOT NULL DEFAULT 'viewer',
	PRIMARY KEY (network_id, uid)
);

CREATE TABLE IF NOT EXISTS shelves (
	id           TEXT PRIMARY KEY,
	network_id   TEXT NOT NULL,
	location_id  TEXT NOT NULL,
	name         TEXT NOT NULL,
	order_index  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_shelves_scope ON shelves(network_id, location_id);

CREATE TABLE IF NOT EXISTS slots (
	id                  TEXT PRIMARY KEY,
	network_id          TEXT NOT NULL,
	location_id         TEXT NOT NULL,
	shelf_id            TEXT NOT NULL,
	name                TEXT NOT NULL,
	node_id             TEXT NOT NULL DEFAULT '',
	sku_id              TEXT NOT NULL DEFAULT '',
	tare_g              DOUBLE PRECISION NOT NULL DEFAULT 0,
	calibration_factor  DOUBLE PRECISION NOT NULL DEFAULT 0,
	hysteresis_g        DOUBLE PRECISION NOT NULL DEFAULT 0,
	min_qty_step        INTEGER NOT NULL DEFAULT 1,
	status              TEXT NOT NULL DEFAULT 'provisioning'
);
CREATE INDEX IF NOT EXISTS idx_slots_scope ON slots(network_id, location_id);

CREATE TABLE IF NOT EXISTS skus (
	id                  TEXT PRIMARY KEY,
	network_id          TEXT NOT NULL,
	location_id         TEXT NOT NULL,
	name                TEXT NOT NULL,
	unit_weight_g       DOUBLE PRECISION NOT NULL DEFAULT 0,
	tolerance_g         DOUBLE PRECISION NOT NULL DEFAULT 0,
	packaging_weight_g  DOUBLE PRECISION NOT NULL DEFAULT 0,
	active              BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_skus_scope ON skus(network_id, location_id);

CREATE TABLE IF NOT EXISTS brains (
	id                TEXT PRIMARY KEY,
	network_id        TEXT NOT NULL,
	location_id       TEXT NOT NULL,
	type              TEXT NOT NULL DEFAULT 'brain',
	status            TEXT NOT NULL DEFAULT 'provisioning',
	firmware_version  TEXT NOT NULL DEFAULT '',
	last_seen         TEXT NOT NULL DEFAULT '',
	ip_address        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_brains_scope ON brains(network_id, location_id);

CREATE TABLE IF NOT EXISTS nodes (
	network_id        TEXT NOT NULL,
	location_id       TEXT NOT NULL,
	id                TEXT NOT NULL,
	node_mac          TEXT NOT NULL,
	paired_to_brain   TEXT NOT NULL DEFAULT '',
	firmware_version  TEXT NOT NULL DEFAULT '',
	last_seen         TEXT NOT NULL DEFAULT '',
	rssi              INTEGER NOT NULL DEFAULT 0,
	error_counters    TEXT NOT NULL DEFAULT '{}',
	status            TEXT NOT NULL DEFAULT 'provisioning',
	PRIMARY KEY (network_id, location_id, id)
);
`
