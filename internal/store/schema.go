package store

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	seed            INTEGER NOT NULL,
	target          INTEGER NOT NULL,
	attempts        INTEGER NOT NULL,
	successes       INTEGER NOT NULL,
	failures        INTEGER NOT NULL,
	acceptance_rate REAL NOT NULL,
	metrics         TEXT,
	output_dir      TEXT,
	started_at      TEXT NOT NULL,
	duration_ms     INTEGER NOT NULL,
	created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rockets (
	rocket_id       TEXT PRIMARY KEY,
	run_id          TEXT REFERENCES runs(run_id),
	motor_name      TEXT NOT NULL,
	fin_cat         TEXT NOT NULL,
	parachute_trigger TEXT NOT NULL,
	config          TEXT NOT NULL,
	init_wind_x     REAL NOT NULL,
	init_wind_y     REAL NOT NULL,
	trajectory_file TEXT NOT NULL,
	wind_file       TEXT,
	sample_count    INTEGER NOT NULL,
	apogee          REAL,
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rockets_run ON rockets(run_id);

CREATE TABLE IF NOT EXISTS trajectory_samples (
	rocket_id TEXT NOT NULL REFERENCES rockets(rocket_id) ON DELETE CASCADE,
	seq       INTEGER NOT NULL,
	time      REAL NOT NULL,
	x         REAL NOT NULL,
	y         REAL NOT NULL,
	z         REAL NOT NULL,
	PRIMARY KEY (rocket_id, seq)
);

CREATE TABLE IF NOT EXISTS wind_samples (
	rocket_id       TEXT NOT NULL REFERENCES rockets(rocket_id) ON DELETE CASCADE,
	seq             INTEGER NOT NULL,
	time            REAL NOT NULL,
	z               REAL NOT NULL,
	wind_velocity_x REAL NOT NULL,
	wind_velocity_y REAL NOT NULL,
	PRIMARY KEY (rocket_id, seq)
);
`
