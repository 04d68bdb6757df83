package sqlite

import "database/sql"

// Schema mirrors migrations/00001_init.sql in SQLite dialect. The sqlite
// driver is used for local development and tests, so the schema is applied
// directly instead of through goose.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS trips (
        trip_id     TEXT PRIMARY KEY,
        title       TEXT NOT NULL,
        description TEXT,
        destination TEXT NOT NULL,
        start_date  TIMESTAMP NOT NULL,
        end_date    TIMESTAMP NOT NULL,
        status      TEXT NOT NULL DEFAULT 'planning',
        preferences TEXT NOT NULL DEFAULT '{}',
        created_at  TIMESTAMP NOT NULL,
        updated_at  TIMESTAMP NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS trips_created_at_idx ON trips (created_at, trip_id)`,
	`CREATE TABLE IF NOT EXISTS itinerary_days (
        day_id   TEXT PRIMARY KEY,
        trip_id  TEXT NOT NULL REFERENCES trips (trip_id) ON DELETE CASCADE,
        day_date TIMESTAMP NOT NULL,
        notes    TEXT NOT NULL DEFAULT ''
    )`,
	`CREATE INDEX IF NOT EXISTS itinerary_days_trip_idx ON itinerary_days (trip_id, day_date)`,
	`CREATE TABLE IF NOT EXISTS activities (
        activity_id  TEXT PRIMARY KEY,
        day_id       TEXT NOT NULL REFERENCES itinerary_days (day_id) ON DELETE CASCADE,
        name         TEXT NOT NULL,
        description  TEXT,
        start_time   TIMESTAMP NOT NULL,
        end_time     TIMESTAMP NOT NULL,
        location     TEXT,
        cost         REAL NOT NULL DEFAULT 0,
        booking_info TEXT
    )`,
	`CREATE INDEX IF NOT EXISTS activities_day_idx ON activities (day_id, start_time)`,
	`CREATE TABLE IF NOT EXISTS accommodations (
        accommodation_id TEXT PRIMARY KEY,
        day_id           TEXT NOT NULL UNIQUE REFERENCES itinerary_days (day_id) ON DELETE CASCADE,
        name             TEXT NOT NULL,
        address          TEXT NOT NULL,
        check_in         TIMESTAMP NOT NULL,
        check_out        TIMESTAMP NOT NULL,
        cost             REAL NOT NULL DEFAULT 0,
        booking_info     TEXT
    )`,
	`CREATE TABLE IF NOT EXISTS budgets (
        budget_id TEXT PRIMARY KEY,
        trip_id   TEXT NOT NULL UNIQUE REFERENCES trips (trip_id) ON DELETE CASCADE,
        total     REAL NOT NULL DEFAULT 0,
        spent     REAL NOT NULL DEFAULT 0,
        currency  TEXT NOT NULL DEFAULT 'USD',
        breakdown TEXT NOT NULL DEFAULT '{}'
    )`,
	`CREATE TABLE IF NOT EXISTS documents (
        trip_id      TEXT NOT NULL REFERENCES trips (trip_id) ON DELETE CASCADE,
        doc_type     TEXT NOT NULL,
        path         TEXT NOT NULL,
        last_updated TIMESTAMP NOT NULL,
        PRIMARY KEY (trip_id, doc_type)
    )`,
	`CREATE TABLE IF NOT EXISTS weather_updates (
        id            INTEGER PRIMARY KEY AUTOINCREMENT,
        trip_id       TEXT NOT NULL REFERENCES trips (trip_id) ON DELETE CASCADE,
        temperature_c REAL NOT NULL,
        conditions    TEXT NOT NULL,
        recorded_at   TIMESTAMP NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS weather_updates_trip_idx ON weather_updates (trip_id, recorded_at)`,
	`CREATE TABLE IF NOT EXISTS travel_alerts (
        id          INTEGER PRIMARY KEY AUTOINCREMENT,
        trip_id     TEXT NOT NULL REFERENCES trips (trip_id) ON DELETE CASCADE,
        alert_type  TEXT NOT NULL,
        message     TEXT NOT NULL,
        severity    TEXT NOT NULL DEFAULT 'info',
        recorded_at TIMESTAMP NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS travel_alerts_trip_idx ON travel_alerts (trip_id, recorded_at)`,
}

func applySchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
