package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/voyago/trip-planner/internal/model"
	"github.com/voyago/trip-planner/internal/store"
	"github.com/voyago/trip-planner/migrations"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Bootstrap applies pending migrations from the embedded FS.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Trips() store.Trips             { return &trips{db: s.db} }
func (s *pgStore) Itineraries() store.Itineraries { return &itineraries{db: s.db} }
func (s *pgStore) Budgets() store.Budgets         { return &budgets{db: s.db} }
func (s *pgStore) Documents() store.Documents     { return &documents{db: s.db} }
func (s *pgStore) Monitoring() store.Monitoring   { return &monitoring{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Trips ---

type trips struct{ db *sql.DB }

func (t *trips) Create(ctx context.Context, m *model.Trip) (*model.Trip, error) {
	id := m.TripID
	if id == "" {
		id = uuid.New().String()
	}
	prefs, err := json.Marshal(m.Preferences)
	if err != nil {
		return nil, err
	}
	var created, updated time.Time
	row := t.db.QueryRowContext(ctx, `
        INSERT INTO trips (trip_id, title, description, destination, start_date, end_date, status, preferences)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at, updated_at
    `, id, m.Title, m.Description, m.Destination, m.StartDate, m.EndDate, string(m.Status), prefs)
	if err := row.Scan(&created, &updated); err != nil {
		return nil, err
	}
	out := *m
	out.TripID = id
	out.CreatedAt = created
	out.UpdatedAt = updated
	return &out, nil
}

func (t *trips) Get(ctx context.Context, tripID string) (*model.Trip, error) {
	row := t.db.QueryRowContext(ctx, `
        SELECT trip_id, title, description, destination, start_date, end_date, status, preferences, created_at, updated_at
        FROM trips WHERE trip_id=$1
    `, tripID)
	out, err := scanTrip(row)
	if err != nil {
		return nil, notFoundIfNoRows(err, "trip", tripID)
	}
	return out, nil
}

func (t *trips) GetAggregate(ctx context.Context, tripID string) (*model.Trip, error) {
	out, err := t.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	days, err := (&itineraries{db: t.db}).ListDays(ctx, tripID)
	if err != nil {
		return nil, err
	}
	out.ItineraryDays = days
	b, err := (&budgets{db: t.db}).GetByTrip(ctx, tripID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	out.Budget = b
	return out, nil
}

func (t *trips) List(ctx context.Context, req model.ListTripsRequest) ([]*model.Trip, int, error) {
	where := ""
	args := []interface{}{}
	if req.Status != nil {
		where = " WHERE status=$1"
		args = append(args, string(*req.Status))
	}

	var total int
	if err := t.db.QueryRowContext(ctx, `SELECT count(*) FROM trips`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (req.Page - 1) * req.PageSize
	query := fmt.Sprintf(`
        SELECT trip_id, title, description, destination, start_date, end_date, status, preferences, created_at, updated_at
        FROM trips%s ORDER BY created_at, trip_id LIMIT $%d OFFSET $%d
    `, where, len(args)+1, len(args)+2)
	args = append(args, req.PageSize, offset)

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Trip
	for rows.Next() {
		m, err := scanTrip(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (t *trips) Update(ctx context.Context, m *model.Trip) (*model.Trip, error) {
	prefs, err := json.Marshal(m.Preferences)
	if err != nil {
		return nil, err
	}
	var updated time.Time
	row := t.db.QueryRowContext(ctx, `
        UPDATE trips
        SET title=$1, description=$2, destination=$3, start_date=$4, end_date=$5, status=$6, preferences=$7, updated_at=now()
        WHERE trip_id=$8
        RETURNING updated_at
    `, m.Title, m.Description, m.Destination, m.StartDate, m.EndDate, string(m.Status), prefs, m.TripID)
	if err := row.Scan(&updated); err != nil {
		return nil, notFoundIfNoRows(err, "trip", m.TripID)
	}
	out := *m
	out.UpdatedAt = updated
	return &out, nil
}

func (t *trips) Delete(ctx context.Context, tripID string) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM trips WHERE trip_id=$1`, tripID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("trip %s: %w", tripID, model.ErrNotFound)
	}
	return nil
}

// --- Itineraries ---

type itineraries struct{ db *sql.DB }

func (i *itineraries) AddDay(ctx context.Context, d *model.ItineraryDay) (*model.ItineraryDay, error) {
	id := d.DayID
	if id == "" {
		id = uuid.New().String()
	}
	if _, err := i.db.ExecContext(ctx, `
        INSERT INTO itinerary_days (day_id, trip_id, day_date, notes)
        VALUES ($1,$2,$3,$4)
    `, id, d.TripID, d.Date, d.Notes); err != nil {
		return nil, err
	}
	out := *d
	out.DayID = id
	return &out, nil
}

func (i *itineraries) GetDay(ctx context.Context, dayID string) (*model.ItineraryDay, error) {
	var out model.ItineraryDay
	row := i.db.QueryRowContext(ctx, `
        SELECT day_id, trip_id, day_date, notes FROM itinerary_days WHERE day_id=$1
    `, dayID)
	if err := row.Scan(&out.DayID, &out.TripID, &out.Date, &out.Notes); err != nil {
		return nil, notFoundIfNoRows(err, "itinerary day", dayID)
	}
	return &out, nil
}

func (i *itineraries) ListDays(ctx context.Context, tripID string) ([]*model.ItineraryDay, error) {
	rows, err := i.db.QueryContext(ctx, `
        SELECT day_id, trip_id, day_date, notes
        FROM itinerary_days WHERE trip_id=$1 ORDER BY day_date
    `, tripID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var days []*model.ItineraryDay
	byID := map[string]*model.ItineraryDay{}
	for rows.Next() {
		var d model.ItineraryDay
		if err := rows.Scan(&d.DayID, &d.TripID, &d.Date, &d.Notes); err != nil {
			return nil, err
		}
		d.Activities = []*model.Activity{}
		days = append(days, &d)
		byID[d.DayID] = &d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	actRows, err := i.db.QueryContext(ctx, `
        SELECT a.activity_id, a.day_id, a.name, a.description, a.start_time, a.end_time, a.location, a.cost, a.booking_info
        FROM activities a JOIN itinerary_days d ON d.day_id = a.day_id
        WHERE d.trip_id=$1 ORDER BY a.start_time
    `, tripID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = actRows.Close() }()
	for actRows.Next() {
		var a model.Activity
		var booking sql.NullString
		if err := actRows.Scan(&a.ActivityID, &a.DayID, &a.Name, &a.Description, &a.StartTime, &a.EndTime, &a.Location, &a.Cost, &booking); err != nil {
			return nil, err
		}
		if booking.Valid {
			_ = json.Unmarshal([]byte(booking.String), &a.BookingInfo)
		}
		if d, ok := byID[a.DayID]; ok {
			d.Activities = append(d.Activities, &a)
		}
	}
	if err := actRows.Err(); err != nil {
		return nil, err
	}

	accRows, err := i.db.QueryContext(ctx, `
        SELECT ac.accommodation_id, ac.day_id, ac.name, ac.address, ac.check_in, ac.check_out, ac.cost, ac.booking_info
        FROM accommodations ac JOIN itinerary_days d ON d.day_id = ac.day_id
        WHERE d.trip_id=$1
    `, tripID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = accRows.Close() }()
	for accRows.Next() {
		var a model.Accommodation
		var booking sql.NullString
		if err := accRows.Scan(&a.AccommodationID, &a.DayID, &a.Name, &a.Address, &a.CheckIn, &a.CheckOut, &a.Cost, &booking); err != nil {
			return nil, err
		}
		if booking.Valid {
			_ = json.Unmarshal([]byte(booking.String), &a.BookingInfo)
		}
		if d, ok := byID[a.DayID]; ok {
			d.Accommodation = &a
		}
	}
	return days, accRows.Err()
}

func (i *itineraries) AddActivity(ctx context.Context, a *model.Activity) (*model.Activity, error) {
	id := a.ActivityID
	if id == "" {
		id = uuid.New().String()
	}
	booking, err := json.Marshal(a.BookingInfo)
	if err != nil {
		return nil, err
	}
	if _, err := i.db.ExecContext(ctx, `
        INSERT INTO activities (activity_id, day_id, name, description, start_time, end_time, location, cost, booking_info)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, id, a.DayID, a.Name, a.Description, a.StartTime, a.EndTime, a.Location, a.Cost, nullIfEmpty(booking)); err != nil {
		return nil, err
	}
	out := *a
	out.ActivityID = id
	return &out, nil
}

func (i *itineraries) SetAccommodation(ctx context.Context, a *model.Accommodation) (*model.Accommodation, error) {
	id := a.AccommodationID
	if id == "" {
		id = uuid.New().String()
	}
	booking, err := json.Marshal(a.BookingInfo)
	if err != nil {
		return nil, err
	}
	if _, err := i.db.ExecContext(ctx, `
        INSERT INTO accommodations (accommodation_id, day_id, name, address, check_in, check_out, cost, booking_info)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (day_id) DO UPDATE
        SET name=EXCLUDED.name, address=EXCLUDED.address, check_in=EXCLUDED.check_in,
            check_out=EXCLUDED.check_out, cost=EXCLUDED.cost, booking_info=EXCLUDED.booking_info
    `, id, a.DayID, a.Name, a.Address, a.CheckIn, a.CheckOut, a.Cost, nullIfEmpty(booking)); err != nil {
		return nil, err
	}
	out := *a
	out.AccommodationID = id
	return &out, nil
}

func (i *itineraries) DeleteByTrip(ctx context.Context, tripID string) error {
	_, err := i.db.ExecContext(ctx, `DELETE FROM itinerary_days WHERE trip_id=$1`, tripID)
	return err
}

// --- Budgets ---

type budgets struct{ db *sql.DB }

func (b *budgets) Put(ctx context.Context, m *model.Budget) (*model.Budget, error) {
	id := m.BudgetID
	if id == "" {
		id = uuid.New().String()
	}
	breakdown, err := json.Marshal(m.Breakdown)
	if err != nil {
		return nil, err
	}
	if _, err := b.db.ExecContext(ctx, `
        INSERT INTO budgets (budget_id, trip_id, total, spent, currency, breakdown)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (trip_id) DO UPDATE
        SET total=EXCLUDED.total, spent=EXCLUDED.spent, currency=EXCLUDED.currency, breakdown=EXCLUDED.breakdown
    `, id, m.TripID, m.Total, m.Spent, m.Currency, breakdown); err != nil {
		return nil, err
	}
	out := *m
	out.BudgetID = id
	return &out, nil
}

func (b *budgets) GetByTrip(ctx context.Context, tripID string) (*model.Budget, error) {
	var out model.Budget
	var breakdown []byte
	row := b.db.QueryRowContext(ctx, `
        SELECT budget_id, trip_id, total, spent, currency, breakdown FROM budgets WHERE trip_id=$1
    `, tripID)
	if err := row.Scan(&out.BudgetID, &out.TripID, &out.Total, &out.Spent, &out.Currency, &breakdown); err != nil {
		return nil, notFoundIfNoRows(err, "budget for trip", tripID)
	}
	if len(breakdown) > 0 {
		_ = json.Unmarshal(breakdown, &out.Breakdown)
	}
	return &out, nil
}

// --- Documents ---

type documents struct{ db *sql.DB }

func (d *documents) Put(ctx context.Context, m *model.Document) (*model.Document, error) {
	var updated time.Time
	row := d.db.QueryRowContext(ctx, `
        INSERT INTO documents (trip_id, doc_type, path, last_updated)
        VALUES ($1,$2,$3,now())
        ON CONFLICT (trip_id, doc_type) DO UPDATE SET path=EXCLUDED.path, last_updated=now()
        RETURNING last_updated
    `, m.TripID, string(m.Type), m.Path)
	if err := row.Scan(&updated); err != nil {
		return nil, err
	}
	out := *m
	out.LastUpdated = updated
	return &out, nil
}

func (d *documents) ListByTrip(ctx context.Context, tripID string) ([]*model.Document, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT trip_id, doc_type, path, last_updated FROM documents WHERE trip_id=$1 ORDER BY doc_type
    `, tripID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Document
	for rows.Next() {
		var m model.Document
		var typ string
		if err := rows.Scan(&m.TripID, &typ, &m.Path, &m.LastUpdated); err != nil {
			return nil, err
		}
		m.Type = model.DocumentType(typ)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (d *documents) GetByType(ctx context.Context, tripID string, typ model.DocumentType) (*model.Document, error) {
	var out model.Document
	var rawType string
	row := d.db.QueryRowContext(ctx, `
        SELECT trip_id, doc_type, path, last_updated FROM documents WHERE trip_id=$1 AND doc_type=$2
    `, tripID, string(typ))
	if err := row.Scan(&out.TripID, &rawType, &out.Path, &out.LastUpdated); err != nil {
		return nil, notFoundIfNoRows(err, "document", string(typ))
	}
	out.Type = model.DocumentType(rawType)
	return &out, nil
}

// --- Monitoring ---

type monitoring struct{ db *sql.DB }

func (m *monitoring) AppendWeather(ctx context.Context, w *model.WeatherUpdate) error {
	_, err := m.db.ExecContext(ctx, `
        INSERT INTO weather_updates (trip_id, temperature_c, conditions, recorded_at)
        VALUES ($1,$2,$3,$4)
    `, w.TripID, w.TemperatureC, w.Conditions, w.Timestamp)
	return err
}

func (m *monitoring) AppendAlert(ctx context.Context, a *model.TravelAlert) error {
	_, err := m.db.ExecContext(ctx, `
        INSERT INTO travel_alerts (trip_id, alert_type, message, severity, recorded_at)
        VALUES ($1,$2,$3,$4,$5)
    `, a.TripID, a.AlertType, a.Message, string(a.Severity), a.Timestamp)
	return err
}

func (m *monitoring) ListWeather(ctx context.Context, tripID string, since time.Time) ([]*model.WeatherUpdate, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT trip_id, temperature_c, conditions, recorded_at
        FROM weather_updates WHERE trip_id=$1 AND recorded_at >= $2 ORDER BY recorded_at
    `, tripID, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.WeatherUpdate
	for rows.Next() {
		var w model.WeatherUpdate
		if err := rows.Scan(&w.TripID, &w.TemperatureC, &w.Conditions, &w.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

func (m *monitoring) ListAlerts(ctx context.Context, tripID string, since time.Time) ([]*model.TravelAlert, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT trip_id, alert_type, message, severity, recorded_at
        FROM travel_alerts WHERE trip_id=$1 AND recorded_at >= $2 ORDER BY recorded_at
    `, tripID, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.TravelAlert
	for rows.Next() {
		var a model.TravelAlert
		var sev string
		if err := rows.Scan(&a.TripID, &a.AlertType, &a.Message, &sev, &a.Timestamp); err != nil {
			return nil, err
		}
		a.Severity = model.AlertSeverity(sev)
		out = append(out, &a)
	}
	return out, rows.Err()
}

// helpers

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanTrip(row rowScanner) (*model.Trip, error) {
	var out model.Trip
	var status string
	var prefs []byte
	if err := row.Scan(&out.TripID, &out.Title, &out.Description, &out.Destination,
		&out.StartDate, &out.EndDate, &status, &prefs, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	out.Status = model.TripStatus(status)
	if len(prefs) > 0 {
		_ = json.Unmarshal(prefs, &out.Preferences)
	}
	return &out, nil
}

func notFoundIfNoRows(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, model.ErrNotFound)
	}
	return err
}

func nullIfEmpty(b []byte) interface{} {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return b
}
