package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voyago/trip-planner/internal/model"
	"github.com/voyago/trip-planner/internal/store"
)

// New opens a file-backed store at path.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wraps an existing connection (used by tests and the factory).
func NewWithDB(db *sql.DB) store.Store { return &liteStore{db: db} }

type liteStore struct{ db *sql.DB }

func (s *liteStore) Trips() store.Trips             { return &trips{db: s.db} }
func (s *liteStore) Itineraries() store.Itineraries { return &itineraries{db: s.db} }
func (s *liteStore) Budgets() store.Budgets         { return &budgets{db: s.db} }
func (s *liteStore) Documents() store.Documents     { return &documents{db: s.db} }
func (s *liteStore) Monitoring() store.Monitoring   { return &monitoring{db: s.db} }

func (s *liteStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

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
	now := time.Now().UTC()
	if _, err := t.db.ExecContext(ctx, `
        INSERT INTO trips (trip_id, title, description, destination, start_date, end_date, status, preferences, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?,?)
    `, id, m.Title, m.Description, m.Destination, m.StartDate.UTC(), m.EndDate.UTC(), string(m.Status), string(prefs), now, now); err != nil {
		return nil, err
	}
	out := *m
	out.TripID = id
	out.CreatedAt = now
	out.UpdatedAt = now
	return &out, nil
}

func (t *trips) Get(ctx context.Context, tripID string) (*model.Trip, error) {
	row := t.db.QueryRowContext(ctx, `
        SELECT trip_id, title, description, destination, start_date, end_date, status, preferences, created_at, updated_at
        FROM trips WHERE trip_id=?
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
		where = " WHERE status=?"
		args = append(args, string(*req.Status))
	}

	var total int
	if err := t.db.QueryRowContext(ctx, `SELECT count(*) FROM trips`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (req.Page - 1) * req.PageSize
	args = append(args, req.PageSize, offset)
	rows, err := t.db.QueryContext(ctx, `
        SELECT trip_id, title, description, destination, start_date, end_date, status, preferences, created_at, updated_at
        FROM trips`+where+` ORDER BY created_at, trip_id LIMIT ? OFFSET ?
    `, args...)
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
	now := time.Now().UTC()
	res, err := t.db.ExecContext(ctx, `
        UPDATE trips
        SET title=?, description=?, destination=?, start_date=?, end_date=?, status=?, preferences=?, updated_at=?
        WHERE trip_id=?
    `, m.Title, m.Description, m.Destination, m.StartDate.UTC(), m.EndDate.UTC(), string(m.Status), string(prefs), now, m.TripID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("trip %s: %w", m.TripID, model.ErrNotFound)
	}
	out := *m
	out.UpdatedAt = now
	return &out, nil
}

func (t *trips) Delete(ctx context.Context, tripID string) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM trips WHERE trip_id=?`, tripID)
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
        INSERT INTO itinerary_days (day_id, trip_id, day_date, notes) VALUES (?,?,?,?)
    `, id, d.TripID, d.Date.UTC(), d.Notes); err != nil {
		return nil, err
	}
	out := *d
	out.DayID = id
	return &out, nil
}

func (i *itineraries) GetDay(ctx context.Context, dayID string) (*model.ItineraryDay, error) {
	var out model.ItineraryDay
	row := i.db.QueryRowContext(ctx, `
        SELECT day_id, trip_id, day_date, notes FROM itinerary_days WHERE day_id=?
    `, dayID)
	if err := row.Scan(&out.DayID, &out.TripID, &out.Date, &out.Notes); err != nil {
		return nil, notFoundIfNoRows(err, "itinerary day", dayID)
	}
	return &out, nil
}

func (i *itineraries) ListDays(ctx context.Context, tripID string) ([]*model.ItineraryDay, error) {
	rows, err := i.db.QueryContext(ctx, `
        SELECT day_id, trip_id, day_date, notes FROM itinerary_days WHERE trip_id=? ORDER BY day_date
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
        WHERE d.trip_id=? ORDER BY a.start_time
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
        WHERE d.trip_id=?
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
        VALUES (?,?,?,?,?,?,?,?,?)
    `, id, a.DayID, a.Name, a.Description, a.StartTime.UTC(), a.EndTime.UTC(), a.Location, a.Cost, nullIfEmpty(booking)); err != nil {
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
        VALUES (?,?,?,?,?,?,?,?)
        ON CONFLICT (day_id) DO UPDATE
        SET name=excluded.name, address=excluded.address, check_in=excluded.check_in,
            check_out=excluded.check_out, cost=excluded.cost, booking_info=excluded.booking_info
    `, id, a.DayID, a.Name, a.Address, a.CheckIn.UTC(), a.CheckOut.UTC(), a.Cost, nullIfEmpty(booking)); err != nil {
		return nil, err
	}
	out := *a
	out.AccommodationID = id
	return &out, nil
}

func (i *itineraries) DeleteByTrip(ctx context.Context, tripID string) error {
	_, err := i.db.ExecContext(ctx, `DELETE FROM itinerary_days WHERE trip_id=?`, tripID)
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
        VALUES (?,?,?,?,?,?)
        ON CONFLICT (trip_id) DO UPDATE
        SET total=excluded.total, spent=excluded.spent, currency=excluded.currency, breakdown=excluded.breakdown
    `, id, m.TripID, m.Total, m.Spent, m.Currency, string(breakdown)); err != nil {
		return nil, err
	}
	out := *m
	out.BudgetID = id
	return &out, nil
}

func (b *budgets) GetByTrip(ctx context.Context, tripID string) (*model.Budget, error) {
	var out model.Budget
	var breakdown string
	row := b.db.QueryRowContext(ctx, `
        SELECT budget_id, trip_id, total, spent, currency, breakdown FROM budgets WHERE trip_id=?
    `, tripID)
	if err := row.Scan(&out.BudgetID, &out.TripID, &out.Total, &out.Spent, &out.Currency, &breakdown); err != nil {
		return nil, notFoundIfNoRows(err, "budget for trip", tripID)
	}
	if breakdown != "" {
		_ = json.Unmarshal([]byte(breakdown), &out.Breakdown)
	}
	return &out, nil
}

// --- Documents ---

type documents struct{ db *sql.DB }

func (d *documents) Put(ctx context.Context, m *model.Document) (*model.Document, error) {
	now := time.Now().UTC()
	if _, err := d.db.ExecContext(ctx, `
        INSERT INTO documents (trip_id, doc_type, path, last_updated)
        VALUES (?,?,?,?)
        ON CONFLICT (trip_id, doc_type) DO UPDATE SET path=excluded.path, last_updated=excluded.last_updated
    `, m.TripID, string(m.Type), m.Path, now); err != nil {
		return nil, err
	}
	out := *m
	out.LastUpdated = now
	return &out, nil
}

func (d *documents) ListByTrip(ctx context.Context, tripID string) ([]*model.Document, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT trip_id, doc_type, path, last_updated FROM documents WHERE trip_id=? ORDER BY doc_type
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
        SELECT trip_id, doc_type, path, last_updated FROM documents WHERE trip_id=? AND doc_type=?
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
        INSERT INTO weather_updates (trip_id, temperature_c, conditions, recorded_at) VALUES (?,?,?,?)
    `, w.TripID, w.TemperatureC, w.Conditions, w.Timestamp.UTC())
	return err
}

func (m *monitoring) AppendAlert(ctx context.Context, a *model.TravelAlert) error {
	_, err := m.db.ExecContext(ctx, `
        INSERT INTO travel_alerts (trip_id, alert_type, message, severity, recorded_at) VALUES (?,?,?,?,?)
    `, a.TripID, a.AlertType, a.Message, string(a.Severity), a.Timestamp.UTC())
	return err
}

func (m *monitoring) ListWeather(ctx context.Context, tripID string, since time.Time) ([]*model.WeatherUpdate, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT trip_id, temperature_c, conditions, recorded_at
        FROM weather_updates WHERE trip_id=? AND recorded_at >= ? ORDER BY recorded_at
    `, tripID, since.UTC())
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
        FROM travel_alerts WHERE trip_id=? AND recorded_at >= ? ORDER BY recorded_at
    `, tripID, since.UTC())
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
	var status, prefs string
	if err := row.Scan(&out.TripID, &out.Title, &out.Description, &out.Destination,
		&out.StartDate, &out.EndDate, &status, &prefs, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	out.Status = model.TripStatus(status)
	if prefs != "" {
		_ = json.Unmarshal([]byte(prefs), &out.Preferences)
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
	return string(b)
}
