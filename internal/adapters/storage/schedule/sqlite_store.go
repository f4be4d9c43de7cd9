package schedule

import (
	"context"
	"database/sql"
	"errors"

	"gymdash/internal/adapters/storage"
	domain "gymdash/internal/domain/schedule"
)

const eventColumns = "id, franchise_id, title, type, trainer_id, room, start_time, end_time, capacity, enrolled, status"

// SQLiteStore implements Store on either supported dialect.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ScheduleStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Event by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM schedule_event WHERE id = ?", id)
	e, err := scanEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, storage.NotFound("schedule event", id)
	}
	return e, err
}

// Save persists an Event. The enrolled counter is owned by Enroll/Unenroll
// and is only written on insert.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schedule_event (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET franchise_id=excluded.franchise_id, title=excluded.title, type=excluded.type,
		   trainer_id=excluded.trainer_id, room=excluded.room, start_time=excluded.start_time,
		   end_time=excluded.end_time, capacity=excluded.capacity, status=excluded.status`,
		e.ID, e.FranchiseID, e.Title, e.Type, e.TrainerID, e.Room,
		storage.FormatTime(e.StartTime), storage.FormatTime(e.EndTime), e.Capacity, e.Enrolled, e.Status)
	if storage.IsCheckViolation(err) {
		return domain.ErrAtCapacity
	}
	return err
}

// List retrieves Events matching filter in start order.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Event, error) {
	var c storage.Conds
	c.Eq("franchise_id", filter.FranchiseID)
	c.Eq("trainer_id", filter.TrainerID)
	c.Eq("room", filter.Room)
	c.Eq("type", filter.Type)
	c.Eq("status", filter.Status)
	if !filter.From.IsZero() {
		c.Add("start_time >= ?", storage.FormatTime(filter.From))
	}
	if !filter.To.IsZero() {
		c.Add("start_time < ?", storage.FormatTime(filter.To))
	}
	query := "SELECT " + eventColumns + " FROM schedule_event" + c.Where() + " ORDER BY start_time, id"
	query += c.Page(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, c.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// Enroll books one seat if the event still has room.
// POST: enrolled <= capacity always holds; on refusal the domain reason is returned
func (s *SQLiteStore) Enroll(ctx context.Context, id string) (domain.Event, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE schedule_event SET enrolled = enrolled + 1
		 WHERE id = ? AND enrolled < capacity AND status <> ? AND type <> ?`,
		id, domain.StatusCancelled, domain.TypeMaintenance)
	if err != nil {
		return domain.Event{}, err
	}
	return s.afterCounterUpdate(ctx, res, id, (*domain.Event).Enroll)
}

// Unenroll releases one seat.
// POST: enrolled never drops below zero
func (s *SQLiteStore) Unenroll(ctx context.Context, id string) (domain.Event, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE schedule_event SET enrolled = enrolled - 1 WHERE id = ? AND enrolled > 0`, id)
	if err != nil {
		return domain.Event{}, err
	}
	return s.afterCounterUpdate(ctx, res, id, (*domain.Event).Unenroll)
}

// afterCounterUpdate reloads the event. When the guarded update matched no
// row, the domain method is replayed on the current state to name the reason.
func (s *SQLiteStore) afterCounterUpdate(ctx context.Context, res sql.Result, id string, op func(*domain.Event) error) (domain.Event, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Event{}, err
	}
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}
	if n == 1 {
		return e, nil
	}
	if err := op(&e); err != nil {
		return domain.Event{}, err
	}
	return domain.Event{}, storage.ErrConflict
}

func scanEvent(scan func(dest ...any) error) (domain.Event, error) {
	var e domain.Event
	var start, end string
	if err := scan(&e.ID, &e.FranchiseID, &e.Title, &e.Type, &e.TrainerID, &e.Room, &start, &end, &e.Capacity, &e.Enrolled, &e.Status); err != nil {
		return domain.Event{}, err
	}
	var err error
	if e.StartTime, err = storage.ParseTime(start); err != nil {
		return domain.Event{}, err
	}
	if e.EndTime, err = storage.ParseTime(end); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}
