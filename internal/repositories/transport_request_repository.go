package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"transportdesk/internal/domain/models"
)

// Dialect selects placeholder style and insert-id strategy.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

const transportRequestColumns = `id, unit_name, personnel_name, phone_number, COALESCE(notes,''),
	mission_date, COALESCE(mission_time,''), COALESCE(destination,''), with_wheelchair, with_stretcher,
	status, COALESCE(requester_token,''), created_at, updated_at`

// TransportRequestRepository is the SQL-backed TransportRequestStore.
type TransportRequestRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewTransportRequestRepository(db *sql.DB, dialect Dialect) *TransportRequestRepository {
	return &TransportRequestRepository{DB: db, Dialect: dialect}
}

// rebind rewrites ? placeholders to $n for postgres.
func (r *TransportRequestRepository) rebind(query string) string {
	if r.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (r *TransportRequestRepository) db() (*sql.DB, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("transport request repository: DB is nil")
	}
	return r.DB, nil
}

func (r *TransportRequestRepository) Create(ctx context.Context, req models.TransportRequest) (models.TransportRequest, error) {
	db, err := r.db()
	if err != nil {
		return req, err
	}

	query := `INSERT INTO transport_requests
		(unit_name, personnel_name, phone_number, notes, mission_date, mission_time, destination,
		 with_wheelchair, with_stretcher, status, requester_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{
		req.UnitName, req.PersonnelName, req.PhoneNumber, req.Notes, req.MissionDate, req.MissionTime,
		req.Destination, req.WithWheelchair, req.WithStretcher, string(req.Status), req.RequesterToken,
		req.CreatedAt, req.UpdatedAt,
	}

	if r.Dialect == DialectPostgres {
		if err := db.QueryRowContext(ctx, r.rebind(query)+" RETURNING id", args...).Scan(&req.ID); err != nil {
			return req, fmt.Errorf("create transport request: insert: %w", err)
		}
		return req, nil
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return req, fmt.Errorf("create transport request: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return req, fmt.Errorf("create transport request: last insert id: %w", err)
	}
	req.ID = id
	return req, nil
}

func (r *TransportRequestRepository) GetByID(ctx context.Context, id int64) (models.TransportRequest, error) {
	db, err := r.db()
	if err != nil {
		return models.TransportRequest{}, err
	}

	row := db.QueryRowContext(ctx, r.rebind(`SELECT `+transportRequestColumns+` FROM transport_requests WHERE id = ?`), id)
	out, err := scanTransportRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return out, ErrNotFound
	}
	if err != nil {
		return out, fmt.Errorf("get transport request %d: %w", id, err)
	}
	return out, nil
}

func (r *TransportRequestRepository) List(ctx context.Context) ([]models.TransportRequest, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT `+transportRequestColumns+` FROM transport_requests ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transport requests: query: %w", err)
	}
	defer rows.Close()

	out := make([]models.TransportRequest, 0, 32)
	for rows.Next() {
		req, err := scanTransportRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("list transport requests: scan row: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transport requests: row iteration: %w", err)
	}
	return out, nil
}

func (r *TransportRequestRepository) UpdateStatus(ctx context.Context, id int64, allowed []models.Status, to models.Status, at time.Time) (models.TransportRequest, error) {
	db, err := r.db()
	if err != nil {
		return models.TransportRequest{}, err
	}
	if len(allowed) == 0 {
		return models.TransportRequest{}, fmt.Errorf("update transport request %d: empty allowed status set", id)
	}

	cond, condArgs := statusCondition(allowed)
	args := append([]any{string(to), at, id}, condArgs...)
	res, err := db.ExecContext(ctx, r.rebind(`UPDATE transport_requests SET status = ?, updated_at = ? WHERE id = ? AND `+cond), args...)
	if err != nil {
		return models.TransportRequest{}, fmt.Errorf("update transport request %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.TransportRequest{}, fmt.Errorf("update transport request %d: rows affected: %w", id, err)
	}
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return current, err
	}
	// MySQL reports 0 affected rows when the new values equal the stored ones.
	if n == 0 && !(statusIn(current.Status, allowed) && current.Status == to) {
		return current, StatusMismatchError{ID: id, Current: current.Status}
	}
	return current, nil
}

func (r *TransportRequestRepository) Delete(ctx context.Context, id int64, allowed []models.Status) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	query := `DELETE FROM transport_requests WHERE id = ?`
	args := []any{id}
	if allowed != nil {
		cond, condArgs := statusCondition(allowed)
		query += " AND " + cond
		args = append(args, condArgs...)
	}

	res, err := db.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("delete transport request %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transport request %d: rows affected: %w", id, err)
	}
	if n > 0 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return StatusMismatchError{ID: id, Current: current.Status}
}

func (r *TransportRequestRepository) Ping(ctx context.Context) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransportRequest(s rowScanner) (models.TransportRequest, error) {
	var (
		out         models.TransportRequest
		status      string
		missionDate sql.NullTime
	)
	err := s.Scan(
		&out.ID,
		&out.UnitName,
		&out.PersonnelName,
		&out.PhoneNumber,
		&out.Notes,
		&missionDate,
		&out.MissionTime,
		&out.Destination,
		&out.WithWheelchair,
		&out.WithStretcher,
		&status,
		&out.RequesterToken,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return out, err
	}
	out.Status = models.Status(status)
	if missionDate.Valid {
		out.MissionDate = missionDate.Time.Format(models.MissionDateLayout)
	}
	return out, nil
}

func statusCondition(allowed []models.Status) (string, []any) {
	marks := make([]string, len(allowed))
	args := make([]any, len(allowed))
	for i, s := range allowed {
		marks[i] = "?"
		args[i] = string(s)
	}
	return "status IN (" + strings.Join(marks, ", ") + ")", args
}
