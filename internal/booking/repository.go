package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository is the booking ledger. Bookings are never deleted.
type Repository interface {
	// Create inserts b in its initial state and fills ID, CreatedAt,
	// UpdatedAt and Version.
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// Find returns every booking matching q ordered by window start.
	Find(ctx context.Context, q Query) ([]*Booking, error)
	// Summarize counts the bookings matching q and sums their grand totals.
	Summarize(ctx context.Context, q Query) (Summary, error)
	// Update persists a transition of b. It succeeds only while the stored
	// version equals expectedVersion and bumps b.Version on success.
	Update(ctx context.Context, b *Booking, expectedVersion int) error
}

// Summary is a count and money total over a set of bookings.
type Summary struct {
	Count      int
	GrandTotal decimal.Decimal
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var bookingColumns = []string{
	"id", "resource_owner_id", "resource_id", "customer_id",
	"window_start", "window_end", "status",
	"base_price", "platform_fee", "discount", "grand_total",
	"created_at", "confirmed_at", "started_at", "completion_requested_at", "completed_at", "cancelled_at",
	"cancellation_reason", "cancelled_by_id", "cancelled_by_role", "minutes_late", "completion_note",
	"version", "updated_at",
}

// sortable maps API sort keys to columns.
var sortable = map[string]string{
	"window_start": "window_start",
	"window_end":   "window_end",
	"created_at":   "created_at",
	"status":       "status",
	"grand_total":  "grand_total",
}

func scanTargets(b *Booking) []any {
	return []any{
		&b.ID, &b.ResourceOwnerID, &b.ResourceID, &b.CustomerID,
		&b.WindowStart, &b.WindowEnd, &b.Status,
		&b.BasePrice, &b.PlatformFee, &b.Discount, &b.GrandTotal,
		&b.CreatedAt, &b.ConfirmedAt, &b.StartedAt, &b.CompletionRequestedAt, &b.CompletedAt, &b.CancelledAt,
		&b.CancellationReason, &b.CancelledByID, &b.CancelledByRole, &b.MinutesLate, &b.CompletionNote,
		&b.Version, &b.UpdatedAt,
	}
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"resource_owner_id", "resource_id", "customer_id",
			"window_start", "window_end", "status",
			"base_price", "platform_fee", "discount", "grand_total",
		).
		Values(
			b.ResourceOwnerID, b.ResourceID, b.CustomerID,
			b.WindowStart, b.WindowEnd, b.Status,
			b.BasePrice, b.PlatformFee, b.Discount, b.GrandTotal,
		).
		Suffix("RETURNING id, created_at, updated_at, version").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt, &b.Version); err != nil {
		return r.mapWriteError(ctx, b, fmt.Errorf("create booking failed: %w", err))
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	var b Booking
	if err := r.pool.QueryRow(ctx, query, args...).Scan(scanTargets(&b)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return &b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(bookingColumns, "count(*) OVER() as total_count")...).
		From("public.bookings")

	if filter.OwnerID != "" {
		query = query.Where(squirrel.Eq{"resource_owner_id": filter.OwnerID})
	}
	if filter.CustomerID != "" {
		query = query.Where(squirrel.Eq{"customer_id": filter.CustomerID})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"resource_id": filter.ResourceID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.StartTime != nil {
		query = query.Where(squirrel.GtOrEq{"window_start": filter.StartTime})
	}
	if filter.EndTime != nil {
		query = query.Where(squirrel.LtOrEq{"window_start": filter.EndTime})
	}

	// Sorting
	orderBy := "window_start"
	if col, ok := sortable[filter.SortBy]; ok {
		orderBy = col
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" || filter.SortOrder == "asc" {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "id "+orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		var b Booking
		if err := rows.Scan(append(scanTargets(&b), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) Find(ctx context.Context, q Query) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := applyQuery(psql.Select(bookingColumns...).From("public.bookings"), q).
		OrderBy("window_start ASC", "id ASC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(scanTargets(&b)...); err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings failed: %w", err)
	}
	return bookings, nil
}

func (r *pgxRepository) Summarize(ctx context.Context, q Query) (Summary, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := applyQuery(psql.Select("count(*)", "COALESCE(SUM(grand_total), 0)").From("public.bookings"), q)

	sql, args, err := query.ToSql()
	if err != nil {
		return Summary{}, fmt.Errorf("build summarize bookings query failed: %w", err)
	}

	var s Summary
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&s.Count, &s.GrandTotal); err != nil {
		return Summary{}, fmt.Errorf("summarize bookings failed: %w", err)
	}
	return s, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking, expectedVersion int) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", b.Status).
		Set("confirmed_at", b.ConfirmedAt).
		Set("started_at", b.StartedAt).
		Set("completion_requested_at", b.CompletionRequestedAt).
		Set("completed_at", b.CompletedAt).
		Set("cancelled_at", b.CancelledAt).
		Set("cancellation_reason", b.CancellationReason).
		Set("cancelled_by_id", b.CancelledByID).
		Set("cancelled_by_role", b.CancelledByRole).
		Set("minutes_late", b.MinutesLate).
		Set("completion_note", b.CompletionNote).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID, "version": expectedVersion}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&b.Version, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConcurrentModification
		}
		return r.mapWriteError(ctx, b, fmt.Errorf("update booking failed: %w", err))
	}
	return nil
}

// mapWriteError turns constraint violations into domain errors. The
// exclusion constraint backs the availability check when two writers race.
func (r *pgxRepository) mapWriteError(ctx context.Context, b *Booking, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.ExclusionViolation:
		conflict := &ConflictError{ResourceID: b.ResourceID}
		if others, findErr := r.Find(ctx, Query{
			ResourceID:  b.ResourceID,
			Statuses:    OccupyingStatuses,
			ExcludeID:   b.ID,
			OverlapFrom: &b.WindowStart,
			OverlapTo:   &b.WindowEnd,
		}); findErr == nil && len(others) > 0 {
			conflict.BookingID = others[0].ID
		}
		return conflict
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return ErrConcurrentModification
	case pgerrcode.CheckViolation:
		return &InvariantError{BookingID: b.ID, Detail: pgErr.ConstraintName + ": " + pgErr.Message}
	}
	return err
}

func applyQuery(sb squirrel.SelectBuilder, q Query) squirrel.SelectBuilder {
	if q.OwnerID != "" {
		sb = sb.Where(squirrel.Eq{"resource_owner_id": q.OwnerID})
	}
	if q.ResourceID != "" {
		sb = sb.Where(squirrel.Eq{"resource_id": q.ResourceID})
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		sb = sb.Where(squirrel.Eq{"status": statuses})
	}
	if q.ExcludeID != "" {
		sb = sb.Where(squirrel.NotEq{"id": q.ExcludeID})
	}
	if q.StartFrom != nil {
		sb = sb.Where(squirrel.GtOrEq{"window_start": *q.StartFrom})
	}
	if q.StartBefore != nil {
		sb = sb.Where(squirrel.Lt{"window_start": *q.StartBefore})
	}
	// Half-open overlap: existing.start < to AND existing.end > from.
	if q.OverlapFrom != nil {
		sb = sb.Where(squirrel.Gt{"window_end": *q.OverlapFrom})
	}
	if q.OverlapTo != nil {
		sb = sb.Where(squirrel.Lt{"window_start": *q.OverlapTo})
	}
	return sb
}
