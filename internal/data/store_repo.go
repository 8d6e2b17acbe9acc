package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/discfinder/discfinder/internal/data/database"
	"github.com/discfinder/discfinder/internal/data/pgxutil"
	"github.com/discfinder/discfinder/internal/domain/model"
)

// StoreRepo provides database operations for DVD store records.
type StoreRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewStoreRepo creates a new StoreRepo with real time provider.
func NewStoreRepo(db *sql.DB) *StoreRepo {
	return &StoreRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewStoreRepoWithTimeProvider creates a new StoreRepo with a custom time provider (useful for tests).
func NewStoreRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *StoreRepo {
	return &StoreRepo{DB: db, timeProvider: tp}
}

// SQL query constants for static queries (no dynamic WHERE/ORDER BY).
const (
	storeGetByIDQuery = `
		SELECT id, name, address, city, state, phone, website, email, email_confidence,
		       source, source_url, notes, verified, created_at, updated_at
		FROM stores
		WHERE id = $1`

	storeEmailCandidatesQuery = `
		SELECT id FROM stores
		WHERE email IS NULL AND website IS NOT NULL
		ORDER BY created_at ASC`

	storeCountsQuery = `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE verified) AS verified,
		       COUNT(*) FILTER (WHERE email IS NOT NULL) AS with_emails
		FROM stores`
)

// storeColumns returns the standard column list for store queries.
func storeColumns() []string {
	return []string{
		"id",
		"name",
		"address",
		"city",
		"state",
		"phone",
		"website",
		"email",
		"email_confidence",
		"source",
		"source_url",
		"notes",
		"verified",
		"created_at",
		"updated_at",
	}
}

// Create inserts a new store record. Inserts colliding with the (name, city)
// uniqueness constraint return ErrStoreExists.
func (r *StoreRepo) Create(ctx context.Context, req *model.CreateStoreRequest) (*model.Store, error) {
	if req == nil {
		return nil, errors.New("create store request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Store
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO stores (
				id, name, address, city, state, phone, website, email,
				source, source_url, notes, verified, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE, $12, $12
			) RETURNING id, name, address, city, state, phone, website, email, email_confidence,
			            source, source_url, notes, verified, created_at, updated_at
		`,
			uuid.NewString(),
			strings.TrimSpace(req.Name),
			req.Address,
			req.City,
			req.State,
			req.Phone,
			req.Website,
			req.Email,
			req.Source,
			req.SourceURL,
			req.Notes,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Store])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return &out, nil
}

// GetByID retrieves a store by ID.
func (r *StoreRepo) GetByID(ctx context.Context, id string) (*model.Store, error) {
	var store model.Store
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, storeGetByIDQuery, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		store, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Store])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to get store by ID: %w", err)
	}
	return &store, nil
}

// ListWithOptions retrieves stores with the filters of the listing endpoint.
func (r *StoreRepo) ListWithOptions(
	ctx context.Context,
	opts model.StoresListOptions,
) ([]*model.Store, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	skip := max(opts.Skip, 0)

	query, args := database.BuildListQuery(r.buildStoreQueryOptions(opts, limit, skip))

	var rowsOut []model.Store
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Store])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	res := make([]*model.Store, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// buildStoreQueryOptions builds query options for store listing with filters.
func (r *StoreRepo) buildStoreQueryOptions(
	opts model.StoresListOptions,
	limit, skip int,
) *database.ListQueryOptions {
	queryOpts := []database.ListQueryOption{
		database.WithColumns(storeColumns()...),
		database.WithLimit(limit),
		database.WithOffset(skip),
		database.WithOrderBy("created_at", "desc"),
	}

	if opts.Search != nil && strings.TrimSpace(*opts.Search) != "" {
		needle := "%" + strings.TrimSpace(*opts.Search) + "%"
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereRawCond("(name ILIKE $1 OR city ILIKE $1 OR address ILIKE $1)", needle),
		))
	}
	if opts.State != nil && strings.TrimSpace(*opts.State) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("state", database.Equal, strings.TrimSpace(*opts.State)),
		))
	}
	if opts.Verified != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("verified", database.Equal, *opts.Verified),
		))
	}

	return database.NewListQueryOptions("stores", queryOpts...)
}

// Update applies the supplied fields of a partial update. updated_at is
// always refreshed, even when the request only re-states current values.
func (r *StoreRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdateStoreRequest,
) (*model.Store, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setClause, args := r.buildUpdateClause(req)
	args = append(args, id)
	query := "UPDATE stores SET " + setClause + " WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING id, name, address, city, state, phone, website, email, email_confidence," +
		" source, source_url, notes, verified, created_at, updated_at"

	var out model.Store
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Store])
		return e
	})
	if err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

// buildUpdateClause builds the SQL SET clause and args for a partial update.
func (r *StoreRepo) buildUpdateClause(req model.UpdateStoreRequest) (string, []any) {
	setParts := make([]string, 0, 12)
	args := make([]any, 0, 12)
	nextIdx := func() int { return len(args) + 1 }

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Name))
	}
	if req.Address != nil {
		setParts = append(setParts, fmt.Sprintf("address = $%d", nextIdx()))
		args = append(args, *req.Address)
	}
	if req.City != nil {
		setParts = append(setParts, fmt.Sprintf("city = $%d", nextIdx()))
		args = append(args, *req.City)
	}
	if req.State != nil {
		setParts = append(setParts, fmt.Sprintf("state = $%d", nextIdx()))
		args = append(args, *req.State)
	}
	if req.Phone != nil {
		setParts = append(setParts, fmt.Sprintf("phone = $%d", nextIdx()))
		args = append(args, *req.Phone)
	}
	if req.Website != nil {
		setParts = append(setParts, fmt.Sprintf("website = $%d", nextIdx()))
		args = append(args, *req.Website)
	}
	if req.Email != nil {
		setParts = append(setParts, fmt.Sprintf("email = $%d", nextIdx()))
		args = append(args, *req.Email)
	}
	if req.EmailConfidence != nil {
		setParts = append(setParts, fmt.Sprintf("email_confidence = $%d", nextIdx()))
		args = append(args, *req.EmailConfidence)
	}
	if req.Source != nil {
		setParts = append(setParts, fmt.Sprintf("source = $%d", nextIdx()))
		args = append(args, *req.Source)
	}
	if req.SourceURL != nil {
		setParts = append(setParts, fmt.Sprintf("source_url = $%d", nextIdx()))
		args = append(args, *req.SourceURL)
	}
	if req.Notes != nil {
		setParts = append(setParts, fmt.Sprintf("notes = $%d", nextIdx()))
		args = append(args, *req.Notes)
	}

	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())

	return strings.Join(setParts, ", "), args
}

// SetEmail writes a discovered email and its normalized confidence onto a
// store, refreshing updated_at. Used by email discovery jobs; other fields
// are never touched by job execution.
func (r *StoreRepo) SetEmail(
	ctx context.Context,
	id string,
	email string,
	confidence float64,
) error {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `
			UPDATE stores
			SET email = $2, email_confidence = $3, updated_at = $4
			WHERE id = $1`,
			id, email, confidence, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set store email: %w", err)
	}
	if rows == 0 {
		return ErrStoreNotFound
	}
	return nil
}

// Verify marks a store as verified and refreshes updated_at.
func (r *StoreRepo) Verify(ctx context.Context, id string) (*model.Store, error) {
	var out model.Store
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE stores
			SET verified = TRUE, updated_at = $2
			WHERE id = $1
			RETURNING id, name, address, city, state, phone, website, email, email_confidence,
			          source, source_url, notes, verified, created_at, updated_at`,
			id, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Store])
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to verify store: %w", err)
	}
	return &out, nil
}

// Delete deletes a store by ID.
func (r *StoreRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM stores WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete store: %w", err)
	}
	return rows > 0, nil
}

// EmailCandidateIDs returns ids of stores lacking an email but having a
// website, oldest first. Used to expand an empty email discovery request
// at job-creation time.
func (r *StoreRepo) EmailCandidateIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, storeEmailCandidatesQuery)
		if err != nil {
			return err
		}
		defer rows.Close()
		ids, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list email candidates: %w", err)
	}
	return ids, nil
}

// Counts returns the store aggregates for the stats endpoint in one query.
func (r *StoreRepo) Counts(ctx context.Context) (*model.StoreCounts, error) {
	var counts model.StoreCounts
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, storeCountsQuery)
		if err != nil {
			return err
		}
		defer rows.Close()
		counts, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.StoreCounts])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count stores: %w", err)
	}
	return &counts, nil
}

func (r *StoreRepo) mapWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrStoreNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrStoreExists
	}
	return err
}
