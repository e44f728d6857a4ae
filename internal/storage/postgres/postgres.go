package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/princekumarofficial/zcreens-service/internal/config"
	"github.com/princekumarofficial/zcreens-service/internal/storage"
	"github.com/princekumarofficial/zcreens-service/internal/types"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
)

const uniqueViolation = "23505"

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.PGSQL.DSN())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	slog.Info("Connected to Postgres database", slog.String("host", cfg.PGSQL.Host))

	pg := New(db)
	if err := pg.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

// New wraps an open handle without touching the schema.
func New(db *sql.DB) *Postgres {
	return &Postgres{Db: db}
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password TEXT NOT NULL,
			plan VARCHAR(20) NOT NULL DEFAULT 'starter' CHECK (plan IN ('starter', 'pro', 'business')),
			role VARCHAR(20) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
			storage_used DOUBLE PRECISION NOT NULL DEFAULT 0,
			storage_limit DOUBLE PRECISION NOT NULL DEFAULT 100,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS presentations (
			id UUID PRIMARY KEY,
			screen_code VARCHAR(6) UNIQUE NOT NULL,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			file_name TEXT NOT NULL,
			file_size BIGINT NOT NULL,
			file_type VARCHAR(255) NOT NULL,
			total_slides INTEGER NOT NULL CHECK (total_slides > 0),
			auto_play BOOLEAN NOT NULL DEFAULT false,
			slide_interval_ms INTEGER NOT NULL DEFAULT 5000,
			archive_key TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMPTZ NOT NULL
		);
		`,
		`CREATE INDEX IF NOT EXISTS presentations_expires_at_idx ON presentations (expires_at);`,
		`CREATE INDEX IF NOT EXISTS presentations_user_created_idx ON presentations (user_id, created_at DESC);`,
		`
		CREATE TABLE IF NOT EXISTS slides (
			presentation_id UUID NOT NULL REFERENCES presentations(id) ON DELETE CASCADE,
			page_number INTEGER NOT NULL CHECK (page_number > 0),
			image TEXT NOT NULL,
			width INTEGER NOT NULL DEFAULT 1920,
			height INTEGER NOT NULL DEFAULT 1080,
			PRIMARY KEY (presentation_id, page_number)
		);
		`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

const userColumns = `id, name, email, plan, role, storage_used, storage_limit, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner, extra ...any) (*users.Account, error) {
	var (
		id  int
		acc users.Account
	)
	dest := []any{&id, &acc.Name, &acc.Email, &acc.Plan, &acc.Role, &acc.StorageUsedMB, &acc.StorageLimitMB, &acc.CreatedAt, &acc.UpdatedAt}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	acc.ID = strconv.Itoa(id)
	return &acc, nil
}

// userKey parses an account id. Ids that cannot name a row are reported as
// not found rather than sent to the database.
func userKey(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return 0, storage.ErrNotFound
	}
	return n, nil
}

func (p *Postgres) CreateUser(ctx context.Context, name, email, passwordHash string) (*users.Account, error) {
	query := `
	INSERT INTO users (name, email, password, plan, storage_limit)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + userColumns

	plan := users.PlanStarter
	acc, err := scanAccount(p.Db.QueryRowContext(ctx, query,
		name, strings.ToLower(email), passwordHash, plan, users.StorageLimitForPlan(plan)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrEmailTaken
		}
		return nil, err
	}
	return acc, nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*users.Account, string, error) {
	var hashedPassword string
	query := `SELECT ` + userColumns + `, password FROM users WHERE email = $1`

	acc, err := scanAccount(p.Db.QueryRowContext(ctx, query, strings.ToLower(email)), &hashedPassword)
	if err != nil {
		return nil, "", err
	}
	return acc, hashedPassword, nil
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (*users.Account, error) {
	key, err := userKey(id)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanAccount(p.Db.QueryRowContext(ctx, query, key))
}

func (p *Postgres) ListUsers(ctx context.Context) ([]users.Account, error) {
	rows, err := p.Db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []users.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *acc)
	}
	return out, rows.Err()
}

// UpdateUser writes profile, plan and role. storage_used is deliberately not
// part of the statement; only AddStorageUsed moves it.
func (p *Postgres) UpdateUser(ctx context.Context, account *users.Account) error {
	key, err := userKey(account.ID)
	if err != nil {
		return err
	}
	query := `
	UPDATE users
	SET name = $2, email = $3, plan = $4, role = $5, storage_limit = $6, updated_at = NOW()
	WHERE id = $1
	RETURNING storage_used, updated_at
	`

	err = p.Db.QueryRowContext(ctx, query,
		key, account.Name, strings.ToLower(account.Email), account.Plan, account.Role, account.StorageLimitMB,
	).Scan(&account.StorageUsedMB, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if isUniqueViolation(err) {
			return storage.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (p *Postgres) DeleteUser(ctx context.Context, id string) error {
	key, err := userKey(id)
	if err != nil {
		return err
	}
	res, err := p.Db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *Postgres) AddStorageUsed(ctx context.Context, userID string, deltaMB float64) (float64, error) {
	key, err := userKey(userID)
	if err != nil {
		return 0, err
	}
	var used float64
	query := `
	UPDATE users
	SET storage_used = GREATEST(storage_used + $2, 0), updated_at = NOW()
	WHERE id = $1
	RETURNING storage_used
	`

	err = p.Db.QueryRowContext(ctx, query, key, deltaMB).Scan(&used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, err
	}
	return used, nil
}

func (p *Postgres) CreatePresentation(ctx context.Context, pr *types.Presentation) error {
	if len(pr.Slides) == 0 {
		return storage.ErrEmptySlides
	}

	tx, err := p.Db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO presentations
		(id, screen_code, user_id, file_name, file_size, file_type, total_slides, auto_play, slide_interval_ms, archive_key, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		pr.ID, pr.ScreenCode, pr.UserID, pr.FileName, pr.FileSize, pr.FileType, pr.TotalSlides,
		pr.AutoPlay, pr.SlideIntervalMS, pr.ArchiveKey, pr.CreatedAt, pr.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrCodeTaken
		}
		return err
	}

	pages := make([]int64, len(pr.Slides))
	images := make([]string, len(pr.Slides))
	widths := make([]int64, len(pr.Slides))
	heights := make([]int64, len(pr.Slides))
	for i, s := range pr.Slides {
		pages[i] = int64(s.PageNumber)
		images[i] = s.Image
		widths[i] = int64(s.Width)
		heights[i] = int64(s.Height)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO slides (presentation_id, page_number, image, width, height)
	SELECT $1, unnest($2::int[]), unnest($3::text[]), unnest($4::int[]), unnest($5::int[])
	`, pr.ID, pq.Array(pages), pq.Array(images), pq.Array(widths), pq.Array(heights))
	if err != nil {
		return err
	}

	return tx.Commit()
}

const presentationColumns = `id, screen_code, user_id, file_name, file_size, file_type, total_slides, auto_play, slide_interval_ms, archive_key, created_at, expires_at`

func scanPresentation(row rowScanner) (*types.Presentation, error) {
	var (
		pr     types.Presentation
		userID int
	)
	err := row.Scan(&pr.ID, &pr.ScreenCode, &userID, &pr.FileName, &pr.FileSize, &pr.FileType,
		&pr.TotalSlides, &pr.AutoPlay, &pr.SlideIntervalMS, &pr.ArchiveKey, &pr.CreatedAt, &pr.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	pr.UserID = strconv.Itoa(userID)
	return &pr, nil
}

func (p *Postgres) GetPresentationByCode(ctx context.Context, code string) (*types.Presentation, error) {
	pr, err := scanPresentation(p.Db.QueryRowContext(ctx,
		`SELECT `+presentationColumns+` FROM presentations WHERE screen_code = $1`, code))
	if err != nil {
		return nil, err
	}

	rows, err := p.Db.QueryContext(ctx, `
	SELECT page_number, image, width, height
	FROM slides
	WHERE presentation_id = $1
	ORDER BY page_number
	`, pr.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s types.Slide
		if err := rows.Scan(&s.PageNumber, &s.Image, &s.Width, &s.Height); err != nil {
			return nil, err
		}
		pr.Slides = append(pr.Slides, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pr, nil
}

func (p *Postgres) ListPresentationsByUser(ctx context.Context, userID string) ([]types.Presentation, error) {
	key, err := userKey(userID)
	if err != nil {
		return nil, nil
	}
	rows, err := p.Db.QueryContext(ctx,
		`SELECT `+presentationColumns+` FROM presentations WHERE user_id = $1 ORDER BY created_at DESC`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Presentation
	for rows.Next() {
		pr, err := scanPresentation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *pr)
	}
	return out, rows.Err()
}

// DeletePresentation is unconditional; deleting a row that is already gone is
// not an error. Slides go with it through the cascade.
func (p *Postgres) DeletePresentation(ctx context.Context, pr *types.Presentation) error {
	_, err := p.Db.ExecContext(ctx, `DELETE FROM presentations WHERE id = $1`, pr.ID)
	return err
}

func (p *Postgres) DeleteExpiredPresentations(ctx context.Context, now time.Time, limit int) ([]types.Presentation, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := p.Db.QueryContext(ctx, `
	DELETE FROM presentations
	WHERE id IN (
		SELECT id FROM presentations
		WHERE expires_at < $1
		ORDER BY expires_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	)
	RETURNING `+presentationColumns, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var removed []types.Presentation
	for rows.Next() {
		pr, err := scanPresentation(rows)
		if err != nil {
			return nil, err
		}
		removed = append(removed, *pr)
	}
	return removed, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
