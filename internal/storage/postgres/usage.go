package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/princekumarofficial/zcreens-service/internal/types/users"
)

// UsageReport returns every account with the totals of its live
// presentations in one query instead of one lookup per account.
func (p *Postgres) UsageReport(ctx context.Context, now time.Time) ([]users.UsageReport, error) {
	query := `
	WITH live AS (
		SELECT user_id, COUNT(*) AS presentations, SUM(total_slides) AS slides, SUM(file_size) AS bytes
		FROM presentations
		WHERE expires_at >= $1
		GROUP BY user_id
	)
	SELECT
		u.id,
		u.email,
		u.plan,
		u.storage_used,
		u.storage_limit,
		COALESCE(l.presentations, 0),
		COALESCE(l.slides, 0),
		COALESCE(l.bytes, 0)
	FROM users u
	LEFT JOIN live l ON l.user_id = u.id
	ORDER BY u.storage_used DESC, u.id
	`

	rows, err := p.Db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch usage report: %w", err)
	}
	defer rows.Close()

	var report []users.UsageReport
	for rows.Next() {
		var (
			id  int
			row users.UsageReport
		)
		if err := rows.Scan(
			&id,
			&row.Email,
			&row.Plan,
			&row.StorageUsedMB,
			&row.StorageLimitMB,
			&row.LivePresentations,
			&row.LiveSlides,
			&row.LiveBytes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		row.UserID = strconv.Itoa(id)
		report = append(report, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return report, nil
}
