package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"chargeplan/internal/core/domain"
	"chargeplan/internal/core/port"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const defaultStatsTable = "daily_energy"

// PostgresStats reads historical daily house consumption from a statistics
// table, typically fed by a meter logger. One row per day per entity.
type PostgresStats struct {
	db       *sql.DB
	table    string
	entityID string
}

type Option func(*PostgresStats)

func WithTable(table string) Option {
	return func(s *PostgresStats) {
		if table != "" {
			s.table = table
		}
	}
}

func NewPostgresStats(db *sql.DB, entityID string, opts ...Option) *PostgresStats {
	s := &PostgresStats{db: db, table: defaultStatsTable, entityID: entityID}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func OpenPostgresStats(dsn string, entityID string, opts ...Option) (*PostgresStats, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return NewPostgresStats(db, entityID, opts...), nil
}

func (s *PostgresStats) Close() error {
	return s.db.Close()
}

// DailyEnergy returns daily kWh samples matching the query's weekday within
// the lookback horizon, newest first. Month filtering happens in SQL so the
// seasonal variant does not drag a season's worth of rows over the wire.
func (s *PostgresStats) DailyEnergy(ctx context.Context, query port.StatsQuery) ([]domain.DailyEnergy, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("stats: nil db")
	}
	if query.LookbackDays <= 0 {
		return nil, errors.New("stats: lookback must be positive")
	}

	sqlText, args := buildDailyEnergyQuery(s.table, s.entityID, query)

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyEnergy
	for rows.Next() {
		var day time.Time
		var kwh sql.NullFloat64
		if err := rows.Scan(&day, &kwh); err != nil {
			return nil, err
		}
		if !kwh.Valid {
			continue
		}
		out = append(out, domain.DailyEnergy{Date: day, EnergyKWh: kwh.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func buildDailyEnergyQuery(table, entityID string, query port.StatsQuery) (string, []any) {
	var b strings.Builder
	args := []any{entityID, query.Weekday, query.LookbackDays}

	fmt.Fprintf(&b, `
SELECT day, energy_kwh
FROM %s
WHERE entity_id = $1
	AND EXTRACT(DOW FROM day) = $2
	AND day >= CURRENT_DATE - $3 * INTERVAL '1 day'
	AND day < CURRENT_DATE`, table)

	if len(query.Months) > 0 {
		placeholders := make([]string, len(query.Months))
		for i, m := range query.Months {
			args = append(args, m)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		fmt.Fprintf(&b, "\n\tAND EXTRACT(MONTH FROM day) IN (%s)", strings.Join(placeholders, ", "))
	}

	b.WriteString("\nORDER BY day DESC")
	return b.String(), args
}
