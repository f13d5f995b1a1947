package catalog

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xeelshop/backend/config"
	"github.com/xeelshop/backend/internal/domain"
	"github.com/xeelshop/backend/internal/logging"
)

// identRegex guards the configured table name, which is interpolated into
// the query text because Postgres does not allow identifier placeholders.
var identRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Client reads the product catalog from the remote Postgres database.
type Client struct {
	pool  *pgxpool.Pool
	table string
}

// Connect creates the connection pool, retrying with exponential backoff
// since the remote database may wake from idle slowly.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Client, error) {
	if !identRegex.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: invalid table name %q", domain.ErrInvalidInput, cfg.Table)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	var pool *pgxpool.Pool
	delay := cfg.ConnectDelay
	for attempt := 1; attempt <= cfg.ConnectRetries; attempt++ {
		pool, err = connectOnce(ctx, poolConfig)
		if err == nil {
			logging.Infow("database connected", "attempt", attempt, "table", cfg.Table)
			return &Client{pool: pool, table: cfg.Table}, nil
		}
		logging.Warnw("database connection failed",
			"attempt", attempt, "retries", cfg.ConnectRetries, "error", err)
		if attempt < cfg.ConnectRetries {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
}

func connectOnce(ctx context.Context, poolConfig *pgxpool.Config) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}

// Unavailable is a catalog that fails every fetch with the connect error.
// It lets the server start and keep serving widgets while the database is
// unreachable.
type Unavailable struct {
	Err error
}

func (u Unavailable) FetchProducts(context.Context) ([]domain.Product, error) {
	return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, u.Err)
}

// Close closes the connection pool.
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

// FetchProducts loads every catalog row. Column sets differ between catalog
// imports, so rows are decoded by field description rather than into a
// fixed struct.
func (c *Client) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := c.pool.Query(ctx, "SELECT * FROM "+c.table)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", domain.ErrCatalogUnavailable, c.table, err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrCatalogUnavailable, c.table, err)
	}

	logging.Infow("catalog loaded", "table", c.table, "products", len(products))
	return products, nil
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	fields := rows.FieldDescriptions()

	var products []domain.Product
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		product := make(domain.Product, len(fields))
		for i, field := range fields {
			if i < len(values) {
				product[field.Name] = normalizeValue(values[i])
			}
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// normalizeValue flattens pgx driver types into plain Go values so the rest
// of the code only ever sees strings, numbers, bools, and slices.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Text:
		if !val.Valid {
			return nil
		}
		return val.String
	case time.Time:
		return val.Format(time.RFC3339)
	case [16]byte:
		// UUID columns decode to a byte array
		return formatUUID(val)
	default:
		return v
	}
}

func formatUUID(b [16]byte) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
