package customer

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)?$`)

// OpenDB opens a customer source. mysql:// and mariadb:// URLs are rewritten to
// the MySQL driver format, postgres:// URLs go to lib/pq, and anything else is
// treated as a native MySQL DSN.
func OpenDB(dsn string) (*sql.DB, string, error) {
	driver, driverDSN, err := resolveDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open(driver, driverDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, driver, nil
}

func resolveDSN(dsn string) (driver, driverDSN string, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "mariadb://"), strings.HasPrefix(dsn, "mysql://"):
		out, err := toMySQLDSN(dsn)
		return "mysql", out, err
	default:
		return "mysql", dsn, nil
	}
}

func toMySQLDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	user, pass := "", ""
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	host := u.Host
	db := strings.TrimPrefix(u.Path, "/")
	if user == "" || host == "" || db == "" {
		return "", fmt.Errorf("incomplete dsn: user, host and database are required")
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
		user, pass, host, db), nil
}

// LoadDB reads every customer row from table. Rows go through the same
// validation as CSV input.
func LoadDB(ctx context.Context, db *sql.DB, table string) ([]Record, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(Columns, ", "), table)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var records []Record
	seen := make(map[string]int)
	row := 0
	for rows.Next() {
		row++
		var (
			id, channel, lastChannel, categories sql.NullString
			first, last, lastOnline, lastOffline sql.NullTime
			ordersOnline, ordersOffline          sql.NullFloat64
			valueOffline, valueOnline            sql.NullFloat64
		)
		if err := rows.Scan(
			&id, &channel, &lastChannel,
			&first, &last, &lastOnline, &lastOffline,
			&ordersOnline, &ordersOffline, &valueOffline, &valueOnline,
			&categories,
		); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", row, err)
		}

		nulls := []struct {
			col   string
			valid bool
		}{
			{ColOrderNumOnline, ordersOnline.Valid},
			{ColOrderNumOffline, ordersOffline.Valid},
			{ColValueOffline, valueOffline.Valid},
			{ColValueOnline, valueOnline.Valid},
		}
		for _, n := range nulls {
			if !n.valid {
				return nil, &ValidationError{Row: row, Column: n.col, Reason: "null value"}
			}
		}

		rec := Record{
			MasterID:             strings.TrimSpace(id.String),
			OrderChannel:         channel.String,
			LastOrderChannel:     lastChannel.String,
			FirstOrderDate:       first.Time,
			LastOrderDate:        last.Time,
			LastOrderDateOnline:  lastOnline.Time,
			LastOrderDateOffline: lastOffline.Time,
			OrderNumOnline:       ordersOnline.Float64,
			OrderNumOffline:      ordersOffline.Float64,
			ValueOffline:         valueOffline.Float64,
			ValueOnline:          valueOnline.Float64,
			Categories:           ParseCategories(categories.String),
		}
		if err := rec.Validate(row); err != nil {
			return nil, err
		}
		if firstRow, dup := seen[rec.MasterID]; dup {
			return nil, &ValidationError{
				Row:    row,
				Column: ColMasterID,
				Value:  rec.MasterID,
				Reason: fmt.Sprintf("duplicate customer, first seen on row %d", firstRow),
			}
		}
		seen[rec.MasterID] = row
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}

	log.Info().Str("table", table).Int("customers", len(records)).Msg("Loaded customers from database")
	return records, nil
}
