package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/atomicstack/searchpanes/internal/ledger"
	"github.com/atomicstack/searchpanes/internal/pane"
)

// maxParallelCounts bounds the per-column count queries run at once.
const maxParallelCounts = 4

// SQLiteSource serves one table of a SQLite database. Every column is read as
// text; NULL reads as the empty value.
type SQLiteSource struct {
	db      *sql.DB
	table   string
	columns []string
	owned   bool
}

// OpenSQLite opens the database at path and serves table from it.
func OpenSQLite(ctx context.Context, path, table string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	src, err := NewSQLiteSource(ctx, db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	src.owned = true
	return src, nil
}

// NewSQLiteSource serves table from an already open database.
func NewSQLiteSource(ctx context.Context, db *sql.DB, table string) (*SQLiteSource, error) {
	if strings.TrimSpace(table) == "" {
		return nil, errors.New("sqlite source: table name required")
	}
	columns, err := tableColumns(ctx, db, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("sqlite source: table %q not found or has no columns", table)
	}
	return &SQLiteSource{db: db, table: table, columns: columns}, nil
}

// Close closes the database if the source opened it.
func (s *SQLiteSource) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteSource) Columns(context.Context) ([]string, error) {
	return append([]string(nil), s.columns...), nil
}

// Query runs the page and count queries for req.
func (s *SQLiteSource) Query(ctx context.Context, req Request) (*Response, error) {
	where, args := s.filter(req.Selections, req.Search)
	table := quoteIdent(s.table)

	resp := &Response{
		Columns: append([]string(nil), s.columns...),
		Options: make(map[int][]pane.ValueCount, len(s.columns)),
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&resp.RecordsTotal); err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}
	resp.RecordsFiltered = resp.RecordsTotal
	if where != "" {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE "+where, args...).Scan(&resp.RecordsFiltered); err != nil {
			return nil, fmt.Errorf("count filtered rows: %w", err)
		}
	}

	rows, err := s.page(ctx, where, args, req.Start, req.Length)
	if err != nil {
		return nil, err
	}
	resp.Rows = rows

	options := make([][]pane.ValueCount, len(s.columns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelCounts)
	for i := range s.columns {
		i := i
		g.Go(func() error {
			values, err := s.valueCounts(gctx, i, where, args)
			if err != nil {
				return err
			}
			options[i] = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, values := range options {
		resp.Options[i] = values
	}
	return resp, nil
}

func (s *SQLiteSource) page(ctx context.Context, where string, args []interface{}, start, length int) ([][]string, error) {
	if length <= 0 {
		length = DefaultPageSize
	}
	if start < 0 {
		start = 0
	}
	exprs := make([]string, len(s.columns))
	for i, col := range s.columns {
		exprs[i] = textExpr(col)
	}
	query := "SELECT " + strings.Join(exprs, ", ") + " FROM " + quoteIdent(s.table)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY rowid LIMIT ? OFFSET ?"
	queryArgs := append(append([]interface{}(nil), args...), length, start)

	rs, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rs.Close()

	var out [][]string
	for rs.Next() {
		row := make([]string, len(s.columns))
		ptrs := make([]interface{}, len(row))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// valueCounts returns every distinct value of column with its total and its
// count among rows matching where.
func (s *SQLiteSource) valueCounts(ctx context.Context, column int, where string, args []interface{}) ([]pane.ValueCount, error) {
	expr := textExpr(s.columns[column])
	match := "COUNT(*)"
	if where != "" {
		match = "SUM(CASE WHEN " + where + " THEN 1 ELSE 0 END)"
	}
	query := "SELECT " + expr + " AS v, COUNT(*), " + match + " FROM " + quoteIdent(s.table) + " GROUP BY v ORDER BY v"
	rs, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count values of %s: %w", s.columns[column], err)
	}
	defer rs.Close()

	var out []pane.ValueCount
	for rs.Next() {
		var vc pane.ValueCount
		if err := rs.Scan(&vc.Value, &vc.Total, &vc.Count); err != nil {
			return nil, fmt.Errorf("scan counts of %s: %w", s.columns[column], err)
		}
		out = append(out, vc)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts of %s: %w", s.columns[column], err)
	}
	return out, nil
}

// filter turns the ledger and global search into a WHERE clause. Entries for
// columns the table lacks are ignored.
func (s *SQLiteSource) filter(selections []ledger.Entry, search string) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	for _, entry := range selections {
		if entry.Column < 0 || entry.Column >= len(s.columns) || len(entry.Rows) == 0 {
			continue
		}
		marks := make([]string, len(entry.Rows))
		for i, value := range entry.Rows {
			marks[i] = "?"
			args = append(args, value)
		}
		clauses = append(clauses, textExpr(s.columns[entry.Column])+" IN ("+strings.Join(marks, ", ")+")")
	}
	if term := strings.TrimSpace(search); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		likes := make([]string, len(s.columns))
		for i, col := range s.columns {
			likes[i] = textExpr(col) + ` LIKE ? ESCAPE '\'`
			args = append(args, pattern)
		}
		clauses = append(clauses, "("+strings.Join(likes, " OR ")+")")
	}
	return strings.Join(clauses, " AND "), args
}

// Seed creates table with one TEXT column per name and inserts rows into it.
// An existing table of the same name is replaced.
func Seed(ctx context.Context, db *sql.DB, table string, columns []string, rows [][]string) error {
	if len(columns) == 0 {
		return errors.New("seed: no columns")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer tx.Rollback()

	defs := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = quoteIdent(col) + " TEXT"
		marks[i] = "?"
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("seed: drop: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "CREATE TABLE "+quoteIdent(table)+" ("+strings.Join(defs, ", ")+")"); err != nil {
		return fmt.Errorf("seed: create: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+quoteIdent(table)+" VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return fmt.Errorf("seed: prepare: %w", err)
	}
	defer stmt.Close()
	for n, row := range rows {
		values := make([]interface{}, len(columns))
		for i := range columns {
			if i < len(row) {
				values[i] = row[i]
			} else {
				values[i] = ""
			}
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("seed: insert row %d: %w", n, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rs, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	defer rs.Close()
	var columns []string
	for rs.Next() {
		var name string
		if err := rs.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	return columns, rs.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func textExpr(column string) string {
	return "COALESCE(CAST(" + quoteIdent(column) + " AS TEXT), '')"
}

func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
