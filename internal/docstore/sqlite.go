package docstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLite is a Store backed by a single SQLite documents table. Each document
// is one row holding a JSON body; transforms are evaluated inside a single
// UPDATE statement so concurrent increments never lose writes.
type SQLite struct {
	db     *sql.DB
	now    func() time.Time
	logger *log.Logger
}

var _ Store = (*SQLite)(nil)

// Option configures a SQLite store
type Option func(*SQLite)

// WithClock overrides the clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *SQLite) {
		s.now = now
	}
}

// WithLogger sets the logger used for migrations and diagnostics
func WithLogger(logger *log.Logger) Option {
	return func(s *SQLite) {
		s.logger = logger
	}
}

// Open opens a database connection and runs migrations
func Open(dbPath string, opts ...Option) (*SQLite, error) {
	s := &SQLite{now: time.Now, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(s)
	}

	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", dbPath)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s.db = sqlDB

	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// migrate runs database migrations using embedded SQL files
func (s *SQLite) migrate() error {
	goose.SetLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}))
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

// transaction executes fn within a transaction
func (s *SQLite) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Get returns the document at path, or nil if it does not exist
func (s *SQLite) Get(ctx context.Context, path string) (*Document, error) {
	if _, _, err := SplitPath(path); err != nil {
		return nil, err
	}

	var id, data string
	err := s.db.QueryRowContext(ctx, `SELECT id, data FROM documents WHERE path = ?`, path).Scan(&id, &data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}

	return decodeDocument(path, id, data)
}

// Create stores fields under a new id and returns it
func (s *SQLite) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	if err := checkCollection(collection); err != nil {
		return "", err
	}
	id := uuid.New().String()
	if err := s.Set(ctx, collection+"/"+id, fields, false); err != nil {
		return "", err
	}
	return id, nil
}

// Set writes fields at path, stamping createdAt on insert and updatedAt always
func (s *SQLite) Set(ctx context.Context, path string, fields Fields, merge bool) error {
	op := writeOp{kind: opSet, path: path, fields: fields, merge: merge}
	return s.transaction(ctx, func(tx *sql.Tx) error {
		_, err := s.apply(ctx, tx, op, s.now())
		return err
	})
}

// Update merges fields into the document and stamps updatedAt
func (s *SQLite) Update(ctx context.Context, path string, fields Fields, opts ...WriteOption) error {
	o := applyWriteOptions(opts)
	op := writeOp{kind: opUpdate, path: path, fields: fields, merge: true, mustExist: o.mustExist}
	return s.transaction(ctx, func(tx *sql.Tx) error {
		n, err := s.apply(ctx, tx, op, s.now())
		if err != nil {
			return err
		}
		if n == 0 && o.mustExist {
			return fmt.Errorf("update %s: %w", path, ErrNotFound)
		}
		return nil
	})
}

// Delete removes the document at path
func (s *SQLite) Delete(ctx context.Context, path string) error {
	if _, _, err := SplitPath(path); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// RunBatch collects writes and commits them in one transaction
func (s *SQLite) RunBatch(ctx context.Context, fn func(b *Batch) error) error {
	b := &Batch{}
	if err := fn(b); err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}

	now := s.now()
	return s.transaction(ctx, func(tx *sql.Tx) error {
		for _, op := range b.ops {
			if _, err := s.apply(ctx, tx, op, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// Find runs q against the direct children of collection
func (s *SQLite) Find(ctx context.Context, collection string, q Query) ([]*Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	var sb strings.Builder
	args := []any{collection}
	sb.WriteString(`SELECT path, id, data FROM documents WHERE parent = ?`)

	where, whereArgs, err := buildWhere(q.Where)
	if err != nil {
		return nil, err
	}
	sb.WriteString(where)
	args = append(args, whereArgs...)

	if len(q.StartAfter) > 0 {
		cond, condArgs, err := buildCursor(q.OrderBy, q.StartAfter)
		if err != nil {
			return nil, err
		}
		sb.WriteString(" AND ")
		sb.WriteString(cond)
		args = append(args, condArgs...)
	}

	sb.WriteString(" ORDER BY ")
	for _, o := range q.OrderBy {
		expr, err := fieldExpr(o.Field)
		if err != nil {
			return nil, err
		}
		sb.WriteString(expr)
		if o.Dir == Desc {
			sb.WriteString(" DESC, ")
		} else {
			sb.WriteString(" ASC, ")
		}
	}
	sb.WriteString("id ASC")

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}

	// Read every row before decoding so the single connection is released
	type row struct{ path, id, data string }
	var raw []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.path, &r.id, &r.data); err != nil {
			rows.Close()
			return nil, fmt.Errorf("find %s: %w", collection, err)
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	rows.Close()

	docs := make([]*Document, 0, len(raw))
	for _, r := range raw {
		doc, err := decodeDocument(r.path, r.id, r.data)
		if err != nil {
			return nil, err
		}
		if len(q.Select) > 0 {
			doc.Fields = project(doc.Fields, q.Select)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Count returns the number of documents in collection matching where
func (s *SQLite) Count(ctx context.Context, collection string, where ...Filter) (int, error) {
	if err := checkCollection(collection); err != nil {
		return 0, err
	}

	cond, args, err := buildWhere(where)
	if err != nil {
		return 0, err
	}

	var n int
	query := `SELECT COUNT(*) FROM documents WHERE parent = ?` + cond
	if err := s.db.QueryRowContext(ctx, query, append([]any{collection}, args...)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// apply executes one write inside tx and returns the number of documents touched.
func (s *SQLite) apply(ctx context.Context, tx *sql.Tx, op writeOp, now time.Time) (int64, error) {
	parent, id, err := SplitPath(op.path)
	if err != nil {
		return 0, err
	}

	if op.kind == opDelete {
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, op.path)
		if err != nil {
			return 0, fmt.Errorf("delete %s: %w", op.path, err)
		}
		return res.RowsAffected()
	}

	stamp := FormatTime(now)
	fields := make(Fields, len(op.fields)+1)
	for k, v := range op.fields {
		fields[k] = v
	}
	fields[FieldUpdatedAt] = stamp

	if op.kind == opSet && !op.merge {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, op.path); err != nil {
			return 0, fmt.Errorf("set %s: %w", op.path, err)
		}
	}

	if !op.mustExist {
		initial, err := json.Marshal(map[string]string{FieldCreatedAt: stamp})
		if err != nil {
			return 0, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (path, parent, id, data, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO NOTHING
		`, op.path, parent, id, string(initial), stamp, stamp)
		if err != nil {
			return 0, fmt.Errorf("write %s: %w", op.path, err)
		}
	}

	expr, args, err := buildMerge(fields)
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", op.path, err)
	}
	args = append(args, stamp, op.path)

	res, err := tx.ExecContext(ctx, `UPDATE documents SET data = `+expr+`, updated_at = ? WHERE path = ?`, args...)
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", op.path, err)
	}
	return res.RowsAffected()
}

// buildMerge renders a json_set chain applying fields to the current body.
func buildMerge(fields Fields) (string, []any, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	expr := "data"
	var args []any
	for _, k := range keys {
		if !fieldName.MatchString(k) {
			return "", nil, fmt.Errorf("%w: %q", ErrInvalidField, k)
		}
		jp := "'$." + k + "'"

		switch v := fields[k].(type) {
		case increment:
			expr = fmt.Sprintf("json_set(%s, %s, coalesce(json_extract(data, %s), 0) + ?)", expr, jp, jp)
			args = append(args, v.n)
		case arrayUnion:
			lit, err := json.Marshal(append([]string{}, v.values...))
			if err != nil {
				return "", nil, err
			}
			expr = fmt.Sprintf(
				"json_set(%s, %s, json((SELECT json_group_array(value) FROM (SELECT value FROM json_each(data, %s) UNION SELECT value FROM json_each(?)))))",
				expr, jp, jp)
			args = append(args, string(lit))
		case arrayRemove:
			lit, err := json.Marshal(append([]string{}, v.values...))
			if err != nil {
				return "", nil, err
			}
			expr = fmt.Sprintf(
				"json_set(%s, %s, json((SELECT json_group_array(value) FROM json_each(data, %s) WHERE value NOT IN (SELECT value FROM json_each(?)))))",
				expr, jp, jp)
			args = append(args, string(lit))
		default:
			lit, err := encodeJSON(v)
			if err != nil {
				return "", nil, fmt.Errorf("field %s: %w", k, err)
			}
			expr = fmt.Sprintf("json_set(%s, %s, json(?))", expr, jp)
			args = append(args, lit)
		}
	}
	return expr, args, nil
}

func fieldExpr(field string) (string, error) {
	if field == DocumentID {
		return "id", nil
	}
	if !fieldName.MatchString(field) {
		return "", fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return "json_extract(data, '$." + field + "')", nil
}

// buildWhere renders filters as " AND ..." terms.
func buildWhere(filters []Filter) (string, []any, error) {
	var sb strings.Builder
	var args []any

	for _, f := range filters {
		expr, err := fieldExpr(f.Field)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" AND ")

		switch f.Op {
		case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
			if f.Value == nil || isNilPointer(f.Value) {
				switch f.Op {
				case OpEq:
					sb.WriteString(expr + " IS NULL")
				case OpNe:
					sb.WriteString(expr + " IS NOT NULL")
				default:
					return "", nil, fmt.Errorf("%w: %s against null", ErrUnsupportedValue, f.Op)
				}
				continue
			}
			arg, err := sqlArg(f.Value)
			if err != nil {
				return "", nil, err
			}
			op := string(f.Op)
			if f.Op == OpEq {
				op = "="
			}
			sb.WriteString(expr + " " + op + " ?")
			args = append(args, arg)

		case OpIn, OpArrayContainsAny:
			values, err := listArgs(f.Value)
			if err != nil {
				return "", nil, err
			}
			if len(values) == 0 {
				sb.WriteString("0")
				continue
			}
			marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
			if f.Op == OpIn {
				sb.WriteString(expr + " IN (" + marks + ")")
			} else {
				sb.WriteString(arrayExists(f.Field) + " IN (" + marks + "))")
			}
			args = append(args, values...)

		case OpArrayContains:
			arg, err := sqlArg(f.Value)
			if err != nil {
				return "", nil, err
			}
			sb.WriteString(arrayExists(f.Field) + " = ?)")
			args = append(args, arg)

		default:
			return "", nil, fmt.Errorf("%w: operator %q", ErrUnsupportedValue, f.Op)
		}
	}
	return sb.String(), args, nil
}

// arrayExists opens an EXISTS over the elements of an array field; the caller
// appends the comparison and closing parenthesis.
func arrayExists(field string) string {
	return "EXISTS (SELECT 1 FROM json_each(data, '$." + field + "') WHERE json_each.value"
}

// buildCursor renders the strict "comes after" condition for a cursor over
// orderBy followed by the document id. NULLs sort first ascending.
func buildCursor(orderBy []Order, cursor []any) (string, []any, error) {
	terms := append(append([]Order{}, orderBy...), Order{Field: DocumentID})
	if len(cursor) != len(terms) {
		return "", nil, fmt.Errorf("%w: cursor has %d values for %d orderings", ErrUnsupportedValue, len(cursor), len(terms))
	}

	var alts []string
	var args []any
	for i := range terms {
		var parts []string
		for j := 0; j < i; j++ {
			expr, err := fieldExpr(terms[j].Field)
			if err != nil {
				return "", nil, err
			}
			if cursor[j] == nil {
				parts = append(parts, expr+" IS NULL")
				continue
			}
			arg, err := sqlArg(cursor[j])
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, expr+" = ?")
			args = append(args, arg)
		}

		expr, err := fieldExpr(terms[i].Field)
		if err != nil {
			return "", nil, err
		}
		switch {
		case cursor[i] == nil && terms[i].Dir == Desc:
			parts = append(parts, "0")
		case cursor[i] == nil:
			parts = append(parts, expr+" IS NOT NULL")
		default:
			arg, err := sqlArg(cursor[i])
			if err != nil {
				return "", nil, err
			}
			if terms[i].Dir == Desc {
				parts = append(parts, "("+expr+" < ? OR "+expr+" IS NULL)")
			} else {
				parts = append(parts, expr+" > ?")
			}
			args = append(args, arg)
		}
		alts = append(alts, "("+strings.Join(parts, " AND ")+")")
	}
	return "(" + strings.Join(alts, " OR ") + ")", args, nil
}

func listArgs(v any) ([]any, error) {
	var out []any
	switch x := v.(type) {
	case []string:
		for _, s := range x {
			out = append(out, s)
		}
	case []any:
		for _, item := range x {
			arg, err := sqlArg(item)
			if err != nil {
				return nil, err
			}
			out = append(out, arg)
		}
	default:
		return nil, fmt.Errorf("%w: expected list, got %T", ErrUnsupportedValue, v)
	}
	return out, nil
}

func isNilPointer(v any) bool {
	switch x := v.(type) {
	case *string:
		return x == nil
	case *time.Time:
		return x == nil
	case *int:
		return x == nil
	}
	return false
}

func decodeDocument(path, id, data string) (*Document, error) {
	fields := Fields{}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &Document{ID: id, Path: path, Fields: fields}, nil
}

func project(fields Fields, keep []string) Fields {
	out := make(Fields, len(keep))
	for _, k := range keep {
		if v, ok := fields[k]; ok {
			out[k] = v
		}
	}
	return out
}
