// Package department manages the staff directory displayed alongside the
// floor plans. Unlike the document content, departments are rows, not
// blobs: the admin frontend filters and searches them server-side, so they
// live in SQLite.
package department

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"viewsync/internal/logging"
)

// ErrNotFound reports a missing department row.
var ErrNotFound = errors.New("department not found")

// Department is one directory entry.
type Department struct {
	ID         int64  `json:"id"`
	Building   string `json:"building"`
	Floor      string `json:"floor"`
	Department string `json:"department"`
	Team       string `json:"team"`
	Position   string `json:"position"`
	Task       string `json:"task"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// Fields carries a partial update; nil members are left unchanged.
type Fields struct {
	Building   *string `json:"building"`
	Floor      *string `json:"floor"`
	Department *string `json:"department"`
	Team       *string `json:"team"`
	Position   *string `json:"position"`
	Task       *string `json:"task"`
}

const schema = `
CREATE TABLE IF NOT EXISTS departments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	building TEXT NOT NULL DEFAULT '',
	floor TEXT NOT NULL DEFAULT '',
	department TEXT NOT NULL DEFAULT '',
	team TEXT NOT NULL DEFAULT '',
	position TEXT NOT NULL DEFAULT '',
	task TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_departments_department ON departments(department);
`

// searchColumns are the columns a free-text search matches against.
var searchColumns = []string{"building", "floor", "department", "team", "position", "task"}

const selectDepartments = `SELECT id, building, floor, department, team,
	position, task, created_at, updated_at FROM departments`

// Store is the SQLite-backed department directory. Safe for concurrent
// use; each call borrows a pooled connection.
type Store struct {
	pool   *sqlitex.Pool
	logger logging.Logger
}

// Open creates the store, applying the schema on first use. The database
// file is created when missing.
func Open(path string, logger logging.Logger) (*Store, error) {
	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("open department db %s: %w", path, err)
	}

	conn, err := pool.Take(context.Background())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("department db: %w", err)
	}
	err = sqlitex.ExecuteScript(conn, schema, nil)
	pool.Put(conn)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply department schema: %w", err)
	}

	log := logging.OrNop(logger)
	log.Info("Department database ready at %s", path)
	return &Store{pool: pool, logger: log}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

func scanDepartment(stmt *sqlite.Stmt) Department {
	return Department{
		ID:         stmt.GetInt64("id"),
		Building:   stmt.GetText("building"),
		Floor:      stmt.GetText("floor"),
		Department: stmt.GetText("department"),
		Team:       stmt.GetText("team"),
		Position:   stmt.GetText("position"),
		Task:       stmt.GetText("task"),
		CreatedAt:  stmt.GetText("created_at"),
		UpdatedAt:  stmt.GetText("updated_at"),
	}
}

// List returns every department ordered by id.
func (s *Store) List(ctx context.Context) ([]Department, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("department db: %w", err)
	}
	defer s.pool.Put(conn)

	departments := []Department{}
	err = sqlitex.Execute(conn, selectDepartments+" ORDER BY id ASC", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			departments = append(departments, scanDepartment(stmt))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// Search returns departments where any directory column contains query.
func (s *Store) Search(ctx context.Context, query string) ([]Department, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("department db: %w", err)
	}
	defer s.pool.Put(conn)

	clauses := make([]string, len(searchColumns))
	args := make([]any, len(searchColumns))
	term := "%" + query + "%"
	for i, column := range searchColumns {
		clauses[i] = column + " LIKE ?"
		args[i] = term
	}

	departments := []Department{}
	err = sqlitex.Execute(conn,
		selectDepartments+" WHERE "+strings.Join(clauses, " OR ")+" ORDER BY id ASC",
		&sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				departments = append(departments, scanDepartment(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("search departments: %w", err)
	}
	return departments, nil
}

func getOnConn(conn *sqlite.Conn, id int64) (Department, error) {
	var dep Department
	found := false
	err := sqlitex.Execute(conn, selectDepartments+" WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			dep = scanDepartment(stmt)
			found = true
			return nil
		},
	})
	if err != nil {
		return Department{}, fmt.Errorf("get department %d: %w", id, err)
	}
	if !found {
		return Department{}, fmt.Errorf("department %d: %w", id, ErrNotFound)
	}
	return dep, nil
}

// Get returns one department by id.
func (s *Store) Get(ctx context.Context, id int64) (Department, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Department{}, fmt.Errorf("department db: %w", err)
	}
	defer s.pool.Put(conn)
	return getOnConn(conn, id)
}

// Create inserts a department and returns the stored row.
func (s *Store) Create(ctx context.Context, dep Department) (Department, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Department{}, fmt.Errorf("department db: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `INSERT INTO departments
		(building, floor, department, team, position, task)
		VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{dep.Building, dep.Floor, dep.Department, dep.Team, dep.Position, dep.Task},
		})
	if err != nil {
		return Department{}, fmt.Errorf("create department: %w", err)
	}
	return getOnConn(conn, conn.LastInsertRowID())
}

// Update applies the non-nil fields to one department and returns the
// stored row. An empty update returns the row unchanged.
func (s *Store) Update(ctx context.Context, id int64, fields Fields) (Department, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Department{}, fmt.Errorf("department db: %w", err)
	}
	defer s.pool.Put(conn)

	if _, err := getOnConn(conn, id); err != nil {
		return Department{}, err
	}

	assignments := []string{}
	args := []any{}
	for column, value := range map[string]*string{
		"building":   fields.Building,
		"floor":      fields.Floor,
		"department": fields.Department,
		"team":       fields.Team,
		"position":   fields.Position,
		"task":       fields.Task,
	} {
		if value != nil {
			assignments = append(assignments, column+" = ?")
			args = append(args, *value)
		}
	}
	if len(assignments) == 0 {
		return getOnConn(conn, id)
	}

	args = append(args, id)
	err = sqlitex.Execute(conn,
		"UPDATE departments SET "+strings.Join(assignments, ", ")+", updated_at = datetime('now') WHERE id = ?",
		&sqlitex.ExecOptions{Args: args})
	if err != nil {
		return Department{}, fmt.Errorf("update department %d: %w", id, err)
	}
	return getOnConn(conn, id)
}

// Delete removes one department; ErrNotFound when the id has no row.
func (s *Store) Delete(ctx context.Context, id int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("department db: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM departments WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
	})
	if err != nil {
		return fmt.Errorf("delete department %d: %w", id, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("department %d: %w", id, ErrNotFound)
	}
	return nil
}
