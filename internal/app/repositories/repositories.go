package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/registrar/internal/db"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories holds all the repository instances bound to one DBTX
type Repositories struct {
	*StudentRepository
	*CourseRepository
	*EnrollmentRepository
	*GradeRepository
}

// NewRepositories initializes all repositories over conn
func NewRepositories(conn DBTX) *Repositories {
	return &Repositories{
		StudentRepository:    NewStudentRepository(conn),
		CourseRepository:     NewCourseRepository(conn),
		EnrollmentRepository: NewEnrollmentRepository(conn),
		GradeRepository:      NewGradeRepository(conn),
	}
}

// PostgresStore is the PostgreSQL-backed Store
type PostgresStore struct {
	*Repositories
	db *db.PostgresDB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store over an open connection pool
func NewPostgresStore(database *db.PostgresDB) *PostgresStore {
	return &PostgresStore{
		Repositories: NewRepositories(database.Pool),
		db:           database,
	}
}

// InTx runs fn with repositories bound to a single read-committed transaction
func (s *PostgresStore) InTx(ctx context.Context, fn TxFunc) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewRepositories(tx))
	})
}

// Close releases the pool
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
