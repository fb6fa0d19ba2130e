package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"maillot-be/internal/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMigrationPart(t *testing.T) {
	content := `
-- +migrate Up
CREATE TABLE users (id int);
ALTER TABLE users ADD COLUMN name text;

-- +migrate Down
DROP TABLE users;
`
	t.Run("Extract Up", func(t *testing.T) {
		up := extractMigrationPart(content, "Up")
		assert.Contains(t, up, "CREATE TABLE users")
		assert.Contains(t, up, "ALTER TABLE users")
		assert.NotContains(t, up, "DROP TABLE users")
		assert.NotContains(t, up, "-- +migrate Up")
	})

	t.Run("Extract Down", func(t *testing.T) {
		down := extractMigrationPart(content, "Down")
		assert.Contains(t, down, "DROP TABLE users")
		assert.NotContains(t, down, "CREATE TABLE users")
	})
}

func writeMigration(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunMigrationsUp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dir := t.TempDir()
	first := writeMigration(t, dir, "20250101_init.sql", "-- +migrate Up\nCREATE TABLE test (id int);\n-- +migrate Down\nDROP TABLE test;")
	second := writeMigration(t, dir, "20250102_more.sql", "-- +migrate Up\nCREATE TABLE more (id int);")

	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WithArgs("20250101_init.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WithArgs("20250102_more.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE more").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs("20250102_more.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	var out bytes.Buffer
	require.NoError(t, runMigrationsUp(db, []string{first, second}, &out))

	assert.Contains(t, out.String(), "skip  20250101_init.sql")
	assert.Contains(t, out.String(), "apply 20250102_more.sql")
	assert.Contains(t, out.String(), "1 migration(s) applied")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsUp_FailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	file := writeMigration(t, t.TempDir(), "20250101_init.sql", "-- +migrate Up\nCREATE TABLE test (id int);")

	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE test").WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err = runMigrationsUp(db, []string{file}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "migration failed (20250101_init.sql)")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsDown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	file := writeMigration(t, t.TempDir(), "20250101_init.sql", "-- +migrate Up\nCREATE TABLE test (id int);\n-- +migrate Down\nDROP TABLE test;")

	t.Run("Rolls back latest", func(t *testing.T) {
		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("20250101_init.sql"))
		mock.ExpectBegin()
		mock.ExpectExec("DROP TABLE test").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM schema_migrations").
			WithArgs("20250101_init.sql").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, runMigrationsDown(db, []string{file}, &bytes.Buffer{}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nothing applied", func(t *testing.T) {
		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}))

		var out bytes.Buffer
		require.NoError(t, runMigrationsDown(db, []string{file}, &out))
		assert.Contains(t, out.String(), "no migrations to roll back")
	})

	t.Run("Missing file", func(t *testing.T) {
		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("20990101_gone.sql"))

		err := runMigrationsDown(db, []string{file}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "migration file not found")
	})
}

func TestRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dir := t.TempDir()
	writeMigration(t, dir, "20250102_b.sql", "-- +migrate Up\nSELECT 2;")
	writeMigration(t, dir, "20250101_a.sql", "-- +migrate Up\nSELECT 1;")

	t.Run("Status lists files in order", func(t *testing.T) {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("20250101_a.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("20250102_b.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		var out bytes.Buffer
		require.NoError(t, run(db, "status", dir, &out))
		assert.Equal(t, "applied  20250101_a.sql\npending  20250102_b.sql\n", out.String())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown mode", func(t *testing.T) {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))

		err := run(db, "sideways", dir, &bytes.Buffer{})
		assert.ErrorContains(t, err, "unknown mode")
	})
}

func TestMigrationsDirectoryIsWellFormed(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		content, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.NotEmpty(t, extractMigrationPart(string(content), "Up"), f)
		assert.NotEmpty(t, extractMigrationPart(string(content), "Down"), f)
	}
}

type stubUserService struct {
	created []string
	err     error
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (string, user.User, error) {
	return "", user.User{}, errors.New("not used")
}

func (s *stubUserService) CreateAdmin(ctx context.Context, email, password string) (user.User, error) {
	if s.err != nil {
		return user.User{}, s.err
	}
	s.created = append(s.created, email)
	return user.User{ID: 1, Email: email, Role: user.RoleAdmin}, nil
}

func TestSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates admin", func(t *testing.T) {
		svc := &stubUserService{}
		var out bytes.Buffer

		require.NoError(t, seed(ctx, svc, "admin@example.com", "secret", &out))
		assert.Equal(t, []string{"admin@example.com"}, svc.created)
		assert.Contains(t, out.String(), "admin admin@example.com created (id 1)")
	})

	t.Run("Existing admin is fine", func(t *testing.T) {
		svc := &stubUserService{err: user.ErrEmailExists}
		var out bytes.Buffer

		require.NoError(t, seed(ctx, svc, "admin@example.com", "secret", &out))
		assert.Contains(t, out.String(), "already exists")
	})

	t.Run("Missing credentials", func(t *testing.T) {
		err := seed(ctx, &stubUserService{}, "", "secret", &bytes.Buffer{})
		assert.Error(t, err)
	})

	t.Run("Store failure", func(t *testing.T) {
		err := seed(ctx, &stubUserService{err: errors.New("db down")}, "a@b.c", "secret", &bytes.Buffer{})
		assert.ErrorContains(t, err, "failed to seed admin")
	})
}
