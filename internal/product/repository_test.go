package product

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{
	"id", "name", "description", "price", "images", "category", "count_in_stock", "created_at", "updated_at",
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM products ORDER BY created_at DESC`).
			WillReturnRows(sqlmock.NewRows(productRowColumns).
				AddRow("p1", "Home Jersey", "2026 home kit", 79.99, "{a.png,b.png}", "jerseys", 12, now, now).
				AddRow("p2", "Scarf", "", 15.0, nil, "accessories", 0, now, now))

		products, err := NewRepository(db).List(ctx, ListOptions{})
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, []string{"a.png", "b.png"}, products[0].Images)
		assert.Equal(t, []string{}, products[1].Images)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Filters", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM products WHERE category = \$1 AND name ILIKE \$2 ORDER BY created_at DESC`).
			WithArgs("jerseys", "%home%").
			WillReturnRows(sqlmock.NewRows(productRowColumns))

		products, err := NewRepository(db).List(ctx, ListOptions{Category: "jerseys", Search: "home"})
		require.NoError(t, err)
		assert.Empty(t, products)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("QueryError", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM products`).WillReturnError(errors.New("db error"))

		_, err = NewRepository(db).List(ctx, ListOptions{})
		assert.Error(t, err)
	})
}

func TestRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM products WHERE id = \$1`).
			WithArgs("p1").
			WillReturnError(sql.ErrNoRows)

		_, err = NewRepository(db).GetByID(ctx, "p1")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("Found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		now := time.Now()
		mock.ExpectQuery(`SELECT .* FROM products WHERE id = \$1`).
			WithArgs("p1").
			WillReturnRows(sqlmock.NewRows(productRowColumns).
				AddRow("p1", "Home Jersey", "", 79.99, "{a.png}", "jerseys", 3, now, now))

		p, err := NewRepository(db).GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Home Jersey", p.Name)
		assert.Equal(t, 3, p.CountInStock)
	})
}

func TestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	p := &Product{ID: "p1", Name: "Home Jersey", Price: 79.99, Images: []string{"a.png"}, CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec(`INSERT INTO products`).
		WithArgs("p1", "Home Jersey", "", 79.99, sqlmock.AnyArg(), "", 0, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, NewRepository(db).Create(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("UpdateMissing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE products`).WillReturnResult(sqlmock.NewResult(0, 0))

		err = NewRepository(db).Update(ctx, &Product{ID: "p1"})
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).
			WithArgs("p1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewRepository(db).Delete(ctx, "p1"))
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM products`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, NewRepository(db).Delete(ctx, "p1"), ErrProductNotFound)
	})
}
