package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"maillot-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	UpdateLifecycle(ctx context.Context, o *Order) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, customer_name, customer_email, customer_address, customer_phone,
	items_price, tax_price, shipping_price, total_price,
	status, is_paid, paid_at, payment_result, is_delivered, delivered_at,
	created_at, updated_at`

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// Create writes the order and its items in one transaction.
func (r *repository) Create(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrder"),
		zap.String("order_id", o.ID),
		zap.Int("item_count", len(o.OrderItems)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return storageErr("begin", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_name, customer_email, customer_address, customer_phone,
			items_price, tax_price, shipping_price, total_price,
			status, is_paid, is_delivered, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		o.ID,
		o.CustomerDetails.Name,
		o.CustomerDetails.Email,
		o.CustomerDetails.Address,
		o.CustomerDetails.Phone,
		o.ItemsPrice,
		o.TaxPrice,
		o.ShippingPrice,
		o.TotalPrice,
		o.Status,
		o.IsPaid,
		o.IsDelivered,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return storageErr("insert order", err)
	}

	for i, item := range o.OrderItems {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, position, product_id, name, qty, price, image
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			o.ID,
			i,
			item.Product,
			item.Name,
			item.Qty,
			item.Price,
			item.Image,
		)
		if err != nil {
			log.Error("failed to insert order item",
				zap.Int("item_index", i),
				zap.String("product_id", item.Product),
				zap.Error(err),
			)
			return storageErr("insert order item", err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return storageErr("commit", err)
	}

	committed = true
	log.Debug("order transaction committed")
	return nil
}

// GetByID loads one order with each item's product projection.
func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, storageErr("get order", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			oi.product_id, oi.name, oi.qty, oi.price, oi.image,
			p.name, p.price, p.images
		FROM order_items oi
		LEFT JOIN products p ON p.id::text = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.position
	`, id)
	if err != nil {
		return nil, storageErr("get order items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item      OrderItem
			prodName  sql.NullString
			prodPrice sql.NullFloat64
			images    pq.StringArray
		)
		if err := rows.Scan(
			&item.Product, &item.Name, &item.Qty, &item.Price, &item.Image,
			&prodName, &prodPrice, &images,
		); err != nil {
			return nil, storageErr("scan order item", err)
		}
		if prodName.Valid {
			item.ProductInfo = &ProductSummary{
				Name:   prodName.String,
				Price:  prodPrice.Float64,
				Images: []string(images),
			}
		}
		o.OrderItems = append(o.OrderItems, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate order items", err)
	}

	return o, nil
}

// List returns every order, newest first. There is no pagination.
func (r *repository) List(ctx context.Context) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	defer rows.Close()

	orders := []*Order{}
	byID := map[string]*Order{}
	ids := []string{}

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, storageErr("scan order", err)
		}
		orders = append(orders, o)
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate orders", err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, name, qty, price, image
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`, pq.Array(ids))
	if err != nil {
		return nil, storageErr("list order items", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			orderID string
			item    OrderItem
		)
		if err := itemRows.Scan(&orderID, &item.Product, &item.Name, &item.Qty, &item.Price, &item.Image); err != nil {
			return nil, storageErr("scan order item", err)
		}
		if o, ok := byID[orderID]; ok {
			o.OrderItems = append(o.OrderItems, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, storageErr("iterate order items", err)
	}

	return orders, nil
}

// UpdateLifecycle persists the lifecycle fields. Last write wins.
func (r *repository) UpdateLifecycle(ctx context.Context, o *Order) error {
	payment, err := encodePayment(o.PaymentResult)
	if err != nil {
		return storageErr("encode payment result", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET
			status = $1,
			is_paid = $2,
			paid_at = $3,
			payment_result = $4,
			is_delivered = $5,
			delivered_at = $6,
			updated_at = $7
		WHERE id = $8
	`,
		o.Status,
		o.IsPaid,
		o.PaidAt,
		payment,
		o.IsDelivered,
		o.DeliveredAt,
		o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		return storageErr("update order", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("update order", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o           Order
		paidAt      sql.NullTime
		deliveredAt sql.NullTime
		payment     []byte
	)

	err := row.Scan(
		&o.ID,
		&o.CustomerDetails.Name,
		&o.CustomerDetails.Email,
		&o.CustomerDetails.Address,
		&o.CustomerDetails.Phone,
		&o.ItemsPrice,
		&o.TaxPrice,
		&o.ShippingPrice,
		&o.TotalPrice,
		&o.Status,
		&o.IsPaid,
		&paidAt,
		&payment,
		&o.IsDelivered,
		&deliveredAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paidAt.Valid {
		o.PaidAt = timePtr(paidAt.Time)
	}
	if deliveredAt.Valid {
		o.DeliveredAt = timePtr(deliveredAt.Time)
	}
	if len(payment) > 0 {
		var pr PaymentResult
		if err := json.Unmarshal(payment, &pr); err != nil {
			return nil, fmt.Errorf("decode payment result: %w", err)
		}
		o.PaymentResult = &pr
	}

	return &o, nil
}

// encodePayment returns a jsonb-compatible argument; pq sends []byte as
// bytea, so the document goes over the wire as text.
func encodePayment(pr *PaymentResult) (any, error) {
	if pr == nil {
		return nil, nil
	}
	b, err := json.Marshal(pr)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
