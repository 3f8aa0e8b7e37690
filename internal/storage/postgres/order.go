package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/eshopgo/checkout-pipeline/internal/dispatch"
	"github.com/eshopgo/checkout-pipeline/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, customer_id, order_name,
		ship_first_name, ship_last_name, ship_email_address, ship_address_line,
		ship_country, ship_state, ship_zip_code,
		bill_first_name, bill_last_name, bill_email_address, bill_address_line,
		bill_country, bill_state, bill_zip_code,
		card_name, card_number, expiration, cvv, payment_method,
		status, source_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

	updateOrderSQL = `UPDATE orders SET order_name = $2,
		ship_first_name = $3, ship_last_name = $4, ship_email_address = $5,
		ship_address_line = $6, ship_country = $7, ship_state = $8, ship_zip_code = $9,
		bill_first_name = $10, bill_last_name = $11, bill_email_address = $12,
		bill_address_line = $13, bill_country = $14, bill_state = $15, bill_zip_code = $16,
		card_name = $17, card_number = $18, expiration = $19, cvv = $20, payment_method = $21,
		status = $22
		WHERE id = $1`

	insertOrderItemSQL = `INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)`

	deleteOrderItemsSQL = `DELETE FROM order_items WHERE order_id = $1`

	getOrderSQL = `SELECT customer_id, order_name,
		ship_first_name, ship_last_name, ship_email_address, ship_address_line,
		ship_country, ship_state, ship_zip_code,
		bill_first_name, bill_last_name, bill_email_address, bill_address_line,
		bill_country, bill_state, bill_zip_code,
		card_name, card_number, expiration, cvv, payment_method,
		status, source_event_id
		FROM orders WHERE id = $1`

	getOrderItemsSQL = `SELECT id, product_id, quantity, price
		FROM order_items WHERE order_id = $1 ORDER BY id`
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Saves
// run inside a transaction: rows are written, the aggregate's pending
// domain events are drained and dispatched, and only then does the commit
// happen. A handler error rolls the whole save back.
type OrderRepository struct {
	pool   *pgxpool.Pool
	events *dispatch.Registry
}

// NewOrderRepository returns an OrderRepository dispatching drained events
// through the given registry.
func NewOrderRepository(pool *pgxpool.Pool, events *dispatch.Registry) *OrderRepository {
	return &OrderRepository{pool: pool, events: events}
}

// Create persists a new order and its items. A duplicate source event id
// surfaces as order.ErrDuplicateEvent.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.saveTx(ctx, o, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertOrderSQL, orderArgs(o)...); err != nil {
			if isUniqueViolation(err) {
				return order.ErrDuplicateEvent
			}
			return errors.Wrapf(err, "insert order %s", o.ID)
		}
		return insertItems(ctx, tx, o)
	})
}

// Update rewrites the order header and items. Customer id and source event
// id are immutable.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	return r.saveTx(ctx, o, func(tx pgx.Tx) error {
		args := orderArgs(o)
		updateArgs := append([]any{args[0]}, args[2:23]...)
		tag, err := tx.Exec(ctx, updateOrderSQL, updateArgs...)
		if err != nil {
			return errors.Wrapf(err, "update order %s", o.ID)
		}
		if tag.RowsAffected() == 0 {
			return order.ErrNotFound
		}

		if _, err := tx.Exec(ctx, deleteOrderItemsSQL, o.ID.Value()); err != nil {
			return errors.Wrapf(err, "clear items for order %s", o.ID)
		}
		return insertItems(ctx, tx, o)
	})
}

// Get loads an order and its items.
func (r *OrderRepository) Get(ctx context.Context, id order.OrderID) (*order.Order, error) {
	var (
		customerID    uuid.UUID
		orderName     string
		ship, bill    [7]string
		cardName      string
		cardNumber    string
		expiration    string
		cvv           string
		paymentMethod int
		status        string
		sourceEventID *uuid.UUID
	)
	err := r.pool.QueryRow(ctx, getOrderSQL, id.Value()).Scan(
		&customerID, &orderName,
		&ship[0], &ship[1], &ship[2], &ship[3], &ship[4], &ship[5], &ship[6],
		&bill[0], &bill[1], &bill[2], &bill[3], &bill[4], &bill[5], &bill[6],
		&cardName, &cardNumber, &expiration, &cvv, &paymentMethod,
		&status, &sourceEventID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %s", id)
	}

	params, err := rehydrateParams(id, customerID, orderName, ship, bill,
		cardName, cardNumber, expiration, cvv, paymentMethod, status, sourceEventID)
	if err != nil {
		return nil, errors.Wrapf(err, "rehydrate order %s", id)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return order.Rehydrate(params, items), nil
}

func (r *OrderRepository) loadItems(ctx context.Context, id order.OrderID) ([]order.Item, error) {
	rows, err := r.pool.Query(ctx, getOrderItemsSQL, id.Value())
	if err != nil {
		return nil, errors.Wrapf(err, "get items for order %s", id)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var (
			itemID    uuid.UUID
			productID uuid.UUID
			quantity  int
			price     decimal.Decimal
		)
		if err := row.Scan(&itemID, &productID, &quantity, &price); err != nil {
			return order.Item{}, err
		}

		oid, err := order.NewOrderItemID(itemID)
		if err != nil {
			return order.Item{}, err
		}
		pid, err := order.NewProductID(productID)
		if err != nil {
			return order.Item{}, err
		}
		return order.Item{
			ID:        oid,
			OrderID:   id,
			ProductID: pid,
			Quantity:  quantity,
			Price:     price,
		}, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "collect items for order %s", id)
	}
	return items, nil
}

// saveTx runs fn inside a transaction, then drains the aggregate's pending
// domain events and dispatches them before committing. The dispatch and the
// commit are coupled: a handler error rolls back the row writes, and a
// rolled-back save leaves the events consumed only in memory.
func (r *OrderRepository) saveTx(ctx context.Context, o *order.Order, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	for _, e := range o.DrainEvents() {
		if err := r.events.Dispatch(ctx, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrapf(err, "commit order %s", o.ID)
	}
	return nil
}

func insertItems(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	for _, item := range o.Items {
		_, err := tx.Exec(ctx, insertOrderItemSQL,
			item.ID.Value(), o.ID.Value(), item.ProductID.Value(), item.Quantity, item.Price,
		)
		if err != nil {
			return errors.Wrapf(err, "insert item for order %s", o.ID)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func orderArgs(o *order.Order) []any {
	ship, bill, pay := o.ShippingAddress, o.BillingAddress, o.Payment
	var sourceEventID any
	if o.SourceEventID != uuid.Nil {
		sourceEventID = o.SourceEventID
	}
	return []any{
		o.ID.Value(), o.CustomerID.Value(), o.Name.Value(),
		ship.FirstName, ship.LastName, ship.EmailAddress, ship.AddressLine,
		ship.Country, ship.State, ship.ZipCode,
		bill.FirstName, bill.LastName, bill.EmailAddress, bill.AddressLine,
		bill.Country, bill.State, bill.ZipCode,
		pay.CardName, pay.CardNumber, pay.Expiration, pay.CVV, pay.PaymentMethod,
		string(o.Status), sourceEventID,
	}
}

func rehydrateParams(
	id order.OrderID,
	customerID uuid.UUID,
	orderName string,
	ship, bill [7]string,
	cardName, cardNumber, expiration, cvv string,
	paymentMethod int,
	status string,
	sourceEventID *uuid.UUID,
) (order.CreateParams, error) {
	cid, err := order.NewCustomerID(customerID)
	if err != nil {
		return order.CreateParams{}, err
	}
	name, err := order.NewOrderName(orderName)
	if err != nil {
		return order.CreateParams{}, err
	}
	shipAddr, err := order.NewAddress(ship[0], ship[1], ship[2], ship[3], ship[4], ship[5], ship[6])
	if err != nil {
		return order.CreateParams{}, err
	}
	billAddr, err := order.NewAddress(bill[0], bill[1], bill[2], bill[3], bill[4], bill[5], bill[6])
	if err != nil {
		return order.CreateParams{}, err
	}
	payment, err := order.NewPayment(cardName, cardNumber, expiration, cvv, paymentMethod)
	if err != nil {
		return order.CreateParams{}, err
	}
	st, err := order.ParseStatus(status)
	if err != nil {
		return order.CreateParams{}, err
	}

	params := order.CreateParams{
		ID:              id,
		CustomerID:      cid,
		Name:            name,
		ShippingAddress: shipAddr,
		BillingAddress:  billAddr,
		Payment:         payment,
		Status:          st,
	}
	if sourceEventID != nil {
		params.SourceEventID = *sourceEventID
	}
	return params, nil
}
