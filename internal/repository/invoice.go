package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/kseng/restaurant-system/internal/model"
)

// LineUpdate описывает изменение одной позиции счёта
// с уже разрешённым идентификатором блюда.
type LineUpdate struct {
	OrderID         int64
	MenuItemID      int64
	Quantity        int
	TaxPercent      decimal.Decimal
	DiscountPercent decimal.Decimal
}

// CreateOrderLines сохраняет позиции подтверждённого заказа одной транзакцией:
// либо записываются все строки черновика, либо ни одной.
func (r *PostgresRepository) CreateOrderLines(ctx context.Context, lines []model.OrderLine) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		for _, l := range lines {
			_, err := tx.Exec(ctx,
				`INSERT INTO order_lines (table_number, menu_item_id, quantity, tax_percent, discount_percent)
				 VALUES ($1, $2, $3, $4, $5)`,
				l.TableNumber, l.MenuItemID, l.Quantity, l.TaxPercent, l.DiscountPercent,
			)
			if err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// GenerateInvoice создаёт счёт и закрывает все открытые позиции заказа столика
// в одной транзакции. Если открытых позиций нет, счёт не создаётся
// и возвращается ErrNoOpenOrders.
func (r *PostgresRepository) GenerateInvoice(ctx context.Context, tableNumber int) (int64, time.Time, error) {
	var (
		id        int64
		createdAt time.Time
	)
	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		err = tx.QueryRow(ctx,
			`INSERT INTO invoices DEFAULT VALUES RETURNING id, created_at`,
		).Scan(&id, &createdAt)
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}

		cmdTag, err := tx.Exec(ctx,
			`UPDATE order_lines SET is_open = FALSE, invoice_id = $1
			 WHERE table_number = $2 AND is_open`,
			id, tableNumber,
		)
		if err != nil {
			return fmt.Errorf("close order lines: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			// Откат транзакции убирает и вставленный счёт: счетов без строк не бывает.
			return fmt.Errorf("%w: table %d", ErrNoOpenOrders, tableNumber)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	return id, createdAt, nil
}

// GetInvoice возвращает счёт по идентификатору.
func (r *PostgresRepository) GetInvoice(ctx context.Context, id int64) (*model.Invoice, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, created_at, is_open FROM invoices WHERE id = $1`,
		id,
	)

	var inv model.Invoice
	err := row.Scan(&inv.ID, &inv.CreatedAt, &inv.IsOpen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrInvoiceNotFound, id)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	return &inv, nil
}

// GetInvoiceLines возвращает строки счёта вместе с названием и ценой блюда.
func (r *PostgresRepository) GetInvoiceLines(ctx context.Context, invoiceID int64) ([]model.InvoiceLine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ol.id, ol.table_number, ol.created_at, m.name, m.unit_price,
		        ol.quantity, ol.tax_percent, ol.discount_percent
		 FROM order_lines ol
		 JOIN menu_items m ON m.id = ol.menu_item_id
		 WHERE ol.invoice_id = $1
		 ORDER BY ol.id`,
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("select invoice lines: %w", err)
	}
	defer rows.Close()

	var lines []model.InvoiceLine
	for rows.Next() {
		var l model.InvoiceLine
		if err := rows.Scan(&l.OrderID, &l.TableNumber, &l.CreatedAt, &l.MenuName, &l.UnitPrice,
			&l.Quantity, &l.TaxPercent, &l.DiscountPercent); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}

// ListActiveInvoices возвращает неаннулированные счета,
// опционально ограниченные временным окном [from, to).
func (r *PostgresRepository) ListActiveInvoices(ctx context.Context, from, to *time.Time) ([]model.Invoice, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, created_at, is_open
		 FROM invoices
		 WHERE is_open
		   AND ($1::timestamptz IS NULL OR created_at >= $1)
		   AND ($2::timestamptz IS NULL OR created_at < $2)
		 ORDER BY created_at, id`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("select invoices: %w", err)
	}
	defer rows.Close()

	var invoices []model.Invoice
	for rows.Next() {
		var inv model.Invoice
		if err := rows.Scan(&inv.ID, &inv.CreatedAt, &inv.IsOpen); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return invoices, nil
}

// VoidInvoice аннулирует счёт. Строки заказа сохраняют привязку к счёту
// и закрытое состояние, историческая детализация остаётся доступной.
func (r *PostgresRepository) VoidInvoice(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET is_open = FALSE WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("void invoice: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrInvoiceNotFound, id)
	}
	return nil
}

// EditInvoiceLines применяет пакет правок и удалений строк счёта в одной
// транзакции: либо все изменения, либо ни одного.
func (r *PostgresRepository) EditInvoiceLines(ctx context.Context, invoiceID int64, updates []LineUpdate, removeOrderIDs []int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var dummy int
		err = tx.QueryRow(ctx, `SELECT 1 FROM invoices WHERE id = $1 FOR UPDATE`, invoiceID).Scan(&dummy)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %d", ErrInvoiceNotFound, invoiceID)
			}
			return fmt.Errorf("lock invoice: %w", err)
		}

		for _, u := range updates {
			cmdTag, err := tx.Exec(ctx,
				`UPDATE order_lines
				 SET menu_item_id = $3, quantity = $4, tax_percent = $5, discount_percent = $6
				 WHERE id = $1 AND invoice_id = $2`,
				u.OrderID, invoiceID, u.MenuItemID, u.Quantity, u.TaxPercent, u.DiscountPercent,
			)
			if err != nil {
				return fmt.Errorf("update order line: %w", err)
			}
			if cmdTag.RowsAffected() == 0 {
				return fmt.Errorf("%w: %d", ErrOrderLineNotFound, u.OrderID)
			}
		}

		for _, orderID := range removeOrderIDs {
			cmdTag, err := tx.Exec(ctx,
				`DELETE FROM order_lines WHERE id = $1 AND invoice_id = $2`,
				orderID, invoiceID,
			)
			if err != nil {
				return fmt.Errorf("delete order line: %w", err)
			}
			if cmdTag.RowsAffected() == 0 {
				return fmt.Errorf("%w: %d", ErrOrderLineNotFound, orderID)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}
