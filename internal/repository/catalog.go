package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/kseng/restaurant-system/internal/model"
)

// CreateMenuItem добавляет позицию меню и возвращает её идентификатор.
func (r *PostgresRepository) CreateMenuItem(ctx context.Context, name string, unitPrice decimal.Decimal, image string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO menu_items (name, unit_price, image) VALUES ($1, $2, $3) RETURNING id`,
		name, unitPrice, image,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert menu item: %w", err)
	}
	return id, nil
}

// GetMenuItem возвращает позицию меню по идентификатору.
func (r *PostgresRepository) GetMenuItem(ctx context.Context, id int64) (*model.MenuItem, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, unit_price, image FROM menu_items WHERE id = $1`,
		id,
	)

	var m model.MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.UnitPrice, &m.Image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}

	return &m, nil
}

// GetMenuItemByName возвращает позицию меню по названию.
// Названия в меню не уникальны, берётся самая ранняя запись.
func (r *PostgresRepository) GetMenuItemByName(ctx context.Context, name string) (*model.MenuItem, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, unit_price, image FROM menu_items WHERE name = $1 ORDER BY id LIMIT 1`,
		name,
	)

	var m model.MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.UnitPrice, &m.Image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("get menu item by name: %w", err)
	}

	return &m, nil
}

// ListMenuItems возвращает все позиции меню.
func (r *PostgresRepository) ListMenuItems(ctx context.Context) ([]model.MenuItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, unit_price, image FROM menu_items ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select menu items: %w", err)
	}
	defer rows.Close()

	var items []model.MenuItem
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.UnitPrice, &m.Image); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// UpdateMenuItem обновляет позицию меню.
func (r *PostgresRepository) UpdateMenuItem(ctx context.Context, id int64, name string, unitPrice decimal.Decimal, image string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE menu_items SET name = $2, unit_price = $3, image = $4 WHERE id = $1`,
		id, name, unitPrice, image,
	)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

// DeleteMenuItem удаляет позицию меню. Удаление блокируется, пока на позицию
// ссылается хоть одна позиция заказа: исторические счета джойнятся с меню по названию.
func (r *PostgresRepository) DeleteMenuItem(ctx context.Context, id int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var referenced bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM order_lines WHERE menu_item_id = $1)`,
			id,
		).Scan(&referenced)
		if err != nil {
			return fmt.Errorf("check menu item references: %w", err)
		}
		if referenced {
			return ErrMenuItemInUse
		}

		cmdTag, err := tx.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete menu item: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return ErrMenuItemNotFound
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// CreateTable добавляет столик с уникальным номером.
func (r *PostgresRepository) CreateTable(ctx context.Context, number int, description string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tables (number, description) VALUES ($1, $2)`,
		number, description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %d", ErrTableExists, number)
		}
		return fmt.Errorf("insert table: %w", err)
	}
	return nil
}

// ListTables возвращает все столики.
func (r *PostgresRepository) ListTables(ctx context.Context) ([]model.Table, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT number, description FROM tables ORDER BY number`,
	)
	if err != nil {
		return nil, fmt.Errorf("select tables: %w", err)
	}
	defer rows.Close()

	var tables []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.Number, &t.Description); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tables, nil
}

// TableExists сообщает, зарегистрирован ли столик с указанным номером.
func (r *PostgresRepository) TableExists(ctx context.Context, number int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tables WHERE number = $1)`,
		number,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check table: %w", err)
	}
	return exists, nil
}

// UpdateTable обновляет описание столика.
func (r *PostgresRepository) UpdateTable(ctx context.Context, number int, description string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE tables SET description = $2 WHERE number = $1`,
		number, description,
	)
	if err != nil {
		return fmt.Errorf("update table: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrTableNotFound, number)
	}
	return nil
}

// DeleteTable удаляет столик. Удаление блокируется, пока у столика
// есть открытые позиции заказа или бронирования.
func (r *PostgresRepository) DeleteTable(ctx context.Context, number int) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var referenced bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM order_lines WHERE table_number = $1 AND is_open)
			     OR EXISTS (SELECT 1 FROM reservation_tables WHERE table_number = $1)`,
			number,
		).Scan(&referenced)
		if err != nil {
			return fmt.Errorf("check table references: %w", err)
		}
		if referenced {
			return fmt.Errorf("%w: %d", ErrTableInUse, number)
		}

		cmdTag, err := tx.Exec(ctx, `DELETE FROM tables WHERE number = $1`, number)
		if err != nil {
			return fmt.Errorf("delete table: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %d", ErrTableNotFound, number)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}
