package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kseng/restaurant-system/internal/model"
)

// checkReservationTables проверяет в рамках транзакции, что все столики
// существуют и ни один из них не забронирован на пересекающееся окно.
// excludeID исключает из проверки само обновляемое бронирование.
func checkReservationTables(ctx context.Context, tx pgx.Tx, res model.Reservation, excludeID int64) error {
	var known int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM tables WHERE number = ANY($1)`,
		res.Tables,
	).Scan(&known)
	if err != nil {
		return fmt.Errorf("check reservation tables: %w", err)
	}
	if known != len(res.Tables) {
		return ErrTableNotFound
	}

	var overlaps bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1
		     FROM reservations r
		     JOIN reservation_tables rt ON rt.reservation_id = r.id
		     WHERE rt.table_number = ANY($1)
		       AND r.id <> $2
		       AND r.start_time < $4
		       AND r.end_time > $3
		 )`,
		res.Tables, excludeID, res.StartTime, res.EndTime,
	).Scan(&overlaps)
	if err != nil {
		return fmt.Errorf("check reservation overlap: %w", err)
	}
	if overlaps {
		return ErrReservationOverlap
	}

	return nil
}

func insertReservationTables(ctx context.Context, tx pgx.Tx, reservationID int64, tables []int) error {
	for _, number := range tables {
		_, err := tx.Exec(ctx,
			`INSERT INTO reservation_tables (reservation_id, table_number) VALUES ($1, $2)`,
			reservationID, number,
		)
		if err != nil {
			return fmt.Errorf("insert reservation table: %w", err)
		}
	}
	return nil
}

// CreateReservation создаёт бронирование одного или нескольких столиков.
// Проверка пересечения окон и вставка строк выполняются в одной транзакции.
func (r *PostgresRepository) CreateReservation(ctx context.Context, res model.Reservation) (int64, error) {
	var id int64
	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := checkReservationTables(ctx, tx, res, 0); err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO reservations (customer_name, phone, start_time, end_time)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			res.CustomerName, res.Phone, res.StartTime, res.EndTime,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}

		if err := insertReservationTables(ctx, tx, id, res.Tables); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateReservation заменяет данные бронирования и его набор столиков целиком.
func (r *PostgresRepository) UpdateReservation(ctx context.Context, res model.Reservation) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := checkReservationTables(ctx, tx, res, res.ID); err != nil {
			return err
		}

		cmdTag, err := tx.Exec(ctx,
			`UPDATE reservations SET customer_name = $2, phone = $3, start_time = $4, end_time = $5
			 WHERE id = $1`,
			res.ID, res.CustomerName, res.Phone, res.StartTime, res.EndTime,
		)
		if err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %d", ErrReservationNotFound, res.ID)
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM reservation_tables WHERE reservation_id = $1`, res.ID,
		); err != nil {
			return fmt.Errorf("delete reservation tables: %w", err)
		}

		if err := insertReservationTables(ctx, tx, res.ID, res.Tables); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// DeleteReservation удаляет бронирование вместе с привязками к столикам.
func (r *PostgresRepository) DeleteReservation(ctx context.Context, id int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx,
			`DELETE FROM reservation_tables WHERE reservation_id = $1`, id,
		); err != nil {
			return fmt.Errorf("delete reservation tables: %w", err)
		}

		cmdTag, err := tx.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete reservation: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %d", ErrReservationNotFound, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// ListReservations возвращает бронирования с отсортированными наборами столиков.
func (r *PostgresRepository) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.customer_name, r.phone, r.start_time, r.end_time,
		        array_agg(rt.table_number ORDER BY rt.table_number)
		 FROM reservations r
		 JOIN reservation_tables rt ON rt.reservation_id = r.id
		 GROUP BY r.id
		 ORDER BY r.start_time, r.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select reservations: %w", err)
	}
	defer rows.Close()

	var res []model.Reservation
	for rows.Next() {
		var rv model.Reservation
		if err := rows.Scan(&rv.ID, &rv.CustomerName, &rv.Phone, &rv.StartTime, &rv.EndTime, &rv.Tables); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		res = append(res, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
