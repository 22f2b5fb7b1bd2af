package service

import (
	"context"
	"strings"
	"time"

	"github.com/kseng/restaurant-system/internal/model"
	"github.com/kseng/restaurant-system/internal/validation"
)

// ReservationInput — данные бронирования от вызывающей стороны.
type ReservationInput struct {
	Tables       []int
	CustomerName string
	Phone        string
	StartTime    time.Time
	EndTime      time.Time
}

func (in ReservationInput) validate() (model.Reservation, error) {
	if len(in.Tables) == 0 {
		return model.Reservation{}, ErrInvalidTableNumber
	}
	for _, n := range in.Tables {
		if !validation.IsValidTableNumber(n) {
			return model.Reservation{}, ErrInvalidTableNumber
		}
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return model.Reservation{}, ErrEmptyName
	}
	if !in.StartTime.Before(in.EndTime) {
		return model.Reservation{}, ErrInvalidTimeRange
	}

	return model.Reservation{
		Tables:       in.Tables,
		CustomerName: in.CustomerName,
		Phone:        in.Phone,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
	}, nil
}

// AddReservation создаёт бронирование одного или нескольких столиков.
func (s *Service) AddReservation(ctx context.Context, in ReservationInput) (int64, error) {
	res, err := in.validate()
	if err != nil {
		return 0, err
	}
	return s.repo.CreateReservation(ctx, res)
}

// UpdateReservation заменяет данные бронирования целиком.
func (s *Service) UpdateReservation(ctx context.Context, id int64, in ReservationInput) error {
	res, err := in.validate()
	if err != nil {
		return err
	}
	res.ID = id
	return s.repo.UpdateReservation(ctx, res)
}

// DeleteReservation удаляет бронирование.
func (s *Service) DeleteReservation(ctx context.Context, id int64) error {
	return s.repo.DeleteReservation(ctx, id)
}

// ListReservations возвращает все бронирования.
func (s *Service) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	return s.repo.ListReservations(ctx)
}
