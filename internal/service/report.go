package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Period — отчётный период продаж.
type Period string

// PeriodToday — с полуночи локального времени.
const (
	PeriodToday Period = "today"
	// PeriodWeek — с понедельника текущей недели.
	PeriodWeek Period = "week"
	// PeriodMonth — с первого числа текущего месяца.
	PeriodMonth Period = "month"
)

// ParsePeriod разбирает период отчёта из строки.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodToday, PeriodWeek, PeriodMonth:
		return Period(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// InvoiceSummary — счёт в отчётной выборке с пересчитанным итогом.
type InvoiceSummary struct {
	ID         int64
	CreatedAt  time.Time
	GrandTotal decimal.Decimal
}

// ActiveInvoices возвращает неаннулированные счета с итогами,
// опционально ограниченные временным окном [from, to).
func (s *Service) ActiveInvoices(ctx context.Context, from, to *time.Time) ([]InvoiceSummary, error) {
	if from != nil && to != nil && !from.Before(*to) {
		return nil, ErrInvalidTimeRange
	}

	invoices, err := s.repo.ListActiveInvoices(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summaries := make([]InvoiceSummary, 0, len(invoices))
	for _, inv := range invoices {
		total, err := s.InvoiceGrandTotal(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, InvoiceSummary{
			ID:         inv.ID,
			CreatedAt:  inv.CreatedAt,
			GrandTotal: total,
		})
	}

	return summaries, nil
}

// SalesTotal возвращает сумму итогов неаннулированных счетов за период.
// Границы периода берутся по локальному времени хоста.
func (s *Service) SalesTotal(ctx context.Context, period Period) (decimal.Decimal, error) {
	start, err := periodStart(s.now(), period)
	if err != nil {
		return decimal.Zero, err
	}

	summaries, err := s.ActiveInvoices(ctx, &start, nil)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, sum := range summaries {
		total = total.Add(sum.GrandTotal)
	}
	return total, nil
}

func periodStart(now time.Time, period Period) (time.Time, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case PeriodToday:
		return midnight, nil
	case PeriodWeek:
		// Неделя начинается с понедельника.
		offset := (int(now.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset), nil
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
}
