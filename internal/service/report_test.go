package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kseng/restaurant-system/internal/model"
)

func TestParsePeriod(t *testing.T) {
	for _, s := range []string{"today", "week", "month"} {
		p, err := ParsePeriod(s)
		if err != nil {
			t.Fatalf("ParsePeriod(%q): %v", s, err)
		}
		if string(p) != s {
			t.Fatalf("ParsePeriod(%q) = %q", s, p)
		}
	}

	if _, err := ParsePeriod("year"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestPeriodStart(t *testing.T) {
	// Понедельник, 2026-08-31.
	monday := time.Date(2026, 8, 31, 15, 42, 0, 0, time.UTC)
	// Воскресенье, 2026-09-06.
	sunday := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		now    time.Time
		period Period
		want   time.Time
	}{
		{
			name:   "today",
			now:    monday,
			period: PeriodToday,
			want:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "week starts on monday itself",
			now:    monday,
			period: PeriodWeek,
			want:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "week from sunday goes back to monday",
			now:    sunday,
			period: PeriodWeek,
			want:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "month",
			now:    sunday,
			period: PeriodMonth,
			want:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := periodStart(tt.now, tt.period)
			if err != nil {
				t.Fatalf("periodStart: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("periodStart = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := periodStart(monday, Period("year")); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestSalesTotal(t *testing.T) {
	now := time.Date(2026, 9, 6, 18, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		activeInvoices: []model.Invoice{
			{ID: 1, CreatedAt: now.Add(-2 * time.Hour), IsOpen: true},
			{ID: 2, CreatedAt: now.Add(-time.Hour), IsOpen: true},
		},
		invoiceLines: map[int64][]model.InvoiceLine{
			1: {{MenuName: "Burger", UnitPrice: d("3.00"), Quantity: 3, TaxPercent: d("10"), DiscountPercent: d("5")}},
			2: {{MenuName: "Coca Cola", UnitPrice: d("1.20"), Quantity: 2, TaxPercent: d("0"), DiscountPercent: d("0")}},
		},
	}
	svc := newTestService(repo, t.TempDir())
	svc.now = func() time.Time { return now }

	total, err := svc.SalesTotal(context.Background(), PeriodToday)
	if err != nil {
		t.Fatalf("sales total: %v", err)
	}
	if !total.Equal(d("11.85")) {
		t.Fatalf("total = %s, want 11.85", total)
	}

	wantFrom := time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)
	if repo.listedFrom == nil || !repo.listedFrom.Equal(wantFrom) {
		t.Fatalf("from = %v, want %s", repo.listedFrom, wantFrom)
	}
	if repo.listedTo != nil {
		t.Fatalf("to = %v, want nil", repo.listedTo)
	}
}

func TestSalesTotal_InvalidPeriod(t *testing.T) {
	svc := newTestService(&stubRepo{}, t.TempDir())

	_, err := svc.SalesTotal(context.Background(), Period("decade"))
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestActiveInvoices_Summaries(t *testing.T) {
	created := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		activeInvoices: []model.Invoice{
			{ID: 4, CreatedAt: created, IsOpen: true},
		},
		invoiceLines: map[int64][]model.InvoiceLine{
			4: {{MenuName: "Burger", UnitPrice: d("3.00"), Quantity: 2, TaxPercent: d("10"), DiscountPercent: d("5")}},
		},
	}
	svc := newTestService(repo, t.TempDir())

	summaries, err := svc.ActiveInvoices(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("active invoices: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	if summaries[0].ID != 4 || !summaries[0].CreatedAt.Equal(created) {
		t.Fatalf("unexpected summary: %+v", summaries[0])
	}
	if !summaries[0].GrandTotal.Equal(d("6.30")) {
		t.Fatalf("grand total = %s, want 6.30", summaries[0].GrandTotal)
	}
}
