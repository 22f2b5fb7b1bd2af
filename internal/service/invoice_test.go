package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kseng/restaurant-system/internal/model"
	"github.com/kseng/restaurant-system/internal/repository"
)

func TestGenerateInvoice(t *testing.T) {
	repo := &stubRepo{genInvoiceID: 7}
	svc := newTestService(repo, t.TempDir())

	id, err := svc.GenerateInvoice(context.Background(), 3)
	if err != nil {
		t.Fatalf("generate invoice: %v", err)
	}
	if id != 7 {
		t.Fatalf("invoice id = %d, want 7", id)
	}
	if repo.genTable != 3 {
		t.Fatalf("table = %d, want 3", repo.genTable)
	}
}

func TestGenerateInvoice_NoOpenOrders(t *testing.T) {
	repo := &stubRepo{genInvoiceErr: repository.ErrNoOpenOrders}
	svc := newTestService(repo, t.TempDir())

	_, err := svc.GenerateInvoice(context.Background(), 3)
	if !errors.Is(err, repository.ErrNoOpenOrders) {
		t.Fatalf("expected ErrNoOpenOrders, got %v", err)
	}
}

func TestInvoiceGrandTotal(t *testing.T) {
	repo := &stubRepo{
		invoiceLines: map[int64][]model.InvoiceLine{
			5: {
				{MenuName: "Burger", UnitPrice: d("3.00"), Quantity: 3, TaxPercent: d("10"), DiscountPercent: d("5")},
				{MenuName: "Coca Cola", UnitPrice: d("1.20"), Quantity: 2, TaxPercent: d("0"), DiscountPercent: d("0")},
			},
		},
	}
	svc := newTestService(repo, t.TempDir())

	total, err := svc.InvoiceGrandTotal(context.Background(), 5)
	if err != nil {
		t.Fatalf("grand total: %v", err)
	}
	if !total.Equal(d("11.85")) {
		t.Fatalf("total = %s, want 11.85", total)
	}
}

func TestInvoiceGrandTotal_NoLines(t *testing.T) {
	repo := &stubRepo{invoiceLines: map[int64][]model.InvoiceLine{}}
	svc := newTestService(repo, t.TempDir())

	total, err := svc.InvoiceGrandTotal(context.Background(), 5)
	if err != nil {
		t.Fatalf("grand total: %v", err)
	}
	if !total.IsZero() {
		t.Fatalf("total = %s, want 0", total)
	}
}

func TestInvoiceLines_UnknownInvoice(t *testing.T) {
	repo := &stubRepo{invoiceErr: repository.ErrInvoiceNotFound}
	svc := newTestService(repo, t.TempDir())

	_, err := svc.InvoiceLines(context.Background(), 5)
	if !errors.Is(err, repository.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestEditInvoiceLines(t *testing.T) {
	repo := repoWithMenu()
	svc := newTestService(repo, t.TempDir())

	edits := []LineEdit{
		{OrderID: 10, MenuName: "Fried Rice", Quantity: 2, TaxPercent: d("10"), DiscountPercent: d("0")},
	}

	if err := svc.EditInvoiceLines(context.Background(), 5, edits, []int64{11}); err != nil {
		t.Fatalf("edit: %v", err)
	}

	if repo.editedInvoiceID != 5 {
		t.Fatalf("invoice id = %d, want 5", repo.editedInvoiceID)
	}
	if len(repo.editedUpdates) != 1 {
		t.Fatalf("updates = %d, want 1", len(repo.editedUpdates))
	}
	upd := repo.editedUpdates[0]
	if upd.OrderID != 10 || upd.MenuItemID != 2 || upd.Quantity != 2 {
		t.Fatalf("unexpected update: %+v", upd)
	}
	if len(repo.editedRemovals) != 1 || repo.editedRemovals[0] != 11 {
		t.Fatalf("unexpected removals: %v", repo.editedRemovals)
	}
}

func TestEditInvoiceLines_RejectsWholeBatch(t *testing.T) {
	tests := []struct {
		name    string
		edit    LineEdit
		wantErr error
	}{
		{
			name:    "invalid quantity",
			edit:    LineEdit{OrderID: 10, MenuName: "Coca Cola", Quantity: 0, TaxPercent: d("0"), DiscountPercent: d("0")},
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "tax out of range",
			edit:    LineEdit{OrderID: 10, MenuName: "Coca Cola", Quantity: 1, TaxPercent: d("150"), DiscountPercent: d("0")},
			wantErr: ErrInvalidPercent,
		},
		{
			name:    "unknown menu name",
			edit:    LineEdit{OrderID: 10, MenuName: "Ghost Dish", Quantity: 1, TaxPercent: d("0"), DiscountPercent: d("0")},
			wantErr: ErrUnknownMenuItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repoWithMenu()
			svc := newTestService(repo, t.TempDir())

			err := svc.EditInvoiceLines(context.Background(), 5, []LineEdit{tt.edit}, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if repo.editedUpdates != nil || repo.editedInvoiceID != 0 {
				t.Fatal("storage must stay untouched when the batch is rejected")
			}
		})
	}
}

func TestVoidInvoice(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, t.TempDir())

	if err := svc.VoidInvoice(context.Background(), 9); err != nil {
		t.Fatalf("void: %v", err)
	}
	if repo.voidedID != 9 {
		t.Fatalf("voided id = %d, want 9", repo.voidedID)
	}

	repo.voidErr = repository.ErrInvoiceNotFound
	if err := svc.VoidInvoice(context.Background(), 10); !errors.Is(err, repository.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestActiveInvoices_InvalidRange(t *testing.T) {
	svc := newTestService(&stubRepo{}, t.TempDir())

	from := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, err := svc.ActiveInvoices(context.Background(), &from, &to)
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}
