package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		quantity int
		tax      string
		discount string
		want     string
	}{
		{
			name:     "no tax no discount",
			price:    "2.50",
			quantity: 4,
			tax:      "0",
			discount: "0",
			want:     "10",
		},
		{
			name:     "tax and discount",
			price:    "3.00",
			quantity: 3,
			tax:      "10",
			discount: "5",
			want:     "9.45",
		},
		{
			name:     "full discount leaves tax only",
			price:    "10.00",
			quantity: 1,
			tax:      "10",
			discount: "100",
			want:     "1",
		},
		{
			name:     "zero quantity",
			price:    "3.00",
			quantity: 0,
			tax:      "10",
			discount: "5",
			want:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(d(tt.price), tt.quantity, d(tt.tax), d(tt.discount))
			if !got.Equal(d(tt.want)) {
				t.Fatalf("LineTotal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestInvoiceLineTotal(t *testing.T) {
	l := InvoiceLine{
		MenuName:        "Burger",
		UnitPrice:       d("3.00"),
		Quantity:        2,
		TaxPercent:      d("10"),
		DiscountPercent: d("5"),
	}

	if got := l.Total(); !got.Equal(d("6.30")) {
		t.Fatalf("Total = %s, want 6.30", got)
	}
}

func TestDraftOrderTotals(t *testing.T) {
	draft := NewDraftOrder(2)
	draft.Lines[1] = &DraftLine{MenuItemID: 1, Name: "Burger", UnitPrice: d("3.00"), Quantity: 3}
	draft.TaxPercent = d("10")
	draft.DiscountPercent = d("5")

	if got := draft.Subtotal(); !got.Equal(d("9.00")) {
		t.Fatalf("Subtotal = %s, want 9.00", got)
	}
	if got := draft.GrandTotal(); !got.Equal(d("9.45")) {
		t.Fatalf("GrandTotal = %s, want 9.45", got)
	}
}

func TestDraftOrderGrandTotalWithoutCharges(t *testing.T) {
	draft := NewDraftOrder(1)
	draft.Lines[1] = &DraftLine{MenuItemID: 1, Name: "Coca Cola", UnitPrice: d("1.20"), Quantity: 2}
	draft.Lines[2] = &DraftLine{MenuItemID: 2, Name: "Fried Rice", UnitPrice: d("2.50"), Quantity: 1}

	sub := draft.Subtotal()
	if !sub.Equal(d("4.90")) {
		t.Fatalf("Subtotal = %s, want 4.90", sub)
	}
	if got := draft.GrandTotal(); !got.Equal(sub) {
		t.Fatalf("GrandTotal = %s, want subtotal %s when tax and discount are zero", got, sub)
	}
}
