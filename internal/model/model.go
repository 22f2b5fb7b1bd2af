// Package model содержит доменные сущности системы управления рестораном.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User представляет учётную запись сотрудника ресторана.
type User struct {
	ID           int64
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// MenuItem описывает позицию меню.
type MenuItem struct {
	ID        int64
	Name      string
	UnitPrice decimal.Decimal
	Image     string
}

// Table описывает столик в зале. Номер столика — уникальный ключ.
type Table struct {
	Number      int
	Description string
}

// Reservation описывает бронирование одного или нескольких столиков.
type Reservation struct {
	ID           int64
	Tables       []int
	CustomerName string
	Phone        string
	StartTime    time.Time
	EndTime      time.Time
}

// OrderLine — одна сохранённая позиция заказа, привязанная к столику,
// а после выставления счёта — к инвойсу.
type OrderLine struct {
	ID              int64
	TableNumber     int
	MenuItemID      int64
	Quantity        int
	TaxPercent      decimal.Decimal
	DiscountPercent decimal.Decimal
	CreatedAt       time.Time
	IsOpen          bool
	InvoiceID       *int64
}

// Invoice — консолидация открытых позиций заказа столика в один счёт.
// Аннулирование только снимает флаг IsOpen, строки заказа не удаляются.
type Invoice struct {
	ID        int64
	CreatedAt time.Time
	IsOpen    bool
}

// InvoiceLine — строка счёта: позиция заказа вместе с названием и ценой блюда.
type InvoiceLine struct {
	OrderID         int64
	TableNumber     int
	CreatedAt       time.Time
	MenuName        string
	UnitPrice       decimal.Decimal
	Quantity        int
	TaxPercent      decimal.Decimal
	DiscountPercent decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// LineTotal вычисляет стоимость строки:
// quantity × unit_price × (1 + tax/100 − discount/100).
// Итоги нигде не кэшируются и всегда пересчитываются по текущим строкам.
func LineTotal(unitPrice decimal.Decimal, quantity int, taxPercent, discountPercent decimal.Decimal) decimal.Decimal {
	base := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return base.
		Add(base.Mul(taxPercent).Div(hundred)).
		Sub(base.Mul(discountPercent).Div(hundred))
}

// Total вычисляет стоимость строки счёта по её текущим полям.
func (l InvoiceLine) Total() decimal.Decimal {
	return LineTotal(l.UnitPrice, l.Quantity, l.TaxPercent, l.DiscountPercent)
}

// DraftLine — позиция черновика заказа. Название и цена фиксируются
// в момент первого добавления, последующие изменения меню на них не влияют.
type DraftLine struct {
	MenuItemID int64
	Name       string
	UnitPrice  decimal.Decimal
	Quantity   int
}

// DraftOrder — черновик заказа столика. Существует только в памяти
// до подтверждения или явной очистки, в хранилище не попадает.
type DraftOrder struct {
	TableNumber     int
	Lines           map[int64]*DraftLine
	TaxPercent      decimal.Decimal
	DiscountPercent decimal.Decimal
}

// NewDraftOrder создаёт пустой черновик для указанного столика.
func NewDraftOrder(tableNumber int) *DraftOrder {
	return &DraftOrder{
		TableNumber: tableNumber,
		Lines:       make(map[int64]*DraftLine),
	}
}

// Subtotal возвращает сумму позиций черновика без налога и скидки.
func (d *DraftOrder) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range d.Lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// GrandTotal возвращает итог черновика с учётом налога и скидки:
// subtotal + subtotal×tax/100 − subtotal×discount/100.
func (d *DraftOrder) GrandTotal() decimal.Decimal {
	sub := d.Subtotal()
	return sub.
		Add(sub.Mul(d.TaxPercent).Div(hundred)).
		Sub(sub.Mul(d.DiscountPercent).Div(hundred))
}
