package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type DeliveryType string

const (
	DeliveryHome   DeliveryType = "delivery"
	DeliveryPickup DeliveryType = "pickup"
)

const (
	homeDeliveryCost = 5.0
	deliveryDays     = 7
)

func (d DeliveryType) ShippingCost() float64 {
	if d == DeliveryHome {
		return homeDeliveryCost
	}
	return 0
}

type CustomerInfo struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	DNI        string `json:"dni"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type CheckoutForm struct {
	CustomerInfo
	DeliveryType DeliveryType `json:"delivery_type"`
}

func (f CheckoutForm) Validate() error {
	if blank(f.FullName) || blank(f.Phone) || blank(f.DNI) {
		return invalid("customer", "full name, phone and DNI are required")
	}
	switch f.DeliveryType {
	case DeliveryHome:
		if blank(f.Address) || blank(f.City) {
			return invalid("address", "address and city are required for home delivery")
		}
	case DeliveryPickup:
	default:
		return invalid("delivery_type", fmt.Sprintf("unknown delivery type %q", f.DeliveryType))
	}
	return nil
}

// CheckoutStagingRecord is what survives a reload between checkout and payment.
type CheckoutStagingRecord struct {
	CustomerInfo
	DeliveryType DeliveryType `json:"delivery_type"`
	Total        float64      `json:"total"`
}

type CardDetails struct {
	Number string `json:"card_number"`
	Name   string `json:"card_name"`
	Expiry string `json:"expiry_date"`
	CVV    string `json:"cvv"`
}

func (c CardDetails) Validate() error {
	if blank(c.Number) || blank(c.Name) || blank(c.Expiry) || blank(c.CVV) {
		return invalid("card", "all card fields are required")
	}
	return nil
}

type PaymentSummary struct {
	Record       CheckoutStagingRecord `json:"checkout"`
	Items        []LineItem            `json:"items"`
	Subtotal     float64               `json:"subtotal"`
	ShippingCost float64               `json:"shipping_cost"`
	Total        float64               `json:"total"`
}

// Checkout drives the cart → checkout → payment → order stages.
type Checkout struct {
	cart   *Cart
	orders *Orders
	slot   *CheckoutSlot
	now    func() time.Time
}

func NewCheckout(cart *Cart, orders *Orders, slot *CheckoutSlot) *Checkout {
	return &Checkout{cart: cart, orders: orders, slot: slot, now: time.Now}
}

// Submit validates the form and persists the staging record for payment. An
// empty cart yields ErrMissingStaging so the caller sends the user to the cart.
func (c *Checkout) Submit(ctx context.Context, form CheckoutForm) (CheckoutStagingRecord, error) {
	if c.cart.Empty() {
		return CheckoutStagingRecord{}, fmt.Errorf("%w: cart is empty", ErrMissingStaging)
	}
	if err := form.Validate(); err != nil {
		return CheckoutStagingRecord{}, err
	}

	rec := CheckoutStagingRecord{
		CustomerInfo: form.CustomerInfo,
		DeliveryType: form.DeliveryType,
		Total:        c.cart.TotalPrice() + form.DeliveryType.ShippingCost(),
	}
	if err := c.slot.Save(rec); err != nil {
		return CheckoutStagingRecord{}, err
	}
	log.Ctx(ctx).Info().
		Str("delivery", string(rec.DeliveryType)).
		Float64("total", rec.Total).
		Msg("checkout submitted")
	return rec, nil
}

// Payment loads what the payment view shows.
func (c *Checkout) Payment() (PaymentSummary, error) {
	rec, err := c.slot.Load()
	if err != nil {
		return PaymentSummary{}, err
	}
	if c.cart.Empty() {
		return PaymentSummary{}, fmt.Errorf("%w: cart is empty", ErrMissingStaging)
	}
	return PaymentSummary{
		Record:       rec,
		Items:        c.cart.Items(),
		Subtotal:     c.cart.TotalPrice(),
		ShippingCost: rec.DeliveryType.ShippingCost(),
		Total:        rec.Total,
	}, nil
}

// Pay simulates a successful charge, creates the order, then empties the cart
// and deletes the staging record.
func (c *Checkout) Pay(ctx context.Context, card CardDetails) (Order, error) {
	summary, err := c.Payment()
	if err != nil {
		return Order{}, err
	}
	if err := card.Validate(); err != nil {
		return Order{}, err
	}

	id := c.orders.Create(NewOrder{
		Items:                 summary.Items,
		Customer:              summary.Record.CustomerInfo,
		DeliveryType:          summary.Record.DeliveryType,
		Subtotal:              summary.Subtotal,
		ShippingCost:          summary.ShippingCost,
		Total:                 summary.Total,
		Status:                StatusProcessing,
		EstimatedDeliveryDate: c.now().AddDate(0, 0, deliveryDays),
	})
	c.cart.Clear()
	if err := c.slot.Clear(); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("order_id", id).Msg("failed to clear checkout record")
	}

	order, _ := c.orders.Get(id)
	log.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Float64("total", order.Total).
		Msg("order created")
	return order, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
