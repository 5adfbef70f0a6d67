package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

type OrderStatus string

const (
	StatusProcessing    OrderStatus = "processing"
	StatusInPreparation OrderStatus = "in-preparation"
	StatusReady         OrderStatus = "ready"
	StatusDelivered     OrderStatus = "delivered"
)

type Order struct {
	ID                    string       `json:"id"`
	OrderNumber           string       `json:"order_number"`
	Items                 []LineItem   `json:"items"`
	Customer              CustomerInfo `json:"customer"`
	DeliveryType          DeliveryType `json:"delivery_type"`
	Subtotal              float64      `json:"subtotal"`
	ShippingCost          float64      `json:"shipping_cost"`
	Total                 float64      `json:"total"`
	Status                OrderStatus  `json:"status"`
	CreatedAt             time.Time    `json:"created_at"`
	EstimatedDeliveryDate time.Time    `json:"estimated_delivery_date"`
}

// NewOrder holds the fields the caller decides; id, number and creation time
// are assigned by Orders.
type NewOrder struct {
	Items                 []LineItem
	Customer              CustomerInfo
	DeliveryType          DeliveryType
	Subtotal              float64
	ShippingCost          float64
	Total                 float64
	Status                OrderStatus
	EstimatedDeliveryDate time.Time
}

type Orders struct {
	orders []Order
	mu     sync.RWMutex
	now    func() time.Time
}

func NewOrders() *Orders {
	return &Orders{now: time.Now}
}

func (o *Orders) Create(in NewOrder) string {
	order := Order{
		ID:                    uuid.NewString(),
		OrderNumber:           orderNumber(),
		Items:                 append([]LineItem(nil), in.Items...),
		Customer:              in.Customer,
		DeliveryType:          in.DeliveryType,
		Subtotal:              in.Subtotal,
		ShippingCost:          in.ShippingCost,
		Total:                 in.Total,
		Status:                in.Status,
		CreatedAt:             o.now(),
		EstimatedDeliveryDate: in.EstimatedDeliveryDate,
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orders = append([]Order{order}, o.orders...)
	return order.ID
}

func (o *Orders) Get(id string) (Order, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, order := range o.orders {
		if order.ID == id {
			return order, true
		}
	}
	return Order{}, false
}

// List returns the orders newest first.
func (o *Orders) List() []Order {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]Order(nil), o.orders...)
}

// orderNumber looks like "#KQZ0427".
func orderNumber() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, 3)
	for i := range b {
		b[i] = letters[rand.IntN(len(letters))]
	}
	return fmt.Sprintf("#%s%04d", b, rand.IntN(10000))
}

// OrderLineRow is one exported row: an order line flattened with its order.
type OrderLineRow struct {
	OrderID      string  `parquet:"order_id"`
	OrderNumber  string  `parquet:"order_number"`
	CreatedAtMs  int64   `parquet:"created_at_ms"`
	Status       string  `parquet:"status"`
	DeliveryType string  `parquet:"delivery_type"`
	Customer     string  `parquet:"customer"`
	ProjectName  string  `parquet:"project_name"`
	Format       string  `parquet:"format"`
	PaperType    string  `parquet:"paper_type"`
	Quantity     int64   `parquet:"quantity"`
	UnitPrice    float64 `parquet:"unit_price"`
	OrderTotal   float64 `parquet:"order_total"`
	AssetBytes   int64   `parquet:"asset_bytes"`
}

// WriteParquet exports every order line as a parquet file.
func (o *Orders) WriteParquet(w io.Writer) (int, error) {
	var rows []OrderLineRow
	for _, order := range o.List() {
		for _, item := range order.Items {
			rows = append(rows, OrderLineRow{
				OrderID:      order.ID,
				OrderNumber:  order.OrderNumber,
				CreatedAtMs:  order.CreatedAt.UnixMilli(),
				Status:       string(order.Status),
				DeliveryType: string(order.DeliveryType),
				Customer:     order.Customer.FullName,
				ProjectName:  item.ProjectName,
				Format:       item.Format,
				PaperType:    item.PaperType,
				Quantity:     int64(item.Quantity),
				UnitPrice:    item.Price,
				OrderTotal:   order.Total,
				AssetBytes:   int64(item.Asset.Len()),
			})
		}
	}

	pw := parquet.NewGenericWriter[OrderLineRow](w)
	n, err := pw.Write(rows)
	if err != nil {
		return n, fmt.Errorf("failed to write order rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return n, fmt.Errorf("failed to finish parquet export: %w", err)
	}
	return n, nil
}
