package main

import (
	"sync"

	"github.com/google/uuid"
)

const customProductName = "Custom Frame"

type LineItem struct {
	ID          string      `json:"id"`
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	Asset       RasterAsset `json:"asset"`
	Format      string      `json:"format"`
	PaperType   string      `json:"paper_type"`
	ProjectName string      `json:"project_name"`
	Price       float64     `json:"price"`
	Quantity    int         `json:"quantity"`
}

func (i LineItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// LineItemInput is everything the pipeline knows when it commits an asset.
type LineItemInput struct {
	ProductID   string
	ProductName string
	Asset       RasterAsset
	Format      string
	PaperType   string
	ProjectName string
	Price       float64
}

// CartWriter is the only part of the cart the customization view needs.
type CartWriter interface {
	AddLineItem(in LineItemInput) string
}

type Cart struct {
	items []LineItem
	mu    sync.RWMutex
}

func NewCart() *Cart {
	return &Cart{}
}

// AddLineItem appends a new line with quantity 1 and returns its id.
func (c *Cart) AddLineItem(in LineItemInput) string {
	item := LineItem{
		ID:          uuid.NewString(),
		ProductID:   in.ProductID,
		ProductName: in.ProductName,
		Asset:       in.Asset.Clone(),
		Format:      in.Format,
		PaperType:   in.PaperType,
		ProjectName: in.ProjectName,
		Price:       in.Price,
		Quantity:    1,
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
	return item.ID
}

func (c *Cart) RemoveLineItem(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// SetQuantity changes the quantity of a line. A quantity below 1 removes it.
func (c *Cart) SetQuantity(id string, qty int) bool {
	if qty < 1 {
		return c.RemoveLineItem(id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = qty
			return true
		}
	}
	return false
}

func (c *Cart) Items() []LineItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]LineItem(nil), c.items...)
}

func (c *Cart) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items) == 0
}

func (c *Cart) TotalPrice() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total float64
	for _, item := range c.items {
		total += item.Subtotal()
	}
	return total
}

func (c *Cart) TotalItems() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
