package woocommerce

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pressroomhq/printdesk-backend/pkg/errors"
)

// RemoteOrder is the validated shape extracted from the WooCommerce payload.
// The raw JSON never crosses this boundary; malformed payloads are rejected
// here instead of leaking loosely typed data into the rule engine.
type RemoteOrder struct {
	ID         int64
	Number     string
	Status     string
	CustomerID int64
	Customer   RemoteCustomer
	Items      []RemoteLineItem
	CreatedAt  time.Time
}

type RemoteCustomer struct {
	Name  string
	Email string
	Phone string
}

type RemoteLineItem struct {
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Meta        map[string]string
}

// wireOrder mirrors the WooCommerce REST v3 order document.
type wireOrder struct {
	ID          int64          `json:"id"`
	Number      string         `json:"number"`
	Status      string         `json:"status"`
	CustomerID  int64          `json:"customer_id"`
	DateCreated string         `json:"date_created_gmt"`
	Billing     wireBilling    `json:"billing"`
	LineItems   []wireLineItem `json:"line_items"`
}

type wireBilling struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type wireLineItem struct {
	Name     string     `json:"name"`
	Quantity int        `json:"quantity"`
	Price    any        `json:"price"`
	MetaData []wireMeta `json:"meta_data"`
}

type wireMeta struct {
	DisplayKey   string `json:"display_key"`
	DisplayValue any    `json:"display_value"`
}

func (w wireOrder) toRemoteOrder() (*RemoteOrder, error) {
	if w.ID <= 0 {
		return nil, errors.New(errors.CodeValidation, "woocommerce payload missing order id")
	}
	if strings.TrimSpace(w.Number) == "" {
		return nil, errors.New(errors.CodeValidation, "woocommerce payload missing order number")
	}
	if len(w.LineItems) == 0 {
		return nil, errors.New(errors.CodeValidation, "woocommerce order has no line items")
	}

	order := &RemoteOrder{
		ID:         w.ID,
		Number:     strings.TrimSpace(w.Number),
		Status:     w.Status,
		CustomerID: w.CustomerID,
		Customer: RemoteCustomer{
			Name:  strings.TrimSpace(w.Billing.FirstName + " " + w.Billing.LastName),
			Email: strings.TrimSpace(w.Billing.Email),
			Phone: strings.TrimSpace(w.Billing.Phone),
		},
	}
	if order.Customer.Name == "" {
		order.Customer.Name = "WooCommerce customer"
	}
	if w.DateCreated != "" {
		if created, err := time.Parse("2006-01-02T15:04:05", w.DateCreated); err == nil {
			order.CreatedAt = created.UTC()
		}
	}

	for _, line := range w.LineItems {
		item, err := line.toRemoteLineItem()
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	return order, nil
}

func (w wireLineItem) toRemoteLineItem() (RemoteLineItem, error) {
	if strings.TrimSpace(w.Name) == "" {
		return RemoteLineItem{}, errors.New(errors.CodeValidation, "woocommerce line item missing product name")
	}
	quantity := w.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	item := RemoteLineItem{
		ProductName: strings.TrimSpace(w.Name),
		Quantity:    quantity,
		UnitPrice:   parsePrice(w.Price),
		Meta:        map[string]string{},
	}
	for _, meta := range w.MetaData {
		key := strings.TrimSpace(meta.DisplayKey)
		if key == "" {
			continue
		}
		if value, ok := meta.DisplayValue.(string); ok && strings.TrimSpace(value) != "" {
			item.Meta[key] = strings.TrimSpace(value)
		}
	}
	return item, nil
}

// parsePrice tolerates the API returning prices as either numbers or strings.
func parsePrice(raw any) decimal.Decimal {
	switch value := raw.(type) {
	case string:
		if parsed, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	case float64:
		return decimal.NewFromFloat(value)
	}
	return decimal.Zero
}
