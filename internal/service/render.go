package service

import (
	"bytes"
	"fmt"

	"agritrade/internal/model"
)

// DocumentRenderer produces the printable contract document. Rendering
// mechanics are pluggable; the service only hashes and stores whatever
// bytes come back.
type DocumentRenderer interface {
	Render(contract *model.Contract, buyerName, sellerName string) ([]byte, error)
}

// TextRenderer is the default renderer. Output is deterministic for a given
// contract so the stored hash stays stable across renders.
type TextRenderer struct{}

func (TextRenderer) Render(c *model.Contract, buyerName, sellerName string) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "PURCHASE CONTRACT %s\n\n", c.ContractNo)
	fmt.Fprintf(&buf, "Buyer: %s\n", orDash(buyerName))
	fmt.Fprintf(&buf, "Seller: %s\n", orDash(sellerName))
	fmt.Fprintf(&buf, "Product: %s\n", orDash(c.ProductName))
	fmt.Fprintf(&buf, "Quantity: %s %s\n", c.Quantity.String(), orDash(c.Unit))
	fmt.Fprintf(&buf, "Unit Price: %s\n", c.UnitPrice.String())
	fmt.Fprintf(&buf, "Total Amount: %s\n", c.TotalAmount.String())
	fmt.Fprintf(&buf, "Delivery: %s\n", orDash(c.DeliveryAddress))
	if c.DeliveryDate != nil {
		fmt.Fprintf(&buf, "Delivery Date: %s\n", c.DeliveryDate.Format("2006-01-02"))
	} else {
		fmt.Fprintf(&buf, "Delivery Date: -\n")
	}
	fmt.Fprintf(&buf, "Payment: %s\n", orDash(c.PaymentMethod))
	return buf.Bytes(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
