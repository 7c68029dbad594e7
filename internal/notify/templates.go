package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

type itemView struct {
	Name  string
	Price string
}

type messageView struct {
	OrderID        string
	PaymentID      string
	ShortPaymentID string
	Customer       domain.CustomerDetails
	Address        string
	Items          []itemView
	Total          string
}

func eventView(ev domain.NotificationEvent) messageView {
	return newView(ev.OrderID, ev.PaymentID, ev.ShortPaymentID(), ev.Customer, ev.Items, ev.Total, ev.Currency)
}

func recordView(rec *domain.OrderRecord) messageView {
	var paymentID string
	if rec.PaymentID != nil {
		paymentID = *rec.PaymentID
	}
	return newView(rec.ID, paymentID, domain.ShortID(paymentID), rec.Customer, rec.Items, rec.Total, rec.Currency)
}

func newView(
	orderID, paymentID, shortID string,
	customer domain.CustomerDetails,
	items []domain.CartItem,
	total decimal.Decimal,
	currency string,
) messageView {
	v := messageView{
		OrderID:        orderID,
		PaymentID:      paymentID,
		ShortPaymentID: shortID,
		Customer:       customer,
		Address:        customer.FullAddress(),
		Total:          FormatMoney(total, currency),
	}
	for _, item := range items {
		v.Items = append(v.Items, itemView{Name: item.Name, Price: FormatMoney(item.Price, currency)})
	}
	return v
}

// FormatMoney renders a major-unit amount with two decimals.
func FormatMoney(amount decimal.Decimal, currency string) string {
	switch currency {
	case "", "INR":
		return "₹" + amount.StringFixed(2)
	default:
		return currency + " " + amount.StringFixed(2)
	}
}

func render(name string, data messageView) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
