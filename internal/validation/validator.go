package validation

import (
	"fmt"
	"math"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	return v
}

// createOrderStructValidation checks what field tags cannot: the claimed total
// matches the item sum (compared in cents to dodge float rounding), and the
// chosen notification method has a matching contact address to deliver to.
func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	var sum float64
	for _, it := range req.Items {
		sum += float64(it.Quantity) * it.PricePerUnit
	}

	sumCents := int(math.Round(sum * 100))
	totalCents := int(math.Round(req.Total * 100))
	if sumCents != totalCents {
		sl.ReportError(req.Total, "total", "Total", "total_match_items", fmt.Sprintf("items sum %.2f != total %.2f", sum, req.Total))
	}

	switch req.NotificationMethod {
	case "sms":
		if req.CustomerPhone == "" {
			sl.ReportError(req.CustomerPhone, "customerPhone", "CustomerPhone", "required_for_sms", "")
		}
	case "email":
		if req.CustomerEmail == "" {
			sl.ReportError(req.CustomerEmail, "customerEmail", "CustomerEmail", "required_for_email", "")
		}
	}
}
