package order

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/pricing"
)

// totalTolerance is the maximum accepted gap between the client-declared
// total and the independently computed one: one whole currency unit, covering
// client-side rounding. Anything larger is treated as tampering or pricing
// drift and rejected outright, never silently corrected.
var totalTolerance = decimal.NewFromInt(1)

const minPhoneDigits = 11

// CheckoutRequest is the raw checkout input as received from the caller.
type CheckoutRequest struct {
	Name    string
	Phone   string
	Address string
	Table   string
	Type    string

	Items         []LineItem
	DeclaredTotal decimal.Decimal
	// LoyaltyEligible is decided by the caller (verified loyalty status);
	// the pipeline only applies the discount.
	LoyaltyEligible bool
}

// ValidatedOrder is a checkout request that passed every rule. Total is the
// server-computed amount, discount already applied.
type ValidatedOrder struct {
	Name        string
	Phone       string
	Address     string
	Fulfillment Fulfillment
	Items       []LineItem
	Total       decimal.Decimal
}

// Validate enforces the order schema and cross-field rules before anything is
// persisted. It returns either a fully validated order or every violation
// found; there is no partial success.
func Validate(req CheckoutRequest) (*ValidatedOrder, FieldErrors) {
	errs := FieldErrors{}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs.add("name", "Name is required")
	}
	if len(digitsOf(req.Phone)) < minPhoneDigits {
		errs.add("phone", "Phone must be at least 11 digits")
	}

	var fulfillment Fulfillment
	switch Type(req.Type) {
	case TypeDineIn:
		if strings.TrimSpace(req.Table) == "" {
			errs.add("tableNumber", "Table number is required for dine-in")
		} else {
			fulfillment = DineIn{Table: strings.TrimSpace(req.Table)}
		}
	case TypeTakeout:
		fulfillment = Takeout{}
	case TypeDelivery:
		if strings.TrimSpace(req.Address) == "" {
			errs.add("address", "Address is required for delivery")
		} else {
			fulfillment = Delivery{Address: strings.TrimSpace(req.Address)}
		}
	default:
		errs.add("orderType", "Order type must be dine-in, takeout or delivery")
	}

	if len(req.Items) == 0 {
		errs.add("cart", "Cart cannot be empty")
	}
	lines := make([]pricing.Line, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity < 1 {
			errs.add("cart", "Quantity must be at least 1 for "+item.Name)
		}
		if item.Price.IsNegative() {
			errs.add("cart", "Price cannot be negative for "+item.Name)
		}
		lines = append(lines, pricing.Line{Price: item.Price, Quantity: item.Quantity})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	// Recompute the total independently; the declared total must agree
	// within rounding tolerance.
	total := pricing.ApplyLoyaltyDiscount(pricing.Total(lines), req.LoyaltyEligible)
	if req.DeclaredTotal.Sub(total).Abs().GreaterThan(totalTolerance) {
		errs.add("total", "Declared total does not match the computed total")
		return nil, errs
	}

	return &ValidatedOrder{
		Name:        name,
		Phone:       req.Phone,
		Address:     strings.TrimSpace(req.Address),
		Fulfillment: fulfillment,
		Items:       req.Items,
		Total:       total,
	}, nil
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
