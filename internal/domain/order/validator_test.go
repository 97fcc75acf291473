package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validRequest() CheckoutRequest {
	return CheckoutRequest{
		Name:  "Rahim Uddin",
		Phone: "01712345678",
		Type:  "takeout",
		Items: []LineItem{
			{ItemID: "p1", Name: "Burger", Price: d("250"), Quantity: 2},
		},
		DeclaredTotal: d("500"),
	}
}

func TestValidate_OK(t *testing.T) {
	v, errs := Validate(validRequest())
	require.Empty(t, errs)
	require.NotNil(t, v)
	assert.Equal(t, TypeTakeout, v.Fulfillment.OrderType())
	assert.True(t, d("500").Equal(v.Total))
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CheckoutRequest)
		field  string
	}{
		{"empty name", func(r *CheckoutRequest) { r.Name = "  " }, "name"},
		{"short phone", func(r *CheckoutRequest) { r.Phone = "0171234" }, "phone"},
		{"unknown type", func(r *CheckoutRequest) { r.Type = "drive-thru" }, "orderType"},
		{"dine-in without table", func(r *CheckoutRequest) { r.Type = "dine-in" }, "tableNumber"},
		{"delivery without address", func(r *CheckoutRequest) { r.Type = "delivery" }, "address"},
		{"empty cart", func(r *CheckoutRequest) { r.Items = nil }, "cart"},
		{"zero quantity", func(r *CheckoutRequest) { r.Items[0].Quantity = 0 }, "cart"},
		{"negative price", func(r *CheckoutRequest) { r.Items[0].Price = d("-1") }, "cart"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			v, errs := Validate(req)
			assert.Nil(t, v)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestValidate_DineInWithTable(t *testing.T) {
	req := validRequest()
	req.Type = "dine-in"
	req.Table = "T4"

	v, errs := Validate(req)
	require.Empty(t, errs)
	assert.Equal(t, DineIn{Table: "T4"}, v.Fulfillment)
}

func TestValidate_DeliveryWithAddress(t *testing.T) {
	req := validRequest()
	req.Type = "delivery"
	req.Address = "12 Lake Road, Dhanmondi"

	v, errs := Validate(req)
	require.Empty(t, errs)
	assert.Equal(t, Delivery{Address: "12 Lake Road, Dhanmondi"}, v.Fulfillment)
}

func TestValidate_TotalMismatchRejected(t *testing.T) {
	req := validRequest()
	req.DeclaredTotal = d("450") // client claims a cheaper cart

	v, errs := Validate(req)
	assert.Nil(t, v)
	assert.Contains(t, errs, "total")
}

func TestValidate_TotalWithinTolerance(t *testing.T) {
	req := validRequest()
	req.LoyaltyEligible = true
	// 500 * 0.85 = 425 exactly; a client that rounded slightly differently
	// is still accepted.
	req.DeclaredTotal = d("426")

	v, errs := Validate(req)
	require.Empty(t, errs)
	assert.True(t, d("425").Equal(v.Total), "server total wins over declared")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	req := CheckoutRequest{Type: "delivery"}
	_, errs := Validate(req)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "phone")
	assert.Contains(t, errs, "address")
	assert.Contains(t, errs, "cart")
}
