package events

import (
	"github.com/go-faster/jx"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/order"
)

// Encode renders the wire frame pushed to dashboard sockets and mirrored to
// the broker sink.
func Encode(e Event) []byte {
	var enc jx.Encoder
	enc.Obj(func(enc *jx.Encoder) {
		enc.Field("type", func(enc *jx.Encoder) { enc.Str(string(e.Type)) })
		enc.Field("at", func(enc *jx.Encoder) { enc.Str(e.At.Format("2006-01-02T15:04:05.000Z07:00")) })
		enc.Field("order", func(enc *jx.Encoder) { encodeOrder(enc, e.Order) })
	})
	return enc.Bytes()
}

func encodeOrder(enc *jx.Encoder, o *order.WithCustomer) {
	enc.Obj(func(enc *jx.Encoder) {
		enc.Field("id", func(enc *jx.Encoder) { enc.Str(o.ID) })
		enc.Field("customer_id", func(enc *jx.Encoder) { enc.Str(o.CustomerID) })
		enc.Field("status", func(enc *jx.Encoder) { enc.Str(string(o.Status)) })
		enc.Field("order_type", func(enc *jx.Encoder) { enc.Str(string(o.Fulfillment.OrderType())) })
		switch f := o.Fulfillment.(type) {
		case order.DineIn:
			enc.Field("table_number", func(enc *jx.Encoder) { enc.Str(f.Table) })
		case order.Delivery:
			enc.Field("delivery_address", func(enc *jx.Encoder) { enc.Str(f.Address) })
		}
		enc.Field("total_amount", func(enc *jx.Encoder) { enc.Num(jx.Num(o.Total.String())) })
		enc.Field("created_at", func(enc *jx.Encoder) { enc.Str(o.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00")) })
		enc.Field("items", func(enc *jx.Encoder) {
			enc.Arr(func(enc *jx.Encoder) {
				for _, item := range o.Items {
					enc.Obj(func(enc *jx.Encoder) {
						enc.Field("id", func(enc *jx.Encoder) { enc.Str(item.ItemID) })
						enc.Field("name", func(enc *jx.Encoder) { enc.Str(item.Name) })
						enc.Field("price", func(enc *jx.Encoder) { enc.Num(jx.Num(item.Price.String())) })
						enc.Field("quantity", func(enc *jx.Encoder) { enc.Int(item.Quantity) })
					})
				}
			})
		})
		enc.Field("customer", func(enc *jx.Encoder) {
			enc.Obj(func(enc *jx.Encoder) {
				enc.Field("name", func(enc *jx.Encoder) { enc.Str(o.Customer.Name) })
				enc.Field("phone", func(enc *jx.Encoder) { enc.Str(o.Customer.Phone) })
				enc.Field("visit_count", func(enc *jx.Encoder) { enc.Int(o.Customer.VisitCount) })
				enc.Field("total_spend", func(enc *jx.Encoder) { enc.Num(jx.Num(o.Customer.TotalSpend.String())) })
			})
		})
	})
}
