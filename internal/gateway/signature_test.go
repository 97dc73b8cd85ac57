package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignature(t *testing.T) {
	t.Run("known vectors", func(t *testing.T) {
		// hex(HMAC-SHA256("O1|P1", "S"))
		assert.Equal(t,
			"ef4d0829667a3e0bb91e3c6b6bafdd17035694be0cff91ab24b74c1fcdf2f48c",
			Signature("O1", "P1", "S"))
		assert.Equal(t,
			"86871e458eb7e79a43d11da37da3c065da8b3f56d1e96ef3c3b977e483b154e2",
			Signature("order_abc123", "pay_xyz789", "test_secret"))
	})

	t.Run("round trip", func(t *testing.T) {
		sig := Signature("order_1", "pay_1", "secret")
		assert.True(t, VerifySignature("order_1", "pay_1", sig, "secret"))
	})

	t.Run("rejects tampering", func(t *testing.T) {
		sig := Signature("order_1", "pay_1", "secret")
		assert.False(t, VerifySignature("order_2", "pay_1", sig, "secret"))
		assert.False(t, VerifySignature("order_1", "pay_2", sig, "secret"))
		assert.False(t, VerifySignature("order_1", "pay_1", sig, "wrong"))
		assert.False(t, VerifySignature("order_1", "pay_1", "", "secret"))
		assert.False(t, VerifySignature("order_1", "pay_1", "not-hex", "secret"))
	})
}

func TestFakeGateway(t *testing.T) {
	ctx := context.Background()
	g := NewFakeGateway()

	t.Run("create order", func(t *testing.T) {
		o, err := g.CreateOrder(ctx, 10000, "INR", "booking_1", nil)
		assert.NoError(t, err)
		assert.Contains(t, o.ID, "order_")
		assert.Equal(t, int64(10000), o.Amount)
		assert.Equal(t, "INR", o.Currency)
		assert.Len(t, g.Orders(), 1)
	})

	t.Run("fail next", func(t *testing.T) {
		g.FailNext = true
		_, err := g.CreateOrder(ctx, 500, "INR", "booking_2", nil)
		assert.Error(t, err)
		// flag resets after one failure
		_, err = g.CreateOrder(ctx, 500, "INR", "booking_2", nil)
		assert.NoError(t, err)
	})

	t.Run("refund", func(t *testing.T) {
		r, err := g.Refund(ctx, "pay_1", 10000)
		assert.NoError(t, err)
		assert.Equal(t, "processed", r.Status)
		got, ok := g.RefundFor("pay_1")
		assert.True(t, ok)
		assert.Equal(t, int64(10000), got.Amount)
	})
}
