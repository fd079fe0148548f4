package domain

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Any sequence of fills and cancels keeps 0 <= filled <= quantity and never
// leaves a terminal state.
func TestProperty_OrderStateMachineTotality(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		qty := rapid.Int64Range(1, 1000).Draw(t, "qty")
		o := &Order{Quantity: qty, Status: OrderStatusPending}

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			before := o.Status
			if rapid.IntRange(0, 9).Draw(t, fmt.Sprintf("op-%d", i)) == 0 {
				_ = o.Cancel(time.Now())
			} else {
				_ = o.Fill(rapid.Int64Range(-5, qty+5).Draw(t, fmt.Sprintf("fill-%d", i)))
			}

			if o.FilledQuantity < 0 || o.FilledQuantity > o.Quantity {
				t.Fatalf("filled %d out of [0, %d]", o.FilledQuantity, o.Quantity)
			}
			if before.IsTerminal() && o.Status != before {
				t.Fatalf("transition out of terminal state %s to %s", before, o.Status)
			}
			if o.Status == OrderStatusFilled && o.Remaining() != 0 {
				t.Fatalf("FILLED with remaining %d", o.Remaining())
			}
			if o.Status == OrderStatusPending && o.FilledQuantity != 0 {
				t.Fatalf("PENDING with filled %d", o.FilledQuantity)
			}
		}
	})
}
