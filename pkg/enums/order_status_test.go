package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusRefunded, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusRefunded, true},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatusRefunded, OrderStatusDelivered, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	t.Parallel()

	if !OrderStatusCancelled.IsTerminal() || !OrderStatusRefunded.IsTerminal() {
		t.Fatalf("cancelled and refunded should be terminal")
	}
	if OrderStatusPending.IsTerminal() {
		t.Fatalf("pending should not be terminal")
	}
}

func TestParseOrderStatus(t *testing.T) {
	t.Parallel()

	status, err := ParseOrderStatus("shipped")
	if err != nil || status != OrderStatusShipped {
		t.Fatalf("expected shipped, got %q err=%v", status, err)
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatalf("expected invalid status error")
	}
}

func TestParseItemSortDefaults(t *testing.T) {
	t.Parallel()

	sort, err := ParseItemSort("")
	if err != nil || sort != ItemSortDisplayOrder {
		t.Fatalf("expected display order default, got %q err=%v", sort, err)
	}
	if _, err := ParseItemSort("random"); err == nil {
		t.Fatalf("expected invalid sort error")
	}
}
