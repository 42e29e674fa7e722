package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMarketplaceMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMarketplaceMetrics(reg)
	m.AddOrdersCreated(2)
	m.AddOrdersCreated(0)
	m.IncCheckoutFailure("CONFLICT")
	m.IncTransition("pending", "confirmed")
	m.IncTransition("pending", "confirmed")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "farmconnect_checkout_orders_total", "", ""); err != nil || got != 2 {
		t.Fatalf("expected 2 orders, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "farmconnect_checkout_failures_total", "code", "CONFLICT"); err != nil || got != 1 {
		t.Fatalf("expected 1 conflict failure, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "farmconnect_order_status_transitions_total", "to", "confirmed"); err != nil || got != 2 {
		t.Fatalf("expected 2 transitions, got %f (%v)", got, err)
	}
}
