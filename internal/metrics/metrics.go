package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the order engine's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ordersCreated      *prometheus.CounterVec
	couponRedemptions  *prometheus.CounterVec
	entitlementsGrant  prometheus.Counter
	statusTransitions  *prometheus.CounterVec
	checkoutRejections *prometheus.CounterVec
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseshop_orders_created_total",
			Help: "Orders created, by initial status.",
		}, []string{"status"}),
		couponRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseshop_coupon_redemptions_total",
			Help: "Coupon redemption attempts at checkout, by outcome.",
		}, []string{"outcome"}),
		entitlementsGrant: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courseshop_entitlements_granted_total",
			Help: "Entitlement rows inserted.",
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseshop_order_status_transitions_total",
			Help: "Order status writes, by target status.",
		}, []string{"to"}),
		checkoutRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseshop_checkout_rejections_total",
			Help: "Checkouts rejected before any write, by reason.",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.ordersCreated, m.couponRedemptions, m.entitlementsGrant, m.statusTransitions, m.checkoutRejections)
	}
	return m
}

func (m *Metrics) OrderCreated(status string) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(status).Inc()
}

// CouponRedemption records "applied", "not_applicable" or "exhausted".
func (m *Metrics) CouponRedemption(outcome string) {
	if m == nil {
		return
	}
	m.couponRedemptions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) EntitlementsGranted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.entitlementsGrant.Add(float64(n))
}

func (m *Metrics) StatusTransition(to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) CheckoutRejected(reason string) {
	if m == nil {
		return
	}
	m.checkoutRejections.WithLabelValues(reason).Inc()
}
