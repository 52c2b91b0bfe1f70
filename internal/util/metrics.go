package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchases_total",
		Help: "Total number of purchase attempts, by outcome",
	}, []string{"outcome"}) // completed, partial, rejected

	PurchasesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchases_failed_total",
		Help: "Total number of purchase attempts that failed with an error",
	}, []string{"reason"})

	PurchaseItemsFulfilled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchase_items_fulfilled_total",
		Help: "Total line items fulfilled across all purchases",
	})

	PurchaseItemsUnfulfilled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchase_items_unfulfilled_total",
		Help: "Total line items left unfulfilled for lack of stock",
	})

	PurchaseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "purchase_latency_seconds",
		Help:    "Latency of the purchase workflow",
		Buckets: prometheus.DefBuckets,
	})

	TicketAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ticket_amount",
		Help:    "Distribution of ticket amounts",
		Buckets: prometheus.ExponentialBuckets(100, 10, 6),
	})

	TicketsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickets_issued_total",
		Help: "Total number of tickets issued",
	})

	StockDepletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_depleted_total",
		Help: "Total number of times a purchase drove a product's stock to zero",
	})

	StockCompensationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_compensations_total",
		Help: "Total stock restorations after a failed ticket creation",
	})

	UsersRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "users_registered_total",
		Help: "Total number of accounts created",
	})

	PasswordResetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "password_resets_total",
		Help: "Total password reset operations, by stage",
	}, []string{"stage"}) // requested, completed, rejected

	EmailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Total emails sent by the mail worker",
	}, []string{"kind"})

	EmailsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_failed_total",
		Help: "Total email deliveries that failed",
	}, []string{"kind"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
