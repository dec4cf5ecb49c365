package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ContactsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wa_contacts_processed_total", Help: "Contacts processed by outcome"},
		[]string{"outcome"},
	)
	SendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wa_send_duration_seconds",
			Help:    "Time spent on one send, from navigation to verdict",
			Buckets: []float64{5, 10, 20, 30, 45, 60, 90, 120, 180},
		},
		[]string{"mode"},
	)
	CooldownSeconds = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "wa_cooldown_seconds_total", Help: "Seconds spent in cooldown pauses"},
	)
	CampaignAborted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "wa_campaign_aborted_total", Help: "Campaigns stopped before the last contact"},
	)
)

// Outcome labels.
const (
	Success     = "success"
	Failed      = "failed"
	Ambiguous   = "ambiguous"
	Excluded    = "excluded"
	AlreadySent = "already_sent"
)

func init() {
	prometheus.MustRegister(ContactsTotal, SendDuration, CooldownSeconds, CampaignAborted)
}

func Handler() http.Handler { return promhttp.Handler() }
