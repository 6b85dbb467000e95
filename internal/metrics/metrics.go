package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Recorder interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncDonationsRecorded(amount int64)
	IncFundsReleased(amount int64)
}

type Provider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	donationsTotal  prometheus.Counter
	donationVolume  prometheus.Counter
	releasesTotal   prometheus.Counter
	releasedVolume  prometheus.Counter
}

func NewProvider(reg prometheus.Registerer) *Provider {
	factory := promauto.With(reg)
	return &Provider{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "escrow_http_requests_total",
			Help: "HTTP requests by endpoint and status bucket.",
		}, []string{"endpoint", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "escrow_http_request_duration_seconds",
			Help:    "HTTP request latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		donationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "escrow_donations_recorded_total",
			Help: "Donations recorded on the campaign ledger.",
		}),
		donationVolume: factory.NewCounter(prometheus.CounterOpts{
			Name: "escrow_donation_volume_total",
			Help: "Sum of recorded donation amounts.",
		}),
		releasesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "escrow_releases_total",
			Help: "Milestone fund releases on the campaign ledger.",
		}),
		releasedVolume: factory.NewCounter(prometheus.CounterOpts{
			Name: "escrow_released_volume_total",
			Help: "Sum of released milestone amounts.",
		}),
	}
}

func (p *Provider) IncRequestsTotal(endpoint string, status int) {
	p.requestsTotal.WithLabelValues(endpoint, statusBucket(status)).Inc()
}

func (p *Provider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	p.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (p *Provider) IncDonationsRecorded(amount int64) {
	p.donationsTotal.Inc()
	p.donationVolume.Add(float64(amount))
}

func (p *Provider) IncFundsReleased(amount int64) {
	p.releasesTotal.Inc()
	p.releasedVolume.Add(float64(amount))
}

func statusBucket(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// Noop satisfies Recorder for tests and components wired without metrics.
type Noop struct{}

func (Noop) IncRequestsTotal(string, int)                 {}
func (Noop) ObserveRequestDuration(string, time.Duration) {}
func (Noop) IncDonationsRecorded(int64)                   {}
func (Noop) IncFundsReleased(int64)                       {}

var (
	_ Recorder = (*Provider)(nil)
	_ Recorder = Noop{}
)
