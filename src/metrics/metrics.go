package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chartstream_sessions",
		Help: "Open streaming sessions",
	})
	SessionsOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartstream_sessions_opened_total",
		Help: "Total streaming sessions opened",
	})
	ActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chartstream_active_subscriptions",
		Help: "Sessions currently in the active state",
	})

	ControlMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chartstream_control_messages_total",
		Help: "Inbound control messages, partitioned by kind",
	}, []string{"kind"}) // subscribe/unsubscribe/appendData/invalid
	ErrorEnvelopesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartstream_error_envelopes_total",
		Help: "Error envelopes sent to clients",
	})

	BatchesOutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chartstream_batches_out_total",
		Help: "Draw command envelopes sent, partitioned by origin",
	}, []string{"origin"}) // subscribe/refresh/append/rest
	BytesOutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartstream_bytes_out_total",
		Help: "Bytes of envelopes sent",
	})
	WriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartstream_write_errors_total",
		Help: "Failed writes to a client connection",
	})
	RefreshTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartstream_refresh_ticks_total",
		Help: "Periodic refresh ticks that produced output",
	})

	DatasetReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chartstream_dataset_reloads_total",
		Help: "Dataset reloads, partitioned by trigger",
	}, []string{"trigger"}) // startup/cron/watch
	DatasetRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chartstream_dataset_records",
		Help: "Records in the published dataset, partitioned by kind",
	}, []string{"kind"})
	DatasetLoadErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartstream_dataset_load_errors_total",
		Help: "Provider failures that produced an empty record set",
	})
)

func OnSessionOpen() {
	Sessions.Inc()
	SessionsOpenedTotal.Inc()
}

func OnSessionClose() {
	Sessions.Dec()
}

func ObserveBatch(origin string, bytes int) {
	BatchesOutTotal.WithLabelValues(origin).Inc()
	if bytes > 0 {
		BytesOutTotal.Add(float64(bytes))
	}
}
