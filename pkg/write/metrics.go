package write

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fpetkovski/mfem-parquet/schema"
)

type Metrics struct {
	elements prometheus.Counter
	rows     *prometheus.CounterVec
	batches  prometheus.Counter
}

// NewMetrics registers the writer metrics with reg. A nil reg creates
// unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		elements: factory.NewCounter(prometheus.CounterOpts{
			Name: "mfem_parquet_elements_extracted_total",
			Help: "Total number of mesh elements extracted.",
		}),
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mfem_parquet_rows_written_total",
			Help: "Total number of rows handed to the sink per table.",
		}, []string{"table"}),
		batches: factory.NewCounter(prometheus.CounterOpts{
			Name: "mfem_parquet_batches_written_total",
			Help: "Total number of batches handed to the sink.",
		}),
	}
}

func (m *Metrics) observeBatch(kind schema.Kind, batch Batch) {
	tables, _ := kind.Tables()
	for _, table := range tables {
		m.rows.WithLabelValues(table.Name()).Add(float64(batch.TableRows(table)))
	}
	m.batches.Inc()
}
