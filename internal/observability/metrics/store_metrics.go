package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreSizes reports the current number of customers, invoices and phone
// numbers held in memory.
type StoreSizes func() (customers, invoices, phoneNumbers int)

// StoreCollector exposes collection sizes as gauges, read at scrape time.
type StoreCollector struct {
	sizes StoreSizes
	desc  *prometheus.Desc
}

func NewStoreCollector(cfg Config, sizes StoreSizes) *StoreCollector {
	return &StoreCollector{
		sizes: sizes,
		desc: prometheus.NewDesc(
			"customerdesk_store_entities",
			"Entities currently held in the in-memory store by resource.",
			[]string{"resource"},
			constLabels(cfg),
		),
	}
}

func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	if c.sizes == nil {
		return
	}
	customers, invoices, phones := c.sizes()
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(customers), ResourceCustomer)
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(invoices), ResourceInvoice)
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(phones), ResourcePhoneNumber)
}

// RegisterStore registers the collector, tolerating a previous registration
// of the same collector name.
func RegisterStore(registerer prometheus.Registerer, collector *StoreCollector) error {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return nil
		}
		return err
	}
	return nil
}
