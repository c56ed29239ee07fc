package repository

import (
	"github.com/prometheus/client_golang/prometheus"
	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/customerdesk/internal/observability/metrics"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("repository",
	fx.Provide(New),
	fx.Provide(
		func(db *AppDB) customerdomain.Repository { return db },
		func(db *AppDB) invoicedomain.Repository { return db },
		func(db *AppDB) phonedomain.Repository { return db },
	),
	fx.Invoke(registerStoreMetrics),
)

func registerStoreMetrics(cfg obsmetrics.Config, db *AppDB) error {
	return obsmetrics.RegisterStore(prometheus.DefaultRegisterer, NewStoreCollector(cfg, db))
}

// NewStoreCollector exposes the store sizes as prometheus gauges.
func NewStoreCollector(cfg obsmetrics.Config, db *AppDB) *obsmetrics.StoreCollector {
	return obsmetrics.NewStoreCollector(cfg, func() (int, int, int) {
		counts := db.Counts()
		return counts.Customers, counts.Invoices, counts.PhoneNumbers
	})
}
