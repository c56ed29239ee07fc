package invoice

import (
	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	"github.com/smallbiznis/customerdesk/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(func(repo customerdomain.Repository) service.CustomerLookup { return repo }),
	fx.Provide(service.NewService),
)
