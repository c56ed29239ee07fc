package phonenumber

import (
	"github.com/smallbiznis/customerdesk/internal/phonenumber/service"
	"go.uber.org/fx"
)

var Module = fx.Module("phonenumber.service",
	fx.Provide(service.New),
)
