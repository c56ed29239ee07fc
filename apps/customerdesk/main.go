package main

import (
	"github.com/smallbiznis/customerdesk/internal/clock"
	"github.com/smallbiznis/customerdesk/internal/config"
	"github.com/smallbiznis/customerdesk/internal/customer"
	"github.com/smallbiznis/customerdesk/internal/invoice"
	"github.com/smallbiznis/customerdesk/internal/observability"
	"github.com/smallbiznis/customerdesk/internal/phonenumber"
	pdfprovider "github.com/smallbiznis/customerdesk/internal/providers/pdf"
	"github.com/smallbiznis/customerdesk/internal/repository"
	"github.com/smallbiznis/customerdesk/internal/seed"
	"github.com/smallbiznis/customerdesk/internal/server"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		clock.Module,
		observability.Module,
		repository.Module,

		customer.Module,
		invoice.Module,
		phonenumber.Module,
		pdfprovider.Module,

		seed.Module,
		server.Module,
	)
	app.Run()
}
