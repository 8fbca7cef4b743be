package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StockMovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_stock_movements_total",
		Help: "Stock movements applied, by movement type.",
	}, []string{"movement_type"})

	TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_transfers_total",
		Help: "Branch-to-branch transfers, by outcome.",
	}, []string{"outcome"})

	ProductionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_production_runs_total",
		Help: "Production runs, by outcome.",
	}, []string{"outcome"})
)
