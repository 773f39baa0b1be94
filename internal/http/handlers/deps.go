package handlers

import (
	"shoptill/internal/config"
	"shoptill/internal/repos"
	"shoptill/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	SaleHandler      *SaleHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	CustomerHandler  *CustomerHandler
	ReportHandler    *ReportHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	custRepo := repos.NewCustomerRepo(db)
	asstRepo := repos.NewAssistantRepo(db)

	pricer := services.NewPricer(cfg.TaxRate)
	ledger := services.NewLedger(db, invRepo)
	custSvc := services.NewCustomerService(db, custRepo, orderRepo)
	settleSvc := services.NewSettlementService(db, prodRepo, orderRepo, ledger, custSvc, pricer)
	invSvc := services.NewInventoryService(invRepo)
	catSvc := services.NewCatalogService(prodRepo, invRepo)

	return &Deps{
		SaleHandler:      &SaleHandler{Settle: settleSvc, Orders: orderRepo, Assistants: asstRepo},
		ProductHandler:   &ProductHandler{Catalog: catSvc, Products: prodRepo},
		InventoryHandler: &InventoryHandler{Inv: invSvc, Ledger: ledger},
		CustomerHandler:  &CustomerHandler{Customers: custRepo, Aggregate: custSvc},
		ReportHandler:    &ReportHandler{Orders: orderRepo, Inv: invRepo},
	}
}
