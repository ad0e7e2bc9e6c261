package handlers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"courseshop/internal/config"
	"courseshop/internal/metrics"
	"courseshop/internal/repos"
	"courseshop/internal/services"
)

type Deps struct {
	Auth    *services.AuthService
	Metrics *metrics.Metrics

	AuthHandler     *AuthHandler
	OrderHandler    *OrderHandler
	AdminHandler    *AdminHandler
	CatalogHandler  *CatalogHandler
	PurchaseHandler *PurchaseHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, m *metrics.Metrics, log *zap.Logger) *Deps {
	store := repos.NewStore(db)
	userRepo := repos.NewUserRepo(db)

	authSvc := &services.AuthService{Users: userRepo}
	grants := services.NewEntitlementGranter(store, log, m)
	orderSvc := services.NewOrderService(store, grants, log, m)
	approvalSvc := services.NewApprovalService(store, grants, log, m)
	catalogSvc := services.NewCatalogService(store)

	return &Deps{
		Auth:            authSvc,
		Metrics:         m,
		AuthHandler:     &AuthHandler{Auth: authSvc, CookieSecure: cfg.CookieSecure},
		OrderHandler:    &OrderHandler{Orders: orderSvc},
		AdminHandler:    &AdminHandler{Approvals: approvalSvc},
		CatalogHandler:  &CatalogHandler{Catalog: catalogSvc},
		PurchaseHandler: &PurchaseHandler{Grants: grants},
	}
}
