// Package main provides a CLI tool for seeding the catalog with demo products.
package main

import (
	"context"
	"fmt"
	"os"

	"retailops/internal/app"
	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
	"retailops/internal/core/types"
	"retailops/internal/domain"
	"retailops/internal/domain/catalog/product"
	"retailops/internal/infrastructure/config"
	"retailops/internal/infrastructure/storage/postgres"
	"retailops/pkg/logger"
)

var demoProducts = []product.CreateInput{
	{Name: "Strawberries", SKU: "FRU-STRAW", BasePrice: types.MustMoney("6.50"), UnitType: product.UnitWeightKg, InitialStock: types.NewQuantity(120)},
	{Name: "Cherries", SKU: "FRU-CHERRY", BasePrice: types.MustMoney("9.00"), UnitType: product.UnitWeightKg, InitialStock: types.NewQuantity(80)},
	{Name: "Blueberry box 250g", SKU: "FRU-BLUE-250", BasePrice: types.MustMoney("3.20"), UnitType: product.UnitPiece, InitialStock: types.NewQuantity(300)},
	{Name: "Apple juice 1l", SKU: "DRK-APPLE-1L", BasePrice: types.MustMoney("2.75"), UnitType: product.UnitPiece, InitialStock: types.NewQuantity(150)},
	{Name: "Asparagus", SKU: "VEG-ASPARAGUS", BasePrice: types.MustMoney("12.00"), UnitType: product.UnitWeightKg, InitialStock: types.NewQuantity(40)},
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if cfg.UseMemoryStore() {
		log.Fatal("database.url is required; the in-memory store does not outlive this process")
	}

	ctx := context.Background()

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	storage, err := app.NewPostgresStorage(pool)
	if err != nil {
		log.Fatalw("failed to wire storage", "error", err)
	}
	defer storage.Close()

	container := app.NewContainer(storage, app.Options{})

	// Seeding acts as a system administrator so capability checks and the
	// audit trail see a real actor.
	ctx = appctx.WithUser(ctx, &appctx.UserContext{
		UserID:  "seed",
		Roles:   []string{appctx.RoleAdmin},
		IsAdmin: true,
	})

	created, err := seedProducts(ctx, container.Products, log)
	if err != nil {
		log.Fatalw("failed to seed products", "error", err)
	}

	log.Infow("seeding completed successfully", "created", created)
}

func seedProducts(ctx context.Context, svc *product.Service, log *logger.Logger) (int, error) {
	created := 0
	for _, in := range demoProducts {
		existing, err := svc.List(ctx, product.ListFilter{
			Pagination: domain.Pagination{Limit: 1},
			Search:     in.SKU,
		})
		if err != nil {
			return created, fmt.Errorf("look up %s: %w", in.SKU, err)
		}
		if existing.TotalCount > 0 {
			log.Infow("product already exists, skipping", "sku", in.SKU)
			continue
		}

		p, err := svc.Create(ctx, in)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeDuplicate {
				log.Infow("product already exists, skipping", "sku", in.SKU)
				continue
			}
			return created, fmt.Errorf("create %s: %w", in.SKU, err)
		}
		created++
		log.Infow("product created", "sku", in.SKU, "id", p.ID, "stock", p.TotalStock.String())
	}
	return created, nil
}
