package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/internal/catalog"
	"github.com/resinriver/storefront/internal/discounts"
	"github.com/resinriver/storefront/internal/shipping"
	"github.com/resinriver/storefront/internal/tax"
	"github.com/resinriver/storefront/internal/users"
	"github.com/resinriver/storefront/pkg/config"
	"github.com/resinriver/storefront/pkg/db"
	"github.com/resinriver/storefront/pkg/db/models"
	"github.com/resinriver/storefront/pkg/enums"
	"github.com/resinriver/storefront/pkg/logger"
	"github.com/resinriver/storefront/pkg/migrate"
	"github.com/resinriver/storefront/pkg/security"
)

type seedItem struct {
	name        string
	slug        string
	description string
	price       string
	salePrice   string
	category    string
	tags        []string
	order       int
}

var seedCategories = []models.Category{
	{Name: "Coasters", Slug: "coasters", IsFeatured: true, ShowInMenu: true},
	{Name: "Trays", Slug: "trays", IsFeatured: true, ShowInMenu: true},
	{Name: "Jewelry", Slug: "jewelry", ShowInMenu: true},
	{Name: "Wall Art", Slug: "wall-art", ShowInMenu: true},
}

var seedItems = []seedItem{
	{name: "Ocean Wave Coaster Set", slug: "ocean-wave-coaster-set", description: "Four coasters poured in layered blues.", price: "38.00", category: "coasters", tags: []string{"ocean", "gift"}, order: 1},
	{name: "Geode Coaster", slug: "geode-coaster", description: "Single coaster with gold leaf edging.", price: "14.00", salePrice: "11.50", category: "coasters", tags: []string{"geode"}, order: 2},
	{name: "River Serving Tray", slug: "river-serving-tray", description: "Walnut tray with a resin river inlay.", price: "120.00", category: "trays", tags: []string{"wood", "river"}, order: 1},
	{name: "Pressed Flower Pendant", slug: "pressed-flower-pendant", description: "Real flowers set in clear resin.", price: "26.00", category: "jewelry", tags: []string{"floral", "gift"}, order: 1},
	{name: "Tide Pool Panel", slug: "tide-pool-panel", description: "Large wall panel with cell effects.", price: "240.00", category: "wall-art", tags: []string{"ocean"}, order: 1},
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	staffEmail := flag.String("staff-email", "staff@resinriver.test", "email of the staff account to create")
	staffPassword := flag.String("staff-password", "", "password of the staff account (skipped when empty)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	if cfg.App.IsProd() {
		logg.Warn(ctx, "refusing to seed a production database")
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	err = dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		var existing int64
		if err := tx.WithContext(ctx).Model(&models.Category{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			logg.Info(ctx, "catalog already seeded, skipping")
			return nil
		}
		if err := seedCatalog(ctx, catalog.NewRepository(tx)); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if err := seedPricing(ctx, tx); err != nil {
			return fmt.Errorf("seed pricing: %w", err)
		}
		return nil
	})
	if err != nil {
		logg.Error(ctx, "seeding failed", err)
		os.Exit(1)
	}

	if *staffPassword != "" {
		if err := seedStaff(ctx, cfg, users.NewRepository(dbClient.DB()), *staffEmail, *staffPassword); err != nil {
			logg.Error(ctx, "failed to seed staff account", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "seed complete")
}

func seedCatalog(ctx context.Context, repo *catalog.Repository) error {
	categoryIDs := map[string]*models.Category{}
	for i := range seedCategories {
		category := seedCategories[i]
		if err := repo.CreateCategory(ctx, &category); err != nil {
			return err
		}
		categoryIDs[category.Slug] = &category
	}

	for _, def := range seedItems {
		item := models.Item{
			Name:         def.name,
			Slug:         def.slug,
			Description:  def.description,
			Price:        decimal.RequireFromString(def.price),
			Available:    true,
			DisplayOrder: def.order,
		}
		if def.salePrice != "" {
			sale := decimal.RequireFromString(def.salePrice)
			item.SalePrice = &sale
		}
		if category, ok := categoryIDs[def.category]; ok {
			item.CategoryID = &category.ID
		}
		for _, caption := range def.tags {
			tag, err := repo.FindOrCreateTag(ctx, caption)
			if err != nil {
				return err
			}
			item.Tags = append(item.Tags, *tag)
		}
		if err := repo.CreateItem(ctx, &item); err != nil {
			return err
		}
	}
	return nil
}

func seedPricing(ctx context.Context, tx *gorm.DB) error {
	freeOver := decimal.RequireFromString("75.00")
	methods := []models.ShippingMethod{
		{Name: "Standard", Description: "Tracked ground shipping", BaseCost: decimal.RequireFromString("5.99"), PerItemCost: decimal.RequireFromString("1.00"), FreeShippingThreshold: &freeOver, EstimatedDays: "5-7 business days", DisplayOrder: 1, Active: true},
		{Name: "Express", Description: "Two-day air", BaseCost: decimal.RequireFromString("14.99"), PerItemCost: decimal.RequireFromString("2.00"), EstimatedDays: "2 business days", DisplayOrder: 2, Active: true},
	}
	shippingRepo := shipping.NewRepository(tx)
	for i := range methods {
		if err := shippingRepo.Create(ctx, &methods[i]); err != nil {
			return err
		}
	}

	taxRepo := tax.NewRepository(tx)
	rates := []models.TaxConfiguration{
		{Country: "US", Rate: decimal.RequireFromString("0.0500"), Active: true},
		{Country: "US", State: "TX", Rate: decimal.RequireFromString("0.0825"), Active: true},
	}
	for i := range rates {
		if err := taxRepo.Create(ctx, &rates[i]); err != nil {
			return err
		}
	}

	limit := 500
	welcome := models.DiscountCode{
		Code:        "WELCOME10",
		Description: "10% off your first order",
		Type:        enums.DiscountTypePercentage,
		Value:       decimal.RequireFromString("10"),
		UsageLimit:  &limit,
		ValidFrom:   time.Now().UTC(),
		Active:      true,
	}
	return discounts.NewRepository(tx).Create(ctx, &welcome)
}

func seedStaff(ctx context.Context, cfg *config.Config, repo *users.Repository, email, password string) error {
	if _, err := repo.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !db.IsNotFound(err) {
		return err
	}
	hash, err := security.HashPassword(password, cfg.Password)
	if err != nil {
		return err
	}
	_, err = repo.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Store",
		LastName:     "Staff",
		Role:         enums.UserRoleStaff,
	})
	return err
}
