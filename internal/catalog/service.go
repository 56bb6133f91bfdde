package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/resinriver/storefront/pkg/db/models"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
	"github.com/resinriver/storefront/pkg/pagination"
)

const (
	homeLatestLimit = 3

	sitemapChangeFreq = "weekly"
	sitemapPriority   = "0.8"
)

type repository interface {
	List(ctx context.Context, filters ListFilters, page pagination.Page) ([]models.Item, int64, error)
	FindBySlug(ctx context.Context, slug string) (*models.Item, error)
	Latest(ctx context.Context, limit int) ([]models.Item, error)
	ListByTag(ctx context.Context, caption string) ([]models.Item, error)
	Categories(ctx context.Context) ([]models.Category, error)
	SitemapItems(ctx context.Context) ([]models.Item, error)
}

// Service exposes the read side of the catalog.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Detail(ctx context.Context, slug string) (*ItemDTO, error)
	Home(ctx context.Context) (*HomeDTO, error)
	Categories(ctx context.Context) ([]CategoryDTO, error)
	SitemapEntries(ctx context.Context) ([]SitemapEntry, error)
}

type service struct {
	repo repository
}

func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	f := input.Filters
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, pkgerrors.Field("min_price", "min_price cannot exceed max_price")
	}
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		return nil, pkgerrors.Field("min_price", "min_price cannot be negative")
	}
	if f.Sort != "" && !f.Sort.IsValid() {
		return nil, pkgerrors.Field("sort", "unsupported sort")
	}

	page := pagination.NewPage(input.Page.Number, input.Page.Size)
	items, total, err := s.repo.List(ctx, f, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog items")
	}
	return &ListResult{
		Items:    toItemDTOs(items),
		PageInfo: page.Info(total),
	}, nil
}

func (s *service) Detail(ctx context.Context, slug string) (*ItemDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	item, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	dto := ToItemDTO(*item)
	return &dto, nil
}

func (s *service) Home(ctx context.Context) (*HomeDTO, error) {
	latest, err := s.repo.Latest(ctx, homeLatestLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest items")
	}
	featured, err := s.repo.ListByTag(ctx, models.FeaturedTagCaption)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load featured items")
	}
	return &HomeDTO{
		Latest:   toItemDTOs(latest),
		Featured: toItemDTOs(featured),
	}, nil
}

func (s *service) Categories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
	}
	out := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		out = append(out, *categoryDTO(&categories[i]))
	}
	return out, nil
}

// SitemapEntries lists available items at /post/<slug>/, relative to the site
// root.
func (s *service) SitemapEntries(ctx context.Context) ([]SitemapEntry, error) {
	items, err := s.repo.SitemapItems(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sitemap items")
	}
	entries := make([]SitemapEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, SitemapEntry{
			Location:   ItemPath(item.Slug),
			LastMod:    item.CreatedAt,
			ChangeFreq: sitemapChangeFreq,
			Priority:   sitemapPriority,
		})
	}
	return entries, nil
}

// ItemPath is the public detail path of an item.
func ItemPath(slug string) string {
	return "/post/" + slug + "/"
}
