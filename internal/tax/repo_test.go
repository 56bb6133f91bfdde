package tax

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/resinriver/storefront/internal/pricing"
	"github.com/resinriver/storefront/pkg/db/dbtest"
	"github.com/resinriver/storefront/pkg/db/models"
)

func TestRepositoryListForCountryFeedsRateMatching(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.TaxConfiguration{Country: "us", Rate: decimal.RequireFromString("0.05"), Active: true}))
	require.NoError(t, repo.Create(ctx, &models.TaxConfiguration{Country: "US", State: "tx", Rate: decimal.RequireFromString("0.0625"), Active: true}))
	require.NoError(t, repo.Create(ctx, &models.TaxConfiguration{Country: "CA", Rate: decimal.RequireFromString("0.13"), Active: true}))

	configs, err := repo.ListForCountry(ctx, " us ")
	require.NoError(t, err)
	require.Len(t, configs, 2)

	rate, matched := pricing.MatchTaxRate(configs, "US", "TX")
	require.NotNil(t, matched)
	require.True(t, rate.Equal(decimal.RequireFromString("0.0625")))

	rate, _ = pricing.MatchTaxRate(configs, "US", "OR")
	require.True(t, rate.Equal(decimal.RequireFromString("0.05")))
}
