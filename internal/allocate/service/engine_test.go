package service

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dms-upload-service/internal/allocate/model"
)

func testMerchants() []model.Merchant {
	return []model.Merchant{
		{ShopName: "Sharma General Store", MerchantName: "Ramesh Sharma", MobileNumber: "9800000001", ShopState: "Karnataka"},
		{ShopName: "Gupta Traders", MerchantName: "Suresh Gupta", MobileNumber: "9800000002", ShopState: "Karnataka"},
	}
}

func withMerchant(l model.OrderLine) model.OrderLine {
	l.MerchantName = "Sharma General Store"
	return l
}

func runAllocate(t *testing.T, in Input) []model.AllocatedRow {
	t.Helper()
	return Allocate(in, zerolog.Nop())
}

func TestAllocateExactMatchSingleBatch(t *testing.T) {
	rows := runAllocate(t, Input{
		Lines:     []model.OrderLine{withMerchant(orderLine("O1", "Amul Butter", 5, 1))},
		Catalog:   []model.CatalogRow{catalogRow("Amul Butter", "P1", "B1", 20)},
		Merchants: testMerchants(),
	})

	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, 5.0, r.Quantity)
	assert.Equal(t, "B1", r.BatchID)
	assert.Equal(t, "P1", r.ProductID)
	assert.Equal(t, ScoreExact, r.ProductScore)
	assert.True(t, r.UserConfirmed)
	assert.Equal(t, "Sharma General Store", r.MatchedShop)
	assert.Equal(t, "9800000001", r.BuyerMobile)
	assert.Equal(t, "Karnataka", r.ShopState)
	assert.Equal(t, "shop_name", r.MerchantStatus)
	assert.Empty(t, r.ErrorMessage)
}

func TestAllocateSplitsAcrossBatches(t *testing.T) {
	rows := runAllocate(t, Input{
		Lines: []model.OrderLine{withMerchant(func() model.OrderLine {
			l := orderLine("O1", "Amul Butter", 12, 1)
			l.NetSales = 600
			return l
		}())},
		Catalog: []model.CatalogRow{
			catalogRow("Amul Butter", "P1", "B1", 10),
			catalogRow("Amul Butter", "P1", "B2", 7),
		},
		Merchants: testMerchants(),
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "B1", rows[0].BatchID)
	assert.Equal(t, 10.0, rows[0].Quantity)
	assert.Equal(t, "B2", rows[1].BatchID)
	assert.Equal(t, 2.0, rows[1].Quantity)

	// revenue prorated by quantity: per-unit price identical on every split row
	assert.InDelta(t, 50.0, rows[0].SellingPrice, 1e-9)
	assert.InDelta(t, 50.0, rows[1].SellingPrice, 1e-9)

	total := rows[0].SellingPrice*rows[0].Quantity + rows[1].SellingPrice*rows[1].Quantity
	assert.InDelta(t, 600.0, total, 1e-9)
}

func TestAllocateApprovedVariantCoversShortage(t *testing.T) {
	in := Input{
		Lines: []model.OrderLine{withMerchant(orderLine("O1", "Alpha Widget", 12, 1))},
		Catalog: []model.CatalogRow{
			catalogRow("Alpha Widget", "P1", "B1", 5),
			catalogRow("Beta Widget", "P1", "B2", 7),
		},
		Merchants: testMerchants(),
		Decisions: model.Decisions{
			Variants: map[string]bool{"Alpha Widget|Beta Widget": true},
		},
	}

	rows := runAllocate(t, in)
	require.Len(t, rows, 2)
	// pooled batches drain fullest-first
	assert.Equal(t, "B2", rows[0].BatchID)
	assert.Equal(t, 7.0, rows[0].Quantity)
	assert.Equal(t, "B1", rows[1].BatchID)
	assert.Equal(t, 5.0, rows[1].Quantity)
	assert.Empty(t, rows[0].ErrorMessage)
}

func TestAllocateMissingDecisionRejects(t *testing.T) {
	in := Input{
		Lines: []model.OrderLine{withMerchant(orderLine("O1", "Alpha Widget", 12, 1))},
		Catalog: []model.CatalogRow{
			catalogRow("Alpha Widget", "P1", "B1", 5),
			catalogRow("Beta Widget", "P1", "B2", 7),
		},
		Merchants: testMerchants(),
		// empty cache: the variant question was never answered
	}

	rows := runAllocate(t, in)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].BatchID)
	assert.Equal(t, "Insufficient stock: need 12, only 5 available across all batches (matched to: 'Alpha Widget')", rows[0].ProductError)
}

func TestAllocateDeclinedVariantRejects(t *testing.T) {
	in := Input{
		Lines: []model.OrderLine{withMerchant(orderLine("O1", "Alpha Widget", 12, 1))},
		Catalog: []model.CatalogRow{
			catalogRow("Alpha Widget", "P1", "B1", 5),
			catalogRow("Beta Widget", "P1", "B2", 7),
		},
		Merchants: testMerchants(),
		Decisions: model.Decisions{
			Variants: map[string]bool{"Alpha Widget|Beta Widget": false},
		},
	}

	rows := runAllocate(t, in)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].ProductError, "Insufficient stock")
}

func TestAllocateApprovedRelatedProduct(t *testing.T) {
	in := Input{
		Lines: []model.OrderLine{withMerchant(orderLine("O1", "Widget Pro", 10, 1))},
		Catalog: []model.CatalogRow{
			catalogRow("Widget Pro", "P1", "B1", 3),
			catalogRow("Widget Pro Max", "P2", "B2", 40),
		},
		Merchants: testMerchants(),
		Decisions: model.Decisions{
			Related: map[string]bool{"Widget Pro|Widget Pro Max": true},
		},
	}

	rows := runAllocate(t, in)
	// the pooled drain is fullest-batch-first, so the approved related
	// product's big batch covers the whole order
	require.Len(t, rows, 1)
	assert.Equal(t, "B2", rows[0].BatchID)
	assert.Equal(t, "P2", rows[0].ProductID)
	assert.Equal(t, 10.0, rows[0].Quantity)
	assert.Empty(t, rows[0].ProductError)
}

func TestAllocateProductNotFound(t *testing.T) {
	rows := runAllocate(t, Input{
		Lines:     []model.OrderLine{withMerchant(orderLine("O1", "Amul Butter", 5, 1))},
		Catalog:   nil, // empty reference
		Merchants: testMerchants(),
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "Product not found in reference", rows[0].ProductError)
	assert.Empty(t, rows[0].BatchID)
}

func TestAllocateLowScoreRejectedWithoutAllocation(t *testing.T) {
	catalog := []model.CatalogRow{catalogRow("Amul Butter 500g", "P1", "B1", 5)}
	in := Input{
		Lines: []model.OrderLine{
			withMerchant(orderLine("O1", "Amul Btr", 5, 1)),
			withMerchant(orderLine("O2", "Amul Butter 500g", 5, 2)),
		},
		Catalog:   catalog,
		Merchants: testMerchants(),
	}

	rows := runAllocate(t, in)
	require.Len(t, rows, 2)

	low := rows[0]
	assert.Contains(t, low.ProductError, "Product match score too low")
	assert.Contains(t, low.ProductError, "may be similar but different product")
	assert.Empty(t, low.BatchID)

	// the rejected line consumed nothing, so the clean line gets it all
	assert.Equal(t, 5.0, rows[1].Quantity)
	assert.Equal(t, "B1", rows[1].BatchID)
	assert.Empty(t, rows[1].ProductError)
}

func TestAllocateZeroQuantity(t *testing.T) {
	rows := runAllocate(t, Input{
		Lines:     []model.OrderLine{withMerchant(orderLine("O1", "Amul Butter", 0, 1))},
		Catalog:   []model.CatalogRow{catalogRow("Amul Butter", "P1", "B1", 20)},
		Merchants: testMerchants(),
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "Zero quantity", rows[0].ProductError)
}

func TestAllocateReturnCreditsStock(t *testing.T) {
	in := Input{
		Lines: []model.OrderLine{
			withMerchant(orderLine("O1", "Amul Butter", -5, 1)),
			withMerchant(orderLine("O2", "Amul Butter", 8, 2)),
		},
		Catalog:   []model.CatalogRow{catalogRow("Amul Butter", "P1", "B1", 4)},
		Merchants: testMerchants(),
	}

	rows := runAllocate(t, in)
	require.Len(t, rows, 2)

	ret := rows[0]
	assert.Equal(t, -5.0, ret.Quantity)
	assert.Equal(t, "B1", ret.BatchID)
	assert.Equal(t, "P1", ret.ProductID)

	// the credited 5 units make the later 8-unit order fulfillable
	assert.Equal(t, 8.0, rows[1].Quantity)
	assert.Empty(t, rows[1].ProductError)
}

func TestAllocateProcessesInDateOrder(t *testing.T) {
	in := Input{
		Lines: []model.OrderLine{
			withMerchant(orderLine("O2", "Amul Butter", 5, 9)), // later date, listed first
			withMerchant(orderLine("O1", "Amul Butter", 5, 1)),
		},
		Catalog:   []model.CatalogRow{catalogRow("Amul Butter", "P1", "B1", 5)},
		Merchants: testMerchants(),
	}

	rows := runAllocate(t, in)
	require.Len(t, rows, 2)
	// the earlier order wins the contested stock
	assert.Equal(t, "O1", rows[0].Line.OrderID)
	assert.Empty(t, rows[0].ProductError)
	assert.Equal(t, "O2", rows[1].Line.OrderID)
	assert.Contains(t, rows[1].ProductError, "Insufficient stock")
}

func TestAllocateIsPure(t *testing.T) {
	in := Input{
		Lines: []model.OrderLine{withMerchant(orderLine("O1", "Amul Butter", 12, 1))},
		Catalog: []model.CatalogRow{
			catalogRow("Amul Butter", "P1", "B1", 10),
			catalogRow("Amul Butter", "P1", "B2", 7),
		},
		Merchants: testMerchants(),
	}

	first := runAllocate(t, in)
	second := runAllocate(t, in)
	assert.Equal(t, first, second)
}

func TestAllocatePartialConfirmed(t *testing.T) {
	in := Input{
		Lines:     []model.OrderLine{withMerchant(orderLine("O1", "Widget Pro", 2, 1))},
		Catalog:   []model.CatalogRow{catalogRow("Widget Pro Max", "P1", "B1", 20)},
		Merchants: testMerchants(),
		Decisions: model.Decisions{
			PartialMatches: map[string]bool{"Widget Pro|Widget Pro Max": true},
		},
	}

	rows := runAllocate(t, in)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].UserConfirmed)
	assert.Equal(t, "B1", rows[0].BatchID)
	assert.GreaterOrEqual(t, rows[0].ProductScore, PartialMinScore)
	assert.Less(t, rows[0].ProductScore, ScoreExact)
}

func TestMatchMerchants(t *testing.T) {
	mkRow := func(merchant string) model.AllocatedRow {
		return model.AllocatedRow{Line: model.OrderLine{MerchantName: merchant}}
	}
	rows := []model.AllocatedRow{
		mkRow("sharma general STORE"), // shop_name, case-insensitive
		mkRow("Suresh Gupta"),         // falls through to merchant_name
		mkRow("Nobody Here"),
	}

	matchMerchants(rows, testMerchants())

	assert.Equal(t, "shop_name", rows[0].MerchantStatus)
	assert.Equal(t, "Sharma General Store", rows[0].MatchedShop)
	assert.Equal(t, ScoreExact, rows[0].MerchantScore)

	assert.Equal(t, "merchant_name", rows[1].MerchantStatus)
	assert.Equal(t, "9800000002", rows[1].BuyerMobile)

	assert.Equal(t, "not_found", rows[2].MerchantStatus)
	assert.Equal(t, "Merchant not matched", rows[2].MerchantError)
	assert.Zero(t, rows[2].MerchantScore)
}

func TestAllocateJoinsProductAndMerchantErrors(t *testing.T) {
	rows := runAllocate(t, Input{
		Lines:     []model.OrderLine{orderLine("O1", "Amul Butter", 5, 1)}, // no merchant on the line
		Catalog:   nil,
		Merchants: testMerchants(),
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "Product not found in reference, Merchant not matched", rows[0].ErrorMessage)
}
