package service

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"dms-upload-service/internal/allocate/model"
)

// Input is everything one allocation run consumes. The run is a pure
// function of this value: no state survives between runs, so calling
// it again with a grown decision cache re-allocates from the pristine
// catalog and never double-consumes stock.
type Input struct {
	Lines     []model.OrderLine
	Catalog   []model.CatalogRow
	Merchants []model.Merchant
	Decisions model.Decisions
}

// Allocate matches every order line against the catalog, allocates
// quantities across batches (own product plus cache-approved variants
// and related products) and returns one row per (order, batch) draw,
// or an error row. Lines are processed in ascending order-date order,
// ties kept in input order, matching the question collector's
// simulation.
func Allocate(in Input, logger zerolog.Logger) []model.AllocatedRow {
	ledger := NewLedger(in.Catalog)
	names := ledger.ProductNames()
	variants := BuildVariants(in.Catalog)

	lines := append([]model.OrderLine(nil), in.Lines...)
	sort.SliceStable(lines, func(a, b int) bool { return lines[a].OrderDate.Before(lines[b].OrderDate) })

	var rows []model.AllocatedRow
	for _, line := range lines {
		rows = append(rows, allocateLine(line, ledger, names, variants, in.Decisions, logger)...)
	}

	matchMerchants(rows, in.Merchants)

	for i := range rows {
		rows[i].ErrorMessage = joinReasons(rows[i].ProductError, rows[i].MerchantError)
	}
	return rows
}

func allocateLine(line model.OrderLine, ledger *Ledger, names []string, variants *Variants, dec model.Decisions, logger zerolog.Logger) []model.AllocatedRow {
	qty := line.Quantity
	pname, score := FuzzyMatch(line.ProductName, names, 0)

	base := model.AllocatedRow{
		Line:           line,
		MatchedProduct: pname,
		ProductScore:   score,
	}

	unitPrice := 0.0
	if qty != 0 {
		unitPrice = line.NetSales / qty
	}

	errRow := func(msg string) []model.AllocatedRow {
		r := base
		r.Quantity = qty
		r.SellingPrice = unitPrice
		r.ProductError = msg
		return []model.AllocatedRow{r}
	}

	switch {
	case pname == "" || !ledger.Has(pname):
		return errRow("Product not found in reference")
	case score < PartialMinScore:
		return errRow(fmt.Sprintf("Product match score too low (%d%%) - may be similar but different product", score))
	}

	switch {
	case score >= ScoreExact:
		base.UserConfirmed = true
	default:
		base.UserConfirmed = decide(dec.PartialMatches, CacheKey(line.ProductName, pname), "partial_match", logger)
	}

	if qty == 0 {
		r := base
		r.ProductError = "Zero quantity"
		return []model.AllocatedRow{r}
	}

	if qty < 0 {
		// sales return: credit the top batch of the matched product
		batch, ok := ledger.Credit(pname, -qty)
		if !ok {
			return errRow("Product not found in reference")
		}
		r := base
		r.Quantity = qty
		r.SellingPrice = unitPrice
		r.BatchID = batch.BatchID
		r.ProductID = batch.ProductID
		return []model.AllocatedRow{r}
	}

	// products to draw from: own, then cache-approved variants, then
	// cache-approved related products, each tier only when still short
	products := []string{pname}
	if ledger.TotalStock(pname) < qty {
		for _, v := range variants.Others(pname) {
			if !ledger.Has(v) || ledger.TotalStock(v) <= 0 {
				continue
			}
			if decide(dec.Variants, CacheKey(pname, v), "variant", logger) {
				products = append(products, v)
			}
		}
	}
	total := 0.0
	for _, p := range products {
		total += ledger.TotalStock(p)
	}
	if total < qty {
		used := map[string]bool{}
		for _, p := range products {
			used[p] = true
		}
		for _, rp := range RelatedCandidates(pname, ledger.ProductNames(), func(c string) bool { return used[c] }) {
			if ledger.TotalStock(rp) <= 0 {
				continue
			}
			if decide(dec.Related, CacheKey(pname, rp), "related", logger) {
				products = append(products, rp)
			}
		}
	}

	draws, remaining := ledger.ConsumePool(products, qty)
	if remaining > 0 {
		// consumption is not rolled back on failure; one run, one writer
		fulfilled := qty - remaining
		return errRow(fmt.Sprintf("Insufficient stock: need %d, only %d available across all batches (matched to: '%s')", int(qty), int(fulfilled), pname))
	}

	out := make([]model.AllocatedRow, 0, len(draws))
	for _, d := range draws {
		r := base
		r.Quantity = d.Qty
		// prorate revenue by this row's share, then back to per-unit
		portion := line.NetSales * d.Qty / qty
		r.SellingPrice = portion / d.Qty
		r.BatchID = d.BatchID
		r.ProductID = d.ProductID
		out = append(out, r)
	}
	return out
}

// matchMerchants fills merchant fields on every row: exact match only,
// shop_name first, then merchant_name, first hit wins.
func matchMerchants(rows []model.AllocatedRow, merchants []model.Merchant) {
	shopNames := make([]string, 0, len(merchants))
	merchantNames := make([]string, 0, len(merchants))
	byShop := make(map[string]model.Merchant, len(merchants))
	byMerchant := make(map[string]model.Merchant, len(merchants))
	for _, m := range merchants {
		if m.ShopName != "" {
			if _, ok := byShop[m.ShopName]; !ok {
				shopNames = append(shopNames, m.ShopName)
				byShop[m.ShopName] = m
			}
		}
		if m.MerchantName != "" {
			if _, ok := byMerchant[m.MerchantName]; !ok {
				merchantNames = append(merchantNames, m.MerchantName)
				byMerchant[m.MerchantName] = m
			}
		}
	}

	for i := range rows {
		name := rows[i].Line.MerchantName
		if match, score := ExactMatch(name, shopNames); score == ScoreExact {
			m := byShop[match]
			rows[i].MatchedShop = match
			rows[i].BuyerMobile = m.MobileNumber
			rows[i].ShopState = m.ShopState
			rows[i].MerchantScore = score
			rows[i].MerchantStatus = "shop_name"
			continue
		}
		if match, score := ExactMatch(name, merchantNames); score == ScoreExact {
			m := byMerchant[match]
			rows[i].MatchedShop = match
			rows[i].BuyerMobile = m.MobileNumber
			rows[i].ShopState = m.ShopState
			rows[i].MerchantScore = score
			rows[i].MerchantStatus = "merchant_name"
			continue
		}
		rows[i].MerchantStatus = "not_found"
		rows[i].MerchantError = "Merchant not matched"
	}
}

// decide consults the decision cache; a missing key is a reject, never
// a silent accept. Collection should have asked everything upfront, so
// a miss is logged.
func decide(cache map[string]bool, key, kind string, logger zerolog.Logger) bool {
	if v, ok := cache[key]; ok {
		return v
	}
	logger.Warn().Str("kind", kind).Str("key", key).Msg("decision missing from cache, rejecting")
	return false
}

func joinReasons(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}
