package service

import (
	"fmt"
	"math"

	"dms-upload-service/internal/allocate/model"
)

// MaxOrdersPerSheet caps distinct order_ids per valid sheet; DMS bulk
// import rejects larger files.
const MaxOrdersPerSheet = 200

const (
	categoryValid   = "valid"
	categoryPartial = "partial"
	categoryError   = "error"
)

// Categorize splits allocated rows into valid / partially matched /
// error buckets, pulling sales returns out first. A whole order_id
// always moves together: one bad row sends every sibling row of that
// order to the error sheet.
func Categorize(rows []model.AllocatedRow) model.Result {
	var res model.Result

	var kept []model.AllocatedRow
	for _, r := range rows {
		if r.Quantity < 0 {
			res.Returns = append(res.Returns, toReturnRow(r))
			continue
		}
		kept = append(kept, r)
	}

	errorOrders := map[string]bool{}
	for _, r := range kept {
		if rowCategory(r) == categoryError {
			errorOrders[r.Line.OrderID] = true
		}
	}
	partialOrders := map[string]bool{}
	for _, r := range kept {
		if !errorOrders[r.Line.OrderID] && rowCategory(r) == categoryPartial {
			partialOrders[r.Line.OrderID] = true
		}
	}

	var valid []model.AllocatedRow
	for _, r := range kept {
		switch {
		case errorOrders[r.Line.OrderID]:
			r.ErrorMessage = errReason(r)
			res.Errors = append(res.Errors, r)
		case partialOrders[r.Line.OrderID]:
			r.PartialReason = partialReason(r)
			res.Partial = append(res.Partial, r)
		default:
			valid = append(valid, r)
		}
	}

	res.ValidSheets = paginate(valid)

	res.Summary = model.Summary{
		ValidOrders:   countOrders(valid),
		PartialOrders: countOrders(res.Partial),
		ErrorOrders:   countOrders(res.Errors),
		ReturnRows:    len(res.Returns),
		SplitOrders:   countSplitOrders(valid),
	}
	return res
}

func rowCategory(r model.AllocatedRow) string {
	if r.ErrorMessage != "" || r.ProductID == "" || r.BatchID == "" {
		return categoryError
	}
	if r.MerchantScore == ScoreExact {
		if r.ProductScore == ScoreExact || (r.UserConfirmed && r.ProductScore >= PartialMinScore) {
			return categoryValid
		}
		if r.ProductScore >= PartialMinScore {
			return categoryPartial
		}
	}
	return categoryError
}

// errReason concatenates every contributing reason; nothing is
// silently dropped. A clean row dragged over by a failing sibling of
// its order still gets a reason.
func errReason(r model.AllocatedRow) string {
	parts := []string{r.ProductError, r.MerchantError}
	if r.ProductScore < ScoreExact && !r.UserConfirmed {
		parts = append(parts, fmt.Sprintf("Product match %d%%", r.ProductScore))
	}
	if r.MerchantScore < ScoreExact {
		parts = append(parts, fmt.Sprintf("Merchant match %d%%", r.MerchantScore))
	}
	if s := joinReasons(parts...); s != "" {
		return s
	}
	return "Sibling row error in order"
}

func partialReason(r model.AllocatedRow) string {
	var parts []string
	switch {
	case r.UserConfirmed:
		parts = append(parts, fmt.Sprintf("User confirmed match (%d%%)", r.ProductScore))
	case r.ProductScore < ScoreExact:
		parts = append(parts, fmt.Sprintf("Product match %d%%", r.ProductScore))
	}
	if r.MerchantScore < ScoreExact {
		parts = append(parts, fmt.Sprintf("Merchant match %d%%", r.MerchantScore))
	}
	parts = append(parts, r.ProductError)
	if s := joinReasons(parts...); s != "" {
		return s
	}
	return "Partial match"
}

func toReturnRow(r model.AllocatedRow) model.ReturnRow {
	absQty := math.Abs(r.Quantity)
	absNet := math.Abs(r.Line.NetSales)
	price := 0.0
	if absQty != 0 {
		price = absNet / absQty
	}
	name := r.MatchedProduct
	if name == "" {
		name = r.Line.ProductName
	}
	return model.ReturnRow{
		OrderID:      r.Line.OrderID,
		ProductID:    r.ProductID,
		BatchID:      r.BatchID,
		ProductName:  name,
		Price:        price,
		ReturnQty:    absQty,
		ReturnAmount: price,
		Reason:       r.Line.LowPriceReason,
		ErrorMessage: r.ErrorMessage,
		ReturnDate:   r.Line.OrderDateStr,
	}
}

// paginate packs valid orders into sheets of at most MaxOrdersPerSheet
// distinct order_ids, first-fit in order of first appearance, never
// splitting one order's rows across sheets.
func paginate(valid []model.AllocatedRow) []model.Sheet {
	if len(valid) == 0 {
		return nil
	}
	byOrder := map[string][]model.AllocatedRow{}
	var orderIDs []string
	for _, r := range valid {
		if _, ok := byOrder[r.Line.OrderID]; !ok {
			orderIDs = append(orderIDs, r.Line.OrderID)
		}
		byOrder[r.Line.OrderID] = append(byOrder[r.Line.OrderID], r)
	}

	var groups [][]string
	for start := 0; start < len(orderIDs); start += MaxOrdersPerSheet {
		end := start + MaxOrdersPerSheet
		if end > len(orderIDs) {
			end = len(orderIDs)
		}
		groups = append(groups, orderIDs[start:end])
	}

	sheets := make([]model.Sheet, 0, len(groups))
	for i, g := range groups {
		name := "Sale Order Demo"
		if len(groups) > 1 {
			name = fmt.Sprintf("Sale Order Demo %d", i+1)
		}
		s := model.Sheet{Name: name, Orders: len(g)}
		for _, id := range g {
			s.Rows = append(s.Rows, byOrder[id]...)
		}
		sheets = append(sheets, s)
	}
	return sheets
}

func countOrders(rows []model.AllocatedRow) int {
	seen := map[string]bool{}
	for _, r := range rows {
		seen[r.Line.OrderID] = true
	}
	return len(seen)
}

func countSplitOrders(rows []model.AllocatedRow) int {
	counts := map[string]int{}
	for _, r := range rows {
		counts[r.Line.OrderID]++
	}
	n := 0
	for _, c := range counts {
		if c > 1 {
			n++
		}
	}
	return n
}
