// Package ingest turns fileio tables into typed domain rows: brand
// sales exports, the "Product Details" sheet and the "merchant_data"
// sheet. Missing required columns are fatal here; bad cell values are
// data problems handled downstream.
package ingest

import (
	"fmt"
	"strings"

	"dms-upload-service/internal/allocate/brand"
	"dms-upload-service/internal/allocate/model"
	"dms-upload-service/internal/fileio"
	"dms-upload-service/internal/utils"
)

// Defaults fill brand optional fields absent from the export; supplied
// by the caller alongside the upload.
type Defaults struct {
	WarehouseName  string
	LowPriceReason string
	BuyerBranchID  string
}

// Orders parses a brand sales export. Rows missing any of order_id,
// order_date, product_name or merchant_name are dropped; the dropped
// count is returned for logging. Overrides map field keys to explicit
// column headers, bypassing the brand defaults.
func Orders(t *fileio.Table, cfg brand.Config, overrides map[string]string, d Defaults) ([]model.OrderLine, int, error) {
	cols := map[string]string{}
	for field, want := range cfg.Columns {
		if o := strings.TrimSpace(overrides[field]); o != "" {
			want = o
		}
		col := resolveColumn(t.Headers, want)
		if col == "" && cfg.Required(field) {
			return nil, 0, fmt.Errorf("required column %q (%s) not found in orders file", want, field)
		}
		cols[field] = col
	}

	dueCol := ""
	if cfg.DueDateOffsetDays == 0 {
		for _, h := range t.Headers {
			if strings.Contains(strings.ToLower(h), "due") {
				dueCol = h
				break
			}
		}
	}
	extraCols := map[string]string{}
	for _, want := range cfg.ExtraColumns {
		if c := resolveColumn(t.Headers, want); c != "" {
			extraCols[want] = c
		}
	}

	if d.LowPriceReason == "" {
		d.LowPriceReason = "low price"
	}

	var lines []model.OrderLine
	dropped := 0
	for _, row := range t.Rows {
		get := func(field string) string { return strings.TrimSpace(row[cols[field]]) }

		orderID := get(brand.FieldOrderID)
		rawDate := get(brand.FieldOrderDate)
		productName := get(brand.FieldProductName)
		merchantName := get(brand.FieldMerchantName)
		date, dateErr := parseDate(rawDate, cfg.DayFirst)
		if orderID == "" || rawDate == "" || dateErr != nil || productName == "" || merchantName == "" {
			dropped++
			continue
		}

		qty, _ := utils.ParseNumber(get(brand.FieldQuantity))
		netSales, _ := utils.ParseNumber(get(brand.FieldSellingPrice))

		line := model.OrderLine{
			OrderID:        orderID,
			DMSInvoice:     get(brand.FieldDMSInvoice),
			OrderDate:      date,
			OrderDateStr:   date.Format("02/01/2006"),
			ProductName:    productName,
			MerchantName:   merchantName,
			Quantity:       qty,
			NetSales:       netSales,
			LowPriceReason: d.LowPriceReason,
			BuyerBranchID:  d.BuyerBranchID,
			WarehouseName:  d.WarehouseName,
		}

		if v := get(brand.FieldLowPriceReason); v != "" {
			line.LowPriceReason = v
		}
		if v := get(brand.FieldBuyerBranchID); v != "" {
			line.BuyerBranchID = v
		}
		if v := get(brand.FieldWarehouseName); v != "" {
			line.WarehouseName = v
		}

		switch {
		case cfg.DueDateOffsetDays > 0:
			line.DueDate = date.AddDate(0, 0, cfg.DueDateOffsetDays).Format("02/01/2006")
		case dueCol != "":
			if due, err := parseDate(strings.TrimSpace(row[dueCol]), cfg.DayFirst); err == nil {
				line.DueDate = due.Format("02/01/2006")
			}
		}

		if len(extraCols) > 0 {
			line.Extras = make(map[string]string, len(extraCols))
			for want, c := range extraCols {
				line.Extras[want] = strings.TrimSpace(row[c])
			}
		}

		lines = append(lines, line)
	}
	return lines, dropped, nil
}

// Catalog parses the "Product Details" reference sheet. A blank or
// unparsable stock cell means unbounded stock; numeric batch ids lose
// a spreadsheet-added decimal tail ("12345.0" -> "12345").
func Catalog(t *fileio.Table) ([]model.CatalogRow, error) {
	nameCol := resolveColumn(t.Headers, "product_name")
	if nameCol == "" {
		return nil, fmt.Errorf("required column %q not found in Product Details sheet", "product_name")
	}
	idCol := resolveColumn(t.Headers, "product_id")
	batchCol := resolveColumn(t.Headers, "batch_id")
	stockCol := resolveColumn(t.Headers, "available_stock")

	var rows []model.CatalogRow
	for _, row := range t.Rows {
		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			continue
		}
		batch := strings.TrimSpace(row[batchCol])
		if i := strings.Index(batch, "."); i >= 0 {
			batch = batch[:i]
		}
		stock := inf
		if s, ok := utils.ParseNumber(row[stockCol]); ok {
			stock = s
		}
		rows = append(rows, model.CatalogRow{
			ProductName:    name,
			ProductID:      strings.TrimSpace(row[idCol]),
			BatchID:        batch,
			AvailableStock: stock,
		})
	}
	return rows, nil
}

// Merchants parses the "merchant_data" sheet filtered to one state.
func Merchants(t *fileio.Table, state string) ([]model.Merchant, error) {
	shopCol := resolveColumn(t.Headers, "shop_name")
	if shopCol == "" {
		return nil, fmt.Errorf("required column %q not found in merchant_data sheet", "shop_name")
	}
	merchantCol := resolveColumn(t.Headers, "merchant_name")
	mobileCol := resolveColumn(t.Headers, "merchant_mobile_number")
	stateCol := resolveColumn(t.Headers, "shop_state")

	var out []model.Merchant
	for _, row := range t.Rows {
		m := model.Merchant{
			ShopName:     strings.TrimSpace(row[shopCol]),
			MerchantName: strings.TrimSpace(row[merchantCol]),
			MobileNumber: strings.TrimSpace(row[mobileCol]),
			ShopState:    strings.TrimSpace(row[stateCol]),
		}
		if state != "" && m.ShopState != state {
			continue
		}
		if m.ShopName == "" && m.MerchantName == "" {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// States lists distinct non-empty shop_state values in sheet order.
func States(t *fileio.Table) []string {
	stateCol := resolveColumn(t.Headers, "shop_state")
	if stateCol == "" {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, row := range t.Rows {
		s := strings.TrimSpace(row[stateCol])
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// resolveColumn finds the actual header for a wanted name: exact, then
// case/space-insensitive, then substring either way. Exports rename
// columns between seasons; the substring pass absorbs most of it.
func resolveColumn(headers []string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	for _, h := range headers {
		if h == want {
			return h
		}
	}
	nw := normHeader(want)
	for _, h := range headers {
		if normHeader(h) == nw {
			return h
		}
	}
	for _, h := range headers {
		nh := normHeader(h)
		if strings.Contains(nh, nw) || strings.Contains(nw, nh) {
			return h
		}
	}
	return ""
}

func normHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", " ", " ", " ", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
