package fileio

import (
	"fmt"
	"io"

	excelize "github.com/xuri/excelize/v2"

	"dms-upload-service/internal/allocate/model"
)

// WorkbookData is everything the output workbook carries: the run
// result, the brand's passthrough column order and the two reference
// tables copied through for the operations team.
type WorkbookData struct {
	Result      model.Result
	ExtraCols   []string
	ProductRef  *Table
	MerchantRef *Table
}

// fills used to flag sheets for the reviewing human
const (
	fillError   = "FFC7CE" // red tint
	fillPartial = "FFEB9C" // yellow tint
	fillHeader  = "4472C4"
)

var topCols = []string{
	"order_id", "order_date", "warehouse_name", "product_id", "batch_id",
	"buyer_mobile", "buyer_branch_id", "quantity", "selling_price",
	"due_date", "dms_invoice", "low_price_reason",
}

var restCols = []string{
	"product_name", "merchant_name", "net_sales",
	"matched_product_name", "product_match_score", "user_confirmed_match",
	"matched_shop_name", "shop_state", "merchant_match_score", "merchant_find_status",
}

var returnCols = []string{
	"order_id", "product_id", "batch_id", "product_name", "price",
	"return_qty", "return_amount", "reason", "error_message",
	"sales_return_date", "note", "remark",
}

// WriteWorkbook builds the output .xlsx: paginated valid sheets,
// tinted "Partially Matched" and "Error Rows", the "Sales Return
// Sheet" and passthrough copies of both reference sheets.
func WriteWorkbook(w io.Writer, d WorkbookData) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{fillHeader}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	sheets := d.Result.ValidSheets
	if len(sheets) == 0 {
		sheets = []model.Sheet{{Name: "Sale Order Demo"}}
	}
	for _, s := range sheets {
		if err := writeOrderSheet(f, s.Name, s.Rows, d.ExtraCols, "", headerStyle, ""); err != nil {
			return err
		}
	}
	if len(d.Result.Partial) > 0 {
		if err := writeOrderSheet(f, "Partially Matched", d.Result.Partial, d.ExtraCols, "partial_match_reason", headerStyle, fillPartial); err != nil {
			return err
		}
	}
	if len(d.Result.Errors) > 0 {
		if err := writeOrderSheet(f, "Error Rows", d.Result.Errors, d.ExtraCols, "error_message", headerStyle, fillError); err != nil {
			return err
		}
	}
	if len(d.Result.Returns) > 0 {
		if err := writeReturnSheet(f, d.Result.Returns, headerStyle); err != nil {
			return err
		}
	}
	if d.ProductRef != nil {
		if err := writeTable(f, "Product Details", d.ProductRef, headerStyle); err != nil {
			return err
		}
	}
	if d.MerchantRef != nil {
		if err := writeTable(f, "merchant_data", d.MerchantRef, headerStyle); err != nil {
			return err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.Write(w)
}

func orderHeaders(extras []string, reasonCol string) []string {
	h := make([]string, 0, len(topCols)+len(extras)+len(restCols)+1)
	h = append(h, topCols...)
	h = append(h, extras...)
	h = append(h, restCols...)
	if reasonCol != "" {
		h = append(h, reasonCol)
	}
	return h
}

func orderValues(r model.AllocatedRow, extras []string, reasonCol string) []interface{} {
	vals := []interface{}{
		r.Line.OrderID, r.Line.OrderDateStr, r.Line.WarehouseName,
		r.ProductID, r.BatchID, r.BuyerMobile, r.Line.BuyerBranchID,
		r.Quantity, r.SellingPrice, r.Line.DueDate, r.Line.DMSInvoice,
		r.Line.LowPriceReason,
	}
	for _, c := range extras {
		vals = append(vals, r.Line.Extras[c])
	}
	vals = append(vals,
		r.Line.ProductName, r.Line.MerchantName, r.Line.NetSales,
		r.MatchedProduct, r.ProductScore, r.UserConfirmed,
		r.MatchedShop, r.ShopState, r.MerchantScore, r.MerchantStatus,
	)
	switch reasonCol {
	case "error_message":
		vals = append(vals, r.ErrorMessage)
	case "partial_match_reason":
		vals = append(vals, r.PartialReason)
	}
	return vals
}

func writeOrderSheet(f *excelize.File, name string, rows []model.AllocatedRow, extras []string, reasonCol string, headerStyle int, fill string) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	headers := orderHeaders(extras, reasonCol)
	hvals := make([]interface{}, len(headers))
	for i, h := range headers {
		hvals[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &hvals); err != nil {
		return err
	}
	for i, r := range rows {
		vals := orderValues(r, extras, reasonCol)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(name, cell, &vals); err != nil {
			return err
		}
	}
	return styleSheet(f, name, len(headers), len(rows), headerStyle, fill)
}

func writeReturnSheet(f *excelize.File, rows []model.ReturnRow, headerStyle int) error {
	const name = "Sales Return Sheet"
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	hvals := make([]interface{}, len(returnCols))
	for i, h := range returnCols {
		hvals[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &hvals); err != nil {
		return err
	}
	for i, r := range rows {
		vals := []interface{}{
			r.OrderID, r.ProductID, r.BatchID, r.ProductName, r.Price,
			r.ReturnQty, r.ReturnAmount, r.Reason, r.ErrorMessage,
			r.ReturnDate, r.Note, r.Remark,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(name, cell, &vals); err != nil {
			return err
		}
	}
	return styleSheet(f, name, len(returnCols), len(rows), headerStyle, "")
}

func writeTable(f *excelize.File, name string, t *Table, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	hvals := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		hvals[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &hvals); err != nil {
		return err
	}
	for i, row := range t.Rows {
		vals := make([]interface{}, len(t.Headers))
		for c, h := range t.Headers {
			vals[c] = row[h]
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(name, cell, &vals); err != nil {
			return err
		}
	}
	return styleSheet(f, name, len(t.Headers), len(t.Rows), headerStyle, "")
}

// styleSheet applies the header style and, for flagged sheets, a
// background tint over the data range.
func styleSheet(f *excelize.File, name string, cols, rows, headerStyle int, fill string) error {
	if cols == 0 {
		return nil
	}
	last, _ := excelize.CoordinatesToCellName(cols, 1)
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return err
	}
	if fill == "" || rows == 0 {
		return nil
	}
	tint, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	lastData, _ := excelize.CoordinatesToCellName(cols, rows+1)
	return f.SetCellStyle(name, "A2", lastData, tint)
}
