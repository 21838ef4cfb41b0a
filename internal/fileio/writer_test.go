package fileio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"

	"dms-upload-service/internal/allocate/model"
)

func sampleRow(orderID, batch string) model.AllocatedRow {
	return model.AllocatedRow{
		Line: model.OrderLine{
			OrderID:      orderID,
			OrderDateStr: "15/06/2025",
			ProductName:  "Amul Butter",
			MerchantName: "Sharma Store",
			NetSales:     250,
		},
		Quantity:       5,
		SellingPrice:   50,
		BatchID:        batch,
		ProductID:      "P1",
		MatchedProduct: "amul butter",
		ProductScore:   100,
		UserConfirmed:  true,
		MerchantScore:  100,
		MerchantStatus: "shop_name",
	}
}

func TestWriteWorkbookSheets(t *testing.T) {
	partial := sampleRow("O2", "B1")
	partial.PartialReason = "Product match 85%"
	errRow := sampleRow("O3", "")
	errRow.ErrorMessage = "Insufficient stock"

	d := WorkbookData{
		Result: model.Result{
			ValidSheets: []model.Sheet{{Name: "Sale Order Demo", Orders: 1, Rows: []model.AllocatedRow{sampleRow("O1", "B1")}}},
			Partial:     []model.AllocatedRow{partial},
			Errors:      []model.AllocatedRow{errRow},
			Returns:     []model.ReturnRow{{OrderID: "O4", ProductName: "Amul Butter", ReturnQty: 2}},
		},
		ProductRef: &Table{
			Headers: []string{"product_name", "batch_id"},
			Rows:    []map[string]string{{"product_name": "Amul Butter", "batch_id": "B1"}},
		},
		MerchantRef: &Table{
			Headers: []string{"shop_name", "shop_state"},
			Rows:    []map[string]string{{"shop_name": "Sharma Store", "shop_state": "Karnataka"}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, d))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{
		"Sale Order Demo", "Partially Matched", "Error Rows",
		"Sales Return Sheet", "Product Details", "merchant_data",
	}, f.GetSheetList())

	// first data cell of the valid sheet is the order id
	v, err := f.GetCellValue("Sale Order Demo", "A2")
	require.NoError(t, err)
	assert.Equal(t, "O1", v)

	// error sheet carries the reason in its trailing column
	rows, err := f.GetRows("Error Rows")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "error_message", rows[0][len(rows[0])-1])
	assert.Equal(t, "Insufficient stock", rows[1][len(rows[1])-1])
}

func TestWriteWorkbookEmptyResultStillHasValidSheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, WorkbookData{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Sale Order Demo"}, f.GetSheetList())

	rows, err := f.GetRows("Sale Order Demo")
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
	assert.Equal(t, "order_id", rows[0][0])
}

func TestOrderHeadersColumnOrder(t *testing.T) {
	h := orderHeaders([]string{"Total Tax %"}, "error_message")
	assert.Equal(t, "order_id", h[0])
	assert.Equal(t, "Total Tax %", h[len(topCols)])
	assert.Equal(t, "error_message", h[len(h)-1])
	assert.Len(t, h, len(topCols)+1+len(restCols)+1)
}
