package brand

// Field keys used by ingest and the column-mapping overrides.
const (
	FieldOrderID        = "order_id"
	FieldDMSInvoice     = "dms_invoice"
	FieldOrderDate      = "order_date"
	FieldProductName    = "product_name"
	FieldMerchantName   = "merchant_name"
	FieldQuantity       = "quantity"
	FieldSellingPrice   = "selling_price"
	FieldLowPriceReason = "low_price_reason"
	FieldBuyerBranchID  = "buyer_branch_id"
	FieldWarehouseName  = "warehouse_name"
)

// Config describes how one brand's sales export is read: default column
// headers per field, header placement and the date layout convention.
// One engine parameterized by this struct replaces the per-brand
// processor copies the DMS team used to maintain.
type Config struct {
	Name string `json:"name"`

	// field key -> default column header in the export
	Columns map[string]string `json:"columns"`
	// field keys that may be absent from the export
	Optional []string `json:"optional,omitempty"`

	// 1-based header row numbers; multiple rows are merged per column
	// (Unicharm ships a three-row stacked header)
	HeaderRows []int `json:"header_rows"`

	// true = dd/mm first when a date is ambiguous (Britannia, Marico,
	// Unicharm); false = month-first (HUL)
	DayFirst bool `json:"day_first"`

	// due date handling: detect a "due" column unless the brand derives
	// it from the order date
	DueDateOffsetDays int `json:"due_date_offset_days,omitempty"`

	// passthrough columns copied verbatim to the output when present,
	// matched case-insensitively by substring
	ExtraColumns []string `json:"extra_columns,omitempty"`
}

var optionalDefaults = []string{FieldLowPriceReason, FieldBuyerBranchID, FieldWarehouseName}

var configs = []Config{
	{
		Name: "HUL",
		Columns: map[string]string{
			FieldOrderID:        "Bill Number",
			FieldDMSInvoice:     "Bill Number",
			FieldOrderDate:      "Bill Date",
			FieldProductName:    "Product Description",
			FieldMerchantName:   "Party",
			FieldQuantity:       "Units",
			FieldSellingPrice:   "Net Sales",
			FieldLowPriceReason: "Low Price Reason",
			FieldBuyerBranchID:  "Branch ID",
			FieldWarehouseName:  "Warehouse Name",
		},
		Optional:     optionalDefaults,
		HeaderRows:   []int{1},
		DayFirst:     false,
		ExtraColumns: []string{"Total Tax %"},
	},
	{
		Name: "Britannia",
		Columns: map[string]string{
			FieldOrderID:        "Invoice No",
			FieldDMSInvoice:     "Invoice No",
			FieldOrderDate:      "Invoice Date",
			FieldProductName:    "Material No Desc",
			FieldMerchantName:   "Sold To Party Name",
			FieldQuantity:       "Quantity",
			FieldSellingPrice:   "Net Amount",
			FieldLowPriceReason: "Low Price Reason",
			FieldBuyerBranchID:  "Branch ID",
			FieldWarehouseName:  "Warehouse Name",
		},
		Optional:     optionalDefaults,
		HeaderRows:   []int{1},
		DayFirst:     true,
		ExtraColumns: []string{"CGST %", "SGST / UGST %", "IGST %"},
	},
	{
		Name: "Marico",
		Columns: map[string]string{
			FieldOrderID:      "Invoice Number",
			FieldDMSInvoice:   "Invoice Number",
			FieldOrderDate:    "Invoice Date",
			FieldProductName:  "Item Description",
			FieldMerchantName: "Retailer Name",
			FieldQuantity:     "Item Qty",
			FieldSellingPrice: "Value Incl of Tax",
		},
		Optional:   optionalDefaults,
		HeaderRows: []int{1},
		DayFirst:   true,
	},
	{
		Name: "Unicharm",
		Columns: map[string]string{
			FieldOrderID:      "Invoice Number",
			FieldDMSInvoice:   "Invoice Number",
			FieldOrderDate:    "Invoice Date",
			FieldProductName:  "Product Name",
			FieldMerchantName: "Retailer Name",
			FieldQuantity:     "Total Quantity",
			FieldSellingPrice: "Product Level NetAmount",
		},
		Optional:          optionalDefaults,
		HeaderRows:        []int{7, 8, 9},
		DayFirst:          true,
		DueDateOffsetDays: 10,
	},
}

// Get returns the config for a brand name (case-sensitive, as listed by All).
func Get(name string) (Config, bool) {
	for _, c := range configs {
		if c.Name == name {
			return c, true
		}
	}
	return Config{}, false
}

func All() []Config {
	out := make([]Config, len(configs))
	copy(out, configs)
	return out
}

// Required reports whether a field must resolve to a column for this brand.
func (c Config) Required(field string) bool {
	for _, o := range c.Optional {
		if o == field {
			return false
		}
	}
	_, ok := c.Columns[field]
	return ok
}
