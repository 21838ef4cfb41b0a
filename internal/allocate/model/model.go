package model

import "time"

// OrderLine is one parsed row of a brand sales export. Immutable after
// ingest; Quantity keeps its sign (negative = sales return).
type OrderLine struct {
	OrderID      string
	DMSInvoice   string
	OrderDate    time.Time
	OrderDateStr string // dd/mm/yyyy, as written to the output workbook
	ProductName  string
	MerchantName string
	Quantity     float64
	NetSales     float64

	// brand-specific optional fields
	LowPriceReason string
	BuyerBranchID  string
	WarehouseName  string
	DueDate        string
	Extras         map[string]string // passthrough tax columns, keyed by output header
}

// CatalogRow is one row of the "Product Details" reference sheet: one
// batch of one product. Several rows may share a ProductID (variants).
type CatalogRow struct {
	ProductName    string
	ProductID      string
	BatchID        string
	AvailableStock float64 // +Inf when the cell is blank (unbounded)
}

type Merchant struct {
	ShopName     string
	MerchantName string
	MobileNumber string
	ShopState    string
}

type QuestionType string

const (
	QuestionPartial QuestionType = "partial_match"
	QuestionVariant QuestionType = "variant"
	QuestionRelated QuestionType = "related"
)

// Question is one pending human decision. CacheKey is the stable
// "{input}|{candidate}" string the caller must answer under.
type Question struct {
	Type     QuestionType `json:"type"`
	CacheKey string       `json:"cache_key"`

	InputProduct   string `json:"input_product,omitempty"`
	MatchedProduct string `json:"matched_product,omitempty"`
	Score          int    `json:"score,omitempty"`

	MainProduct    string  `json:"main_product,omitempty"`
	Variant        string  `json:"variant,omitempty"`
	RelatedProduct string  `json:"related_product,omitempty"`
	MainStock      float64 `json:"main_stock,omitempty"`
	VariantStock   float64 `json:"variant_stock,omitempty"`
	RelatedStock   float64 `json:"related_stock,omitempty"`
	RequiredQty    float64 `json:"required_qty,omitempty"`
	TotalStock     float64 `json:"total_stock,omitempty"`
}

// QuestionSet groups everything the upfront collection pass found,
// ordered and deduplicated by cache key.
type QuestionSet struct {
	PartialMatches []Question `json:"partial_matches"`
	Variants       []Question `json:"variants"`
	Related        []Question `json:"related"`
}

func (qs QuestionSet) Empty() bool {
	return len(qs.PartialMatches) == 0 && len(qs.Variants) == 0 && len(qs.Related) == 0
}

// Decisions is the externally supplied answer map. A key missing for a
// needed decision means reject.
type Decisions struct {
	PartialMatches map[string]bool `json:"partial_matches"`
	Variants       map[string]bool `json:"variants"`
	Related        map[string]bool `json:"related"`
}

// AllocatedRow is one OrderLine's draw from one batch, plus the match
// metadata the categorizer and the output workbook need. Error rows
// carry empty BatchID/ProductID and a reason in ErrorMessage.
type AllocatedRow struct {
	Line OrderLine

	Quantity     float64
	SellingPrice float64
	BatchID      string
	ProductID    string

	MatchedProduct string
	ProductScore   int
	UserConfirmed  bool
	ProductError   string

	MatchedShop    string
	BuyerMobile    string
	ShopState      string
	MerchantScore  int
	MerchantStatus string // shop_name | merchant_name | not_found
	MerchantError  string

	ErrorMessage  string
	PartialReason string
}

// ReturnRow is one sales return, written to the Sales Return Sheet.
type ReturnRow struct {
	OrderID      string
	ProductID    string
	BatchID      string
	ProductName  string
	Price        float64
	ReturnQty    float64
	ReturnAmount float64
	Reason       string
	ErrorMessage string
	ReturnDate   string
	Note         string
	Remark       string
}

// Sheet is one paginated group of valid orders.
type Sheet struct {
	Name   string
	Orders int
	Rows   []AllocatedRow
}

type Summary struct {
	ValidOrders   int `json:"valid_orders"`
	PartialOrders int `json:"partial_orders"`
	ErrorOrders   int `json:"error_orders"`
	ReturnRows    int `json:"return_rows"`
	SplitOrders   int `json:"split_orders"` // orders fulfilled from >1 batch
	DroppedRows   int `json:"dropped_rows"` // incomplete input rows
}

// Result is the full outcome of one processing run.
type Result struct {
	ValidSheets []Sheet
	Partial     []AllocatedRow
	Errors      []AllocatedRow
	Returns     []ReturnRow
	Summary     Summary
}
