package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"dms-upload-service/internal/allocate/brand"
	"dms-upload-service/internal/allocate/ingest"
	"dms-upload-service/internal/allocate/model"
	"dms-upload-service/internal/fileio"
)

const (
	ordersField    = "orders"
	referenceField = "reference"

	productSheet  = "Product Details"
	merchantSheet = "merchant_data"
)

// upload is one fully parsed request: typed order lines, catalog and
// state-filtered merchants, plus the raw reference tables passed
// through to the output workbook.
type upload struct {
	Brand       brand.Config
	State       string
	Lines       []model.OrderLine
	Catalog     []model.CatalogRow
	Merchants   []model.Merchant
	ProductRef  *fileio.Table
	MerchantRef *fileio.Table
	Dropped     int
}

// parseUpload reads both multipart files and resolves brand, state,
// mapping overrides and optional-field defaults. Returns the HTTP
// status to respond with on failure.
func parseUpload(r *http.Request) (*upload, int, error) {
	cfg, ok := brand.Get(r.FormValue("brand"))
	if !ok {
		return nil, http.StatusBadRequest, fmt.Errorf("unknown brand %q", r.FormValue("brand"))
	}

	ordersTable, err := readUploadFile(r, ordersField, "", cfg.HeaderRows)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	refBytes, refName, err := formFileBytes(r, referenceField)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	productRef, err := fileio.ReadSheet(bytes.NewReader(refBytes), refName, productSheet, nil)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, fmt.Errorf("read %s: %w", productSheet, err)
	}
	merchantRef, err := fileio.ReadSheet(bytes.NewReader(refBytes), refName, merchantSheet, nil)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, fmt.Errorf("read %s: %w", merchantSheet, err)
	}

	state := strings.TrimSpace(r.FormValue("state"))
	states := ingest.States(merchantRef)
	if len(states) == 0 {
		return nil, http.StatusUnprocessableEntity, fmt.Errorf("no states found in %s.shop_state", merchantSheet)
	}
	if state == "" {
		state = states[0]
	}

	overrides := map[string]string{}
	for field := range cfg.Columns {
		if v := r.FormValue("map_" + field); v != "" {
			overrides[field] = v
		}
	}
	defaults := ingest.Defaults{
		WarehouseName:  r.FormValue("warehouse_name"),
		LowPriceReason: r.FormValue("low_price_reason"),
		BuyerBranchID:  r.FormValue("buyer_branch_id"),
	}

	lines, dropped, err := ingest.Orders(ordersTable, cfg, overrides, defaults)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, err
	}
	catalog, err := ingest.Catalog(productRef)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, err
	}
	merchants, err := ingest.Merchants(merchantRef, state)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, err
	}

	return &upload{
		Brand:       cfg,
		State:       state,
		Lines:       lines,
		Catalog:     catalog,
		Merchants:   merchants,
		ProductRef:  productRef,
		MerchantRef: merchantRef,
		Dropped:     dropped,
	}, 0, nil
}

func readUploadFile(r *http.Request, field, sheet string, headerRows []int) (*fileio.Table, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %s file: %w", field, err)
	}
	defer f.Close()
	t, err := fileio.ReadSheet(f, hdr.Filename, sheet, headerRows)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	return t, nil
}

func formFileBytes(r *http.Request, field string) ([]byte, string, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing %s file: %w", field, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return b, hdr.Filename, nil
}

// parseDecisions decodes the "decisions" form field; absent maps stay
// non-nil so every lookup is a plain map read.
func parseDecisions(r *http.Request) (model.Decisions, error) {
	d := model.Decisions{
		PartialMatches: map[string]bool{},
		Variants:       map[string]bool{},
		Related:        map[string]bool{},
	}
	raw := r.FormValue("decisions")
	if raw == "" {
		return d, nil
	}
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return d, fmt.Errorf("bad decisions json: %w", err)
	}
	if d.PartialMatches == nil {
		d.PartialMatches = map[string]bool{}
	}
	if d.Variants == nil {
		d.Variants = map[string]bool{}
	}
	if d.Related == nil {
		d.Related = map[string]bool{}
	}
	return d, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func httpError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
