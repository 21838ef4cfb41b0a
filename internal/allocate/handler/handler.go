package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dms-upload-service/internal/allocate/brand"
	"dms-upload-service/internal/allocate/ingest"
	"dms-upload-service/internal/allocate/service"
	"dms-upload-service/internal/config"
	"dms-upload-service/internal/fileio"
	"dms-upload-service/internal/middleware"
)

// Brands lists the supported brand configurations, default column
// tables included, so the UI can prefill its mapping form.
func Brands() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"brands": brand.All()})
	}
}

// States returns the distinct shop_state values of an uploaded
// reference workbook; the UI asks before the full upload so the user
// can pick one.
func States(cfg config.Config, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(int64(cfg.MaxUploadMB) << 20); err != nil {
			httpError(w, http.StatusBadRequest, fmt.Errorf("bad multipart form: %w", err))
			return
		}
		refBytes, refName, err := formFileBytes(r, referenceField)
		if err != nil {
			httpError(w, http.StatusBadRequest, err)
			return
		}
		t, err := fileio.ReadSheet(bytes.NewReader(refBytes), refName, merchantSheet, nil)
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, fmt.Errorf("read %s: %w", merchantSheet, err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"states": ingest.States(t)})
	}
}

// Questions runs the upfront collection pass: every partial-match,
// variant and related-product decision the batch will need, computed
// against a simulated ledger before any stock is committed. The caller
// answers these once and then calls Process.
func Questions(cfg config.Config, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := bindRequestID(logger, r)

		up, status, err := parseRequest(r, cfg)
		if err != nil {
			httpError(w, status, err)
			return
		}

		qs, err := service.CollectQuestions(up.Lines, up.Catalog)
		if err != nil {
			log.Error().Err(err).Msg("collect questions")
			httpError(w, http.StatusInternalServerError, err)
			return
		}

		log.Info().
			Str("brand", up.Brand.Name).
			Str("state", up.State).
			Int("lines", len(up.Lines)).
			Int("dropped", up.Dropped).
			Int("partial_questions", len(qs.PartialMatches)).
			Int("variant_questions", len(qs.Variants)).
			Int("related_questions", len(qs.Related)).
			Dur("elapsed", time.Since(start)).
			Msg("questions collected")

		writeJSON(w, http.StatusOK, qs)
	}
}

// Process runs the full allocation with the supplied decision cache
// and streams back the output workbook. Stateless: repeating the call
// with a grown cache re-runs from the pristine uploaded catalog.
func Process(cfg config.Config, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := bindRequestID(logger, r)

		up, status, err := parseRequest(r, cfg)
		if err != nil {
			httpError(w, status, err)
			return
		}
		decisions, err := parseDecisions(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, err)
			return
		}

		rows := service.Allocate(service.Input{
			Lines:     up.Lines,
			Catalog:   up.Catalog,
			Merchants: up.Merchants,
			Decisions: decisions,
		}, log)
		res := service.Categorize(rows)
		res.Summary.DroppedRows = up.Dropped

		var buf bytes.Buffer
		err = fileio.WriteWorkbook(&buf, fileio.WorkbookData{
			Result:      res,
			ExtraCols:   up.Brand.ExtraColumns,
			ProductRef:  up.ProductRef,
			MerchantRef: up.MerchantRef,
		})
		if err != nil {
			log.Error().Err(err).Msg("write workbook")
			httpError(w, http.StatusInternalServerError, err)
			return
		}

		log.Info().
			Str("brand", up.Brand.Name).
			Str("state", up.State).
			Int("lines", len(up.Lines)).
			Int("valid_orders", res.Summary.ValidOrders).
			Int("partial_orders", res.Summary.PartialOrders).
			Int("error_orders", res.Summary.ErrorOrders).
			Int("return_rows", res.Summary.ReturnRows).
			Int("split_orders", res.Summary.SplitOrders).
			Dur("elapsed", time.Since(start)).
			Msg("upload processed")

		summary, _ := json.Marshal(res.Summary)
		name := fmt.Sprintf("%s_upload_%s.xlsx", strings.ToLower(up.Brand.Name), time.Now().Format("20060102_150405"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.Header().Set("X-Upload-Summary", string(summary))
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(buf.Bytes())
	}
}

func parseRequest(r *http.Request, cfg config.Config) (*upload, int, error) {
	if err := r.ParseMultipartForm(int64(cfg.MaxUploadMB) << 20); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("bad multipart form: %w", err)
	}
	return parseUpload(r)
}

func bindRequestID(logger zerolog.Logger, r *http.Request) zerolog.Logger {
	rid := middleware.GetRequestID(r)
	if rid == "" {
		rid = r.Header.Get("X-Request-ID")
	}
	if rid != "" {
		return logger.With().Str("req_id", rid).Logger()
	}
	return logger
}
