package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/caiovls/merch-admin/internal/redisx"
	"github.com/caiovls/merch-admin/internal/stock"
)

type AdminHandler struct {
	Store *stock.PgStore
	Redis *redis.Client
}

type AdjustStockReq struct {
	VariantID int64  `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	Actor     string `json:"actor"`
	Note      string `json:"note"`
}

func (h *AdminHandler) Register(r *chi.Mux) {
	r.Post("/admin/stock/adjust", h.adjustStock)
	r.Get("/admin/stock/movements", h.listMovements)
	r.Get("/admin/stock/audit", h.auditMovements)
}

func (h *AdminHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.VariantID <= 0 || req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid variant or quantity"})
		return
	}
	actor := req.Actor
	if actor == "" {
		actor = "admin"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c := &stock.Counter{Store: h.Store}
	err := c.AdjustTo(ctx, req.VariantID, req.Quantity, stock.KindAdjustment, stock.Mutation{
		Actor:  actor,
		Origin: "admin_api",
		Note:   req.Note,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// quantity changed, the cached storefront snapshot is stale
	_ = h.Redis.Del(ctx, redisx.KeyCatalogSnapshot).Err()

	writeJSON(w, http.StatusOK, map[string]any{"variant_id": req.VariantID, "quantity": req.Quantity})
}

func (h *AdminHandler) listMovements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	f := stock.MovementFilter{
		OrderID: r.URL.Query().Get("order_id"),
		Kind:    stock.Kind(r.URL.Query().Get("kind")),
	}
	if v := r.URL.Query().Get("variant_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid variant_id"})
			return
		}
		f.VariantID = id
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		f.Limit = n
	}

	ms, err := h.Store.ListMovements(ctx, f)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

// auditMovements replays the ledger and reports arithmetic or chain breaks.
func (h *AdminHandler) auditMovements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	f := stock.MovementFilter{Limit: 10000}
	if v := r.URL.Query().Get("variant_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid variant_id"})
			return
		}
		f.VariantID = id
	}

	ms, err := h.Store.ListMovements(ctx, f)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	problems := stock.Audit(ms)
	writeJSON(w, http.StatusOK, map[string]any{
		"movements":       len(ms),
		"inconsistencies": problems,
		"clean":           len(problems) == 0,
	})
}
