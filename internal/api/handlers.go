package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/example/wakama-oracle/internal/capitalpool"
	"github.com/example/wakama-oracle/internal/security"
	"github.com/example/wakama-oracle/internal/telemetry"
)

type capitalPoolResponse struct {
	OK            bool                `json:"ok"`
	Mode          string              `json:"mode"`
	Fallback      *string             `json:"fallback"`
	Error         *string             `json:"error"`
	GeneratedAt   string              `json:"generatedAt"`
	VaultAta      string              `json:"vaultAta"`
	TotalDeposits *decimal.Decimal    `json:"totalDeposits"`
	Rows          []capitalpool.Row   `json:"rows"`
	RPCRows       *[]capitalpool.Row  `json:"rpcRows,omitempty"`
}

type capitalPoolFailure struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode"`
	Error  string `json:"error"`
	Error2 string `json:"error2,omitempty"`
}

func handleCapitalPool(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := capitalpool.DefaultLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				limit = i
			}
		}
		mode := r.URL.Query().Get("mode")
		if mode == "" {
			mode = capitalpool.ModeAuto
		}

		view := deps.CapitalPool.Reconcile(r.Context(), mode, limit)

		if view.HardFailure {
			writeJSON(w, r, http.StatusInternalServerError, capitalPoolFailure{
				Mode:   view.Mode,
				Error:  view.Err,
				Error2: view.Err2,
			})
			return
		}

		rows := view.Rows
		if rows == nil {
			rows = []capitalpool.Row{}
		}
		resp := capitalPoolResponse{
			OK:            view.OK,
			Mode:          view.Mode,
			Fallback:      nullable(view.Fallback),
			Error:         nullable(view.Err),
			GeneratedAt:   view.GeneratedAt,
			VaultAta:      view.VaultATA,
			TotalDeposits: view.TotalDeposits,
			Rows:          rows,
		}
		if view.RPCRows != nil {
			rpcRows := view.RPCRows
			resp.RPCRows = &rpcRows
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

func handleNow(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		raw, err := deps.Snapshots.NowRaw(r.Context())
		if err != nil {
			writeJSON(w, r, http.StatusInternalServerError, map[string]string{
				"error":  "NOW_SNAPSHOT_READ_FAILED",
				"detail": err.Error(),
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	}
}

func handleNowMainnet(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		feed := deps.Telemetry.MainnetFeed(r.Context())
		writeJSON(w, r, http.StatusOK, feed)
	}
}

type rwaOverviewResponse struct {
	Batches interface{} `json:"batches"`
	RWAs    interface{} `json:"rwas"`
	Teams   interface{} `json:"teams"`
}

func handleRWAOverview(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		batches, err := deps.Batches.ListBatches(ctx, 200)
		if err != nil {
			writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "store-error"})
			return
		}
		assets, err := deps.Assets.List(ctx)
		if err != nil {
			writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "store-error"})
			return
		}
		teamDocs, err := deps.Teams.List(ctx)
		if err != nil {
			writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "store-error"})
			return
		}

		if batches == nil {
			batches = []telemetry.Batch{}
		}
		writeJSON(w, r, http.StatusOK, rwaOverviewResponse{
			Batches: batches,
			RWAs:    assets,
			Teams:   teamDocs,
		})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func handleLogin(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
			writeJSON(w, r, http.StatusBadRequest, map[string]interface{}{
				"ok":    false,
				"error": "Missing credentials",
			})
			return
		}

		if deps.Issuer == nil {
			security.WriteJSONError(w, r, http.StatusServiceUnavailable, "auth_unavailable")
			return
		}
		if !deps.Credentials.Check(req.Email, req.Password) {
			writeJSON(w, r, http.StatusUnauthorized, map[string]interface{}{
				"ok":    false,
				"error": "Invalid credentials",
			})
			return
		}

		token, err := deps.Issuer.Issue(req.Email)
		if err != nil {
			security.WriteJSONError(w, r, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]interface{}{"ok": true, "token": token})
	}
}

func handleMapboxToken(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Public display token, safe to hand to the browser.
		writeJSON(w, r, http.StatusOK, map[string]string{"token": deps.MapboxToken})
	}
}

func handleIngestEcho() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]interface{}{
			"ok":    true,
			"route": "/api/iot/ingest",
		})
	}
}

type ingestRequest struct {
	CID    string `json:"cid"`
	Tx     string `json:"tx"`
	SHA256 string `json:"sha256"`
	TeamID string `json:"teamId"`
	Source string `json:"source"`
	Points int    `json:"points"`
	Status string `json:"status"`
}

func handleIngest(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ingestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}

		source := req.Source
		if source == "" {
			source = "iot"
		}
		batch, err := deps.Telemetry.Ingest(r.Context(), telemetry.Batch{
			CID:         req.CID,
			TxSignature: req.Tx,
			SHA256:      req.SHA256,
			TeamID:      req.TeamID,
			Source:      source,
			Points:      req.Points,
			Status:      req.Status,
		})
		if err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_request")
			return
		}

		writeJSON(w, r, http.StatusOK, map[string]interface{}{
			"ok":       true,
			"received": true,
			"id":       batch.ID,
		})
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
