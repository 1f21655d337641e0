package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	apperrors "franchise-service/internal/common/errors"
	"franchise-service/internal/common/validation"
	"franchise-service/internal/domain"
	"franchise-service/internal/models"
)

const maxBodyBytes = 1 << 20

type nameBody struct {
	Name string `json:"name"`
}

type stockBody struct {
	Stock int `json:"stock"`
}

type productBody struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "UP",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   h.serviceName,
		"version":   h.version,
	})
}

func (h *Handler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.Warn("readiness check failed", map[string]interface{}{"error": err.Error()})
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) createFranchise(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if !h.decode(w, r, validation.NameRequest, &body) {
		return
	}
	f, err := h.service.CreateFranchise(r.Context(), domain.NewFranchise(body.Name))
	h.respondFranchise(w, http.StatusCreated, f, err)
}

func (h *Handler) listFranchises(w http.ResponseWriter, r *http.Request) {
	out := []models.Franchise{}
	for f, err := range h.service.GetAllFranchises(r.Context()) {
		if err != nil {
			h.writeError(w, err)
			return
		}
		out = append(out, models.FranchiseFromDomain(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getFranchise(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.GetFranchiseByID(r.Context(), mux.Vars(r)["franchiseId"])
	h.respondFranchise(w, http.StatusOK, f, err)
}

func (h *Handler) franchiseExists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.service.FranchiseExists(r.Context(), mux.Vars(r)["franchiseId"])
	switch {
	case err != nil:
		w.WriteHeader(apperrors.HTTPStatus(err))
	case exists:
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) deleteFranchise(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFranchise(r.Context(), mux.Vars(r)["franchiseId"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateFranchiseName(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if !h.decode(w, r, validation.NameRequest, &body) {
		return
	}
	f, err := h.service.UpdateFranchiseName(r.Context(), mux.Vars(r)["franchiseId"], body.Name)
	h.respondFranchise(w, http.StatusOK, f, err)
}

func (h *Handler) addBranch(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if !h.decode(w, r, validation.NameRequest, &body) {
		return
	}
	f, err := h.service.AddBranchToFranchise(r.Context(), mux.Vars(r)["franchiseId"], domain.NewBranch(body.Name))
	h.respondFranchise(w, http.StatusCreated, f, err)
}

func (h *Handler) updateBranchName(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if !h.decode(w, r, validation.NameRequest, &body) {
		return
	}
	vars := mux.Vars(r)
	f, err := h.service.UpdateBranchName(r.Context(), vars["franchiseId"], vars["branchId"], body.Name)
	h.respondFranchise(w, http.StatusOK, f, err)
}

func (h *Handler) removeBranch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	f, err := h.service.RemoveBranchFromFranchise(r.Context(), vars["franchiseId"], vars["branchId"])
	h.respondFranchise(w, http.StatusOK, f, err)
}

func (h *Handler) addProduct(w http.ResponseWriter, r *http.Request) {
	var body productBody
	if !h.decode(w, r, validation.ProductRequest, &body) {
		return
	}
	vars := mux.Vars(r)
	f, err := h.service.AddProductToBranch(r.Context(), vars["franchiseId"], vars["branchId"],
		domain.NewProduct(body.Name, body.Stock))
	h.respondFranchise(w, http.StatusCreated, f, err)
}

func (h *Handler) removeProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	f, err := h.service.RemoveProductFromBranch(r.Context(), vars["franchiseId"], vars["branchId"], vars["productId"])
	h.respondFranchise(w, http.StatusOK, f, err)
}

func (h *Handler) updateProductStock(w http.ResponseWriter, r *http.Request) {
	var body stockBody
	if !h.decode(w, r, validation.StockRequest, &body) {
		return
	}
	vars := mux.Vars(r)
	f, err := h.service.UpdateProductStock(r.Context(), vars["franchiseId"], vars["branchId"], vars["productId"], body.Stock)
	h.respondFranchise(w, http.StatusOK, f, err)
}

func (h *Handler) updateProductName(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if !h.decode(w, r, validation.NameRequest, &body) {
		return
	}
	vars := mux.Vars(r)
	f, err := h.service.UpdateProductName(r.Context(), vars["franchiseId"], vars["branchId"], vars["productId"], body.Name)
	h.respondFranchise(w, http.StatusOK, f, err)
}

func (h *Handler) maxStockProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetProductsWithMaxStockByFranchise(r.Context(), mux.Vars(r)["franchiseId"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ProductsWithBranchFromDomain(result))
}

// decode reads the body, validates it against schema and unmarshals it into
// dst. On failure it writes the 400 response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, schema *validation.Schema, dst interface{}) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, apperrors.NewInvalidArgumentError("body", nil, err))
		return false
	}
	if err := schema.ValidateBytes(data).Err(); err != nil {
		h.writeError(w, err)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		h.writeError(w, apperrors.NewInvalidArgumentError("body", nil, fmt.Errorf("decode: %w", err)))
		return false
	}
	return true
}

func (h *Handler) respondFranchise(w http.ResponseWriter, status int, f *domain.Franchise, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, status, models.FranchiseFromDomain(f))
}

// writeError answers with the StandardError body. Errors that are not
// StandardErrors come from the store and are reported as STORE_FAILURE.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{"error": err.Error()})
	}
	writeJSON(w, status, apperrors.Normalize(err))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
