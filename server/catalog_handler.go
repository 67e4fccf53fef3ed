package server

import (
	"net/http"

	"ScreenSync/logger"
	"ScreenSync/model"
)

// CatalogSearchHandler 目录搜索代理（创作端专用，只读）。
// query 参数：q（标题）、kind（catalogMovie / catalogShow / catalogEpisode）
func (h *APIHandler) CatalogSearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	kind := model.ContentKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = model.KindCatalogMovie
	}

	results, err := h.catalog.SearchByTitle(r.Context(), query, kind)
	if err != nil {
		logger.Error("catalog search failed", logger.ErrorField(err), logger.String("query", query))
		respondError(w, http.StatusBadGateway, "catalog search failed")
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// CatalogExternalIDsHandler 换取目录条目的跨目录稳定ID
func (h *APIHandler) CatalogExternalIDsHandler(w http.ResponseWriter, r *http.Request) {
	catalogID := r.URL.Query().Get("id")
	if catalogID == "" {
		respondError(w, http.StatusBadRequest, "missing id parameter")
		return
	}

	kind := model.ContentKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = model.KindCatalogMovie
	}

	ids, err := h.catalog.GetExternalIDs(r.Context(), catalogID, kind)
	if err != nil {
		logger.Error("external id lookup failed", logger.ErrorField(err), logger.String("id", catalogID))
		respondError(w, http.StatusBadGateway, "external id lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, ids)
}
