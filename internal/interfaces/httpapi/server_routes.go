package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRatingRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/communities/{communityID}/ratings", handler.ListCommunityRatings)
	mux.HandleFunc("GET /v1/games/{gameID}/rating", handler.GetGameRating)
}

func registerInternalRatingRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/games/{gameID}/rating/reconcile", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ReconcileGameRating)))
	mux.Handle("POST /v1/internal/games/{gameID}/rating/rollback", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RollbackGameRating)))
	mux.Handle("POST /v1/internal/games/{gameID}/rating/enqueue", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.EnqueueGameRatingReconcile)))
	mux.Handle("POST /v1/internal/communities/{communityID}/rating/resync", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ResyncCommunityRatings)))
}
