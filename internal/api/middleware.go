package api

import (
	"context"
	"net/http"
)

// OwnerHeader carries the authenticated owner id, set by the identity layer
// in front of this service. The core trusts it completely and performs no
// authentication of its own.
const OwnerHeader = "X-Owner-ID"

type ctxKey int

const ownerKey ctxKey = 0

// requireOwner rejects requests without an owner id and stashes the id in
// the request context for handlers.
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get(OwnerHeader)
		if owner == "" {
			respondError(w, http.StatusUnauthorized, "missing owner identity")
			return
		}
		ctx := context.WithValue(r.Context(), ownerKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerID(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey).(string)
	return owner
}
