package handlers

import (
	"net/http"

	apiContext "rentr/internal/api/context"
	"rentr/internal/platform/auth"
)

func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(apiContext.Claims).(*auth.Claims)
	return claims
}
