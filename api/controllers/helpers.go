package controllers

import (
	"net/http"

	"github.com/angelmondragon/farmconnect-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
)

func unavailable(name string) error {
	return pkgerrors.Newf(pkgerrors.CodeInternal, "%s service unavailable", name)
}

func callerID(r *http.Request) (string, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	return userID, nil
}
