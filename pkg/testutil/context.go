package testutil

import (
	"net/http"

	id "bridges/pkg/domain"
	"bridges/pkg/requestcontext"
)

// AsUser returns req carrying userID as the authenticated identity, which is
// what the auth middleware does for a valid token.
func AsUser(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}
