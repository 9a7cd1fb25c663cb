package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
)

// TokenVerifier resolves a bearer access token to the authenticated user id.
type TokenVerifier interface {
	Verify(accessToken string) (string, error)
}

var errNoCredentials = errors.New("no credentials presented")

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// viewerID identifies the caller. An absent Authorization header yields an
// empty id and no error so read endpoints can serve anonymous traffic; a
// header that is present but fails verification is an error.
func viewerID(r *http.Request, verifier TokenVerifier) (string, error) {
	token := bearerToken(r)
	if token == "" {
		return "", nil
	}
	if verifier == nil {
		return "", errNoCredentials
	}
	return verifier.Verify(token)
}

// requireViewer is viewerID for endpoints where anonymous access is not
// allowed.
func requireViewer(r *http.Request, verifier TokenVerifier) (string, error) {
	id, err := viewerID(r, verifier)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errNoCredentials
	}
	return id, nil
}

// validID reports whether id is syntactically a UUID. Identifiers are checked
// before any store access so malformed ids surface as client errors rather
// than database errors.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

// parsePage reads page and limit query parameters, falling back to defaults
// for absent or out-of-range values.
func parsePage(r *http.Request) models.Page {
	page := models.Page{}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page.Number = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		page.Limit = v
	}
	return page.Normalize()
}
