package handlers

import (
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"

	"eventpulse/internal/keys"
)

type registerRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// Register creates an application for the signed-in owner and returns the
// plaintext API key. The key is shown exactly once; only its hash is
// stored.
func Register(svc *keys.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}

		var req registerRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "Invalid JSON body.")
			return
		}
		if req.Name == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "Application name is required")
			return
		}

		issued, err := svc.Issue(ctx, user.ID, req.Name, req.Domain)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Server error registering application.")
			return
		}

		jsonResponse(ctx, fasthttp.StatusCreated, map[string]any{
			"message": "Application registered successfully.",
			"appId":   issued.ApplicationID,
			"apiKey":  issued.PlainKey,
		})
	}
}

// ListAPIKeys returns the owner's applications with their key status.
func ListAPIKeys(svc *keys.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}

		rows, err := svc.ListForOwner(ctx, user.ID)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Server error retrieving keys.")
			return
		}
		if rows == nil {
			rows = []keys.KeyInfo{}
		}
		jsonResponse(ctx, fasthttp.StatusOK, rows)
	}
}

type revokeRequest struct {
	APIKeyID uint `json:"apiKeyId"`
}

// Revoke marks one of the owner's API keys as revoked. A key that does not
// exist and a key owned by someone else both come back 404.
func Revoke(svc *keys.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}

		var req revokeRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "Invalid JSON body.")
			return
		}
		if req.APIKeyID == 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "API Key ID is required")
			return
		}

		if err := svc.Revoke(ctx, user.ID, req.APIKeyID); err != nil {
			if errors.Is(err, keys.ErrNotFound) {
				errResponse(ctx, fasthttp.StatusNotFound, "API key not found or user not authorized.")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "Server error revoking key.")
			return
		}

		jsonResponse(ctx, fasthttp.StatusOK, map[string]string{
			"message": "API key successfully revoked.",
		})
	}
}
