package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adflow/filegate/internal/gate/service"
	"github.com/adflow/filegate/pkg/httpx"
	"github.com/adflow/filegate/pkg/slogx"
)

// ErrorResponse is the JSON error envelope of the internal API.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// IssueRequest is the body of POST /v1/tokens/issue.
type IssueRequest struct {
	SubjectID string `json:"subject_id"`
}

// IssueResponse carries the outward ad-wrapped URL for the subject.
type IssueResponse struct {
	SubjectID string `json:"subject_id"`
	URL       string `json:"url"`
}

// AccessResponse answers the standing-access query.
type AccessResponse struct {
	SubjectID string `json:"subject_id"`
	HasAccess bool   `json:"has_access"`
}

// IssueHandler mints a pending token on behalf of the bot front-end.
type IssueHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Issue Access Token
//	@Description	Mints a pending access token for a subject and returns the ad-wrapped verification URL
//	@Tags			Internal
//	@Accept			json
//	@Produce		json
//	@Param			request	body		IssueRequest	true	"subject to issue for"
//	@Success		200		{object}	IssueResponse	"subject_id, url"
//	@Failure		400		{object}	ErrorResponse	"error, error_description"
//	@Failure		500		{object}	ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/tokens/issue [post].
func (h *IssueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	if req.SubjectID == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "subject_id is required",
		})
		return
	}

	url, err := h.TokenService.Issue(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSubject) {
			httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "subject_id is not a valid subject",
			})
			return
		}
		log.Error("failed to issue token", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to issue token",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, IssueResponse{
		SubjectID: req.SubjectID,
		URL:       url,
	})
}

// AccessHandler answers whether a subject currently holds access.
type AccessHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Access Query
//	@Description	Reports whether the subject currently holds a redeemed, unexpired access grant
//	@Tags			Internal
//	@Produce		json
//	@Param			subject_id	query		string			true	"subject to query"
//	@Success		200			{object}	AccessResponse	"subject_id, has_access"
//	@Failure		400			{object}	ErrorResponse	"error, error_description"
//	@Failure		500			{object}	ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/access [get].
func (h *AccessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	subjectID := r.URL.Query().Get("subject_id")
	if subjectID == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "subject_id is required",
		})
		return
	}

	ok, err := h.TokenService.HasAccess(ctx, subjectID)
	if err != nil {
		log.Error("access query failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to query access",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, AccessResponse{
		SubjectID: subjectID,
		HasAccess: ok,
	})
}

// StatsHandler serves the operational snapshot.
type StatsHandler struct {
	StatsService *service.StatsService
}

// ServeHTTP godoc
//
//	@Summary		Operational Stats
//	@Description	Returns subject and token counts for operators
//	@Tags			Internal
//	@Produce		json
//	@Success		200	{object}	domain.Stats	"subjects, tokens_issued, tokens_redeemed, active_grants"
//	@Failure		500	{object}	ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/admin/stats [get].
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	stats, err := h.StatsService.Snapshot(ctx)
	if err != nil {
		log.Error("stats query failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to collect stats",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, stats)
}
