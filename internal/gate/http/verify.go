package http

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"

	"github.com/adflow/filegate/internal/gate/notify"
	"github.com/adflow/filegate/internal/gate/service"
	"github.com/adflow/filegate/pkg/httpx"
	"github.com/adflow/filegate/pkg/slogx"
)

// WatchHandler serves the interstitial landing page the ad network
// redirects users to. It validates the token read-only and forwards
// valid users on to /verify.
type WatchHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Ad Landing Page
//	@Description	Interstitial page reached after the sponsored link; validates the token and forwards to /verify
//	@Tags			Verification
//	@Produce		html
//	@Param			data	query		string	true	"Encoded token"
//	@Success		200		{string}	string	"redirect page"
//	@Failure		400		{string}	string	"invalid link"
//	@Router			/watch [get].
func (h *WatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	encoded := r.URL.Query().Get("data")
	if encoded == "" {
		writeFailurePage(w, http.StatusBadRequest, "This link is incomplete. Please request a new one from the bot.")
		return
	}

	if _, err := h.TokenService.Inspect(r.Context(), encoded); err != nil {
		writeRedemptionError(w, r, err)
		return
	}

	target := "/verify?data=" + url.QueryEscape(encoded)
	httpx.WriteHTML(w, http.StatusOK, fmt.Sprintf(`<html>
<head>
    <meta http-equiv="refresh" content="0; url=%s" />
    <title>Loading...</title>
</head>
<body><h2>Please wait, verifying your token...</h2></body>
</html>`, html.EscapeString(target)))
}

// VerifyHandler performs the redemption: exactly one success per
// token, then a deep link back into the messaging client.
type VerifyHandler struct {
	TokenService *service.TokenService
	Notifier     *notify.Telegram
	BotUsername  string
	AdminChatID  string
}

// ServeHTTP godoc
//
//	@Summary		Token Redemption Endpoint
//	@Description	Redeems a pending token exactly once, grants the access window, and redirects into Telegram
//	@Tags			Verification
//	@Produce		html
//	@Param			data	query		string	true	"Encoded token"
//	@Success		200		{string}	string	"success page"
//	@Failure		400		{string}	string	"malformed or forged token"
//	@Failure		404		{string}	string	"token not found"
//	@Failure		409		{string}	string	"token already used"
//	@Failure		410		{string}	string	"token expired"
//	@Router			/verify [get].
func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	encoded := r.URL.Query().Get("data")
	if encoded == "" {
		writeFailurePage(w, http.StatusBadRequest, "This link is incomplete. Please request a new one from the bot.")
		return
	}

	subjectID, err := h.TokenService.Redeem(ctx, encoded)
	if err != nil {
		writeRedemptionError(w, r, err)
		return
	}

	// Notifications are best-effort; the grant is already committed.
	if h.Notifier != nil {
		h.Notifier.NotifyAccessGranted(ctx, subjectID, h.TokenService.AccessWindow)
		if h.AdminChatID != "" {
			h.Notifier.NotifyAdmin(ctx, h.AdminChatID, subjectID)
		}
	}

	if h.BotUsername == "" {
		httpx.WriteHTML(w, http.StatusOK, `<html>
<head><title>Success</title></head>
<body><h2>Access granted. You can return to the bot.</h2></body>
</html>`)
		return
	}

	deepLink := fmt.Sprintf("tg://resolve?domain=%s&start=verified", url.QueryEscape(h.BotUsername))
	log.Debug("redemption complete, redirecting to bot", "subject_id", subjectID)

	httpx.WriteHTML(w, http.StatusOK, fmt.Sprintf(`<html>
<head>
    <meta http-equiv="refresh" content="0; url=%s" />
    <title>Success</title>
</head>
<body>
    <h2>Access granted. Redirecting to Telegram...</h2>
    <a href="%s">Click here if not redirected</a>
</body>
</html>`, html.EscapeString(deepLink), html.EscapeString(deepLink)))
}

// writeRedemptionError maps the service error taxonomy onto HTTP
// statuses with short, non-technical messages. Forgery and malformed
// input are deliberately indistinguishable to the caller.
func writeRedemptionError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, service.ErrMalformedToken), errors.Is(err, service.ErrInvalidSignature):
		writeFailurePage(w, http.StatusBadRequest, "This link is invalid. Please request a new one from the bot.")
	case errors.Is(err, service.ErrTokenNotFound):
		writeFailurePage(w, http.StatusNotFound, "This link is no longer recognized. Please request a new one from the bot.")
	case errors.Is(err, service.ErrTokenExpired):
		writeFailurePage(w, http.StatusGone, "This link has expired. Please request a new one from the bot.")
	case errors.Is(err, service.ErrTokenAlreadyUsed):
		writeFailurePage(w, http.StatusConflict, "This link was already used. Please request a new one from the bot.")
	default:
		log.Error("redemption failed", "err", err)
		writeFailurePage(w, http.StatusInternalServerError, "Something went wrong on our side. Please try again.")
	}
}

func writeFailurePage(w http.ResponseWriter, code int, message string) {
	httpx.WriteHTML(w, code, fmt.Sprintf(`<html>
<head><title>Verification failed</title></head>
<body><h2>%s</h2></body>
</html>`, html.EscapeString(message)))
}
