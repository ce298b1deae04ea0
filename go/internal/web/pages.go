package web

import (
	"net/http"
	"net/url"

	"github.com/mcdev12/focusarcade/go/internal/ledger"
	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

const flashCookie = "fa_flash"

type controllerPage struct {
	Progress models.ProgressSnapshot
	Notice   string
}

// handleController redeems a ?token= on arrival. A successful redemption
// redirects to the same address without the token, so reloading it cannot
// redeem twice, and carries its notice in a flash cookie.
func (s *Server) handleController(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := controllerPage{}

	if token := ledger.TokenFromQuery(r.URL.Query()); token != "" {
		red, err := s.deps.Ledger.Redeem(ctx, token)
		if err != nil {
			log.Error().Err(err).Msg("token redemption failed")
			http.Error(w, "store unavailable", http.StatusInternalServerError)
			return
		}
		switch red.Reason {
		case ledger.ReasonRedeemed:
			setFlash(w, "Redeemed token: "+red.Token)
			http.Redirect(w, r, ledger.StripToken(r.URL).RequestURI(), http.StatusSeeOther)
			return
		case ledger.ReasonAlreadyUsed:
			page.Notice = "Already used token: " + red.Token
		}
	} else if notice := popFlash(w, r); notice != "" {
		page.Notice = notice
	}

	snap, err := s.deps.Ledger.Progress(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to read progress")
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	page.Progress = snap

	s.render(w, "controller.html", page)
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	s.render(w, "display.html", nil)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("failed to render page")
	}
}

func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending notice and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}
