package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mcdev12/focusarcade/go/internal/celebration"
	"github.com/mcdev12/focusarcade/go/internal/ledger"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 320
	maxQRSize     = 1024
)

type redeemRequest struct {
	Token string `json:"token"`
}

type triggerRequest struct {
	// Seconds accepts a number or a numeric string, as typed into a form.
	Seconds json.RawMessage `json:"seconds,omitempty"`
	Message string          `json:"message"`
}

type mintResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Ledger.Progress(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	red, err := s.deps.Ledger.Redeem(r.Context(), req.Token)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, red)
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Ledger.AddOne(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Ledger.Reset(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetLoadout(w http.ResponseWriter, r *http.Request) {
	loadout, err := s.deps.Celebration.Loadout(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loadout)
}

func (s *Server) handleSaveLoadout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.deps.MultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	image, err := formAsset(r, "image")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	audio, err := formAsset(r, "audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	loadout, err := s.deps.Celebration.SaveLoadout(r.Context(), celebration.LoadoutUpload{Image: image, Audio: audio})
	if errors.Is(err, celebration.ErrNoAssets) {
		writeError(w, http.StatusBadRequest, celebration.NoAssetsMessage)
		return
	}
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loadout)
}

// formAsset reads an optional file part. A missing or empty part is nil.
func formAsset(r *http.Request, field string) (*celebration.Asset, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s upload", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s upload", field)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &celebration.Asset{Data: data, ContentType: partContentType(header)}, nil
}

func partContentType(h *multipart.FileHeader) string {
	if h == nil {
		return ""
	}
	return h.Header.Get("Content-Type")
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	rec, err := s.deps.Celebration.Trigger(r.Context(), celebration.TriggerRequest{
		Seconds: parseSecondsField(req.Seconds),
		Message: req.Message,
	})
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func parseSecondsField(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return celebration.ParseSeconds(str)
	}
	return nil
}

func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	token := ledger.NewToken()
	u, err := ledger.RedeemURL(s.deps.PublicURL, token)
	if err != nil {
		log.Error().Err(err).Str("public_url", s.deps.PublicURL).Msg("failed to build redeem url")
		writeError(w, http.StatusInternalServerError, "invalid public url")
		return
	}
	log.Info().Str("token", token).Msg("token minted")
	writeJSON(w, http.StatusCreated, mintResponse{Token: token, URL: u})
}

func (s *Server) handleTokenQR(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	u, err := ledger.RedeemURL(s.deps.PublicURL, token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "invalid public url")
		return
	}

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxQRSize {
			writeError(w, http.StatusBadRequest, "invalid size")
			return
		}
		size = n
	}

	png, err := qrcode.Encode(u, qrcode.Medium, size)
	if err != nil {
		log.Error().Err(err).Msg("qr generation failed")
		writeError(w, http.StatusInternalServerError, "qr generation failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
