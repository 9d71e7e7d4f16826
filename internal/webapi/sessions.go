package webapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fpang/yt-thumbnail-wizard/internal/auth"
	"github.com/fpang/yt-thumbnail-wizard/internal/generate"
	"github.com/fpang/yt-thumbnail-wizard/internal/httputil"
	"github.com/fpang/yt-thumbnail-wizard/internal/style"
	"github.com/fpang/yt-thumbnail-wizard/internal/wizard"
)

const (
	maxFieldsBytes = 64 << 10
	uploadURLTTL   = 15 * time.Minute
)

// sessionView is the wire form of a session.
type sessionView struct {
	*wizard.Session
	StepLabel  string `json:"stepLabel"`
	TotalSteps int    `json:"totalSteps"`
}

// sessionResponse wraps a session with whatever the step produced.
type sessionResponse struct {
	Session sessionView    `json:"session"`
	Warning string         `json:"warning,omitempty"`
	Styles  *style.Catalog `json:"styles,omitempty"`
}

func view(ws *wizard.Session) sessionView {
	return sessionView{Session: ws, StepLabel: ws.Step.String(), TotalSteps: wizard.TotalSteps}
}

// loadSession fetches the {id} session and checks it belongs to the caller.
// Sessions owned by someone else are reported as missing.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	id := chi.URLParam(r, "id")
	ws, err := s.cfg.Sessions.GetSession(r.Context(), id)
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to load session", err.Error())
		return nil, false
	}
	if ws == nil || (ws.OwnerID != "" && ws.OwnerID != auth.OwnerID(r.Context())) {
		httputil.Error(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return ws, true
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, ws *wizard.Session) bool {
	if err := s.cfg.Sessions.PutSession(r.Context(), ws); err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to save session", err.Error())
		return false
	}
	return true
}

// validationFailed writes a 422 for a failed step gate.
func validationFailed(w http.ResponseWriter, err error) {
	var ve *wizard.ValidationError
	if errors.As(err, &ve) {
		httputil.RespondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": ve.Message,
			"field": ve.Field,
			"step":  ve.Step,
		})
		return
	}
	httputil.Error(w, http.StatusUnprocessableEntity, err.Error())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ws := wizard.New(s.newID(), auth.OwnerID(r.Context()))
	if !s.saveSession(w, r, ws) {
		return
	}
	log.Info().Str("sessionId", ws.ID).Bool("authenticated", ws.OwnerID != "").Msg("Wizard session created")
	httputil.RespondJSON(w, http.StatusCreated, sessionResponse{Session: view(ws)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if wizard.EnsureReachable(ws) && !s.saveSession(w, r, ws) {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sessionResponse{Session: view(ws)})
}

// handleSetFields applies a partial update of user-editable fields.
// Confirming a face image refreshes the style catalog.
func (s *Server) handleSetFields(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	var body map[string]string
	if err := httputil.DecodeJSON(w, r, maxFieldsBytes, &body); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := make(map[wizard.Field]string, len(body))
	for name, value := range body {
		f, known := wizard.ParseField(name)
		if !known || f == wizard.FieldGeneratedThumbnail {
			httputil.Error(w, http.StatusBadRequest, "unknown field: "+name)
			return
		}
		fields[f] = value
	}

	resp := sessionResponse{}
	if id, ok := fields[wizard.FieldSelectedStyle]; ok && id != "" {
		// A cold or failed cache is listed again before the id is checked.
		if len(s.cfg.Styles.Options()) == 0 {
			s.cfg.Styles.Refresh(r.Context())
		}
		if s.cfg.Styles.Revalidate(id) != id {
			validationFailed(w, &wizard.ValidationError{Step: ws.Step, Field: wizard.FieldSelectedStyle, Message: "unknown style"})
			return
		}
	}
	for f, v := range fields {
		ws.SetField(f, v)
	}
	if face, ok := fields[wizard.FieldFaceImage]; ok && face != "" {
		cat := s.cfg.Styles.AfterFaceUpload(r.Context(), ws)
		resp.Styles, resp.Warning = &cat, cat.Warning
	}

	if !s.saveSession(w, r, ws) {
		return
	}
	resp.Session = view(ws)
	httputil.RespondJSON(w, http.StatusOK, resp)
}

type uploadURLRequest struct {
	ContentType string `json:"contentType"`
}

// contentTypeExt maps accepted face upload types to file extensions.
var contentTypeExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

func (s *Server) handleFaceUploadURL(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if s.cfg.Uploads == nil {
		httputil.Error(w, http.StatusNotImplemented, "uploads are not configured")
		return
	}
	var req uploadURLRequest
	if err := httputil.DecodeJSON(w, r, maxFieldsBytes, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		httputil.Error(w, http.StatusBadRequest, "only image uploads are accepted")
		return
	}
	ext, known := contentTypeExt[req.ContentType]
	if !known {
		ext = ".img"
	}

	key := "faces/" + ws.ID + "/" + s.newID() + ext
	url, err := s.cfg.Uploads.PresignUpload(r.Context(), key, req.ContentType, uploadURLTTL)
	if err != nil {
		httputil.Error(w, http.StatusBadGateway, "could not prepare upload", err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"uploadUrl": url,
		"key":       key,
		"faceImage": s.cfg.Uploads.PublicURL(key),
	})
}

type confirmFaceRequest struct {
	FaceImage string `json:"faceImage"`
	Key       string `json:"key,omitempty"`
}

// handleConfirmFace records the uploaded (or example) face and refreshes the
// style catalog.
func (s *Server) handleConfirmFace(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	var req confirmFaceRequest
	if err := httputil.DecodeJSON(w, r, maxFieldsBytes, &req); err != nil || strings.TrimSpace(req.FaceImage) == "" {
		validationFailed(w, &wizard.ValidationError{Step: wizard.StepUploadFace, Field: wizard.FieldFaceImage, Message: "face image required"})
		return
	}
	if req.Key != "" && s.cfg.Uploads != nil {
		if !strings.HasPrefix(req.Key, "faces/"+ws.ID+"/") {
			httputil.Error(w, http.StatusBadRequest, "upload key does not belong to this session")
			return
		}
		if err := s.cfg.Uploads.TagUploaded(r.Context(), req.Key); err != nil {
			log.Warn().Err(err).Str("key", req.Key).Msg("Failed to tag uploaded face")
		}
	}

	ws.SetField(wizard.FieldFaceImage, req.FaceImage)
	cat := s.cfg.Styles.AfterFaceUpload(r.Context(), ws)
	if !s.saveSession(w, r, ws) {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sessionResponse{Session: view(ws), Styles: &cat, Warning: cat.Warning})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	warning, err := wizard.Advance(ws)
	if err != nil {
		validationFailed(w, err)
		return
	}
	resp := sessionResponse{Warning: warning}
	if ws.Step == wizard.StepSelectStyle {
		cat := s.cfg.Styles.EnterStyleStep(r.Context(), ws)
		resp.Styles = &cat
		if resp.Warning == "" {
			resp.Warning = cat.Warning
		}
	}
	if !s.saveSession(w, r, ws) {
		return
	}
	resp.Session = view(ws)
	httputil.RespondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRetreat(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	resp := sessionResponse{}
	if wizard.Retreat(ws) {
		if ws.Step == wizard.StepSelectStyle {
			cat := s.cfg.Styles.EnterStyleStep(r.Context(), ws)
			resp.Styles, resp.Warning = &cat, cat.Warning
		}
		if !s.saveSession(w, r, ws) {
			return
		}
	}
	resp.Session = view(ws)
	httputil.RespondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	ws.Reset()
	if !s.saveSession(w, r, ws) {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sessionResponse{Session: view(ws)})
}

type generateResponse struct {
	Session      sessionView `json:"session"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	Description  string      `json:"description"`
	Warning      string      `json:"warning,omitempty"`
}

// handleGenerate sends the session's fields to the generator and, on
// success, completes the session. A failure leaves the session untouched;
// a result for a session reset in the meantime is discarded.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if ws.Step < wizard.StepReview {
		validationFailed(w, &wizard.ValidationError{Step: ws.Step, Message: "generation is available from the review step"})
		return
	}
	if err := wizard.CheckGenerate(ws); err != nil {
		validationFailed(w, err)
		return
	}

	token := ws.Generation
	resp, err := s.cfg.Generator.Generate(r.Context(), generate.Request{
		FaceImage:        ws.FaceImageRef,
		VideoTitle:       ws.VideoTitle,
		VideoDescription: ws.VideoDescription,
		ThumbnailDetails: ws.ThumbnailDetails,
		ThumbnailText:    ws.ThumbnailText,
		Style:            ws.SelectedStyleID,
	})
	if err != nil {
		switch status := generate.StatusFor(err); status {
		case http.StatusBadRequest:
			httputil.Error(w, http.StatusUnprocessableEntity, generate.ClientMessage(err))
		case http.StatusBadGateway:
			httputil.Error(w, status, generate.ClientMessage(err), err.Error())
		default:
			httputil.Error(w, status, "thumbnail generation failed", err.Error())
		}
		return
	}

	// Re-read so a reset that landed while the model was working wins.
	current, err := s.cfg.Sessions.GetSession(r.Context(), ws.ID)
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to load session", err.Error())
		return
	}
	if current == nil {
		httputil.Error(w, http.StatusNotFound, "session not found")
		return
	}
	err = wizard.Complete(current, wizard.Result{
		ThumbnailURL: resp.ThumbnailURL,
		Description:  resp.Description,
		Generation:   token,
	})
	if errors.Is(err, wizard.ErrStaleResult) {
		log.Info().Str("sessionId", ws.ID).Msg("Discarding generation result for reset session")
		httputil.Error(w, http.StatusConflict, "session was reset while generating")
		return
	}
	if err != nil {
		httputil.Error(w, http.StatusBadGateway, "thumbnail generation returned no image", err.Error())
		return
	}
	if resp.RecordID != "" {
		current.RecordID = resp.RecordID
	}
	if !s.saveSession(w, r, current) {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, generateResponse{
		Session:      view(current),
		ThumbnailURL: resp.ThumbnailURL,
		Description:  resp.Description,
		Warning:      resp.Warning,
	})
}

type resultResponse struct {
	ThumbnailURL string `json:"thumbnailUrl"`
	Description  string `json:"description"`
	DownloadName string `json:"downloadName"`
	RecordID     string `json:"recordId,omitempty"`
}

// handleResult is the completion view. Without a generated thumbnail the
// session is sent back to review and the client is redirected to it.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if !ws.HasResult() {
		if ws.Step > wizard.StepReview {
			ws.GoToStep(wizard.StepReview)
			if !s.saveSession(w, r, ws) {
				return
			}
		}
		http.Redirect(w, r, "/api/sessions/"+ws.ID, http.StatusSeeOther)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resultResponse{
		ThumbnailURL: ws.GeneratedThumbnailRef,
		Description:  ws.GeneratedDescription,
		DownloadName: generate.DownloadName(ws.VideoTitle, s.now()),
		RecordID:     ws.RecordID,
	})
}
