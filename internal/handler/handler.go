package handler

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmorgan81/capyattitude/internal/log"
	"github.com/dmorgan81/capyattitude/internal/page"
	"github.com/dmorgan81/capyattitude/internal/prompt"
	"github.com/dmorgan81/capyattitude/internal/share"
	"github.com/dmorgan81/capyattitude/internal/studio"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type Handler struct {
	studio    *studio.Studio
	templator *page.Templator
	gatherer  prometheus.Gatherer
	publicURL string

	router *mux.Router
}

func NewHandler(i *do.Injector) (*Handler, error) {
	return New(
		do.MustInvoke[*studio.Studio](i),
		do.MustInvoke[*page.Templator](i),
		do.MustInvoke[*prometheus.Registry](i),
		do.MustInvokeNamed[string](i, "public_url"),
	), nil
}

func New(s *studio.Studio, t *page.Templator, g prometheus.Gatherer, publicURL string) *Handler {
	h := &Handler{studio: s, templator: t, gatherer: g, publicURL: publicURL}

	r := mux.NewRouter()
	r.Use(h.requestLogger)
	r.HandleFunc("/", h.index).Methods(http.MethodGet)
	r.HandleFunc("/generate", h.generate).Methods(http.MethodPost)
	r.HandleFunc("/surprise", h.surprise).Methods(http.MethodPost)
	r.HandleFunc("/image", h.image).Methods(http.MethodGet)
	r.HandleFunc("/download", h.download).Methods(http.MethodGet)
	r.HandleFunc("/api/state", h.apiState).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	h.router = r

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		logger := log.FromContextOrDiscard(r.Context()).With("request_id", id)
		logger.Info("handling request", "method", r.Method, "path", r.URL.Path)

		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(log.NewContext(r.Context(), logger)))
	})
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int) {
	st := h.studio.State()
	pageURL := h.pageURL(r)

	params := page.Params{
		Prompt:         st.Prompt,
		Style:          st.Style.String(),
		Styles:         lo.Map(h.studio.Styles(), func(s prompt.Style, _ int) string { return s.String() }),
		Loading:        st.Loading,
		Error:          st.Error,
		CredentialHint: st.CredentialHint(),
		PageURL:        pageURL,
	}
	if st.Result != nil {
		params.Image = template.URL(st.Result.DataURI())
		params.Filename = share.Filename(st.Result.CreatedAt)
		params.Links = share.Links(pageURL)
	}

	html, err := h.templator.Template(r.Context(), params)
	if err != nil {
		log.FromContextOrDiscard(r.Context()).Error("rendering page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(html)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var style prompt.Style
	if r.PostForm.Has("style") {
		parsed, ok := h.studio.Styles().Parse(r.PostForm.Get("style"))
		if !ok {
			http.Error(w, studio.ErrUnknownStyle.Error(), http.StatusBadRequest)
			return
		}
		style = parsed
	}

	// Generations run to completion even if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	if err := h.studio.Submit(ctx, r.PostForm.Get("prompt"), style); err != nil && isGuard(err) {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) surprise(w http.ResponseWriter, r *http.Request) {
	if err := h.studio.Surprise(context.WithoutCancel(r.Context())); err != nil && isGuard(err) {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// isGuard separates rejected triggers from generation failures, which are
// already recorded in the studio state and shown on the page.
func isGuard(err error) bool {
	return errors.Is(err, studio.ErrBusy) || errors.Is(err, studio.ErrEmptyPrompt) || errors.Is(err, studio.ErrUnknownStyle)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, studio.ErrBusy):
		h.render(w, r, http.StatusConflict)
	case errors.Is(err, studio.ErrEmptyPrompt):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func (h *Handler) image(w http.ResponseWriter, r *http.Request) {
	h.writeImage(w, r, false)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	h.writeImage(w, r, true)
}

func (h *Handler) writeImage(w http.ResponseWriter, r *http.Request, attachment bool) {
	st := h.studio.State()
	if st.Result == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(st.Result.Data)))
	w.Header().Set("Cache-Control", "no-store")
	if attachment {
		w.Header().Set("Content-Disposition", `attachment; filename="`+share.Filename(st.Result.CreatedAt)+`"`)
	}
	_, _ = w.Write(st.Result.Data)
}

type stateResponse struct {
	Prompt         string `json:"prompt"`
	Style          string `json:"style"`
	Loading        bool   `json:"loading"`
	Error          string `json:"error,omitempty"`
	CredentialHint bool   `json:"credentialHint"`
	Image          string `json:"image,omitempty"`
	Filename       string `json:"filename,omitempty"`
}

func (h *Handler) apiState(w http.ResponseWriter, r *http.Request) {
	st := h.studio.State()
	resp := stateResponse{
		Prompt:         st.Prompt,
		Style:          st.Style.String(),
		Loading:        st.Loading,
		Error:          st.Error,
		CredentialHint: st.CredentialHint(),
	}
	if st.Result != nil {
		resp.Image = st.Result.DataURI()
		resp.Filename = share.Filename(st.Result.CreatedAt)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.FromContextOrDiscard(r.Context()).Error("encoding state", "error", err)
	}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) pageURL(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := lo.Ternary(r.TLS != nil, "https", "http")
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host + "/"
}
