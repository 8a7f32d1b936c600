package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/AngelCh415/mediaplan-go/internal/export"
	"github.com/AngelCh415/mediaplan-go/internal/ingest"
	"github.com/AngelCh415/mediaplan-go/internal/metrics"
	"github.com/AngelCh415/mediaplan-go/internal/models"
	"github.com/AngelCh415/mediaplan-go/internal/store"
	"github.com/AngelCh415/mediaplan-go/internal/utils"
)

type Deps struct {
	Store       *store.MemoryStore
	Metrics     *metrics.Service
	Puller      *ingest.Puller
	Sink        *export.Sink
	MaxUpload   int64
	CORSOrigins []string
}

type router struct {
	log *slog.Logger
	d   Deps
	in  *instruments
}

func NewRouter(log *slog.Logger, d Deps) http.Handler {
	if d.MaxUpload <= 0 {
		d.MaxUpload = 20 << 20
	}
	if len(d.CORSOrigins) == 0 {
		d.CORSOrigins = []string{"*"}
	}
	rt := &router{log: log, d: d, in: newInstruments()}

	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(rt.in.middleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", utils.RequestIDHeader},
		ExposedHeaders: []string{utils.RequestIDHeader},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Method(http.MethodGet, "/metrics", rt.in.handler())

	mux.Route("/dataset", func(r chi.Router) {
		r.Post("/", rt.upload)
		r.Post("/pull", rt.pull)
		r.Get("/", rt.current)
		r.Delete("/", rt.reset)
	})

	mux.Route("/dashboard", func(r chi.Router) {
		r.Get("/", rt.dashboard)
		r.Get("/kpi", rt.kpi)
		r.Get("/matrix", rt.matrix)
		r.Get("/{panel}", rt.panel)
	})

	mux.Post("/export/run", rt.export)

	return mux
}

func (rt *router) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.d.MaxUpload)
	payload, ct, name, err := readUpload(r, rt.d.MaxUpload)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			rt.in.uploads.WithLabelValues("too_large").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
			return
		}
		rt.in.uploads.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := ingest.Parse(payload, ct, name)
	if err != nil {
		rt.reject(w, r, err)
		return
	}
	if name == "" {
		name = "upload"
	}
	rt.install(w, r, name, recs)
}

// readUpload accepts either a multipart form with a "file" field or the raw
// body. The filename of a raw body comes from ?filename=.
func readUpload(r *http.Request, limit int64) ([]byte, string, string, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		b, err := io.ReadAll(r.Body)
		return b, r.Header.Get("Content-Type"), r.URL.Query().Get("filename"), err
	}
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, "", "", err
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, "", "", err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	return b, hdr.Header.Get("Content-Type"), hdr.Filename, err
}

func (rt *router) pull(w http.ResponseWriter, r *http.Request) {
	if rt.d.Puller == nil {
		writeError(w, http.StatusServiceUnavailable, ingest.ErrSourceNotConfigured.Error())
		return
	}
	recs, err := rt.d.Puller.Pull(r.Context())
	switch {
	case err == nil:
		rt.install(w, r, rt.d.Puller.Source(), recs)
	case errors.Is(err, ingest.ErrSourceNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		var ve *ingest.ValidationError
		if errors.As(err, &ve) {
			rt.reject(w, r, err)
			return
		}
		rt.in.uploads.WithLabelValues("pull_failed").Inc()
		rt.log.Error("pull failed", slog.String("rid", utils.RID(r.Context())), slog.String("err", err.Error()))
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

// install is the only place that replaces the dataset.
func (rt *router) install(w http.ResponseWriter, r *http.Request, source string, recs []models.Record) {
	ds := rt.d.Store.Replace(source, recs)
	rt.in.uploads.WithLabelValues("ok").Inc()
	rt.in.records.Set(float64(len(ds.Records)))
	rt.log.Info("dataset loaded",
		slog.String("rid", utils.RID(r.Context())),
		slog.String("id", ds.ID),
		slog.String("source", source),
		slog.Int("records", len(ds.Records)))
	writeJSON(w, http.StatusCreated, map[string]any{"id": ds.ID, "records": len(ds.Records), "source": ds.Source})
}

func (rt *router) reject(w http.ResponseWriter, r *http.Request, err error) {
	var ve *ingest.ValidationError
	if !errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rt.in.uploads.WithLabelValues(string(ve.Kind)).Inc()
	rt.log.Warn("dataset rejected",
		slog.String("rid", utils.RID(r.Context())),
		slog.String("kind", string(ve.Kind)),
		slog.String("reason", ve.Reason))
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": ve.Reason, "kind": ve.Kind, "fields": ve.Fields})
}

func (rt *router) current(w http.ResponseWriter, r *http.Request) {
	ds, ok := rt.d.Store.Current()
	if !ok {
		writeError(w, http.StatusNotFound, metrics.ErrNoDataset.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        ds.ID,
		"source":    ds.Source,
		"loaded_at": ds.LoadedAt.Format(time.RFC3339),
		"records":   len(ds.Records),
	})
}

func (rt *router) reset(w http.ResponseWriter, r *http.Request) {
	if rt.d.Store.Reset() {
		rt.log.Info("dataset reset", slog.String("rid", utils.RID(r.Context())))
	}
	rt.in.records.Set(0)
	w.WriteHeader(http.StatusNoContent)
}

func (rt *router) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := rt.d.Metrics.Dashboard(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (rt *router) panel(w http.ResponseWriter, r *http.Request) {
	rows, err := rt.d.Metrics.Panel(chi.URLParam(r, "panel"), r.URL.Query())
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (rt *router) kpi(w http.ResponseWriter, r *http.Request) {
	k, err := rt.d.Metrics.KPI()
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}

func (rt *router) matrix(w http.ResponseWriter, r *http.Request) {
	pts, err := rt.d.Metrics.Matrix()
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pts)
}

func (rt *router) export(w http.ResponseWriter, r *http.Request) {
	if rt.d.Sink == nil {
		writeError(w, http.StatusServiceUnavailable, export.ErrSinkNotConfigured.Error())
		return
	}
	d, err := rt.d.Metrics.Dashboard(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	if err := rt.d.Sink.Send(r.Context(), d); err != nil {
		if errors.Is(err, export.ErrSinkNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		rt.log.Error("export failed", slog.String("rid", utils.RID(r.Context())), slog.String("err", err.Error()))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exported": d.DatasetID})
}

func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, metrics.ErrNoDataset), errors.Is(err, metrics.ErrUnknownPanel):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": strings.TrimSpace(msg)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
