package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fiber-atlas/internal/filter"
	"github.com/sells-group/fiber-atlas/internal/geomap"
	"github.com/sells-group/fiber-atlas/internal/model"
	"github.com/sells-group/fiber-atlas/internal/store"
	"github.com/sells-group/fiber-atlas/internal/viewstate"
)

// mapPadding keeps regional shapes clear of the viewbox edge.
const mapPadding = 20.0

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// viewResponse is the combined payload returned by every view-state
// endpoint: the state plus the derived detail panel.
type viewResponse struct {
	Applied bool                    `json:"applied"`
	State   viewstate.State         `json:"state"`
	Detail  *viewstate.RegionDetail `json:"detail,omitempty"`
}

func viewOf(v *viewstate.Coordinator, applied bool) viewResponse {
	resp := viewResponse{Applied: applied, State: v.Snapshot()}
	if d, ok := v.Detail(); ok {
		resp.Detail = d
	}
	return resp
}

// newRouter builds the API surface. search delivers queries to the
// coordinator, debounced per configuration.
func newRouter(env *atlasEnv, search *viewstate.Debouncer) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/status", func(w http.ResponseWriter, req *http.Request) {
		resp := map[string]interface{}{
			"loaded": env.Atlas.Loaded(),
			"cache":  env.View.CacheStats(),
		}
		if at, ok := env.Atlas.LoadedAt(); ok {
			resp["loaded_at"] = at
		}
		if id, ok := env.Atlas.LoadID(); ok {
			resp["load_id"] = id
		}
		if err := env.Atlas.LastError(); err != nil {
			resp["last_error"] = err.Error()
		}
		if env.Store != nil {
			if rec, err := env.Store.LastLoad(req.Context()); err == nil {
				resp["last_load"] = rec
			} else if !eris.Is(err, store.ErrNotFound) {
				zap.L().Warn("read last load record", zap.Error(err))
			}
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Post("/api/reload", func(w http.ResponseWriter, req *http.Request) {
		if err := env.Atlas.Load(req.Context()); err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"loaded": true})
	})

	r.Get("/api/regions/{granularity}", func(w http.ResponseWriter, req *http.Request) {
		g, err := model.ParseGranularity(chi.URLParam(req, "granularity"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, env.Atlas.Regions(g))
	})

	r.Get("/api/regions/{granularity}/{geoid}", func(w http.ResponseWriter, req *http.Request) {
		g, err := model.ParseGranularity(chi.URLParam(req, "granularity"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		reg, ok := env.Atlas.Region(g, chi.URLParam(req, "geoid"))
		if !ok {
			writeError(w, http.StatusNotFound, "region not found")
			return
		}
		writeJSON(w, http.StatusOK, reg)
	})

	r.Get("/api/legend/{layer}", func(w http.ResponseWriter, req *http.Request) {
		l, err := model.ParseLayer(chi.URLParam(req, "layer"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, env.Scales.ForLayer(l).Legend())
	})

	r.Get("/api/map/{granularity}", func(w http.ResponseWriter, req *http.Request) {
		g, err := model.ParseGranularity(chi.URLParam(req, "granularity"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		boundaries := env.Atlas.Boundaries(g)
		var proj geomap.Projection
		width, height := geomap.NationalWidth, geomap.NationalHeight
		if g == model.GranularityRegional {
			width, height = geomap.RegionalWidth, geomap.RegionalHeight
			proj = geomap.NewFittedTM(boundaries, width, height, mapPadding)
		} else {
			proj = geomap.NewAlbersUSA()
		}

		colors := make(map[string]viewstate.RegionColor)
		for _, rc := range env.View.ShadingFor(g) {
			colors[rc.GEOID] = rc
		}

		type mapShape struct {
			geomap.Shape
			Color       string `json:"color"`
			FilteredOut bool   `json:"filtered_out"`
		}
		shapes := make([]mapShape, 0, len(boundaries))
		for _, s := range geomap.ProjectAll(boundaries, proj) {
			ms := mapShape{Shape: s}
			if rc, ok := colors[s.GEOID]; ok {
				ms.Color = rc.Color
				ms.FilteredOut = rc.FilteredOut
			}
			shapes = append(shapes, ms)
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"width":  width,
			"height": height,
			"shapes": shapes,
		})
	})

	r.Get("/api/table", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, env.View.TableRows())
	})

	r.Get("/api/view", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, viewOf(env.View, true))
	})

	r.Post("/api/view/drilldown", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			GEOID string `json:"geoid"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		applied := env.View.DrillDown(body.GEOID)
		writeJSON(w, http.StatusOK, viewOf(env.View, applied))
	})

	r.Post("/api/view/return", func(w http.ResponseWriter, _ *http.Request) {
		applied := env.View.Return()
		writeJSON(w, http.StatusOK, viewOf(env.View, applied))
	})

	r.Post("/api/view/layer", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Layer string `json:"layer"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		l, err := model.ParseLayer(body.Layer)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		env.View.SetLayer(l)
		writeJSON(w, http.StatusOK, viewOf(env.View, true))
	})

	r.Post("/api/view/filters", func(w http.ResponseWriter, req *http.Request) {
		var body filter.Thresholds
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		env.View.SetFilters(body)
		writeJSON(w, http.StatusOK, viewOf(env.View, true))
	})

	r.Post("/api/view/hover", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			GEOID string `json:"geoid"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		env.View.Hover(body.GEOID)
		writeJSON(w, http.StatusOK, viewOf(env.View, true))
	})

	r.Delete("/api/view/hover", func(w http.ResponseWriter, _ *http.Request) {
		env.View.Leave()
		writeJSON(w, http.StatusOK, viewOf(env.View, true))
	})

	r.Post("/api/view/pin", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			GEOID string `json:"geoid"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.GEOID == "" {
			writeError(w, http.StatusBadRequest, "geoid is required")
			return
		}
		env.View.Click(body.GEOID)
		writeJSON(w, http.StatusOK, viewOf(env.View, true))
	})

	r.Post("/api/view/sort", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Key string `json:"key"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		key, err := viewstate.ParseSortKey(body.Key)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		env.View.SortBy(key)
		writeJSON(w, http.StatusOK, viewOf(env.View, true))
	})

	r.Post("/api/view/search", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		search.Trigger(body.Query)
		writeJSON(w, http.StatusOK, viewOf(env.View, true))
	})

	return r
}
