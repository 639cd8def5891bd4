package api

import (
	"net/http"
	"strconv"

	"github.com/stationware/medsync/internal/models"
)

func (rt *Routes) syncGenerate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := rt.sync.Generate(r.Context(), &req)
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, result)
}

func (rt *Routes) syncImport(w http.ResponseWriter, r *http.Request) {
	var req models.ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := rt.sync.Import(r.Context(), &req)
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, result)
}

func (rt *Routes) syncUpload(w http.ResponseWriter, r *http.Request) {
	var req models.UploadRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := rt.sync.Upload(r.Context(), &req)
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, result)
}

func (rt *Routes) listPackages(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	packages, err := rt.packages.List(r.Context(), limit)
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"packages": packages,
		"count":    len(packages),
	})
}

func (rt *Routes) listStations(w http.ResponseWriter, r *http.Request) {
	stations, err := rt.stations.List(r.Context())
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"stations": stations,
		"count":    len(stations),
	})
}

func (rt *Routes) listHospitals(w http.ResponseWriter, r *http.Request) {
	hospitals, err := rt.hospitals.List(r.Context())
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"hospitals": hospitals,
		"count":     len(hospitals),
	})
}

// queryInt reads an integer query parameter, falling back on anything absent
// or unparsable.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
