package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/timgluz/tidevann/geo"
	"github.com/timgluz/tidevann/measurement"
	"github.com/timgluz/tidevann/response"
	"github.com/timgluz/tidevann/station"
	"github.com/timgluz/tidevann/task"
	"github.com/timgluz/tidevann/tideapi"
)

var (
	errStationNotFound = errors.New("station not found")
	errUpstream        = errors.New("upstream request failed")
)

type SeriesResponse struct {
	Datatype tideapi.Datatype     `json:"datatype"`
	RefCode  string               `json:"refcode"`
	Columns  []string             `json:"columns"`
	Samples  []measurement.Sample `json:"samples"`
}

func (s *Server) listStations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stations, err := s.tides.Stations(r.Context())
	if err != nil {
		s.logger.Error("Failed to list stations", "error", err)
		response.RenderTidalError(w, err)
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		stations = stations.Find(q)
	}

	page, pagination := response.Paginate([]station.Station(stations), response.NewPaginationFromRequest(r))
	response.RenderJSONResponse(w, response.NewCollectionResponse(page, pagination))
}

func (s *Server) getStation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	st, ok := s.lookupStation(w, r, ps.ByName("name"))
	if !ok {
		return
	}
	response.RenderJSONResponse(w, st)
}

func (s *Server) stationLevels(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	st, ok := s.lookupStation(w, r, ps.ByName("name"))
	if !ok {
		return
	}

	query := r.URL.Query()
	levels, err := s.tides.StationLevels(r.Context(), *st, query.Get("lang"), query.Get("refcode"))
	if err != nil {
		s.logger.Error("Failed to fetch station levels", "station", st.Code, "error", err)
		response.RenderTidalError(w, err)
		return
	}
	response.RenderJSONResponse(w, levels)
}

func (s *Server) lookupStation(w http.ResponseWriter, r *http.Request, name string) (*station.Station, bool) {
	st, err := s.tides.GetStation(r.Context(), name)
	if err != nil {
		response.RenderTidalError(w, err)
		return nil, false
	}
	if st == nil {
		response.RenderError(w, fmt.Errorf("%w: %s", errStationNotFound, name), http.StatusNotFound)
		return nil, false
	}
	return st, true
}

func (s *Server) languages(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	languages, err := s.tides.Languages(r.Context())
	if err != nil {
		s.logger.Error("Failed to fetch languages", "error", err)
		response.RenderTidalError(w, err)
		return
	}
	response.RenderJSONResponse(w, response.NewCollectionResponse(languages, nil))
}

func (s *Server) refLevels(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	location, err := locationFromQuery(r)
	if err != nil {
		response.RenderError(w, err, http.StatusBadRequest)
		return
	}

	levels, err := s.tides.RefLevels(r.Context(), location.Latitude, location.Longitude, r.URL.Query().Get("lang"))
	if err != nil {
		s.logger.Error("Failed to fetch reference levels", "error", err)
		response.RenderTidalError(w, err)
		return
	}
	response.RenderJSONResponse(w, response.NewCollectionResponse(levels, nil))
}

func (s *Server) series(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query, err := s.seriesQuery(r)
	switch {
	case err == nil:
	case tideapi.IsDomainError(err), errors.Is(err, errUpstream):
		response.RenderTidalError(w, err)
		return
	case errors.Is(err, errStationNotFound):
		response.RenderError(w, err, http.StatusNotFound)
		return
	default:
		response.RenderError(w, err, http.StatusBadRequest)
		return
	}

	table, err := s.tides.WaterLevelTable(r.Context(), query)
	if err != nil {
		s.logger.Error("Failed to fetch series", "error", err)
		response.RenderTidalError(w, err)
		return
	}

	samples := table.Samples()
	if samples == nil {
		samples = []measurement.Sample{}
	}
	response.RenderJSONResponse(w, SeriesResponse{
		Datatype: table.Datatype,
		RefCode:  table.RefCode,
		Columns:  table.Columns,
		Samples:  samples,
	})
}

func (s *Server) seriesQuery(r *http.Request) (tideapi.Query, error) {
	params := r.URL.Query()
	query := tideapi.Query{
		RefCode:  params.Get("refcode"),
		Language: params.Get("lang"),
	}

	var err error
	if query.Datatype, err = datatypeFromQuery(r); err != nil {
		return query, err
	}
	if raw := params.Get("interval"); raw != "" {
		if query.Interval, err = strconv.Atoi(raw); err != nil {
			return query, fmt.Errorf("invalid interval %q", raw)
		}
	}
	if query.Start, err = timeFromQuery(r, "from"); err != nil {
		return query, err
	}
	if query.End, err = timeFromQuery(r, "to"); err != nil {
		return query, err
	}

	if name := params.Get("station"); name != "" {
		st, err := s.tides.GetStation(r.Context(), name)
		if err != nil {
			return query, fmt.Errorf("%w: %w", errUpstream, err)
		}
		if st == nil {
			return query, fmt.Errorf("%w: %s", errStationNotFound, name)
		}
		query.Station = st
		return query, nil
	}

	location, err := locationFromQuery(r)
	if err != nil {
		return query, err
	}
	query.Location = &location
	return query, nil
}

func (s *Server) waterLevel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	params := r.URL.Query()

	location, err := locationFromQuery(r)
	if err != nil {
		response.RenderError(w, err, http.StatusBadRequest)
		return
	}

	at, err := timeFromQuery(r, "time")
	if err != nil {
		response.RenderError(w, err, http.StatusBadRequest)
		return
	}
	if at.IsZero() {
		at = time.Now()
	}

	datatype, err := datatypeFromQuery(r)
	if err != nil {
		response.RenderError(w, err, http.StatusBadRequest)
		return
	}

	fallbackKm := s.FallbackDistanceKm
	if raw := params.Get("fallback_km"); raw != "" {
		if fallbackKm, err = strconv.ParseFloat(raw, 64); err != nil || fallbackKm < 0 {
			response.RenderError(w, fmt.Errorf("invalid fallback_km %q", raw), http.StatusBadRequest)
			return
		}
	}

	level, err := s.tides.GetWaterLevel(r.Context(), tideapi.PointQuery{
		Time:               at,
		Latitude:           location.Latitude,
		Longitude:          location.Longitude,
		RefCode:            params.Get("refcode"),
		Datatype:           datatype,
		Language:           params.Get("lang"),
		FallbackDistanceKm: fallbackKm,
	})
	if err != nil {
		s.logger.Warn("Failed to get water level", "latitude", location.Latitude, "longitude", location.Longitude, "error", err)
		response.RenderTidalError(w, err)
		return
	}
	response.RenderJSONResponse(w, level)
}

func (s *Server) collect(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	params := r.URL.Query()

	name := params.Get("station")
	if name == "" {
		response.RenderError(w, fmt.Errorf("station is required"), http.StatusBadRequest)
		return
	}

	periodStr := params.Get("period")
	if periodStr == "" {
		periodStr = task.DefaultCollectPeriod
	}
	period, err := measurement.NewFromISO8601Duration(periodStr, time.Now())
	if err != nil {
		s.logger.Error("Invalid time period format", "period", periodStr, "error", err)
		response.RenderError(w, fmt.Errorf("invalid time period"), http.StatusBadRequest)
		return
	}

	series, err := s.collector.Run(r.Context(), name, period)
	if err != nil {
		s.logger.Error("Failed to collect water levels", "station", name, "error", err)
		if tideapi.IsDomainError(err) {
			response.RenderTidalError(w, err)
			return
		}
		response.RenderError(w, fmt.Errorf("failed to collect water levels: %w", err), http.StatusInternalServerError)
		return
	}

	stored := 0
	if series != nil {
		stored = len(series.Samples)
	}
	response.RenderJSONResponse(w, response.NewActionResponse(
		fmt.Sprintf("Collected %d water levels for station %s", stored, name), stored, series))
}

func locationFromQuery(r *http.Request) (geo.Point, error) {
	params := r.URL.Query()

	latitude, err := strconv.ParseFloat(strings.TrimSpace(params.Get("lat")), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid or missing lat")
	}
	longitude, err := strconv.ParseFloat(strings.TrimSpace(params.Get("lon")), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid or missing lon")
	}

	location := geo.Point{Latitude: latitude, Longitude: longitude}
	return location, location.Validate()
}

func timeFromQuery(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := tideapi.ParseTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t, nil
}

func datatypeFromQuery(r *http.Request) (tideapi.Datatype, error) {
	raw := r.URL.Query().Get("datatype")
	if raw == "" {
		return "", nil
	}
	return tideapi.ParseDatatype(raw)
}
