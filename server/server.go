package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/julienschmidt/httprouter"

	"github.com/timgluz/tidevann/measurement"
	"github.com/timgluz/tidevann/middleware"
	"github.com/timgluz/tidevann/response"
	"github.com/timgluz/tidevann/secret"
	"github.com/timgluz/tidevann/station"
	"github.com/timgluz/tidevann/tideapi"
	"github.com/timgluz/tidevann/xmltree"
)

// TideService is the part of tideapi.Client the server exposes.
type TideService interface {
	Stations(ctx context.Context) (station.List, error)
	GetStation(ctx context.Context, query string) (*station.Station, error)
	StationLevels(ctx context.Context, st station.Station, lang, refCode string) (xmltree.Value, error)
	Languages(ctx context.Context) ([]tideapi.LanguageCode, error)
	RefLevels(ctx context.Context, latitude, longitude float64, lang string) ([]tideapi.ReferenceLevel, error)
	WaterLevelTable(ctx context.Context, query tideapi.Query) (*tideapi.Table, error)
	GetWaterLevel(ctx context.Context, q tideapi.PointQuery) (*tideapi.WaterLevelData, error)
}

type Collector interface {
	Run(ctx context.Context, stationName string, period measurement.Period) (*measurement.Timeseries, error)
}

// Server is a JSON facade over the tide API. The underlying client is not
// safe for concurrent use, so requests reaching upstream are serialized.
type Server struct {
	mu        sync.Mutex
	tides     TideService
	collector Collector
	tokens    secret.Store

	FallbackDistanceKm float64

	logger *slog.Logger
}

// New builds a server. collector and tokens may be nil; without a collector
// the collect endpoint is not registered and without tokens it is open.
func New(tides TideService, collector Collector, tokens secret.Store, logger *slog.Logger) *Server {
	return &Server{
		tides:     tides,
		collector: collector,
		tokens:    tokens,
		logger:    logger,
	}
}

func (s *Server) Handler() http.Handler {
	router := httprouter.New()

	router.GET("/stations", s.protect(s.listStations))
	router.GET("/stations/:name", s.protect(s.getStation))
	router.GET("/stations/:name/levels", s.protect(s.stationLevels))
	router.GET("/languages", s.protect(s.languages))
	router.GET("/reflevels", s.protect(s.refLevels))
	router.GET("/series", s.protect(s.series))
	router.GET("/waterlevel", s.protect(s.waterLevel))
	if s.collector != nil {
		router.POST("/collect", s.protect(s.collect))
	}

	router.NotFound = response.NewNotFoundHandler(s.logger)
	router.MethodNotAllowed = response.NewMethodNotAllowedHandler(s.logger)
	return router
}

func (s *Server) protect(h httprouter.Handle) httprouter.Handle {
	serialized := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s.mu.Lock()
		defer s.mu.Unlock()
		h(w, r, ps)
	}

	if s.tokens == nil || s.tokens.Len() == 0 {
		return serialized
	}
	return middleware.BearerAuth(serialized, s.tokens, s.logger)
}
