package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof" // register handlers
	"regexp"
	"strconv"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/points"
)

func (robo *Robot) api(ctx context.Context, listen string, mux *http.ServeMux, metrics []prometheus.Collector) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(
		collectors.WithGoCollectorMemStatsMetricsDisabled(),
		collectors.WithGoCollectorRuntimeMetrics(
			collectors.GoRuntimeMetricsRule{
				Matcher: regexp.MustCompile(`^(/gc/gogc:percent|/gc/gomemlimit:bytes|/gc/heap/allocs:bytes|/gc/heap/allocs:objects|/gc/heap/goal:bytes|/memory/classes/heap/released:bytes|/memory/classes/heap/stacks:bytes|/memory/classes/total:bytes|/sched/gomaxprocs:threads|/sched/goroutines:goroutines|/sched/latencies:seconds)$`),
			},
		),
	))
	reg.MustRegister(metrics...)
	opts := promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, opts))
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	robo.routes(mux)
	l, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("couldn't start API server: %w", err)
	}
	srv := http.Server{
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
		BaseContext: func(l net.Listener) context.Context { return ctx },
	}
	go func() {
		slog.InfoContext(ctx, "HTTP API server", slog.Any("addr", l.Addr()))
		err := srv.Serve(l)
		if err == http.ErrServerClosed {
			return
		}
		slog.ErrorContext(ctx, "HTTP API server closed", slog.Any("err", err))
	}()
	<-ctx.Done()
	// The context is now done, so it is obviously the wrong choice for
	// managing the shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// routes registers the JSON API handlers.
func (robo *Robot) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/leaderboard", robo.apiLeaderboard)
	mux.HandleFunc("GET /api/user/{id}", robo.apiUser)
	mux.HandleFunc("GET /api/user/{id}/warnings", robo.apiWarnings)
}

func jsonerror(w http.ResponseWriter, status int, msg string) {
	v := struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}{
		Error:  msg,
		Status: status,
	}
	b, err := json.Marshal(&v)
	if err != nil {
		panic(err)
	}
	w.WriteHeader(status)
	w.Write(b)
}

func jsonwrite(ctx context.Context, log *slog.Logger, w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	if _, err := w.Write(b); err != nil {
		log.ErrorContext(ctx, "write response failed", slog.Any("err", err))
	}
}

// maxLeaderboard is the largest leaderboard the API serves.
const maxLeaderboard = 100

type apiUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int64  `json:"points"`
	Joined string `json:"joined,omitzero"`
}

type apiWarning struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
	By     string `json:"by"`
	Time   string `json:"time"`
}

func (robo *Robot) apiLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slog.With(slog.String("api", "leaderboard"), slog.Any("trace", uuid.New()))
	log.InfoContext(ctx, "handle", slog.String("route", r.Pattern), slog.String("remote", r.RemoteAddr))
	defer log.InfoContext(ctx, "done")
	w.Header().Set("Content-Type", "application/json")
	n := points.Leaderboard
	if s := r.FormValue("n"); s != "" {
		var err error
		n, err = strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxLeaderboard {
			log.WarnContext(ctx, "bad request", slog.String("n", s), slog.Any("err", err))
			jsonerror(w, http.StatusBadRequest, "invalid leaderboard size")
			return
		}
	}
	top, err := robo.points.Top(ctx, n)
	if err != nil {
		log.ErrorContext(ctx, "couldn't get leaderboard", slog.Any("err", err))
		jsonerror(w, http.StatusInternalServerError, err.Error())
		return
	}
	u := struct {
		Data   []apiUser `json:"data"`
		Status int       `json:"status"`
	}{
		Data:   make([]apiUser, len(top)),
		Status: http.StatusOK,
	}
	for i, t := range top {
		u.Data[i] = apiUser{ID: message.FormatID(t.ID), Name: t.Name, Points: t.Points}
	}
	jsonwrite(ctx, log, w, &u)
}

// pathUser parses the user ID in a request path, writing an error response
// if it is malformed.
func pathUser(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request) (int64, bool) {
	s := r.PathValue("id")
	id, err := message.ParseID(s)
	if err != nil || id <= 0 {
		log.WarnContext(ctx, "bad request", slog.String("id", s), slog.Any("err", err))
		jsonerror(w, http.StatusBadRequest, "invalid user ID")
		return 0, false
	}
	return id, true
}

func (robo *Robot) apiUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slog.With(slog.String("api", "user"), slog.Any("trace", uuid.New()))
	log.InfoContext(ctx, "handle", slog.String("route", r.Pattern), slog.String("remote", r.RemoteAddr))
	defer log.InfoContext(ctx, "done")
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathUser(ctx, log, w, r)
	if !ok {
		return
	}
	usr, err := robo.store.User(ctx, id)
	if err != nil {
		log.ErrorContext(ctx, "couldn't get user", slog.Int64("id", id), slog.Any("err", err))
		jsonerror(w, http.StatusInternalServerError, err.Error())
		return
	}
	if usr == nil {
		jsonerror(w, http.StatusNotFound, "no such user")
		return
	}
	u := struct {
		Data   apiUser `json:"data"`
		Status int     `json:"status"`
	}{
		Data: apiUser{
			ID:     message.FormatID(usr.ID),
			Name:   usr.Name,
			Points: usr.Points,
			Joined: usr.Joined.UTC().Format(time.RFC3339),
		},
		Status: http.StatusOK,
	}
	jsonwrite(ctx, log, w, &u)
}

func (robo *Robot) apiWarnings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slog.With(slog.String("api", "warnings"), slog.Any("trace", uuid.New()))
	log.InfoContext(ctx, "handle", slog.String("route", r.Pattern), slog.String("remote", r.RemoteAddr))
	defer log.InfoContext(ctx, "done")
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathUser(ctx, log, w, r)
	if !ok {
		return
	}
	ws, err := robo.moderation.Warnings(ctx, id)
	if err != nil {
		log.ErrorContext(ctx, "couldn't get warnings", slog.Int64("id", id), slog.Any("err", err))
		jsonerror(w, http.StatusInternalServerError, err.Error())
		return
	}
	u := struct {
		Data   []apiWarning `json:"data"`
		Status int          `json:"status"`
	}{
		Data:   make([]apiWarning, len(ws)),
		Status: http.StatusOK,
	}
	for i, x := range ws {
		u.Data[i] = apiWarning{
			ID:     x.ID,
			Reason: x.Reason,
			By:     message.FormatID(x.By),
			Time:   x.Time.UTC().Format(time.RFC3339),
		}
	}
	jsonwrite(ctx, log, w, &u)
}
