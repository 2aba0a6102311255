// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gps_logger/internal/analytics"
	"github.com/relabs-tech/gps_logger/internal/config"
	"github.com/relabs-tech/gps_logger/internal/gps"
	"github.com/relabs-tech/gps_logger/internal/logstore"
	"github.com/relabs-tech/gps_logger/internal/panel"
	"github.com/relabs-tech/gps_logger/internal/track"
)

// DefaultCenter is where the map opens before any sample exists.
var DefaultCenter = Center{Latitude: 43.0731, Longitude: -89.4012}

type Center struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TrackSource feeds the read-only web handlers.
type TrackSource interface {
	Snapshot() (track.Snapshot, error)
	Analytics() (analytics.TripAnalytics, error)
}

// SQLiteTrack serves the latest logging session, reloaded per request.
type SQLiteTrack struct {
	DB *logstore.DB
}

func (s SQLiteTrack) Snapshot() (track.Snapshot, error) {
	t, _, err := s.DB.LatestTrack()
	if errors.Is(err, logstore.ErrNoSession) {
		return track.NewSnapshot(nil), nil
	}
	if err != nil {
		return track.Snapshot{}, err
	}
	return t.Snapshot(), nil
}

func (s SQLiteTrack) Analytics() (analytics.TripAnalytics, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return analytics.TripAnalytics{}, err
	}
	return analytics.Compute(snap), nil
}

// LiveTrack is built from samples received over MQTT. Analytics are kept
// incrementally so pushes do not rescan the track.
type LiveTrack struct {
	mu    sync.RWMutex
	track *track.Track
	acc   analytics.Accumulator
}

func NewLiveTrack() *LiveTrack {
	return &LiveTrack{track: track.New()}
}

// Add appends s if it passes validation.
func (l *LiveTrack) Add(s gps.Sample) bool {
	if !gps.Valid(s) {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.track.Append(s)
	l.acc.Add(s)
	return true
}

func (l *LiveTrack) Snapshot() (track.Snapshot, error) {
	return l.track.Snapshot(), nil
}

func (l *LiveTrack) Analytics() (analytics.TripAnalytics, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.acc.Result(), nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Server exposes a TrackSource over HTTP.
type Server struct {
	src          TrackSource
	pushInterval time.Duration
}

func NewServer(src TrackSource, pushInterval time.Duration) *Server {
	return &Server{src: src, pushInterval: pushInterval}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/track", s.handleTrack)
	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/current", s.handleCurrent)
	mux.HandleFunc("GET /api/export.xlsx", s.handleExport)
	mux.HandleFunc("GET /api/panel.png", s.handlePanel)
	mux.HandleFunc("GET /ws/analytics", s.handleAnalyticsWS)
	return mux
}

type trackResponse struct {
	Center  Center            `json:"center"`
	Records []logstore.Record `json:"records"`
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	snap, err := s.src.Snapshot()
	if err != nil {
		serverError(w, "track", err)
		return
	}
	resp := trackResponse{Center: DefaultCenter, Records: logstore.Records(snap)}
	if first, ok := snap.First(); ok {
		resp.Center = Center{Latitude: first.Latitude, Longitude: first.Longitude}
	}
	writeJSON(w, resp)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.src.Analytics()
	if err != nil {
		serverError(w, "analytics", err)
		return
	}
	writeJSON(w, a)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	snap, err := s.src.Snapshot()
	if err != nil {
		serverError(w, "current", err)
		return
	}
	last, ok := snap.Last()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, logstore.RecordFromSample(last))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.src.Snapshot()
	if err != nil {
		serverError(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFileName(time.Now())))
	if err := logstore.WriteXLSX(w, snap, analytics.Compute(snap)); err != nil {
		log.Printf("web: export error: %v", err)
	}
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	a, err := s.src.Analytics()
	if err != nil {
		serverError(w, "panel", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := panel.WritePNG(w, a); err != nil {
		log.Printf("web: panel error: %v", err)
	}
}

// handleAnalyticsWS pushes TripAnalytics every push interval until the
// client goes away.
func (s *Server) handleAnalyticsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// The reader only watches for the close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()

	for {
		a, err := s.src.Analytics()
		if err != nil {
			log.Printf("web: analytics error: %v", err)
			return
		}
		if err := conn.WriteJSON(a); err != nil {
			return
		}
		select {
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}

// ExportFileName names a workbook downloaded at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("gps_track_%s.xlsx", t.Format("20060102_150405"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func serverError(w http.ResponseWriter, what string, err error) {
	log.Printf("web: %s error: %v", what, err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// RunWeb serves the track API and the static dashboard from ./web.
func RunWeb() error {
	cfg := config.Get()

	var src TrackSource
	switch cfg.WebTrackSource {
	case config.TrackFromMQTT:
		live := NewLiveTrack()
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

		token := client.Subscribe(cfg.TopicSample, 0, func(_ mqtt.Client, msg mqtt.Message) {
			s, err := DecodeSample(msg.Payload())
			if err != nil {
				log.Printf("web: %v", err)
				return
			}
			live.Add(s)
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("web: subscribed to MQTT topic %s", cfg.TopicSample)
		src = live

	default:
		db, err := logstore.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Printf("web: serving latest session from %s", cfg.DBPath)
		src = SQLiteTrack{DB: db}
	}

	srv := NewServer(src, time.Duration(cfg.WebPushInterval)*time.Millisecond)

	api := srv.Handler()

	mux := http.NewServeMux()
	mux.Handle("/api/", api)
	mux.Handle("/ws/", api)
	mux.Handle("/", http.FileServer(http.Dir("web")))

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
