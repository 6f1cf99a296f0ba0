// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/navx_ahrs/internal/config"
	"github.com/relabs-tech/navx_ahrs/internal/sensors"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// webServer serves the latest Report over HTTP and a websocket stream.
type webServer struct {
	log *zap.SugaredLogger
	// control forwards a validated control message.
	control func([]byte) error

	mu      sync.RWMutex
	last    *Report
	payload []byte
	subs    map[chan []byte]struct{}
}

func newWebServer(log *zap.SugaredLogger, control func([]byte) error) *webServer {
	return &webServer{
		log:     log,
		control: control,
		subs:    make(map[chan []byte]struct{}),
	}
}

// update stores r and pushes it to every websocket client. A client that
// has not drained its previous messages misses this one.
func (s *webServer) update(r Report) {
	payload, err := json.Marshal(r)
	if err != nil {
		s.log.Errorw("json marshal error", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &r
	s.payload = payload
	for ch := range s.subs {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (s *webServer) latest() (*Report, []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.payload
}

func (s *webServer) subscribe() (chan []byte, func()) {
	ch := make(chan []byte, 4)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	if s.payload != nil {
		ch <- s.payload
	}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
}

func (s *webServer) routes(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ahrs", s.handleAHRS)
	mux.HandleFunc("/api/registers", s.handleRegisters)
	mux.HandleFunc("/api/register_map", handleRegisterMap)
	mux.HandleFunc("/api/control", s.handleControl)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

func writeJSON(w http.ResponseWriter, log *zap.SugaredLogger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnw("json encode error", "error", err)
	}
}

// handleAHRS serves the latest report.
func (s *webServer) handleAHRS(w http.ResponseWriter, r *http.Request) {
	_, payload := s.latest()
	if payload == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// RegisterDump is the body of GET /api/registers.
type RegisterDump struct {
	Timestamp uint32                  `json:"timestamp"`
	Registers []sensors.RegisterValue `json:"registers"`
}

// handleRegisters decodes the raw register block of the latest report.
func (s *webServer) handleRegisters(w http.ResponseWriter, r *http.Request) {
	last, _ := s.latest()
	if last == nil || len(last.Registers) == 0 {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	regs, err := sensors.DumpRegisters(last.Registers)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.log, RegisterDump{Timestamp: last.Frame.Timestamp, Registers: regs})
}

func handleRegisterMap(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sensors.BoardRegisterMap())
}

// handleControl accepts {"action": ...} and forwards it.
func (s *webServer) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1024))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd, err := parseControl(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload, _ := json.Marshal(cmd)
	if err := s.control(payload); err != nil {
		s.log.Warnw("control forward failed", "action", cmd.Action, "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.log.Infow("control sent", "action", cmd.Action)
	writeJSON(w, s.log, map[string]string{"status": "ok", "action": cmd.Action})
}

// handleWS streams every report to the client as a text message.
func (s *webServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	ch, unsubscribe := s.subscribe()
	defer unsubscribe()

	// The client never sends anything; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Debugw("websocket closed", "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case payload := <-ch:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.log.Debugw("websocket write error", "error", err)
				return
			}
		}
	}
}

// serve runs handler on addr until ctx is cancelled.
func serve(ctx context.Context, log *zap.SugaredLogger, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("web server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunWeb follows TOPIC_AHRS and serves it on WEB_SERVER_PORT. Control
// requests are published on TOPIC_AHRS_CONTROL.
func RunWeb(ctx context.Context, log *zap.SugaredLogger, staticDir string) error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	s := newWebServer(log, func(payload []byte) error {
		token := client.Publish(cfg.TopicAHRSControl, 1, false, payload)
		if !token.WaitTimeout(2 * time.Second) {
			return fmt.Errorf("publish to %s timed out", cfg.TopicAHRSControl)
		}
		return token.Error()
	})

	token := client.Subscribe(cfg.TopicAHRS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r Report
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Warnf("MQTT payload unmarshal error: %v", err)
			return
		}
		s.update(r)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Infof("subscribed to MQTT topic %s", cfg.TopicAHRS)

	return serve(ctx, log, fmt.Sprintf(":%d", cfg.WebServerPort), s.routes(staticDir))
}
