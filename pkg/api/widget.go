package api

import (
	"encoding/json"
	"net/http"
	"time"

	"deezer-search-widget/pkg/config"
	"deezer-search-widget/pkg/globals"
	"deezer-search-widget/pkg/widget"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// Keys that change what the widget shows.
var renderKeys = []globals.Key{
	globals.KeyTheme,
	globals.KeyDisplayMode,
	globals.KeyMaxHeight,
	globals.KeyToolOutput,
}

const (
	messageHello      = "hello"
	messageSetGlobals = "set_globals"
	messageRender     = "render"
	messageError      = "error"
)

type socketMessage struct {
	Type    string          `json:"type"`
	Hosted  bool            `json:"hosted,omitempty"`
	Globals globals.Globals `json:"globals,omitempty"`
	HTML    string          `json:"html,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type renderRequest struct {
	Globals globals.Globals `json:"globals"`
}

func serveWidget(cfg *config.Config, renderer *widget.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer closeRequestBody(r)

		page, err := renderer.Page(cfg.BaseURL, widget.View{})
		if err != nil {
			logrus.WithError(err).Error("Error rendering widget page")
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithHTML(w, http.StatusOK, page)
	}
}

// renderWidget renders the results fragment for a one-off set of globals.
// A request without globals renders as if no host were present.
func renderWidget(renderer *widget.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer closeRequestBody(r)

		var req renderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithError(err).Error("Error decoding request body")
			respondWithError(w, http.StatusBadRequest, "Error decoding request body")
			return
		}

		html, err := renderer.RenderString(widget.NewView(globals.NewStore(req.Globals)))
		if err != nil {
			logrus.WithError(err).Error("Error rendering widget")
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithHTML(w, http.StatusOK, html)
	}
}

func widgetSocket(cfg *config.Config, renderer *widget.Renderer) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Error("Error upgrading widget connection")
			return
		}

		session := &widgetSession{
			id:       uuid.NewString(),
			conn:     conn,
			renderer: renderer,
			changed:  make(chan struct{}, 1),
			done:     make(chan struct{}),
		}
		session.run()
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// widgetSession mirrors one embedded widget's host globals and pushes a
// fresh render whenever a value the widget displays changes.
type widgetSession struct {
	id       string
	conn     *websocket.Conn
	renderer *widget.Renderer
	store    *globals.Store
	changed  chan struct{}
	done     chan struct{}
}

func (s *widgetSession) run() {
	log := logrus.WithField("session", s.id)
	defer func() {
		if err := s.conn.Close(); err != nil {
			log.WithError(err).Debug("Error closing widget connection")
		}
	}()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.WithError(err).Error("Error setting read deadline")
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var hello socketMessage
	if err := s.conn.ReadJSON(&hello); err != nil || hello.Type != messageHello {
		log.WithError(err).Error("Widget did not send hello")
		s.writeError("expected hello message")
		return
	}

	var host globals.Globals
	if hello.Hosted {
		host = hello.Globals
	}
	s.store = globals.NewStore(host)

	var unsubscribes []func()
	for _, key := range renderKeys {
		unsubscribes = append(unsubscribes, s.store.Subscribe(key, s.notify))
	}
	defer func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}()

	log.WithField("hosted", hello.Hosted).Info("Widget session started")

	finished := make(chan struct{})
	go func() {
		s.writeLoop()
		close(finished)
	}()
	s.notify()
	s.readLoop()

	close(s.done)
	<-finished
	log.Info("Widget session ended")
}

func (s *widgetSession) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *widgetSession) readLoop() {
	for {
		var msg socketMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).WithField("session", s.id).Error("Error reading widget message")
			}
			return
		}

		switch msg.Type {
		case messageSetGlobals:
			s.store.Dispatch(globals.SetGlobalsEvent{Globals: msg.Globals})
		default:
			logrus.WithField("type", msg.Type).Debug("Ignoring unknown widget message")
		}
	}
}

// writeLoop owns all writes to the connection after the hello exchange.
func (s *widgetSession) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-s.changed:
			html, err := s.renderer.RenderString(widget.NewView(s.store))
			msg := socketMessage{Type: messageRender, HTML: html}
			if err != nil {
				logrus.WithError(err).WithField("session", s.id).Error("Error rendering widget")
				msg = socketMessage{Type: messageError, Error: err.Error()}
			}
			if err := s.write(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *widgetSession) write(msg socketMessage) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		logrus.WithError(err).WithField("session", s.id).Error("Error writing widget message")
		return err
	}
	return nil
}

func (s *widgetSession) writeError(message string) {
	_ = s.write(socketMessage{Type: messageError, Error: message})
}
