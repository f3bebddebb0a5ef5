package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/worldcup-simulator/brackets"
	"github.com/Dosada05/worldcup-simulator/services"
)

const clientSendBuffer = 256

type WebSocketHandler struct {
	hub              *brackets.Hub
	simulatorService services.SimulatorService
	upgrader         websocket.Upgrader
	logger           *slog.Logger
}

// NewWebSocketHandler принимает список разрешённых Origin; "*" разрешает все.
func NewWebSocketHandler(hub *brackets.Hub, ss services.SimulatorService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		hub:              hub,
		simulatorService: ss,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Не браузерные клиенты Origin не присылают.
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// ServeWs подключает клиента к комнате сессии /ws/sessions/{sessionID}.
// Клиент входит в комнату до чтения состояния, поэтому правка между
// этими шагами придёт ему отдельным кадром. Устаревшие кадры клиент
// отбрасывает по version.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getParamFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !h.simulatorService.SessionExists(sessionID) {
		notFoundResponse(w, r)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP ошибку клиенту.
		h.logger.Warn("failed to upgrade websocket connection", slog.String("session_id", sessionID), slog.Any("error", err))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, clientSendBuffer),
		Room: sessionID,
	}
	if !h.hub.Join(client) {
		conn.Close()
		return
	}

	snapshot, err := h.simulatorService.GetSnapshot(r.Context(), sessionID)
	if err != nil {
		// Сессия истекла, пока клиент подключался: комнату закрываем сами,
		// janitor мог сделать это раньше нашего Join.
		h.logger.Debug("session gone while connecting websocket", slog.String("session_id", sessionID), slog.Any("error", err))
		h.hub.CloseRoom(sessionID)
		go client.WritePump()
		go client.ReadPump()
		return
	}

	initial, err := json.Marshal(brackets.WebSocketMessage{
		Type:    services.MessageStateSnapshot,
		Payload: snapshot,
		RoomID:  sessionID,
	})
	if err == nil {
		client.Mu.Lock()
		if !client.IsClosed {
			select {
			case client.Send <- initial:
			default:
			}
		}
		client.Mu.Unlock()
	}

	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("websocket client connected", slog.String("session_id", sessionID))
}
