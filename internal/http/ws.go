package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/urbanbyte/ouvidoria/internal/notify"
	"github.com/urbanbyte/ouvidoria/internal/repo"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsMaxMessage = 4096
)

// clientCommand é o protocolo de entrada da conexão: inscrição dinâmica em
// canais de reclamação. Canais de papel são automáticos.
type clientCommand struct {
	Action      string `json:"action"`
	ComplaintID string `json:"complaint_id"`
}

type serverNotice struct {
	Event   string `json:"event"`
	Channel string `json:"channel,omitempty"`
	Message string `json:"message,omitempty"`
}

// Watch abre conexão websocket autenticada por token na query string e faz a
// ponte com o hub de notificações.
func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "AUTH", "token ausente", nil)
		return
	}

	claims, err := h.authService.JWT().ParseAndValidate(token)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "token inválido", nil)
		return
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	role := claims.Role

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range h.cfg.AllowOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("falha no upgrade websocket")
		return
	}

	session := h.hub.NewSession()
	ctx := context.Background()
	h.hub.Join(ctx, session, roleChannel(role))

	// Avisos do leitor para o cliente passam pelo escritor; a conexão nunca
	// tem dois goroutines escrevendo ao mesmo tempo.
	notices := make(chan []byte, 8)

	go h.wsWriter(conn, session, notices)
	h.wsReader(ctx, conn, session, notices, userID, role)
}

func (h *Handler) wsReader(ctx context.Context, conn *websocket.Conn, session *notify.Session, notices chan<- []byte, userID uuid.UUID, role string) {
	defer func() {
		h.hub.Close(ctx, session)
		_ = conn.Close()
	}()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd clientCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			sendNotice(notices, serverNotice{Event: "error", Message: "comando inválido"})
			continue
		}

		complaintID, err := uuid.Parse(strings.TrimSpace(cmd.ComplaintID))
		if err != nil {
			sendNotice(notices, serverNotice{Event: "error", Message: "complaint_id inválido"})
			continue
		}
		channel := notify.ComplaintChannel(complaintID)

		switch cmd.Action {
		case "subscribe":
			allowed, err := h.complaints.CanWatch(ctx, complaintID, userID, role)
			if err != nil {
				sendNotice(notices, serverNotice{Event: "error", Message: "não foi possível verificar acesso"})
				continue
			}
			if !allowed {
				sendNotice(notices, serverNotice{Event: "error", Channel: channel, Message: "acesso negado"})
				continue
			}
			h.hub.Join(ctx, session, channel)
			sendNotice(notices, serverNotice{Event: "subscribed", Channel: channel})
		case "unsubscribe":
			h.hub.Leave(ctx, session, channel)
			sendNotice(notices, serverNotice{Event: "unsubscribed", Channel: channel})
		default:
			sendNotice(notices, serverNotice{Event: "error", Message: "ação desconhecida"})
		}
	}
}

func (h *Handler) wsWriter(conn *websocket.Conn, session *notify.Session, notices <-chan []byte) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case payload, ok := <-session.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case payload := <-notices:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendNotice descarta o aviso quando o buffer do escritor está cheio.
func sendNotice(notices chan<- []byte, notice serverNotice) {
	payload, err := json.Marshal(notice)
	if err != nil {
		return
	}
	select {
	case notices <- payload:
	default:
	}
}

func roleChannel(role string) string {
	switch role {
	case repo.RoleAdmin:
		return notify.ChannelAdmin
	case repo.RoleProvider:
		return notify.ChannelProvider
	default:
		return notify.ChannelCitizen
	}
}
