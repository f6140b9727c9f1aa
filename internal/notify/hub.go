package notify

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Hub mantém o registro explícito de canal → conexões ativas e faz a ponte
// entre o Redis Pub/Sub e as sessões de tempo real. Entrada e saída de canal
// acompanham o ciclo de vida da sessão de transporte.
type Hub struct {
	client *redis.Client
	logger zerolog.Logger

	mu       sync.Mutex
	members  map[string]map[*Session]struct{}
	pubsub   *redis.PubSub
	started  bool
	shutdown bool
}

// Session representa uma conexão inscrita em canais do hub.
type Session struct {
	send     chan []byte
	channels map[string]struct{}
}

// Send expõe o fluxo de mensagens destinado à conexão.
func (s *Session) Send() <-chan []byte {
	return s.send
}

// NewHub cria hub sem iniciar a assinatura do Redis.
func NewHub(client *redis.Client, logger zerolog.Logger) *Hub {
	return &Hub{
		client:  client,
		logger:  logger,
		members: make(map[string]map[*Session]struct{}),
	}
}

// Run assina os canais de papel e repassa mensagens até o contexto encerrar.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.pubsub = h.client.Subscribe(ctx,
		RedisChannel(ChannelAdmin),
		RedisChannel(ChannelProvider),
		RedisChannel(ChannelCitizen),
	)
	pubsub := h.pubsub
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		h.shutdown = true
		h.mu.Unlock()
		_ = pubsub.Close()
	}()

	for msg := range pubsub.Channel() {
		channel := strings.TrimPrefix(msg.Channel, redisChannelPrefix)
		h.deliver(channel, []byte(msg.Payload))
	}
}

// NewSession registra uma nova conexão no hub.
func (h *Hub) NewSession() *Session {
	return &Session{
		send:     make(chan []byte, 32),
		channels: make(map[string]struct{}),
	}
}

// Join inscreve a sessão no canal; assina o canal no Redis quando for o
// primeiro interessado local.
func (h *Hub) Join(ctx context.Context, s *Session, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shutdown {
		return
	}

	if _, ok := s.channels[channel]; ok {
		return
	}
	s.channels[channel] = struct{}{}

	set, ok := h.members[channel]
	if !ok {
		set = make(map[*Session]struct{})
		h.members[channel] = set
		if !isRoleChannel(channel) && h.pubsub != nil {
			if err := h.pubsub.Subscribe(ctx, RedisChannel(channel)); err != nil {
				h.logger.Warn().Err(err).Str("channel", channel).Msg("falha ao assinar canal")
			}
		}
	}
	set[s] = struct{}{}
}

// Leave remove a sessão do canal; cancela assinatura no Redis quando for o
// último interessado local.
func (h *Hub) Leave(ctx context.Context, s *Session, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(ctx, s, channel)
}

// Close desfaz todas as inscrições da sessão e encerra seu fluxo de envio.
func (h *Hub) Close(ctx context.Context, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel := range s.channels {
		h.leaveLocked(ctx, s, channel)
	}
	close(s.send)
}

func (h *Hub) leaveLocked(ctx context.Context, s *Session, channel string) {
	if _, ok := s.channels[channel]; !ok {
		return
	}
	delete(s.channels, channel)

	set, ok := h.members[channel]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.members, channel)
		if !isRoleChannel(channel) && h.pubsub != nil && !h.shutdown {
			if err := h.pubsub.Unsubscribe(ctx, RedisChannel(channel)); err != nil {
				h.logger.Warn().Err(err).Str("channel", channel).Msg("falha ao cancelar canal")
			}
		}
	}
}

// deliver repassa payload a cada sessão do canal. Sessões com buffer cheio
// perdem a mensagem; clientes reconciliam estado via refetch.
func (h *Hub) deliver(channel string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.members[channel] {
		select {
		case s.send <- payload:
		default:
		}
	}
}

func isRoleChannel(channel string) bool {
	switch channel {
	case ChannelAdmin, ChannelProvider, ChannelCitizen:
		return true
	}
	return false
}
