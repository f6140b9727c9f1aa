package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Publisher entrega eventos aos canais interessados. Entrega é melhor esforço:
// no máximo uma vez, sem confirmação, sem persistência de eventos perdidos.
// Falhas nunca se propagam para a operação que originou o evento.
type Publisher interface {
	Publish(ev Event)
}

const (
	redisChannelPrefix = "ouvidoria:notify:"
	publishTimeout     = 5 * time.Second
)

// RedisChannel converte nome lógico de canal em canal do Redis Pub/Sub.
func RedisChannel(name string) string {
	return redisChannelPrefix + name
}

// Envelope é o formato serializado de um evento no Pub/Sub.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RedisPublisher publica eventos via Redis Pub/Sub.
type RedisPublisher struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisPublisher cria publisher com logger de componente.
func NewRedisPublisher(client *redis.Client, logger zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, logger: logger}
}

// Publish serializa e envia o evento sem bloquear o chamador. Erros são
// registrados e engolidos.
func (p *RedisPublisher) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error().Err(err).Str("event", ev.Name()).Msg("falha ao serializar evento")
		return
	}

	payload, err := json.Marshal(Envelope{Event: ev.Name(), Data: data})
	if err != nil {
		p.logger.Error().Err(err).Str("event", ev.Name()).Msg("falha ao serializar envelope")
		return
	}

	channels := ev.Channels()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		for _, ch := range channels {
			if err := p.client.Publish(ctx, RedisChannel(ch), payload).Err(); err != nil {
				p.logger.Warn().Err(err).Str("event", ev.Name()).Str("channel", ch).
					Msg("falha ao publicar evento")
			}
		}
	}()
}

// NopPublisher descarta eventos (testes e execução sem Redis).
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
