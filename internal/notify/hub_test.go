package notify

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func newTestHub() *Hub {
	return NewHub(nil, zerolog.Nop())
}

func TestHubJoinAndDeliver(t *testing.T) {
	hub := newTestHub()
	ctx := context.Background()

	a := hub.NewSession()
	b := hub.NewSession()
	hub.Join(ctx, a, "complaint-123")
	hub.Join(ctx, b, "complaint-123")
	hub.Join(ctx, b, ChannelAdmin)

	hub.deliver("complaint-123", []byte(`{"event":"x"}`))

	for _, s := range []*Session{a, b} {
		select {
		case msg := <-s.Send():
			if string(msg) != `{"event":"x"}` {
				t.Fatalf("payload = %s", msg)
			}
		default:
			t.Fatal("sessão inscrita deveria receber a mensagem")
		}
	}

	hub.deliver(ChannelAdmin, []byte("admin"))
	select {
	case <-a.Send():
		t.Fatal("sessão fora do canal não deveria receber")
	default:
	}
	select {
	case <-b.Send():
	default:
		t.Fatal("sessão do canal de admins deveria receber")
	}
}

func TestHubJoinIdempotent(t *testing.T) {
	hub := newTestHub()
	ctx := context.Background()

	s := hub.NewSession()
	hub.Join(ctx, s, "complaint-1")
	hub.Join(ctx, s, "complaint-1")

	hub.deliver("complaint-1", []byte("once"))
	<-s.Send()

	select {
	case <-s.Send():
		t.Fatal("inscrição repetida não deve duplicar entrega")
	default:
	}
}

func TestHubLeaveStopsDelivery(t *testing.T) {
	hub := newTestHub()
	ctx := context.Background()

	s := hub.NewSession()
	hub.Join(ctx, s, "complaint-9")
	hub.Leave(ctx, s, "complaint-9")

	if _, ok := hub.members["complaint-9"]; ok {
		t.Fatal("canal sem interessados deveria sair do registro")
	}

	hub.deliver("complaint-9", []byte("perdida"))
	select {
	case <-s.Send():
		t.Fatal("sessão desinscrita não deveria receber")
	default:
	}
}

func TestHubDeliverDropsWhenFull(t *testing.T) {
	hub := newTestHub()
	ctx := context.Background()

	s := hub.NewSession()
	hub.Join(ctx, s, "complaint-full")

	// Enche o buffer além da capacidade; deliver nunca bloqueia.
	for i := 0; i < cap(s.send)+10; i++ {
		hub.deliver("complaint-full", []byte("m"))
	}

	if got := len(s.send); got != cap(s.send) {
		t.Fatalf("buffer = %d, esperado cheio em %d", got, cap(s.send))
	}
}

func TestHubCloseClosesSend(t *testing.T) {
	hub := newTestHub()
	ctx := context.Background()

	s := hub.NewSession()
	hub.Join(ctx, s, "complaint-2")
	hub.Join(ctx, s, ChannelCitizen)

	hub.Close(ctx, s)

	if _, open := <-s.Send(); open {
		t.Fatal("fluxo de envio deveria estar encerrado")
	}
	if len(hub.members) != 0 {
		t.Fatal("sessão encerrada deveria sair de todos os canais")
	}
}
