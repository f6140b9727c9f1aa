package notify

import (
	"testing"

	"github.com/google/uuid"
)

func containsChannel(channels []string, want string) bool {
	for _, ch := range channels {
		if ch == want {
			return true
		}
	}
	return false
}

func TestComplaintCreatedChannels(t *testing.T) {
	ev := ComplaintCreated{ComplaintID: uuid.New(), Categoria: "water"}
	channels := ev.Channels()
	if !containsChannel(channels, ChannelAdmin) {
		t.Fatal("criação deveria alcançar admins")
	}
	if containsChannel(channels, ChannelProvider) {
		t.Fatal("criação comum não deveria alcançar prestadores")
	}

	ev.Emergencia = true
	channels = ev.Channels()
	if !containsChannel(channels, ChannelProvider) {
		t.Fatal("emergência deveria alertar prestadores também")
	}
}

func TestStatusChangedChannels(t *testing.T) {
	id := uuid.New()
	ev := StatusChanged{ComplaintID: id, OldStatus: "submitted", NewStatus: "under_review"}
	channels := ev.Channels()

	if !containsChannel(channels, ComplaintChannel(id)) {
		t.Fatal("mudança de status deveria alcançar o canal da reclamação")
	}
	if !containsChannel(channels, ChannelCitizen) {
		t.Fatal("mudança de status deveria alcançar cidadãos")
	}
}

func TestAssignmentAndUpdateChannels(t *testing.T) {
	id := uuid.New()

	assign := AssignmentChanged{ComplaintID: id, ProviderID: uuid.New()}
	if got := assign.Channels(); len(got) != 1 || got[0] != ComplaintChannel(id) {
		t.Fatalf("atribuição deveria alcançar apenas o canal da reclamação, veio %v", got)
	}

	upd := UpdateAdded{ComplaintID: id, UpdateID: uuid.New()}
	if got := upd.Channels(); len(got) != 1 || got[0] != ComplaintChannel(id) {
		t.Fatalf("andamento deveria alcançar apenas o canal da reclamação, veio %v", got)
	}
}

func TestRedisChannelPrefix(t *testing.T) {
	if got := RedisChannel(ChannelAdmin); got != "ouvidoria:notify:admin" {
		t.Fatalf("RedisChannel = %s", got)
	}
}

func TestComplaintChannelFormat(t *testing.T) {
	id := uuid.New()
	want := "complaint-" + id.String()
	if got := ComplaintChannel(id); got != want {
		t.Fatalf("ComplaintChannel = %s, esperado %s", got, want)
	}
}
