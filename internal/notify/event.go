package notify

import (
	"github.com/google/uuid"
)

// Canais baseados em papel. Cada conexão entra automaticamente no canal
// do seu papel; canais por reclamação usam ComplaintChannel.
const (
	ChannelAdmin    = "admin"
	ChannelProvider = "provider"
	ChannelCitizen  = "citizen"
)

// ComplaintChannel monta o nome do canal específico de uma reclamação.
func ComplaintChannel(complaintID uuid.UUID) string {
	return "complaint-" + complaintID.String()
}

// Event é uma variante etiquetada de evento de domínio. Cada tipo carrega
// um conjunto fixo de campos e conhece os canais que deve alcançar.
type Event interface {
	Name() string
	Channels() []string
}

// ComplaintCreated é emitido quando uma reclamação entra no sistema.
type ComplaintCreated struct {
	ComplaintID uuid.UUID `json:"complaint_id"`
	Categoria   string    `json:"categoria"`
	Prioridade  string    `json:"prioridade"`
	Emergencia  bool      `json:"emergencia"`
}

func (ComplaintCreated) Name() string { return "complaint_created" }

// Channels direciona criação para admins; emergências também alertam prestadores.
func (e ComplaintCreated) Channels() []string {
	if e.Emergencia {
		return []string{ChannelAdmin, ChannelProvider}
	}
	return []string{ChannelAdmin}
}

// StatusChanged é emitido a cada transição de status.
type StatusChanged struct {
	ComplaintID uuid.UUID `json:"complaint_id"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
}

func (StatusChanged) Name() string { return "status_changed" }

func (e StatusChanged) Channels() []string {
	return []string{ComplaintChannel(e.ComplaintID), ChannelCitizen}
}

// AssignmentChanged é emitido quando a reclamação troca de responsável.
type AssignmentChanged struct {
	ComplaintID uuid.UUID `json:"complaint_id"`
	ProviderID  uuid.UUID `json:"provider_id"`
}

func (AssignmentChanged) Name() string { return "assignment_changed" }

func (e AssignmentChanged) Channels() []string {
	return []string{ComplaintChannel(e.ComplaintID)}
}

// UpdateAdded é emitido quando um andamento em texto livre é registrado.
type UpdateAdded struct {
	ComplaintID uuid.UUID `json:"complaint_id"`
	UpdateID    uuid.UUID `json:"update_id"`
	Mensagem    string    `json:"mensagem"`
}

func (UpdateAdded) Name() string { return "update_added" }

func (e UpdateAdded) Channels() []string {
	return []string{ComplaintChannel(e.ComplaintID)}
}
