package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Alerter envia alertas operacionais para canais externos.
type Alerter interface {
	Alert(ctx context.Context, msg AlertMessage) error
}

// AlertMessage descreve um alerta simples.
type AlertMessage struct {
	Title    string
	Text     string
	Severity string
}

// WebhookAlerter publica alertas em um webhook compatível com Slack.
type WebhookAlerter struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookAlerter devolve nil quando não há webhook configurado.
func NewWebhookAlerter(webhookURL string) *WebhookAlerter {
	if webhookURL == "" {
		return nil
	}
	return &WebhookAlerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Alert envia a mensagem formatada para o webhook.
func (a *WebhookAlerter) Alert(ctx context.Context, msg AlertMessage) error {
	if a == nil || a.webhookURL == "" {
		return errors.New("webhook não configurado")
	}

	payload := map[string]any{
		"text": formatAlert(msg),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.New("webhook recusou alerta")
	}
	return nil
}

func formatAlert(msg AlertMessage) string {
	emoji := ":information_source:"
	switch msg.Severity {
	case "warning":
		emoji = ":warning:"
	case "critical":
		emoji = ":rotating_light:"
	}
	if msg.Title != "" {
		return emoji + " *" + msg.Title + "*\n" + msg.Text
	}
	return emoji + " " + msg.Text
}
