package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultAPIURL = "https://api.resend.com/emails"

// Sender entrega emails transacionais.
type Sender interface {
	SendAccessCode(ctx context.Context, to, nome, codigo string) error
}

// ResendMailer envia emails pela API da Resend.
type ResendMailer struct {
	apiKey string
	from   string
	apiURL string
	client *http.Client
}

// NewResendMailer devolve nil quando a chave não está configurada: o chamador
// trata mailer nulo como "modo dev" e expõe o código diretamente.
func NewResendMailer(apiKey, from string) *ResendMailer {
	if apiKey == "" {
		return nil
	}
	return &ResendMailer{
		apiKey: apiKey,
		from:   from,
		apiURL: defaultAPIURL,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendAccessCode envia o código de acesso do login.
func (m *ResendMailer) SendAccessCode(ctx context.Context, to, nome, codigo string) error {
	if m == nil || m.apiKey == "" {
		return errors.New("mailer não configurado")
	}

	payload := sendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: "Seu código de acesso - Sistema de Plantões",
		HTML:    renderAccessCode(nome, codigo),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend: status %d", resp.StatusCode)
	}
	return nil
}

func renderAccessCode(nome, codigo string) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 500px; margin: 0 auto; padding: 20px; background: #0a192f; color: #fff; border-radius: 8px;">
			<h2 style="color: #c5a059; text-align: center;">SISTEMA DE PLANTÕES</h2>
			<p>Olá, <strong>%s</strong>.</p>
			<p>Seu código de acesso é:</p>
			<div style="text-align: center; background: #c5a059; color: #0a192f; font-size: 36px; font-weight: bold; padding: 20px; border-radius: 8px; letter-spacing: 8px; margin: 20px 0;">%s</div>
			<p style="color: #aaa; font-size: 12px; text-align: center;">Válido por 15 minutos. Não compartilhe este código.</p>
		</div>`, nome, codigo)
}
