package auth

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"
)

// SessionCookieName é o nome do cookie que transporta o identificador de sessão.
const SessionCookieName = "session_id"

// GenerateSessionID cria identificador de sessão com 256 bits de entropia.
func GenerateSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// GenerateAccessCode gera código numérico de 6 dígitos uniforme em [100000, 999999].
func GenerateAccessCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	n.Add(n, big.NewInt(100000))
	return n.String(), nil
}

// MaskEmail oculta o miolo do endereço para exibição ("ab***@dominio").
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 2 {
		return email
	}
	return email[:2] + "***" + email[at:]
}
