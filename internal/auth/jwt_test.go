package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndValidateToken(t *testing.T) {
	manager := NewJWTManager("segredo-de-teste-com-32-caracteres!", 15*time.Minute)
	subject := uuid.New()

	token, err := manager.GenerateAccessToken(subject, "provider")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	claims, err := manager.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if claims.Subject != subject.String() {
		t.Fatalf("subject = %s, esperado %s", claims.Subject, subject)
	}
	if claims.Role != "provider" {
		t.Fatalf("role = %s, esperado provider", claims.Role)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	manager := NewJWTManager("segredo-de-teste-com-32-caracteres!", 15*time.Minute)
	other := NewJWTManager("outro-segredo-tambem-com-32-chars!!", 15*time.Minute)

	token, err := manager.GenerateAccessToken(uuid.New(), "citizen")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	if _, err := other.ParseAndValidate(token); err == nil {
		t.Fatal("token assinado com outro segredo deveria falhar")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	manager := NewJWTManager("segredo-de-teste-com-32-caracteres!", -time.Minute)

	token, err := manager.GenerateAccessToken(uuid.New(), "citizen")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	if _, err := manager.ParseAndValidate(token); err == nil {
		t.Fatal("token expirado deveria falhar")
	}
}

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := Hash("senha-super-secreta")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	ok, err := Verify("senha-super-secreta", hash)
	if err != nil || !ok {
		t.Fatalf("senha correta deveria verificar (ok=%v, err=%v)", ok, err)
	}

	ok, err = Verify("senha-errada", hash)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if ok {
		t.Fatal("senha errada não deveria verificar")
	}
}
