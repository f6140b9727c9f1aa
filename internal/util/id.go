package util

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewObjectKey gera chave única para blobs de anexo, particionada por
// reclamação e mês de upload.
func NewObjectKey(complaintID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("complaints/%s/%s/%s%s",
		complaintID.String(),
		time.Now().UTC().Format("2006-01"),
		uuid.NewString(),
		ext,
	)
}
