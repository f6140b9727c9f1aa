package storage

import "context"

// UploadInput representa uma operação de upload de anexo.
type UploadInput struct {
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// UploadResult descreve o blob persistido.
type UploadResult struct {
	URL  string
	ETag string
}

// Uploader define comportamento básico para armazenar anexos de reclamação.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}
