// Package document assembles printable warehouse documents: pick route
// sheets for the floor and conference sheets for receiving and staging.
package document

import (
	"context"
	"time"
)

// Kind names a document template.
type Kind string

const (
	KindPickRoute       Kind = "pick_route"
	KindConferenceSheet Kind = "conference_sheet"
)

// Renderer turns document data into bytes.
type Renderer interface {
	Render(ctx context.Context, kind Kind, data any) (body []byte, contentType string, err error)
}

// Archive keeps rendered documents and hands out download links.
type Archive interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	PresignedURL(ctx context.Context, key string) (string, time.Time, error)
}
