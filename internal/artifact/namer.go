// Package artifact names, reserves and stores the PDF pair of one generation.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/punchamoorthee/estatedocs/internal/domain"
)

const (
	// TokenLength is the number of hex characters in a token (32 bits).
	TokenLength = 8
	// MaxReserveAttempts bounds redraws after a token collision.
	MaxReserveAttempts = 5

	previewPrefix = "preview_"
	extension     = ".pdf"
	maxSlugLength = 64
)

// Registry reserves tokens so two generations never share one.
// Reserve returns domain.ErrTokenTaken when the token is in use.
type Registry interface {
	Reserve(ctx context.Context, pair domain.ArtifactPair) error
	Release(ctx context.Context, pair domain.ArtifactPair) error
}

// Namer draws tokens and reserves them.
type Namer struct {
	registry Registry
	newToken func() (string, error)
}

// NewNamer returns a Namer backed by registry.
func NewNamer(registry Registry) *Namer {
	return &Namer{registry: registry, newToken: NewToken}
}

// NewToken returns the first TokenLength hex characters of a random UUID.
func NewToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", "")[:TokenLength], nil
}

// PairFor derives the preview and final filenames for token.
func PairFor(documentType, token string) domain.ArtifactPair {
	slug := Slug(documentType)
	return domain.ArtifactPair{
		Token:        token,
		DocumentType: slug,
		Preview:      previewPrefix + slug + "_" + token + extension,
		Final:        slug + "_" + token + extension,
	}
}

// Slug makes documentType safe to use inside a filename. Characters other
// than ASCII letters, digits, '-' and '_' become '_'.
func Slug(documentType string) string {
	var b strings.Builder
	for _, r := range documentType {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxSlugLength {
			break
		}
	}
	if b.Len() == 0 {
		return "document"
	}
	return b.String()
}

// Next reserves a fresh pair for documentType. A token that is already
// taken is redrawn, up to MaxReserveAttempts times.
func (n *Namer) Next(ctx context.Context, documentType string) (domain.ArtifactPair, error) {
	for attempt := 0; attempt < MaxReserveAttempts; attempt++ {
		token, err := n.newToken()
		if err != nil {
			return domain.ArtifactPair{}, fmt.Errorf("draw token: %w", err)
		}
		pair := PairFor(documentType, token)
		err = n.registry.Reserve(ctx, pair)
		if err == nil {
			return pair, nil
		}
		if !errors.Is(err, domain.ErrTokenTaken) {
			return domain.ArtifactPair{}, fmt.Errorf("reserve token: %w", err)
		}
	}
	return domain.ArtifactPair{}, domain.ErrTokenExhausted
}

// Release frees the reservation of a pair that was never stored.
func (n *Namer) Release(ctx context.Context, pair domain.ArtifactPair) error {
	return n.registry.Release(ctx, pair)
}

// ParseName recovers the pair a stored filename belongs to. Names that were
// not produced by PairFor report false.
func ParseName(name string) (domain.ArtifactPair, bool) {
	base, ok := strings.CutSuffix(name, extension)
	if !ok {
		return domain.ArtifactPair{}, false
	}
	base = strings.TrimPrefix(base, previewPrefix)
	i := strings.LastIndexByte(base, '_')
	if i <= 0 || len(base)-i-1 != TokenLength {
		return domain.ArtifactPair{}, false
	}
	slug, token := base[:i], base[i+1:]
	for _, r := range token {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return domain.ArtifactPair{}, false
		}
	}
	if Slug(slug) != slug {
		return domain.ArtifactPair{}, false
	}
	return PairFor(slug, token), true
}
