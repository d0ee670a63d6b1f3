package service

import "khilat/internal/domain/entity"

// CompletionTokenService signs and verifies the one-time completion marker
// that carries an in-page confirmation result across the client-side
// navigation to the completion screen. The orchestrator's in-memory state
// does not survive that navigation; the token is the only thing that does.
type CompletionTokenService interface {
	// Issue signs a short-lived token for the marker.
	Issue(marker entity.CompletionMarker) (string, error)

	// Verify validates the token and returns the embedded marker.
	// Expired or tampered tokens return an error.
	Verify(token string) (*entity.CompletionMarker, error)
}
