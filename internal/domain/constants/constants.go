// Package constants holds shared domain constants.
package constants

const (
	// PubSubProviderLocal selects the local HTTP push simulator.
	PubSubProviderLocal = "local"

	// PubSubProviderGoogle selects Google Cloud Pub/Sub.
	PubSubProviderGoogle = "google"

	// GuestCookieName is the durable client storage key for the guest id.
	GuestCookieName = "khilat_guest_id"

	// CurrencyINR is the only currency the storefront charges in.
	CurrencyINR = "inr"
)
