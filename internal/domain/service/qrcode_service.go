package service

// QRCodeService renders a provider redirect URL as a scannable QR code so
// UPI-style confirmations can be completed from another device.
type QRCodeService interface {
	// GeneratePaymentQR returns a PNG image encoding the redirect URL.
	GeneratePaymentQR(redirectURL string) ([]byte, error)
}
