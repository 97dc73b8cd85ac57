package utils

import "github.com/google/uuid"

// qrPrefix brands QR tokens so gate scanners can reject foreign codes.
const qrPrefix = "PARK"

// NewQRToken returns a unique booking token such as
// "PARK-7f9c2ba4-...".  The token is printed as a QR code by the
// client and shown at the lot entrance.
func NewQRToken() string {
	return qrPrefix + "-" + uuid.NewString()
}
