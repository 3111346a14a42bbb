package dto

import "glee-scheduler/modules/attendance/entity"

type IssueTokenRequest struct {
	// ExpiresInMinutes of 0 issues a token that never expires; nil uses the default.
	ExpiresInMinutes *int `json:"expires_in_minutes,omitempty"`
}

type IssuedToken struct {
	entity.ScanToken
	// QRCodePNG is the base64 PNG, set when no object storage is configured.
	QRCodePNG string `json:"qr_code_png,omitempty"`
}

type ScanRequest struct {
	Token string `json:"token"`
}
