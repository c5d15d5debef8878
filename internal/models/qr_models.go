package models

import "time"

// QRCode is a printed entry point to the public menu. The newest one is the active menu.
type QRCode struct {
	ID        string    `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	MenuURL   string    `json:"menu_url" db:"menu_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
