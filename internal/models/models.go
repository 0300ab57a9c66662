package models

import "time"

// User represents a registered user in the system
type User struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// Photo represents a photo owned by a single user. The owner, the stored
// file and the creation time are fixed at upload; only the name and the
// border color may change afterwards.
type Photo struct {
	ID          int64     `json:"id" xml:"id"`
	OwnerID     string    `json:"-" xml:"-"`
	FilePath    string    `json:"photo" xml:"photo"`
	Name        string    `json:"name" xml:"name"`
	BorderColor string    `json:"border_color" xml:"border_color"`
	CreatedAt   time.Time `json:"created_at" xml:"created_at"`
}
