package domain

import "time"

// User identifies the owner of an export
type User struct {
	UserID string `json:"user_id" yaml:"user_id"`
}

// Metadata describes where and when an export was produced
type Metadata struct {
	Date time.Time `json:"date" yaml:"date"`

	// OriginServer is the exporting server address including port,
	// like "10.10.10.10:8080" or "my.server:443"
	OriginServer string `json:"origin_server" yaml:"origin_server"`

	User User `json:"user" yaml:"user"`
}
