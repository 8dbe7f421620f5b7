package models

import "time"

// PlatformRegistration is one registered LMS platform. The launch validator
// resolves issuer/client pairs against it and the service token source uses
// its token endpoint.
type PlatformRegistration struct {
	ID            string    `db:"id" json:"id"`
	Issuer        string    `db:"issuer" json:"issuer"`
	Name          string    `db:"name" json:"name"`
	ClientID      string    `db:"client_id" json:"client_id"`
	AuthEndpoint  string    `db:"auth_endpoint" json:"auth_endpoint"`
	TokenEndpoint string    `db:"token_endpoint" json:"token_endpoint"`
	KeysetURL     string    `db:"keyset_url" json:"keyset_url"`
	PublicKeyPEM  string    `db:"public_key" json:"public_key"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
