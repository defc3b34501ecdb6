package model

import "time"

// Roles known to the service. DEALER accounts list motorcycles and run
// auctions; TRADER accounts bid on them. ADMIN may trigger maintenance
// operations such as on-demand reconciliation.
const (
	RoleDealer = "DEALER"
	RoleTrader = "TRADER"
	RoleAdmin  = "ADMIN"
)

// User is the minimal identity record the auction core relies on. Credential
// handling beyond the bcrypt hash lives outside this service; the core only
// needs id and role to authorize commands.
//
// Fields:
//  ID           – primary key.
//  Email        – login identifier, unique.
//  PasswordHash – bcrypt hash of the password.
//  Role         – one of the role constants above.
//  CreatedAt    – creation timestamp.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
}
