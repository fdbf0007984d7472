package model

import "time"

// ClientProfile represents a coached client in the `client_profiles`
// table. Like Trainer, the profile may exist before the person has an
// account (UserID null) and is adopted on registration by email match.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – linked account id (nullable, unique).
//  Nombre    – first name.
//  Apellidos – surname(s).
//  Mail      – contact email.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type ClientProfile struct {
	ID        uint64    // client_profiles.id
	UserID    *uint64   // client_profiles.user_id (nullable, unique)
	Nombre    string    // client_profiles.nombre
	Apellidos string    // client_profiles.apellidos
	Mail      string    // client_profiles.mail
	CreatedAt time.Time // client_profiles.created_at
	UpdatedAt time.Time // client_profiles.updated_at
}

// TrainerClient is the explicit association row granting a trainer
// visibility into one client's data. ClientEmailNorm holds a lowercase
// copy of the client's email; the composite unique index on
// (trainer_id, client_email_norm) enforces at the data layer that no
// two clients in one trainer's roster share an email regardless of
// case. The column must be kept in sync whenever a link is created or
// the underlying client email changes.
//
// Fields:
//  ID              – primary key identifier.
//  TrainerID       – owning trainer.
//  ClientID        – linked client profile.
//  ClientEmailNorm – lowercase-normalized copy of the client email.
//  CreatedAt       – timestamp of creation.
type TrainerClient struct {
	ID              uint64    // trainer_clients.id
	TrainerID       uint64    // trainer_clients.trainer_id
	ClientID        uint64    // trainer_clients.client_id
	ClientEmailNorm string    // trainer_clients.client_email_norm
	CreatedAt       time.Time // trainer_clients.created_at
}
