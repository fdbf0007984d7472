package model

import (
	"strings"
	"time"
)

// Trainer represents a business profile in the `trainers` table. A
// trainer is optionally linked to exactly one account through the
// unique UserID foreign key; placeholder profiles created before the
// person registered have a null UserID and are adopted on registration
// by matching email.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – linked account id (nullable, unique).
//  Nombre           – first name.
//  Apellidos        – surname(s).
//  Mail             – contact email.
//  Telefono         – contact phone.
//  Occupation       – professional occupation.
//  TrainingModality – coaching modality (online, in-person, ...).
//  LocationCountry  – country of operation.
//  LocationCity     – city of operation.
//  IsActive         – false after the profile was soft deleted.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type Trainer struct {
	ID               uint64    // trainers.id
	UserID           *uint64   // trainers.user_id (nullable, unique)
	Nombre           string    // trainers.nombre
	Apellidos        string    // trainers.apellidos
	Mail             string    // trainers.mail
	Telefono         *string   // trainers.telefono (nullable)
	Occupation       *string   // trainers.occupation (nullable)
	TrainingModality *string   // trainers.training_modality (nullable)
	LocationCountry  *string   // trainers.location_country (nullable)
	LocationCity     *string   // trainers.location_city (nullable)
	IsActive         bool      // trainers.is_active
	CreatedAt        time.Time // trainers.created_at
	UpdatedAt        time.Time // trainers.updated_at
}

// ProfileComplete reports whether every field required before a trainer
// may manage a roster is present and non-blank.
func (t Trainer) ProfileComplete() bool {
	if strings.TrimSpace(t.Nombre) == "" || strings.TrimSpace(t.Apellidos) == "" {
		return false
	}
	for _, v := range []*string{t.Telefono, t.Occupation, t.TrainingModality, t.LocationCountry, t.LocationCity} {
		if v == nil || strings.TrimSpace(*v) == "" {
			return false
		}
	}
	return true
}
