package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDs are assigned application-side so the models migrate identically on
// Postgres and on the sqlite databases the tests run against.

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error                  { assignID(&u.ID); return nil }
func (r *RefreshToken) BeforeCreate(*gorm.DB) error          { assignID(&r.ID); return nil }
func (e *Establishment) BeforeCreate(*gorm.DB) error         { assignID(&e.ID); return nil }
func (d *EstablishmentDocument) BeforeCreate(*gorm.DB) error { assignID(&d.ID); return nil }
func (a *Application) BeforeCreate(*gorm.DB) error           { assignID(&a.ID); return nil }
func (d *ApplicationDocument) BeforeCreate(*gorm.DB) error   { assignID(&d.ID); return nil }
func (i *Inspection) BeforeCreate(*gorm.DB) error            { assignID(&i.ID); return nil }
func (p *InspectionPhoto) BeforeCreate(*gorm.DB) error       { assignID(&p.ID); return nil }
func (c *Certificate) BeforeCreate(*gorm.DB) error           { assignID(&c.ID); return nil }
func (l *AuditLog) BeforeCreate(*gorm.DB) error              { assignID(&l.ID); return nil }
