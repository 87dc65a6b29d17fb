package services

import (
	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/rbac"
	"github.com/google/uuid"
)

// Actor is the authenticated caller as seen by the services.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role models.Role
	IP   string
}

func (a Actor) Can(c rbac.Capability) bool {
	return rbac.Can(a.Role, c)
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}
