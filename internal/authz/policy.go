// Package authz decide se um chamador pode alterar um recurso com base em papel e posse.
package authz

import (
	"fmt"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
)

// Decision é o resultado de uma verificação de autorização.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// CanMutate permite papéis elevados sobre qualquer recurso e, fora isso, apenas o próprio dono.
func CanMutate(caller domain.Caller, ownerID string) Decision {
	if caller.Elevated() {
		return Allow
	}
	if caller.ID != "" && caller.ID == ownerID {
		return Allow
	}
	return Deny
}

// CanReassignOwner indica se o chamador pode transferir um recurso para outro dono.
func CanReassignOwner(caller domain.Caller) Decision {
	return Decision(caller.Elevated())
}

// CanManageAccount permite que o próprio usuário ou um administrador altere a conta.
// Moderadores não administram contas de terceiros.
func CanManageAccount(caller domain.Caller, userID string) Decision {
	if caller.HasRole(domain.RoleAdmin) {
		return Allow
	}
	return Decision(caller.ID != "" && caller.ID == userID)
}

// Policy é a dependência de autorização consumida pelos serviços.
type Policy interface {
	Authorize(caller domain.Caller, resource, ownerID string) error
	AuthorizeReassign(caller domain.Caller, resource, currentOwnerID, newOwnerID string) error
}

// OwnershipPolicy transforma as decisões em ForbiddenError.
// Negações geram 403 (a existência do recurso é revelada), nunca 404.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

func (OwnershipPolicy) Authorize(caller domain.Caller, resource, ownerID string) error {
	if CanMutate(caller, ownerID) == Deny {
		return apperror.NewForbiddenError(
			fmt.Sprintf("usuário %s não tem permissão sobre %s", caller.ID, resource))
	}
	return nil
}

// AuthorizeReassign só permite trocar o dono para papéis elevados. Manter o mesmo dono é sempre permitido.
func (OwnershipPolicy) AuthorizeReassign(caller domain.Caller, resource, currentOwnerID, newOwnerID string) error {
	if currentOwnerID == newOwnerID {
		return nil
	}
	if CanReassignOwner(caller) == Deny {
		return apperror.NewForbiddenError(
			fmt.Sprintf("somente moderadores e administradores podem transferir %s para outro dono", resource))
	}
	return nil
}

// AuthorizeAccount aplica CanManageAccount sobre a conta userID.
func (OwnershipPolicy) AuthorizeAccount(caller domain.Caller, userID string) error {
	if CanManageAccount(caller, userID) == Deny {
		return apperror.NewForbiddenError(
			fmt.Sprintf("usuário %s não tem permissão sobre a conta %s", caller.ID, userID))
	}
	return nil
}
