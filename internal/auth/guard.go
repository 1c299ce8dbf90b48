package auth

import (
	"ctchen222/TaskManager/internal/api/models"
	"ctchen222/TaskManager/internal/apperror"
)

// Owned is implemented by resources that belong to exactly one user.
type Owned interface {
	OwnerID() int64
}

// AuthorizeOwner allows access only to the owner of resource. A nil resource
// is always NotFound, whoever asks; the ownership comparison happens only for
// resources that exist.
func AuthorizeOwner[R Owned](resource *R, identity *models.User) error {
	if resource == nil {
		return apperror.NotFound("resource not found")
	}
	if identity == nil {
		return apperror.Unauthenticated(ReasonMissingCredential)
	}
	if (*resource).OwnerID() != identity.ID {
		return apperror.Forbidden("not enough permissions")
	}
	return nil
}
