// Package auth holds the upload authorization gate: actor identity, upload
// nonces and the capability check.
package auth

import (
	"fmt"

	"github.com/princekumarofficial/dropzone-service/internal/apperror"
	"github.com/princekumarofficial/dropzone-service/internal/types/users"
)

// AnonymousID is the actor id used for requests without credentials.
const AnonymousID = "0"

type Actor struct {
	ID   string
	Role users.Role
}

func Anonymous() Actor {
	return Actor{ID: AnonymousID}
}

func (a Actor) LoggedIn() bool {
	return a.ID != "" && a.ID != AnonymousID
}

func (a Actor) Can(c users.Capability) bool {
	return a.LoggedIn() && a.Role.Can(c)
}

// Gate authorizes upload requests. It touches no files.
type Gate struct {
	nonces     *Nonces
	capability users.Capability
}

func NewGate(nonces *Nonces) *Gate {
	return &Gate{nonces: nonces, capability: users.CapUploadFiles}
}

// Authorize checks the nonce first, then the actor's capability.
func (g *Gate) Authorize(nonce string, actor Actor) error {
	actorID := actor.ID
	if actorID == "" {
		actorID = AnonymousID
	}

	if err := g.nonces.Verify(nonce, actorID); err != nil {
		return apperror.Unauthorized(err)
	}
	if !actor.Can(g.capability) {
		return apperror.Forbidden(fmt.Errorf("actor %s lacks %s", actorID, g.capability))
	}
	return nil
}
