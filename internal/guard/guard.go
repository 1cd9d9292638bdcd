// Package guard gates storefront views on the caller's session. The checks
// are UI gating only; the backend authorizes every call on its own.
package guard

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Principal is the part of a session store a guard looks at.
type Principal interface {
	IsAuthenticated() bool
	IsAdmin() bool
}

type Decision struct {
	Allow    bool
	Redirect string
}

type Guard interface {
	Check(p Principal) Decision
}

// AuthGuard admits any authenticated session and sends everyone else to the
// login page.
type AuthGuard struct{}

func (AuthGuard) Check(p Principal) Decision {
	if p != nil && p.IsAuthenticated() {
		return Decision{Allow: true}
	}
	return Decision{Redirect: LoginPath}
}

// AdminGuard admits authenticated sessions carrying the admin flag and sends
// everyone else home.
type AdminGuard struct{}

func (AdminGuard) Check(p Principal) Decision {
	if p != nil && p.IsAuthenticated() && p.IsAdmin() {
		return Decision{Allow: true}
	}
	return Decision{Redirect: HomePath}
}

// Require evaluates g before the rest of the chain. A failed check redirects
// and aborts, so the guarded handler never runs.
func Require(g Guard, resolve func(*gin.Context) Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := g.Check(resolve(c))
		if !decision.Allow {
			c.Redirect(http.StatusFound, decision.Redirect)
			c.Abort()
			return
		}
		c.Next()
	}
}
