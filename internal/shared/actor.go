package shared

import (
	"net/http"
	"strconv"
)

// ActorFromRequest resolves the acting user from request headers. The
// engine carries no session state; upstream gateways inject identity
// via X-Actor-ID and X-Actor-Name.
func ActorFromRequest(r *http.Request) Actor {
	actor := Actor{Name: "anonymous"}
	if raw := r.Header.Get("X-Actor-ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			actor.ID = id
		}
	}
	if name := r.Header.Get("X-Actor-Name"); name != "" {
		actor.Name = name
	}
	return actor
}
