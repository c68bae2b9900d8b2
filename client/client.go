// Package client assembles the gateway, session manager and state slices
// into one value for a front end.
package client

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/duynhne/portfolio-service/client/gateway"
	"github.com/duynhne/portfolio-service/client/session"
	"github.com/duynhne/portfolio-service/client/state"
	"github.com/duynhne/portfolio-service/client/tokenstore"
	"github.com/duynhne/portfolio-service/internal/core/domain"
)

type Client struct {
	Gateway  *gateway.Client
	Session  *session.Manager
	Profile  *state.Profile
	Projects *state.Collection[domain.Project]
	Skills   *state.Collection[domain.Skill]
	Contacts *state.Collection[domain.Contact]
}

// New wires a Client. The gateway reads its bearer token from the session
// manager, which in turn calls the gateway.
func New(cfg gateway.Config, store tokenstore.Store) (*Client, error) {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	var mgr *session.Manager
	cfg.Tokens = gateway.TokenFunc(func() string {
		if mgr == nil {
			return ""
		}
		return mgr.Token()
	})
	gw, err := gateway.New(cfg)
	if err != nil {
		return nil, err
	}
	mgr = session.New(gw, store, session.WithLogger(log))

	return &Client{
		Gateway:  gw,
		Session:  mgr,
		Profile:  state.NewProfile(gw, mgr.Refresh, state.WithProfileLogger(log)),
		Projects: state.NewProjects(gw, state.WithLogger[domain.Project](log)),
		Skills:   state.NewSkills(gw, state.WithLogger[domain.Skill](log)),
		Contacts: state.NewContacts(gw, state.WithLogger[domain.Contact](log)),
	}, nil
}

// Logout signs out and drops the cached private data.
func (c *Client) Logout() {
	c.Session.Logout()
	c.Profile.Reset()
	c.Contacts.Reset()
}

// Start validates any persisted token.
func (c *Client) Start(ctx context.Context) session.Snapshot {
	c.Session.Bootstrap(ctx)
	return c.Session.Snapshot()
}
