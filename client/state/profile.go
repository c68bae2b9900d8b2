package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/duynhne/portfolio-service/client/gateway"
	"github.com/duynhne/portfolio-service/internal/core/domain"
)

// ProfileData is the signed-in user as shown on the profile page.
type ProfileData struct {
	domain.User
	ExperienceLabel string `json:"experienceLabel"`
}

func newProfileData(u *domain.User) *ProfileData {
	if u == nil {
		return nil
	}
	return &ProfileData{User: *u, ExperienceLabel: experienceLabel(u.YearsOfExperience)}
}

func experienceLabel(years int) string {
	switch {
	case years <= 0:
		return "Fresher"
	case years == 1:
		return "1 year"
	default:
		return fmt.Sprintf("%d years", years)
	}
}

// ProfileAPI is the subset of the gateway the profile slice calls.
type ProfileAPI interface {
	Me(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*domain.User, error)
	UploadAvatar(ctx context.Context, f gateway.File) (string, error)
}

// Profile caches the signed-in user's profile.
type Profile struct {
	api ProfileAPI
	// afterUpdate runs after a successful Update, typically Session.Refresh.
	afterUpdate func(ctx context.Context) error
	log         zerolog.Logger
	now         func() time.Time

	mu  sync.Mutex
	res Resource[*ProfileData]

	notifier[Resource[*ProfileData]]
}

// ProfileOption configures a Profile.
type ProfileOption func(*Profile)

func WithProfileLogger(l zerolog.Logger) ProfileOption {
	return func(p *Profile) { p.log = l }
}

func NewProfile(api ProfileAPI, afterUpdate func(ctx context.Context) error, opts ...ProfileOption) *Profile {
	p := &Profile{
		api:         api,
		afterUpdate: afterUpdate,
		log:         zerolog.Nop(),
		now:         time.Now,
		res:         Resource[*ProfileData]{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With().Str("slice", "profile").Logger()
	return p
}

func (p *Profile) Snapshot() Resource[*ProfileData] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Profile) snapshotLocked() Resource[*ProfileData] {
	r := p.res
	if r.Data != nil {
		cp := *r.Data
		r.Data = &cp
	}
	return r
}

func (p *Profile) Subscribe(fn func(Resource[*ProfileData])) (unsubscribe func()) {
	return p.subscribe(fn)
}

func (p *Profile) apply(fn func()) {
	p.mu.Lock()
	fn()
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.publish(snap)
}

// Fetch loads the current user's profile.
func (p *Profile) Fetch(ctx context.Context) error {
	p.apply(p.res.pending)
	u, err := p.api.Me(ctx)
	if err != nil {
		p.apply(func() { p.res.rejected(err) })
		return gateway.AsError(err)
	}
	p.apply(func() { p.res.fulfilled(newProfileData(u), p.now()) })
	return nil
}

// Update uploads avatar when given, saves upd and reloads the profile.
func (p *Profile) Update(ctx context.Context, upd domain.ProfileUpdate, avatar *gateway.File) error {
	p.apply(p.res.pending)
	if avatar != nil {
		url, err := p.api.UploadAvatar(ctx, *avatar)
		if err != nil {
			p.apply(func() { p.res.rejected(err) })
			return gateway.AsError(err)
		}
		upd.ProfileImage = url
	}
	if _, err := p.api.UpdateProfile(ctx, upd); err != nil {
		p.apply(func() { p.res.rejected(err) })
		return gateway.AsError(err)
	}
	// The profile is saved at this point; reload failures only leave stale data.
	if err := p.Fetch(ctx); err != nil {
		p.log.Debug().Err(err).Msg("Refetch after update failed")
	}
	if p.afterUpdate != nil {
		if err := p.afterUpdate(ctx); err != nil {
			p.log.Debug().Err(err).Msg("After-update hook failed")
		}
	}
	return nil
}

func (p *Profile) Reset() {
	p.apply(func() { p.res = Resource[*ProfileData]{Status: StatusIdle} })
}
