package state

import (
	"context"
	"strings"

	"github.com/duynhne/portfolio-service/client/gateway"
	"github.com/duynhne/portfolio-service/internal/core/domain"
)

// NewProjects returns the projects slice. Create and Update accept an image
// that is uploaded before the project is written.
func NewProjects(c *gateway.Client, opts ...CollectionOption[domain.Project]) *Collection[domain.Project] {
	opts = append([]CollectionOption[domain.Project]{
		WithAsset(c.UploadProjectImage, func(p *domain.Project, url string) { p.Image = url }),
	}, opts...)
	return NewCollection[domain.Project]("projects", projectBackend{c}, opts...)
}

func NewSkills(c *gateway.Client, opts ...CollectionOption[domain.Skill]) *Collection[domain.Skill] {
	return NewCollection[domain.Skill]("skills", skillBackend{c}, opts...)
}

// NewContacts returns the inquiries slice. Create submits the public form;
// Update only changes the status.
func NewContacts(c *gateway.Client, opts ...CollectionOption[domain.Contact]) *Collection[domain.Contact] {
	return NewCollection[domain.Contact]("contacts", contactBackend{c}, opts...)
}

type projectBackend struct{ c *gateway.Client }

func (b projectBackend) List(ctx context.Context, p gateway.ListParams) ([]domain.Project, error) {
	return b.c.ListProjects(ctx, p)
}

func (b projectBackend) Get(ctx context.Context, id string) (*domain.Project, error) {
	return b.c.GetProject(ctx, id)
}

func (b projectBackend) Create(ctx context.Context, p domain.Project) error {
	_, err := b.c.CreateProject(ctx, p)
	return err
}

func (b projectBackend) Update(ctx context.Context, id string, p domain.Project) error {
	_, err := b.c.UpdateProject(ctx, id, p)
	return err
}

func (b projectBackend) Delete(ctx context.Context, id string) error {
	return b.c.DeleteProject(ctx, id)
}

type skillBackend struct{ c *gateway.Client }

func (b skillBackend) List(ctx context.Context, p gateway.ListParams) ([]domain.Skill, error) {
	if cat := p.Filter["category"]; cat != "" && len(p.Filter) == 1 && !strings.Contains(cat, "/") {
		return b.c.ListSkillsByCategory(ctx, cat)
	}
	return b.c.ListSkills(ctx, p)
}

func (b skillBackend) Get(ctx context.Context, id string) (*domain.Skill, error) {
	return b.c.GetSkill(ctx, id)
}

func (b skillBackend) Create(ctx context.Context, s domain.Skill) error {
	_, err := b.c.CreateSkill(ctx, s)
	return err
}

func (b skillBackend) Update(ctx context.Context, id string, s domain.Skill) error {
	_, err := b.c.UpdateSkill(ctx, id, s)
	return err
}

func (b skillBackend) Delete(ctx context.Context, id string) error {
	return b.c.DeleteSkill(ctx, id)
}

type contactBackend struct{ c *gateway.Client }

func (b contactBackend) List(ctx context.Context, p gateway.ListParams) ([]domain.Contact, error) {
	return b.c.ListContacts(ctx, p)
}

func (b contactBackend) Get(ctx context.Context, id string) (*domain.Contact, error) {
	return b.c.GetContact(ctx, id)
}

func (b contactBackend) Create(ctx context.Context, in domain.Contact) error {
	_, err := b.c.SubmitContact(ctx, in)
	return err
}

func (b contactBackend) Update(ctx context.Context, id string, in domain.Contact) error {
	_, err := b.c.UpdateContactStatus(ctx, id, in.Status)
	return err
}

func (b contactBackend) Delete(ctx context.Context, id string) error {
	return b.c.DeleteContact(ctx, id)
}
