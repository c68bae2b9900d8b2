package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

// ListParams are the filter, sort and paging parameters of list endpoints.
type ListParams struct {
	Filter map[string]string
	Sort   string
	Page   int
	Limit  int
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	for k, v := range p.Filter {
		q.Set(k, v)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	if p.Page > 0 {
		q.Set("page", itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", itoa(p.Limit))
	}
	return q
}

func decodeInto[T any](resp *Response, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	var v T
	if err := resp.Decode(&v); err != nil {
		return nil, &Error{Kind: KindServer, StatusCode: resp.StatusCode, Message: MsgInvalidResponse, Cause: err}
	}
	return &v, nil
}

func decodeList[T any](resp *Response, err error) ([]T, error) {
	v, err := decodeInto[[]T](resp, err)
	if err != nil {
		return nil, err
	}
	return *v, nil
}

// Auth

// Register creates an account and returns it. Only Login responses keep the
// token reachable, so callers sign in afterwards.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	return decodeInto[domain.User](c.do(ctx, call{op: "auth.register", method: http.MethodPost, path: "/auth/register", body: req}))
}

// Login returns the server's login response unmodified; callers must check Token.
// An undecodable success body is an auth failure.
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	resp, err := c.do(ctx, call{op: "auth.login", method: http.MethodPost, path: "/auth/login", body: req})
	if err != nil {
		return nil, err
	}
	var v domain.AuthResponse
	if err := resp.Decode(&v); err != nil {
		return nil, &Error{Kind: KindAuth, StatusCode: resp.StatusCode, Message: MsgInvalidResponse, Cause: err}
	}
	return &v, nil
}

// Me returns the user behind the current token.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	return decodeInto[domain.User](c.do(ctx, call{op: "auth.me", method: http.MethodGet, path: "/auth/me"}))
}

func (c *Client) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*domain.User, error) {
	return decodeInto[domain.User](c.do(ctx, call{op: "auth.update_profile", method: http.MethodPatch, path: "/auth/updateprofile", body: upd}))
}

// UploadAvatar uploads a profile image and returns its URL.
func (c *Client) UploadAvatar(ctx context.Context, f File) (string, error) {
	v, err := decodeInto[struct {
		ProfileImage string `json:"profileImage"`
	}](c.do(ctx, call{op: "auth.upload_avatar", method: http.MethodPost, path: "/auth/avatar", field: "avatar", file: &f}))
	if err != nil {
		return "", err
	}
	return v.ProfileImage, nil
}

func (c *Client) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) error {
	_, err := c.do(ctx, call{op: "auth.change_password", method: http.MethodPost, path: "/auth/change-password", body: req})
	return err
}

func (c *Client) PublicProfile(ctx context.Context) (*domain.PublicProfile, error) {
	return decodeInto[domain.PublicProfile](c.do(ctx, call{op: "auth.public_profile", method: http.MethodGet, path: "/auth/profile/public"}))
}

// Projects

func (c *Client) ListProjects(ctx context.Context, p ListParams) ([]domain.Project, error) {
	return decodeList[domain.Project](c.do(ctx, call{op: "projects.list", method: http.MethodGet, path: "/projects", query: p.values()}))
}

func (c *Client) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return decodeInto[domain.Project](c.do(ctx, call{op: "projects.get", method: http.MethodGet, path: "/projects/" + url.PathEscape(id)}))
}

func (c *Client) CreateProject(ctx context.Context, p domain.Project) (*domain.Project, error) {
	return decodeInto[domain.Project](c.do(ctx, call{op: "projects.create", method: http.MethodPost, path: "/projects", body: p}))
}

func (c *Client) UpdateProject(ctx context.Context, id string, p domain.Project) (*domain.Project, error) {
	return decodeInto[domain.Project](c.do(ctx, call{op: "projects.update", method: http.MethodPatch, path: "/projects/" + url.PathEscape(id), body: p}))
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{op: "projects.delete", method: http.MethodDelete, path: "/projects/" + url.PathEscape(id)})
	return err
}

// UploadProjectImage uploads an image and returns its URL. The image is not
// attached to any project until a create or update references it.
func (c *Client) UploadProjectImage(ctx context.Context, f File) (string, error) {
	v, err := decodeInto[struct {
		ImageURL string `json:"imageUrl"`
	}](c.do(ctx, call{op: "projects.upload_image", method: http.MethodPost, path: "/projects/upload-image", field: "projectImage", file: &f}))
	if err != nil {
		return "", err
	}
	return v.ImageURL, nil
}

// Skills

func (c *Client) ListSkills(ctx context.Context, p ListParams) ([]domain.Skill, error) {
	return decodeList[domain.Skill](c.do(ctx, call{op: "skills.list", method: http.MethodGet, path: "/skills", query: p.values()}))
}

func (c *Client) ListSkillsByCategory(ctx context.Context, category string) ([]domain.Skill, error) {
	return decodeList[domain.Skill](c.do(ctx, call{op: "skills.list_by_category", method: http.MethodGet, path: "/skills/category/" + url.PathEscape(category)}))
}

func (c *Client) GetSkill(ctx context.Context, id string) (*domain.Skill, error) {
	return decodeInto[domain.Skill](c.do(ctx, call{op: "skills.get", method: http.MethodGet, path: "/skills/" + url.PathEscape(id)}))
}

// CreateSkill requires a name and category. A level outside 10..100 is sent as 80.
func (c *Client) CreateSkill(ctx context.Context, s domain.Skill) (*domain.Skill, error) {
	if err := prepareSkill(&s); err != nil {
		return nil, err
	}
	return decodeInto[domain.Skill](c.do(ctx, call{op: "skills.create", method: http.MethodPost, path: "/skills", body: s}))
}

func (c *Client) UpdateSkill(ctx context.Context, id string, s domain.Skill) (*domain.Skill, error) {
	if strings.TrimSpace(id) == "" {
		return nil, validationError("Skill ID is required for updates")
	}
	if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Category) == "" {
		return nil, validationError("Skill name and category are required")
	}
	return decodeInto[domain.Skill](c.do(ctx, call{op: "skills.update", method: http.MethodPatch, path: "/skills/" + url.PathEscape(id), body: s}))
}

func (c *Client) DeleteSkill(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{op: "skills.delete", method: http.MethodDelete, path: "/skills/" + url.PathEscape(id)})
	return err
}

func prepareSkill(s *domain.Skill) error {
	if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Category) == "" {
		return validationError("Skill name and category are required")
	}
	if s.Level < 10 || s.Level > 100 {
		s.Level = 80
	}
	return nil
}

// Contacts

// SubmitContact sends the public contact form and returns the server's acknowledgement.
func (c *Client) SubmitContact(ctx context.Context, in domain.Contact) (string, error) {
	v, err := decodeInto[struct {
		Message string `json:"message"`
	}](c.do(ctx, call{op: "contacts.submit", method: http.MethodPost, path: "/contact", body: in}))
	if err != nil {
		return "", err
	}
	return v.Message, nil
}

func (c *Client) ListContacts(ctx context.Context, p ListParams) ([]domain.Contact, error) {
	return decodeList[domain.Contact](c.do(ctx, call{op: "contacts.list", method: http.MethodGet, path: "/contact", query: p.values()}))
}

func (c *Client) GetContact(ctx context.Context, id string) (*domain.Contact, error) {
	return decodeInto[domain.Contact](c.do(ctx, call{op: "contacts.get", method: http.MethodGet, path: "/contact/" + url.PathEscape(id)}))
}

func (c *Client) UpdateContactStatus(ctx context.Context, id, status string) (*domain.Contact, error) {
	return decodeInto[domain.Contact](c.do(ctx, call{op: "contacts.update_status", method: http.MethodPatch, path: "/contact/" + url.PathEscape(id), body: domain.ContactStatusUpdate{Status: status}}))
}

func (c *Client) DeleteContact(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{op: "contacts.delete", method: http.MethodDelete, path: "/contact/" + url.PathEscape(id)})
	return err
}
