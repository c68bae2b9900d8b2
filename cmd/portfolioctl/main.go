// Command portfolioctl drives the portfolio API from a terminal through the
// client SDK. The session token is kept in a local SQLite file between runs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/duynhne/portfolio-service/client"
	"github.com/duynhne/portfolio-service/client/gateway"
	"github.com/duynhne/portfolio-service/client/session"
	"github.com/duynhne/portfolio-service/client/tokenstore"
	"github.com/duynhne/portfolio-service/config"
	"github.com/duynhne/portfolio-service/internal/core/domain"
	"github.com/duynhne/portfolio-service/internal/logger"
)

const usage = `usage: portfolioctl <command> [flags]

commands:
  login -email E            sign in (password from PORTFOLIO_PASSWORD or -password)
  logout                    forget the stored token
  whoami                    show the signed-in user
  profile [-years N] [-bio B] [-theme T] [-avatar FILE]
                            show or update your profile
  public-profile            show the portfolio owner's profile
  projects [-featured] [-sort S] [-page N] [-limit N]
  project ID
  add-project -title T -description D -tech a,b [-image FILE] [-featured]
  delete-project ID
  skills [-category C]
  add-skill -name N -category C [-level L]
  delete-skill ID
  contact -name N -email E -subject S -message M
  inbox                     list contact messages (admin)
  mark ID STATUS            set a message to unread, read or replied (admin)`

func main() {
	if err := run(); err != nil {
		var gerr *gateway.Error
		if errors.As(err, &gerr) {
			fmt.Fprintf(os.Stderr, "error (%s): %s\n", gerr.Kind, gerr.Message)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	logger.SetupWriter(os.Stderr, cfg.LogLevel, "console")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := cfg.StateDB
	if dbPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("locate config dir: %w", err)
		}
		dbPath = filepath.Join(dir, "portfolioctl", "state.db")
	}
	store, err := tokenstore.OpenSQLite(ctx, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := client.New(gateway.Config{
		BaseURL:     cfg.APIURL,
		Timeout:     cfg.Timeout,
		StaticToken: cfg.StaticToken,
		Logger:      &log.Logger,
	}, store)
	if err != nil {
		return err
	}
	c.Start(ctx)
	if err := c.Session.LastError(); err != nil {
		log.Debug().Err(err).Msg("Stored session discarded")
	}

	switch cmd {
	case "login":
		return login(ctx, c, args)
	case "logout":
		c.Logout()
		fmt.Println("Signed out")
		return nil
	case "whoami":
		if err := gate(c, false); err != nil {
			return err
		}
		return printJSON(c.Session.User())
	case "profile":
		return profile(ctx, c, args)
	case "public-profile":
		p, err := c.Gateway.PublicProfile(ctx)
		if err != nil {
			return err
		}
		return printJSON(p)
	case "projects":
		return listProjects(ctx, c, args)
	case "project":
		if len(args) != 1 {
			return errors.New("project takes one id")
		}
		if err := c.Projects.FetchOne(ctx, args[0]); err != nil {
			return err
		}
		return printJSON(c.Projects.Snapshot().Current.Data)
	case "add-project":
		return addProject(ctx, c, args)
	case "delete-project":
		if err := needID(c, args); err != nil {
			return err
		}
		return c.Projects.Delete(ctx, args[0])
	case "skills":
		return listSkills(ctx, c, args)
	case "add-skill":
		return addSkill(ctx, c, args)
	case "delete-skill":
		if err := needID(c, args); err != nil {
			return err
		}
		return c.Skills.Delete(ctx, args[0])
	case "contact":
		return submitContact(ctx, c, args)
	case "inbox":
		if err := gate(c, true); err != nil {
			return err
		}
		if err := c.Contacts.FetchAll(ctx, gateway.ListParams{Sort: "-createdAt"}); err != nil {
			return err
		}
		return printJSON(c.Contacts.Snapshot().Items.Data)
	case "mark":
		if len(args) != 2 {
			return errors.New("mark takes an id and a status")
		}
		if err := gate(c, true); err != nil {
			return err
		}
		return c.Contacts.Update(ctx, args[0], domain.Contact{Status: args[1]}, nil)
	default:
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// gate mirrors the protected-route check of a UI.
func gate(c *client.Client, admin bool) error {
	d := c.Session.Gate()
	if admin {
		d = c.Session.GateAdmin()
	}
	switch {
	case d == session.Allow:
		return nil
	case c.Session.Status() == session.StatusAuthenticated:
		return errors.New("admin role required")
	default:
		return errors.New("not signed in, run portfolioctl login")
	}
}

func needID(c *client.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("expected one id")
	}
	return gate(c, true)
}

func login(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("PORTFOLIO_PASSWORD"), "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.Session.Login(ctx, domain.LoginRequest{Email: *email, Password: *password}); err != nil {
		return err
	}
	u := c.Session.User()
	fmt.Printf("Signed in as %s (%s)\n", u.Name, u.Role)
	return nil
}

func profile(ctx context.Context, c *client.Client, args []string) error {
	if err := gate(c, false); err != nil {
		return err
	}
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	years := fs.Int("years", -1, "years of experience")
	bio := fs.String("bio", "", "short biography")
	theme := fs.String("theme", "", "light or dark")
	avatar := fs.String("avatar", "", "path to an avatar image")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NFlag() > 0 {
		upd := domain.ProfileUpdate{Bio: *bio, Theme: *theme}
		if *years >= 0 {
			upd.YearsOfExperience = years
		}
		file, err := readFile(*avatar)
		if err != nil {
			return err
		}
		if err := c.Profile.Update(ctx, upd, file); err != nil {
			return err
		}
	} else if err := c.Profile.Fetch(ctx); err != nil {
		return err
	}
	return printJSON(c.Profile.Snapshot().Data)
}

func listProjects(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("projects", flag.ContinueOnError)
	featured := fs.Bool("featured", false, "only featured projects")
	sort := fs.String("sort", "-createdAt", "sort fields, prefix - for descending")
	page := fs.Int("page", 0, "page number")
	limit := fs.Int("limit", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p := gateway.ListParams{Sort: *sort, Page: *page, Limit: *limit}
	if *featured {
		p.Filter = map[string]string{"featured": "true"}
	}
	if err := c.Projects.FetchAll(ctx, p); err != nil {
		return err
	}
	return printJSON(c.Projects.Snapshot().Items.Data)
}

func addProject(ctx context.Context, c *client.Client, args []string) error {
	if err := gate(c, true); err != nil {
		return err
	}
	fs := flag.NewFlagSet("add-project", flag.ContinueOnError)
	title := fs.String("title", "", "project title")
	desc := fs.String("description", "", "project description")
	tech := fs.String("tech", "", "comma separated technologies")
	github := fs.String("github", "", "repository URL")
	demo := fs.String("demo", "", "live demo URL")
	featured := fs.Bool("featured", false, "feature on the home page")
	image := fs.String("image", "", "path to a screenshot")
	if err := fs.Parse(args); err != nil {
		return err
	}
	file, err := readFile(*image)
	if err != nil {
		return err
	}
	p := domain.Project{
		Title:        *title,
		Description:  *desc,
		Technologies: strings.Split(*tech, ","),
		GitHub:       *github,
		LiveDemo:     *demo,
		Featured:     *featured,
	}
	if err := c.Projects.Create(ctx, p, file); err != nil {
		return err
	}
	return printJSON(c.Projects.Snapshot().Items.Data)
}

func listSkills(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("skills", flag.ContinueOnError)
	category := fs.String("category", "", "only this category")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var p gateway.ListParams
	if *category != "" {
		p.Filter = map[string]string{"category": *category}
	}
	if err := c.Skills.FetchAll(ctx, p); err != nil {
		return err
	}
	return printJSON(c.Skills.Snapshot().Items.Data)
}

func addSkill(ctx context.Context, c *client.Client, args []string) error {
	if err := gate(c, true); err != nil {
		return err
	}
	fs := flag.NewFlagSet("add-skill", flag.ContinueOnError)
	name := fs.String("name", "", "skill name")
	category := fs.String("category", "", "skill category")
	level := fs.Int("level", 80, "proficiency 10-100")
	icon := fs.String("icon", "", "icon name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s := domain.Skill{Name: *name, Category: *category, Level: *level, Icon: *icon}
	if err := c.Skills.Create(ctx, s, nil); err != nil {
		return err
	}
	return printJSON(c.Skills.Snapshot().Items.Data)
}

func submitContact(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("contact", flag.ContinueOnError)
	name := fs.String("name", "", "your name")
	email := fs.String("email", "", "your email")
	subject := fs.String("subject", "", "subject")
	message := fs.String("message", "", "message")
	if err := fs.Parse(args); err != nil {
		return err
	}
	msg, err := c.Gateway.SubmitContact(ctx, domain.Contact{Name: *name, Email: *email, Subject: *subject, Message: *message})
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func readFile(path string) (*gateway.File, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &gateway.File{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Data:        data,
	}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
