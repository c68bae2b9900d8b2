package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/duynhne/portfolio-service/config"
	database "github.com/duynhne/portfolio-service/internal/core"
	"github.com/duynhne/portfolio-service/internal/core/domain"
	"github.com/duynhne/portfolio-service/internal/core/repository"
)

// backend is the set of repositories selected by DB_DRIVER.
type backend struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	projects domain.ProjectRepository
	skills   domain.SkillRepository
	contacts domain.ContactRepository
	close    func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Database.Driver {
	case "memory":
		log.Warn().Msg("Using in-memory repositories (DB_DRIVER=memory); data is lost on restart")
		users := repository.NewMemoryUserRepository()
		return &backend{
			users:    users,
			sessions: repository.NewMemorySessionRepository(users),
			projects: repository.NewMemoryProjectRepository(),
			skills:   repository.NewMemorySkillRepository(),
			contacts: repository.NewMemoryContactRepository(),
			close:    func() {},
		}, nil
	case "postgres":
		// Initialize database connection pool (pgx)
		pool, err := database.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		log.Info().Int32("max_conns", cfg.Database.MaxConns).Msg("Database connection pool established")
		return &backend{
			users:    repository.NewUserRepository(pool),
			sessions: repository.NewSessionRepository(pool),
			projects: repository.NewProjectRepository(pool),
			skills:   repository.NewSkillRepository(pool),
			contacts: repository.NewContactRepository(pool),
			close:    pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
}
