// Package content reads the portfolio data the page shows next to the live panel.
package content

import (
	"context"

	"github.com/hamed0406/livestatus/internal/probe"
	"github.com/hamed0406/livestatus/internal/transport"
)

const (
	ProjectsPath   = "/projects"
	ExperiencePath = "/experience"
	VersionPath    = "/version"
)

type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TechStack   []string `json:"techStack"`
	Link        string   `json:"link,omitempty"`
}

type Experience struct {
	Company string   `json:"company"`
	Role    string   `json:"role"`
	Period  string   `json:"period"`
	Bullets []string `json:"bullets"`
}

type Version struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GitSHA    string `json:"gitSha"`
	BuiltAt   string `json:"builtAt"`
	Timestamp string `json:"timestamp"`
}

// Service fetches content through the API-scoped client. Errors are *transport.HTTPError.
type Service struct {
	API *transport.Client
}

func New(api *transport.Client) *Service {
	return &Service{API: api}
}

func (s *Service) Projects(ctx context.Context) ([]Project, error) {
	out, err := probe.API[[]Project](ctx, s.API, ProjectsPath)
	if out.Data == nil && err == nil {
		return []Project{}, nil
	}
	return out.Data, err
}

func (s *Service) Experience(ctx context.Context) ([]Experience, error) {
	out, err := probe.API[[]Experience](ctx, s.API, ExperiencePath)
	if out.Data == nil && err == nil {
		return []Experience{}, nil
	}
	return out.Data, err
}

func (s *Service) Version(ctx context.Context) (Version, error) {
	out, err := probe.API[Version](ctx, s.API, VersionPath)
	return out.Data, err
}
