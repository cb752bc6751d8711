package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("dataset not found")
	ErrInvalidName = errors.New("dataset name is required")
)

// DataSet is reusable input data: key/value constants and a table of rows.
type DataSet struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	CreationDate time.Time           `json:"creation_date"`
	Tags         []string            `json:"tags,omitempty"`
	Constants    map[string]string   `json:"constants,omitempty"`
	Datatable    []map[string]string `json:"datatable,omitempty"`
}

type dataSetRepo interface {
	Save(ctx context.Context, ds DataSet) error
	FindByID(ctx context.Context, id string) (DataSet, error)
	RemoveByID(ctx context.Context, id string) error
	FindAll(ctx context.Context) ([]DataSet, error)
}

type Service struct {
	repo dataSetRepo
	log  *slog.Logger
	now  func() time.Time
}

func NewService(log *slog.Logger, repo dataSetRepo) *Service {
	return &Service{repo: repo, log: log.With("service", "dataset"), now: time.Now}
}

// Save stores ds and returns its id. A dataset without an id gets a fresh
// one; a dataset with a known id replaces the stored version.
func (s *Service) Save(ctx context.Context, ds DataSet) (string, error) {
	ds.Name = strings.TrimSpace(ds.Name)
	if ds.Name == "" {
		return "", ErrInvalidName
	}
	if ds.ID == "" {
		ds.ID = uuid.NewString()
	}
	if ds.CreationDate.IsZero() {
		ds.CreationDate = s.now().UTC()
	}
	if err := s.repo.Save(ctx, ds); err != nil {
		return "", fmt.Errorf("save dataset %s: %w", ds.ID, err)
	}
	s.log.InfoContext(ctx, "dataset saved", slog.String("id", ds.ID), slog.String("name", ds.Name))
	return ds.ID, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (DataSet, error) {
	ds, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return DataSet{}, fmt.Errorf("find dataset %s: %w", id, err)
	}
	return ds, nil
}

func (s *Service) RemoveByID(ctx context.Context, id string) error {
	if err := s.repo.RemoveByID(ctx, id); err != nil {
		return fmt.Errorf("remove dataset %s: %w", id, err)
	}
	s.log.InfoContext(ctx, "dataset removed", slog.String("id", id))
	return nil
}

func (s *Service) FindAll(ctx context.Context) ([]DataSet, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return all, nil
}
