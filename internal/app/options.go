package service

import (
	"github.com/okian/appraise/internal/adapters/repository"
	"github.com/okian/appraise/internal/domain/criteria"
	"github.com/okian/appraise/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOrderIndex sets the canonical ordering used for codes and sorting.
func WithOrderIndex(idx *criteria.OrderIndex) Option {
	return func(s *Service) {
		if idx != nil {
			s.order = idx
		}
	}
}

// WithStore uses every collaborator of st and hands its lifetime to the
// service; Stop closes it.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st == nil {
			return
		}
		s.store = st
		s.criteria = st.Criteria()
		s.scores = st.Scores()
		s.directory = st.Employees()
	}
}

// WithCriteriaStore overrides the criteria collaborator.
func WithCriteriaStore(cs repository.CriteriaStore) Option {
	return func(s *Service) {
		if cs != nil {
			s.criteria = cs
		}
	}
}

// WithScoreStore overrides the score collaborator.
func WithScoreStore(ss repository.ScoreStore) Option {
	return func(s *Service) {
		if ss != nil {
			s.scores = ss
		}
	}
}

// WithDirectory overrides the employee directory.
func WithDirectory(d repository.EmployeeDirectory) Option {
	return func(s *Service) {
		if d != nil {
			s.directory = d
		}
	}
}
