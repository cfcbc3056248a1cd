package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/pagination"
	"github.com/erazemk/zimmet/internal/store"
)

// Personnel manages the people items are assigned to.
type Personnel struct {
	Deps
}

// NewPersonnel returns the personnel service.
func NewPersonnel(deps Deps) *Personnel {
	return &Personnel{Deps: deps.withDefaults()}
}

func normalizePersonnel(p model.Personnel) model.Personnel {
	p.Name = strings.TrimSpace(p.Name)
	p.Department = strings.TrimSpace(p.Department)
	p.RegistryNo = strings.TrimSpace(p.RegistryNo)
	return p
}

func checkPersonnel(p model.Personnel) error {
	if p.Name == "" {
		return validation(apperr.Field("name", "is required"))
	}
	return nil
}

func personnelConflict(err error) error {
	if store.IsUniqueViolation(err) {
		return apperr.Conflict("another person already uses this registry number")
	}
	return err
}

func (s *Personnel) Create(ctx context.Context, p model.Personnel, actor model.Actor) (*model.Personnel, error) {
	p = normalizePersonnel(p)
	if err := checkPersonnel(p); err != nil {
		return nil, err
	}

	created, err := store.CreatePersonnel(ctx, s.DB, p)
	if err != nil {
		return nil, personnelConflict(err)
	}

	s.record(ctx, actor, model.AuditPersonnelCreated, "personnel", []int64{created.ID}, created.Name)
	zerolog.Ctx(ctx).Info().Int64("personnel_id", created.ID).Msg("personnel created")
	return created, nil
}

func (s *Personnel) Get(ctx context.Context, id int64) (*model.Personnel, error) {
	p, err := store.GetPersonnel(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.DeletedAt != nil {
		return nil, apperr.NotFound("personnel", id)
	}
	return p, nil
}

func (s *Personnel) List(ctx context.Context, query string, p pagination.Params) (pagination.Page[model.Personnel], error) {
	people, total, err := store.ListPersonnel(ctx, s.DB, strings.TrimSpace(query), p)
	if err != nil {
		return pagination.Page[model.Personnel]{}, err
	}
	return pagination.NewPage(people, p, total), nil
}

func (s *Personnel) Update(ctx context.Context, p model.Personnel, actor model.Actor) (*model.Personnel, error) {
	p = normalizePersonnel(p)
	if err := checkPersonnel(p); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, p.ID); err != nil {
		return nil, err
	}
	if err := store.UpdatePersonnel(ctx, s.DB, p); err != nil {
		return nil, personnelConflict(err)
	}

	s.record(ctx, actor, model.AuditPersonnelUpdated, "personnel", []int64{p.ID}, p.Name)
	zerolog.Ctx(ctx).Info().Int64("personnel_id", p.ID).Msg("personnel updated")
	return s.Get(ctx, p.ID)
}

// Delete soft-deletes a person. People holding active assignments are
// refused.
func (s *Personnel) Delete(ctx context.Context, id int64, actor model.Actor) error {
	err := store.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		p, err := store.GetPersonnel(ctx, tx, id)
		if err != nil {
			return err
		}
		if p == nil || p.DeletedAt != nil {
			return apperr.NotFound("personnel", id)
		}

		active, err := store.CountActiveForPersonnel(ctx, tx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperr.Integrity(fmt.Sprintf("personnel %d has %d active assignments", id, active)).
				WithDetails(map[string]any{"id": id, "activeAssignments": active})
		}
		return store.DeletePersonnel(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.record(ctx, actor, model.AuditPersonnelDeleted, "personnel", []int64{id}, "")
	zerolog.Ctx(ctx).Info().Int64("personnel_id", id).Msg("personnel deleted")
	return nil
}
