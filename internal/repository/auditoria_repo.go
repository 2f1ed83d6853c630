package repository

import (
	"context"

	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/model"

	"gorm.io/gorm"
)

// AuditoriaRepository persists append-only audit records.
type AuditoriaRepository interface {
	Create(ctx context.Context, r *model.RegistroAuditoria) error
}

type auditoriaRepo struct{ db *gorm.DB }

func NewAuditoriaRepository(db *gorm.DB) AuditoriaRepository { return &auditoriaRepo{db: db} }

func (r *auditoriaRepo) Create(ctx context.Context, reg *model.RegistroAuditoria) error {
	return r.db.WithContext(ctx).Create(reg).Error
}
