package service

import (
	"context"
	"encoding/json"

	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/model"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/repository"

	"github.com/rs/zerolog/log"
)

// AuditoriaService records who did what. Recording is best-effort: an audit
// failure is logged but never fails the operation that triggered it, since the
// business write already committed.
type AuditoriaService interface {
	Registrar(ctx context.Context, actor *model.Usuario, accion string, detalles map[string]interface{})
}

type auditoriaService struct {
	repo repository.AuditoriaRepository
}

func NewAuditoriaService(repo repository.AuditoriaRepository) AuditoriaService {
	return &auditoriaService{repo: repo}
}

func (s *auditoriaService) Registrar(ctx context.Context, actor *model.Usuario, accion string, detalles map[string]interface{}) {
	detallesJSON := "null"
	if detalles != nil {
		if b, err := json.Marshal(detalles); err == nil {
			detallesJSON = string(b)
		} else {
			log.Warn().Err(err).Str("accion", accion).Msg("auditoría: detalles no serializables")
		}
	}

	reg := &model.RegistroAuditoria{
		UsuarioID:     actor.ID,
		UsuarioNombre: actor.Nombre,
		UsuarioRol:    actor.Rol,
		Accion:        accion,
		Detalles:      detallesJSON,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		log.Error().Err(err).Str("accion", accion).Msg("auditoría: no se pudo registrar")
	}
}
