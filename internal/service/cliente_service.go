package service

import (
	"context"
	"errors"

	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/dto"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/model"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteService interface {
	Crear(ctx context.Context, actorID uuid.UUID, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context) ([]dto.ClienteResponse, error)
	Actualizar(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	Eliminar(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error
}

type clienteService struct {
	repo        repository.ClienteRepository
	usuarioRepo repository.UsuarioRepository
	auditoria   AuditoriaService
}

func NewClienteService(repo repository.ClienteRepository, usuarioRepo repository.UsuarioRepository, auditoria AuditoriaService) ClienteService {
	return &clienteService{repo: repo, usuarioRepo: usuarioRepo, auditoria: auditoria}
}

func (s *clienteService) Crear(ctx context.Context, actorID uuid.UUID, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{
		Nombre:    req.Nombre,
		Telefono:  req.Telefono,
		Email:     req.Email,
		Direccion: req.Direccion,
		RUC:       req.RUC,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.registrar(ctx, actorID, model.AccionCrearCliente, c)
	return clienteToResponse(c), nil
}

func (s *clienteService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClienteNoEncontrado
		}
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context) ([]dto.ClienteResponse, error) {
	clientes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		out = append(out, *clienteToResponse(&clientes[i]))
	}
	return out, nil
}

func (s *clienteService) Actualizar(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClienteNoEncontrado
		}
		return nil, err
	}

	if req.Nombre != nil {
		c.Nombre = *req.Nombre
	}
	if req.Telefono != nil {
		c.Telefono = req.Telefono
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.Direccion != nil {
		c.Direccion = req.Direccion
	}
	if req.RUC != nil {
		c.RUC = req.RUC
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.registrar(ctx, actorID, model.AccionActualizarCliente, c)
	return clienteToResponse(c), nil
}

// Eliminar removes the customer. Sales keep their denormalized name snapshot
// and keep rendering normally.
func (s *clienteService) Eliminar(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClienteNoEncontrado
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.registrar(ctx, actorID, model.AccionEliminarCliente, c)
	return nil
}

func (s *clienteService) registrar(ctx context.Context, actorID uuid.UUID, accion string, c *model.Cliente) {
	actor, err := s.usuarioRepo.FindByID(ctx, actorID)
	if err != nil {
		return
	}
	s.auditoria.Registrar(ctx, actor, accion, map[string]interface{}{
		"cliente_id": c.ID.String(),
		"nombre":     c.Nombre,
	})
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:        c.ID.String(),
		Nombre:    c.Nombre,
		Telefono:  c.Telefono,
		Email:     c.Email,
		Direccion: c.Direccion,
		RUC:       c.RUC,
	}
}
