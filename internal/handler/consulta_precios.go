package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/apierror"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/dto"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const precioCacheTTL = 4 * time.Hour

// ConsultaPreciosHandler serves the public price check endpoint.
// No authentication required — no side effects whatsoever.
type ConsultaPreciosHandler struct {
	repo repository.ProductoRepository
	rdb  *redis.Client
}

func NewConsultaPreciosHandler(repo repository.ProductoRepository, rdb *redis.Client) *ConsultaPreciosHandler {
	return &ConsultaPreciosHandler{repo: repo, rdb: rdb}
}

// GetPrecioPorCodigo looks up price and availability by product code
// (CC-SS-NNNNN). Results are cached in Redis; product updates and deletions
// invalidate the entry.
func (h *ConsultaPreciosHandler) GetPrecioPorCodigo(c *gin.Context) {
	codigo := c.Param("codigo")
	ctx := c.Request.Context()
	cacheKey := "precio:" + codigo

	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.ConsultaPreciosResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	producto, err := h.repo.FindByCodigo(ctx, codigo)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
		return
	}

	resp := dto.ConsultaPreciosResponse{
		Codigo:          producto.Codigo,
		Nombre:          producto.Nombre,
		PrecioUnitario:  producto.PrecioUnitario,
		StockDisponible: producto.Cantidad,
		Categoria:       producto.Categoria,
		NombreUnidad:    producto.NombreUnidad,
	}

	// Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, precioCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
