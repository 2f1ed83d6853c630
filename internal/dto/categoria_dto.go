package dto

type CrearCategoriaRequest struct {
	Codigo      string  `json:"codigo"      validate:"required,len=2,number"`
	Nombre      string  `json:"nombre"      validate:"required"`
	Descripcion *string `json:"descripcion"`
}

type ActualizarCategoriaRequest struct {
	Nombre      *string `json:"nombre"`
	Descripcion *string `json:"descripcion"`
}

type CategoriaResponse struct {
	ID          string  `json:"id"`
	Codigo      string  `json:"codigo"`
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion,omitempty"`
}
