package model

import "time"

// Cliente es una farmacia compradora. El ID es la clave del sistema legado.
// La fila Cliente lleva sólo identidad y credenciales; los datos comerciales
// viven en ClienteInfo (se insertan en ese orden por la FK).
type Cliente struct {
	ID             string `gorm:"primaryKey;size:40"`
	Username       string `gorm:"uniqueIndex;not null"`
	PasswordHash   string `gorm:"not null"`
	Email          *string
	NombreCompleto *string
	Activo         bool `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Info *ClienteInfo `gorm:"foreignKey:ClienteID"`
}

func (Cliente) TableName() string { return "clientes" }

// ClienteInfo lleva los datos comerciales del cliente. ListaPrecioID determina
// qué margen aplica; sin asignación el cliente no tiene precios personalizados
// (margen 0).
type ClienteInfo struct {
	ClienteID     string `gorm:"primaryKey;size:40"`
	RazonSocial   *string
	RFC           *string `gorm:"column:rfc;size:13"`
	ListaPrecioID *int    `gorm:"index"`
	GrupoVentasID *int
	AgenteID      *string
	Direccion     *string
	Ciudad        *string
	Estado        *string
	CodigoPostal  *string
	Telefono      *string
	Celular       *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ClienteInfo) TableName() string { return "clientes_info" }
