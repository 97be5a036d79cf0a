package models

import "time"

type TipoCliente string

const (
	ClienteCorporativo TipoCliente = "CORPORATIVO"
	ClienteIndividual  TipoCliente = "INDIVIDUAL"
	ClienteGobierno    TipoCliente = "GOBIERNO"
)

func TipoClienteValido(t TipoCliente) bool {
	switch t {
	case ClienteCorporativo, ClienteIndividual, ClienteGobierno:
		return true
	}
	return false
}

type Cliente struct {
	ID        uint   `gorm:"primaryKey"`
	Nombre    string `gorm:"size:200;not null"`
	Contacto  string `gorm:"size:100;not null"`
	Telefono  string `gorm:"size:20;not null"`
	Email     string `gorm:"size:255;not null"`
	Direccion string `gorm:"type:text;not null"`

	Latitud  *float64 `gorm:"type:numeric(10,8)"`
	Longitud *float64 `gorm:"type:numeric(11,8)"`

	TipoCliente TipoCliente `gorm:"type:varchar(20);not null;default:'INDIVIDUAL'"`
	Activo      bool        `gorm:"not null;default:true"`

	FechaCreacion      time.Time `gorm:"autoCreateTime"`
	FechaActualizacion time.Time `gorm:"autoUpdateTime"`
}

func (Cliente) TableName() string { return "clientes" }

func (c *Cliente) TieneCoordenadas() bool {
	return c.Latitud != nil && c.Longitud != nil
}
