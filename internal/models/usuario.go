package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Rol string

const (
	RolAdministrador Rol = "ADMINISTRADOR"
	RolSupervisor    Rol = "SUPERVISOR"
	RolTecnico       Rol = "TECNICO"
)

func RolValido(r Rol) bool {
	switch r {
	case RolAdministrador, RolSupervisor, RolTecnico:
		return true
	}
	return false
}

type Usuario struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	Nombre       string `gorm:"size:100;not null"`
	Apellido     string `gorm:"size:100;not null"`
	Telefono     string `gorm:"size:20"`
	Rol          Rol    `gorm:"type:varchar(20);not null;default:'TECNICO'"`
	Activo       bool   `gorm:"not null;default:true"`
	PasswordHash string `gorm:"not null"`

	// administrative capability markers
	IsStaff     bool `gorm:"not null;default:false"`
	IsSuperuser bool `gorm:"not null;default:false"`

	FechaCreacion      time.Time `gorm:"autoCreateTime"`
	FechaActualizacion time.Time `gorm:"autoUpdateTime"`
}

func (Usuario) TableName() string { return "usuarios" }

func (u *Usuario) NombreCompleto() string {
	return u.Nombre + " " + u.Apellido
}

func (u *Usuario) EsAdministrador() bool { return u.Rol == RolAdministrador }
func (u *Usuario) EsSupervisor() bool    { return u.Rol == RolSupervisor }
func (u *Usuario) EsTecnico() bool       { return u.Rol == RolTecnico }

func (u *Usuario) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *Usuario) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}
