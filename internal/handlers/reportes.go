package handlers

import (
	"fmt"
	"net/http"
	"time"

	"skynet-api/internal/httpapi"
	"skynet-api/internal/middleware"
	"skynet-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReporteHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewReporteHandler(db *gorm.DB, log *zap.Logger) *ReporteHandler {
	return &ReporteHandler{db: db, log: log}
}

var columnasExportVisitas = []string{
	"ID", "Cliente", "Técnico", "Supervisor", "Fecha Programada",
	"Fecha Inicio", "Fecha Fin", "Estado", "Tipo", "Descripción",
	"Observaciones", "Duración (min)",
}

// ExportVisitas streams the caller's visible visits as an xlsx workbook.
// Accepts the same filters as the visit list.
func (h *ReporteHandler) ExportVisitas(c *gin.Context) {
	usuario := middleware.CurrentUser(c)

	query := h.db.Model(&models.Visita{}).
		Preload("Cliente").Preload("Tecnico").Preload("Supervisor")
	query = visibilidadVisitas(query, usuario)

	if estado := c.Query("estado"); estado != "" {
		query = query.Where("estado = ?", estado)
	}
	if tipo := c.Query("tipo_visita"); tipo != "" {
		query = query.Where("tipo_visita = ?", tipo)
	}
	if tecnicoID := c.Query("tecnico_id"); tecnicoID != "" {
		query = query.Where("tecnico_id = ?", tecnicoID)
	}
	if desde := c.Query("fecha_desde"); desde != "" {
		if fecha, err := time.Parse("2006-01-02", desde); err == nil {
			query = query.Where("DATE(fecha_programada) >= ?", fecha.Format("2006-01-02"))
		}
	}
	if hasta := c.Query("fecha_hasta"); hasta != "" {
		if fecha, err := time.Parse("2006-01-02", hasta); err == nil {
			query = query.Where("DATE(fecha_programada) <= ?", fecha.Format("2006-01-02"))
		}
	}

	var visitas []models.Visita
	if err := query.Order("fecha_programada desc").Find(&visitas).Error; err != nil {
		h.log.Error("failed to load visits for export", zap.Error(err))
		httpapi.Error(c, http.StatusInternalServerError, "Error al generar el reporte", nil)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const hoja = "Visitas"
	f.SetSheetName("Sheet1", hoja)

	for i, titulo := range columnasExportVisitas {
		celda, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(hoja, celda, titulo)
	}

	for fila, v := range visitas {
		valores := []interface{}{
			v.ID,
			v.Cliente.Nombre,
			v.Tecnico.NombreCompleto(),
			"",
			v.FechaProgramada.Format("2006-01-02 15:04"),
			formatoTiempo(v.FechaInicio),
			formatoTiempo(v.FechaFin),
			string(v.Estado),
			string(v.TipoVisita),
			v.Descripcion,
			v.Observaciones,
			"",
		}
		if v.Supervisor != nil {
			valores[3] = v.Supervisor.NombreCompleto()
		}
		if d := v.DuracionMinutos(); d != nil {
			valores[11] = *d
		}
		for col, valor := range valores {
			celda, _ := excelize.CoordinatesToCellName(col+1, fila+2)
			f.SetCellValue(hoja, celda, valor)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		h.log.Error("failed to build workbook", zap.Error(err))
		httpapi.Error(c, http.StatusInternalServerError, "Error al generar el reporte", nil)
		return
	}

	nombre := fmt.Sprintf("visitas_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", `attachment; filename="`+nombre+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func formatoTiempo(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
