package http

import (
	"github.com/clipforge/pipeline/internal/projects"
	"github.com/labstack/echo/v4"
)

func MapProjectsRoutes(group *echo.Group, h projects.Handler) {
	group.POST("", h.CreateProject())
	group.GET("", h.ListProjects())
	group.GET("/:project_id", h.GetProjectByID())
	group.DELETE("/:project_id", h.DeleteProject())
	group.POST("/:project_id/upload-url", h.GetPresignUpload())
	group.POST("/:project_id/start", h.StartPipeline())
	group.GET("/:project_id/moments", h.ListMoments())
	group.GET("/:project_id/assets", h.ListAssets())
	group.GET("/:project_id/transcript", h.GetTranscriptFile())
	group.POST("/:project_id/exports", h.CreateExport())
	group.GET("/:project_id/exports", h.ListExports())
}

func MapExportRoutes(group *echo.Group, h projects.Handler) {
	group.GET("/:export_id", h.GetExportByID())
	group.GET("/:export_id/download", h.GetDownloadURL())
}
