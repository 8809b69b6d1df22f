package projects

import "github.com/labstack/echo/v4"

type Handler interface {
	CreateProject() echo.HandlerFunc
	GetPresignUpload() echo.HandlerFunc
	StartPipeline() echo.HandlerFunc
	GetProjectByID() echo.HandlerFunc
	ListProjects() echo.HandlerFunc
	DeleteProject() echo.HandlerFunc
	ListMoments() echo.HandlerFunc
	ListAssets() echo.HandlerFunc
	GetTranscriptFile() echo.HandlerFunc
	CreateExport() echo.HandlerFunc
	GetExportByID() echo.HandlerFunc
	ListExports() echo.HandlerFunc
	GetDownloadURL() echo.HandlerFunc
}
