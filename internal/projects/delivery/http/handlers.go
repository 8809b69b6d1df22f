package http

import (
	"errors"
	"net/http"

	"github.com/clipforge/pipeline/internal/credits"
	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/internal/projects"
	"github.com/clipforge/pipeline/pkg/utils"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type projectsHandler struct {
	projectsUC projects.UseCase
}

func NewProjectsHandler(projectsUC projects.UseCase) projects.Handler {
	return &projectsHandler{
		projectsUC: projectsUC,
	}
}

func orgFromRequest(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Request().Header.Get("X-Org-ID"))
}

func (h *projectsHandler) CreateProject() echo.HandlerFunc {
	return func(c echo.Context) error {
		orgID, err := orgFromRequest(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid or missing org id"})
		}
		input := &models.CreateProjectInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		project, err := h.projectsUC.CreateProject(c.Request().Context(), orgID, input)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusCreated, project)
	}
}

func (h *projectsHandler) GetPresignUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		projectID, err := uuid.Parse(c.Param("project_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid project id"})
		}
		input := &models.UploadInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		url, err := h.projectsUC.GetPresignUpload(c.Request().Context(), projectID, input)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"uploadUrl": url})
	}
}

func (h *projectsHandler) StartPipeline() echo.HandlerFunc {
	return func(c echo.Context) error {
		projectID, err := uuid.Parse(c.Param("project_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid project id"})
		}
		input := &models.StartPipelineInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		job, err := h.projectsUC.StartPipeline(c.Request().Context(), projectID, input)
		if err != nil {
			if errors.Is(err, credits.ErrInsufficientCredits) {
				return c.JSON(http.StatusPaymentRequired, map[string]string{"error": err.Error()})
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusAccepted, job)
	}
}

func (h *projectsHandler) GetProjectByID() echo.HandlerFunc {
	return func(c echo.Context) error {
		projectID, err := uuid.Parse(c.Param("project_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid project id"})
		}
		project, err := h.projectsUC.GetProject(c.Request().Context(), projectID)
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, project)
	}
}

func (h *projectsHandler) ListProjects() echo.HandlerFunc {
	return func(c echo.Context) error {
		orgID, err := orgFromRequest(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid or missing org id"})
		}
		pagination, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		list, err := h.projectsUC.ListProjects(c.Request().Context(), orgID, pagination)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}

func (h *projectsHandler) DeleteProject() echo.HandlerFunc {
	return func(c echo.Context) error {
		orgID, err := orgFromRequest(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid or missing org id"})
		}
		projectID, err := uuid.Parse(c.Param("project_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid project id"})
		}
		if err = h.projectsUC.DeleteProject(c.Request().Context(), orgID, projectID); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "Project deleted successfully"})
	}
}

func (h *projectsHandler) ListMoments() echo.HandlerFunc {
	return func(c echo.Context) error {
		projectID, err := uuid.Parse(c.Param("project_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid project id"})
		}
		moments, err := h.projectsUC.ListMoments(c.Request().Context(), projectID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, moments)
	}
}

func (h *projectsHandler) ListAssets() echo.HandlerFunc {
	return func(c echo.Context) error {
		projectID, err := uuid.Parse(c.Param("project_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid project id"})
		}
		assets, err := h.projectsUC.ListAssets(c.Request().Context(), projectID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, assets)
	}
}

func (h *projectsHandler) GetTranscriptFile() echo.HandlerFunc {
	return func(c echo.Context) error {
		projectID, err := uuid.Parse(c.Param("project_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid project id"})
		}
		format := c.QueryParam("format")
		body, err := h.projectsUC.GetTranscriptFile(c.Request().Context(), projectID, format)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		contentType := "application/x-subrip"
		if format == "vtt" {
			contentType = "text/vtt"
		}
		return c.Blob(http.StatusOK, contentType, []byte(body))
	}
}

func (h *projectsHandler) CreateExport() echo.HandlerFunc {
	return func(c echo.Context) error {
		projectID, err := uuid.Parse(c.Param("project_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid project id"})
		}
		input := &models.CreateExportInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		export, err := h.projectsUC.CreateExport(c.Request().Context(), projectID, input)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusAccepted, export)
	}
}

func (h *projectsHandler) GetExportByID() echo.HandlerFunc {
	return func(c echo.Context) error {
		exportID, err := uuid.Parse(c.Param("export_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid export id"})
		}
		export, err := h.projectsUC.GetExport(c.Request().Context(), exportID)
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, export)
	}
}

func (h *projectsHandler) ListExports() echo.HandlerFunc {
	return func(c echo.Context) error {
		projectID, err := uuid.Parse(c.Param("project_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid project id"})
		}
		exports, err := h.projectsUC.ListExports(c.Request().Context(), projectID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, exports)
	}
}

func (h *projectsHandler) GetDownloadURL() echo.HandlerFunc {
	return func(c echo.Context) error {
		exportID, err := uuid.Parse(c.Param("export_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid export id"})
		}
		url, err := h.projectsUC.GetDownloadURL(c.Request().Context(), exportID, c.QueryParam("artifact"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"downloadUrl": url})
	}
}
