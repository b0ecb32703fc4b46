package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/taskbid/taskbid-api/internal/models"
)

type ProjectHandler struct {
	DB *gorm.DB
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{DB: db}
}

func (h *ProjectHandler) Routes(r fiber.Router, optionalAuth fiber.Handler, adminOnly ...fiber.Handler) {
	r.Get("/", optionalAuth, h.List)
	r.Get("/:id", optionalAuth, h.Get)
	r.Post("/", append(adminOnly, h.Create)...)
}

// projectRow carries the task count subselect alongside the project columns.
type projectRow struct {
	models.Project
	TaskCount int64 `json:"task_count"`
}

func (h *ProjectHandler) List(c *fiber.Ctx) error {
	page, limit, offset := pagination(c)
	search := strings.TrimSpace(c.Query("search"))

	q := h.DB.Model(&models.Project{})
	if search != "" {
		needle := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(projects.name) LIKE ? OR LOWER(projects.description) LIKE ?", needle, needle)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return respondErr(c, err)
	}

	var rows []projectRow
	err := q.
		Select("projects.*, (SELECT COUNT(*) FROM tasks WHERE tasks.project_id = projects.id) AS task_count").
		Order("projects.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return respondErr(c, err)
	}

	data := make([]fiber.Map, 0, len(rows))
	for i := range rows {
		data = append(data, fiber.Map{
			"id":          rows[i].ID,
			"name":        rows[i].Name,
			"description": rows[i].Description,
			"task_count":  rows[i].TaskCount,
			"created_at":  rows[i].CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"data": data,
		"meta": paginationMeta(total, page, limit),
	})
}

func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondErr(c, err)
	}

	var project models.Project
	err = h.DB.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("tasks.created_at DESC")
	}).First(&project, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Project not found"})
		}
		return respondErr(c, err)
	}

	role := localRole(c)
	tasks := make([]fiber.Map, 0, len(project.Tasks))
	for i := range project.Tasks {
		t := &project.Tasks[i]
		if role != models.RoleAdmin && t.Status != models.TaskStatusOpen {
			continue
		}
		tasks = append(tasks, taskView(t, role))
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"id":          project.ID,
			"name":        project.Name,
			"description": project.Description,
			"tasks":       tasks,
			"task_count":  len(tasks),
			"created_at":  project.CreatedAt,
		},
	})
}

type createProjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req createProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)

	if errs := checkStruct(req); errs != nil {
		return validationFail(c, errs)
	}

	var existing models.Project
	err := h.DB.Select("id").Where("name = ?", req.Name).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Project name already exists"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondErr(c, err)
	}

	project := models.Project{Name: req.Name, Description: req.Description}
	if err := h.DB.Create(&project).Error; err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Project created successfully",
		"data":    project,
	})
}
