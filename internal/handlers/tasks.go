package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/taskbid/taskbid-api/internal/models"
)

type TaskHandler struct {
	DB *gorm.DB
}

func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{DB: db}
}

func (h *TaskHandler) Routes(r fiber.Router, optionalAuth fiber.Handler, adminOnly ...fiber.Handler) {
	r.Get("/", optionalAuth, h.List)
	r.Get("/:id", optionalAuth, h.Get)
	r.Post("/", append(adminOnly, h.Create)...)
	r.Put("/:id", append(adminOnly, h.Update)...)
}

// List is role-scoped: admins see every task with bids and work embedded,
// everyone else sees OPEN tasks only.
func (h *TaskHandler) List(c *fiber.Ctx) error {
	page, limit, offset := pagination(c)
	role := localRole(c)
	search := strings.TrimSpace(c.Query("search"))

	q := h.DB.Model(&models.Task{})
	if role != models.RoleAdmin {
		q = q.Where("tasks.status = ?", models.TaskStatusOpen)
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" && role == models.RoleAdmin {
		q = q.Where("tasks.status = ?", strings.ToUpper(status))
	}
	if projectID := strings.TrimSpace(c.Query("projectId")); projectID != "" {
		q = q.Where("tasks.project_id = ?", projectID)
	}
	if search != "" {
		needle := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(tasks.name) LIKE ? OR LOWER(tasks.description) LIKE ?", needle, needle)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return respondErr(c, err)
	}

	q = q.Preload("Project").Order("tasks.created_at DESC").Limit(limit).Offset(offset)
	if role == models.RoleAdmin {
		q = q.Preload("Bids").Preload("Bids.Freelancer.User").Preload("Work")
	}

	var tasks []models.Task
	if err := q.Find(&tasks).Error; err != nil {
		return respondErr(c, err)
	}

	data := make([]fiber.Map, 0, len(tasks))
	for i := range tasks {
		data = append(data, taskView(&tasks[i], role))
	}

	return c.JSON(fiber.Map{
		"data": data,
		"meta": paginationMeta(total, page, limit),
	})
}

func (h *TaskHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	role := localRole(c)

	q := h.DB.Preload("Project")
	if role == models.RoleAdmin {
		q = q.Preload("Bids").Preload("Bids.Freelancer.User").Preload("Work")
	}

	var task models.Task
	if err := q.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Task not found"})
		}
		return respondErr(c, err)
	}

	// non-admins only ever see open tasks
	if role != models.RoleAdmin && task.Status != models.TaskStatusOpen {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Task not found"})
	}

	return c.JSON(fiber.Map{"data": taskView(&task, role)})
}

type createTaskRequest struct {
	ProjectID   string   `json:"projectId" validate:"required,uuid4"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       int64    `json:"price" validate:"required,gt=0"`
	Skills      []string `json:"skills"`
}

func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)

	if errs := checkStruct(req); errs != nil {
		return validationFail(c, errs)
	}

	projectID, err := parseUUID(req.ProjectID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid projectId"})
	}

	var project models.Project
	if err := h.DB.Select("id").First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Project does not exist"})
		}
		return respondErr(c, err)
	}

	skills, err := marshalSkills(req.Skills)
	if err != nil {
		return respondErr(c, err)
	}

	task := models.Task{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Skills:      skills,
		Status:      models.TaskStatusOpen,
	}
	if err := h.DB.Create(&task).Error; err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Task created successfully",
		"data":    taskView(&task, models.RoleAdmin),
	})
}

type updateTaskRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *int64    `json:"price"`
	Skills      *[]string `json:"skills"`
}

// Update edits task content. Status is never set directly; it only moves
// through bid acceptance and work completion.
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondErr(c, err)
	}

	var req updateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	var task models.Task
	if err := h.DB.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Task not found"})
		}
		return respondErr(c, err)
	}

	updates := map[string]interface{}{}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Price must be greater than zero"})
		}
		updates["price"] = *req.Price
	}
	if req.Skills != nil {
		skills, err := marshalSkills(*req.Skills)
		if err != nil {
			return respondErr(c, err)
		}
		updates["skills"] = skills
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&task).Updates(updates).Error; err != nil {
			return respondErr(c, err)
		}
	}

	return c.JSON(fiber.Map{
		"message": "Task updated successfully",
		"data":    taskView(&task, models.RoleAdmin),
	})
}

func marshalSkills(skills []string) (datatypes.JSON, error) {
	if skills == nil {
		skills = []string{}
	}
	b, err := json.Marshal(skills)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
