package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/taskbid/taskbid-api/internal/models"
	"github.com/taskbid/taskbid-api/internal/realtime"
	"github.com/taskbid/taskbid-api/internal/services/works"
)

type WorkHandler struct {
	DB      *gorm.DB
	Service *works.Service
	Events  *realtime.Broadcaster
}

func NewWorkHandler(db *gorm.DB, service *works.Service, events *realtime.Broadcaster) *WorkHandler {
	return &WorkHandler{DB: db, Service: service, Events: events}
}

func (h *WorkHandler) Routes(r fiber.Router, requireJWT, attachLocals, freelancerOnly, adminOnly fiber.Handler) {
	r.Get("/", requireJWT, attachLocals, h.List)
	r.Get("/:id", requireJWT, attachLocals, h.Get)
	r.Put("/:id/complete", requireJWT, freelancerOnly, attachLocals, h.Complete)
	r.Put("/:id/pay", requireJWT, adminOnly, attachLocals, h.Pay)
}

// List is role-scoped: freelancers see their own works, admins see all of
// them with the assignee attached.
func (h *WorkHandler) List(c *fiber.Ctx) error {
	page, limit, offset := pagination(c)
	role := localRole(c)

	q := h.DB.Model(&models.Work{})
	if role != models.RoleAdmin {
		fid, err := localFreelancerID(c)
		if err != nil {
			return respondErr(c, err)
		}
		q = q.Where("works.freelancer_id = ?", fid)
	}
	if status := strings.TrimSpace(c.Query("workStatus")); status != "" {
		q = q.Where("works.status = ?", strings.ToUpper(status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return respondErr(c, err)
	}

	q = q.Preload("Task.Project").Preload("Payment").
		Order("works.created_at DESC").Limit(limit).Offset(offset)
	if role == models.RoleAdmin {
		q = q.Preload("Freelancer.User")
	}

	var list []models.Work
	if err := q.Find(&list).Error; err != nil {
		return respondErr(c, err)
	}

	data := make([]fiber.Map, 0, len(list))
	for i := range list {
		data = append(data, workView(&list[i], role))
	}

	return c.JSON(fiber.Map{
		"data": data,
		"meta": paginationMeta(total, page, limit),
	})
}

func (h *WorkHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	role := localRole(c)

	q := h.DB.Preload("Task.Project").Preload("Payment")
	if role == models.RoleAdmin {
		q = q.Preload("Freelancer.User")
	}

	var work models.Work
	if err := q.First(&work, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Work not found"})
		}
		return respondErr(c, err)
	}

	// freelancers only ever see their own work
	if role != models.RoleAdmin {
		fid, err := localFreelancerID(c)
		if err != nil || work.FreelancerID != fid {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Work not found"})
		}
	}

	return c.JSON(fiber.Map{"data": workView(&work, role)})
}

type completeWorkRequest struct {
	CompletionURL string `json:"completionUrl" validate:"required,url"`
}

func (h *WorkHandler) Complete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondErr(c, err)
	}

	var req completeWorkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if errs := checkStruct(req); errs != nil {
		return validationFail(c, errs)
	}

	fid, err := localFreelancerID(c)
	if err != nil {
		return respondErr(c, err)
	}

	work, err := h.Service.Complete(id, fid, strings.TrimSpace(req.CompletionURL))
	if err != nil {
		return respondErr(c, err)
	}

	h.Events.Publish("work_completed", fiber.Map{
		"work_id": work.ID,
		"task_id": work.TaskID,
	})

	return c.JSON(fiber.Map{
		"message": "Work submitted successfully",
		"data":    workView(work, localRole(c)),
	})
}

func (h *WorkHandler) Pay(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondErr(c, err)
	}

	work, payment, err := h.Service.Pay(id)
	if err != nil {
		return respondErr(c, err)
	}

	h.Events.Publish("work_paid", fiber.Map{
		"work_id":       work.ID,
		"task_id":       work.TaskID,
		"freelancer_id": work.FreelancerID,
		"amount":        payment.Amount,
	})

	work.Payment = payment
	return c.JSON(fiber.Map{
		"message": "Payment processed successfully",
		"data":    workView(work, models.RoleAdmin),
	})
}
