package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/taskbid/taskbid-api/internal/models"
	"github.com/taskbid/taskbid-api/internal/realtime"
	"github.com/taskbid/taskbid-api/internal/services/bids"
)

type BidHandler struct {
	DB      *gorm.DB
	Service *bids.Service
	Events  *realtime.Broadcaster
}

func NewBidHandler(db *gorm.DB, service *bids.Service, events *realtime.Broadcaster) *BidHandler {
	return &BidHandler{DB: db, Service: service, Events: events}
}

func (h *BidHandler) Routes(r fiber.Router, requireJWT, attachLocals, freelancerOnly, adminOnly fiber.Handler) {
	r.Get("/", requireJWT, attachLocals, h.List)
	r.Post("/", requireJWT, freelancerOnly, attachLocals, h.Create)
	r.Put("/:id/accept", requireJWT, adminOnly, attachLocals, h.Accept)
	r.Put("/:id/reject", requireJWT, adminOnly, attachLocals, h.Reject)
}

// List is role-scoped: freelancers see their own bids, admins see all of them
// with bidder identity.
func (h *BidHandler) List(c *fiber.Ctx) error {
	page, limit, offset := pagination(c)
	role := localRole(c)

	q := h.DB.Model(&models.Bid{})
	if role != models.RoleAdmin {
		fid, err := localFreelancerID(c)
		if err != nil {
			return respondErr(c, err)
		}
		q = q.Where("bids.freelancer_id = ?", fid)
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("bids.status = ?", strings.ToUpper(status))
	}
	if taskID := strings.TrimSpace(c.Query("taskId")); taskID != "" {
		q = q.Where("bids.task_id = ?", taskID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return respondErr(c, err)
	}

	q = q.Preload("Task.Project").Order("bids.created_at DESC").Limit(limit).Offset(offset)
	if role == models.RoleAdmin {
		q = q.Preload("Freelancer.User")
	}

	var list []models.Bid
	if err := q.Find(&list).Error; err != nil {
		return respondErr(c, err)
	}

	data := make([]fiber.Map, 0, len(list))
	for i := range list {
		data = append(data, bidView(&list[i], role))
	}

	return c.JSON(fiber.Map{
		"data": data,
		"meta": paginationMeta(total, page, limit),
	})
}

type createBidRequest struct {
	TaskID  string `json:"taskId" validate:"required,uuid4"`
	Message string `json:"message" validate:"required"`
}

func (h *BidHandler) Create(c *fiber.Ctx) error {
	var req createBidRequest
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

	taskID, err := parseUUID(req.TaskID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid taskId"})
	}

	bid, err := h.Service.Submit(taskID, fid, strings.TrimSpace(req.Message))
	if err != nil {
		return respondErr(c, err)
	}

	h.Events.Publish("bid_submitted", fiber.Map{
		"bid_id":  bid.ID,
		"task_id": bid.TaskID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Bid created successfully",
		"data":    bidView(bid, localRole(c)),
	})
}

type acceptBidRequest struct {
	EndDate string `json:"endDate" validate:"required"`
}

func parseEndDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func (h *BidHandler) Accept(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondErr(c, err)
	}

	var req acceptBidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if errs := checkStruct(req); errs != nil {
		return validationFail(c, errs)
	}

	endDate, err := parseEndDate(req.EndDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "endDate must be an ISO date"})
	}

	bid, work, err := h.Service.Accept(id, endDate)
	if err != nil {
		return respondErr(c, err)
	}

	h.Events.Publish("bid_accepted", fiber.Map{
		"bid_id":  bid.ID,
		"task_id": bid.TaskID,
		"work_id": work.ID,
	})

	return c.JSON(fiber.Map{
		"message": "Bid accepted successfully",
		"data": fiber.Map{
			"bid":  bidView(bid, models.RoleAdmin),
			"work": workView(work, models.RoleAdmin),
		},
	})
}

func (h *BidHandler) Reject(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondErr(c, err)
	}

	bid, err := h.Service.Reject(id)
	if err != nil {
		return respondErr(c, err)
	}

	h.Events.Publish("bid_rejected", fiber.Map{
		"bid_id":  bid.ID,
		"task_id": bid.TaskID,
	})

	return c.JSON(fiber.Map{
		"message": "Bid rejected successfully",
		"data":    bidView(bid, models.RoleAdmin),
	})
}
