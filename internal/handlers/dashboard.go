package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taskbid/taskbid-api/internal/models"
	"github.com/taskbid/taskbid-api/internal/realtime"
	"github.com/taskbid/taskbid-api/internal/utils"
)

// DashboardHandler serves the admin overview, the recent-activity feeds and
// the live event socket.
type DashboardHandler struct {
	DB        *gorm.DB
	Hub       *realtime.Hub
	JWTSecret string
}

func NewDashboardHandler(db *gorm.DB, hub *realtime.Hub, jwtSecret string) *DashboardHandler {
	return &DashboardHandler{DB: db, Hub: hub, JWTSecret: jwtSecret}
}

func (h *DashboardHandler) Routes(r fiber.Router, adminOnly ...fiber.Handler) {
	r.Get("/overview", append(adminOnly, h.Overview)...)
	r.Get("/recent-tasks", append(adminOnly, h.RecentTasks)...)
	r.Get("/recent-bids", append(adminOnly, h.RecentBids)...)
	r.Get("/recent-works", append(adminOnly, h.RecentWorks)...)
}

func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	var (
		totalProjects    int64
		totalTasks       int64
		openTasks        int64
		assignedTasks    int64
		completedTasks   int64
		pendingBids      int64
		activeWorks      int64
		completedWorks   int64
		totalFreelancers int64
		unpaidPayments   int64
		totalPaid        int64
	)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&totalProjects, h.DB.Model(&models.Project{})},
		{&totalTasks, h.DB.Model(&models.Task{})},
		{&openTasks, h.DB.Model(&models.Task{}).Where("status = ?", models.TaskStatusOpen)},
		{&assignedTasks, h.DB.Model(&models.Task{}).Where("status = ?", models.TaskStatusAssigned)},
		{&completedTasks, h.DB.Model(&models.Task{}).Where("status = ?", models.TaskStatusCompleted)},
		{&pendingBids, h.DB.Model(&models.Bid{}).Where("status = ?", models.BidStatusPending)},
		{&activeWorks, h.DB.Model(&models.Work{}).Where("status = ?", models.WorkStatusInProgress)},
		{&completedWorks, h.DB.Model(&models.Work{}).Where("status = ?", models.WorkStatusCompleted)},
		{&totalFreelancers, h.DB.Model(&models.Freelancer{})},
		{&unpaidPayments, h.DB.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusUnpaid)},
	}
	for _, cnt := range counts {
		if err := cnt.query.Count(cnt.dest).Error; err != nil {
			return respondErr(c, err)
		}
	}

	err := h.DB.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusPaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalPaid).Error
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"total_projects":    totalProjects,
			"total_tasks":       totalTasks,
			"open_tasks":        openTasks,
			"assigned_tasks":    assignedTasks,
			"completed_tasks":   completedTasks,
			"pending_bids":      pendingBids,
			"active_works":      activeWorks,
			"completed_works":   completedWorks,
			"total_freelancers": totalFreelancers,
			"unpaid_payments":   unpaidPayments,
			"total_paid":        totalPaid,
		},
	})
}

func (h *DashboardHandler) RecentTasks(c *fiber.Ctx) error {
	var tasks []models.Task
	err := h.DB.Preload("Project").
		Order("created_at DESC").Limit(10).
		Find(&tasks).Error
	if err != nil {
		return respondErr(c, err)
	}

	counts, err := h.bidCounts(tasks)
	if err != nil {
		return respondErr(c, err)
	}

	data := make([]fiber.Map, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		data = append(data, fiber.Map{
			"id":         t.ID,
			"name":       t.Name,
			"price":      t.Price,
			"status":     t.Status,
			"project":    projectSummary(t.Project),
			"bid_count":  counts[t.ID],
			"created_at": t.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": data})
}

func (h *DashboardHandler) bidCounts(tasks []models.Task) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(tasks))
	if len(tasks) == 0 {
		return counts, nil
	}

	ids := make([]uuid.UUID, 0, len(tasks))
	for i := range tasks {
		ids = append(ids, tasks[i].ID)
	}

	var rows []struct {
		TaskID uuid.UUID
		N      int64
	}
	err := h.DB.Model(&models.Bid{}).
		Select("task_id, COUNT(*) AS n").
		Where("task_id IN ?", ids).
		Group("task_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.TaskID] = r.N
	}
	return counts, nil
}

func (h *DashboardHandler) RecentBids(c *fiber.Ctx) error {
	var list []models.Bid
	err := h.DB.Preload("Task").Preload("Freelancer.User").
		Order("created_at DESC").Limit(10).
		Find(&list).Error
	if err != nil {
		return respondErr(c, err)
	}

	data := make([]fiber.Map, 0, len(list))
	for i := range list {
		data = append(data, bidView(&list[i], models.RoleAdmin))
	}
	return c.JSON(fiber.Map{"data": data})
}

func (h *DashboardHandler) RecentWorks(c *fiber.Ctx) error {
	var list []models.Work
	err := h.DB.Preload("Task").Preload("Freelancer.User").Preload("Payment").
		Order("created_at DESC").Limit(10).
		Find(&list).Error
	if err != nil {
		return respondErr(c, err)
	}

	data := make([]fiber.Map, 0, len(list))
	for i := range list {
		data = append(data, workView(&list[i], models.RoleAdmin))
	}
	return c.JSON(fiber.Map{"data": data})
}

// WebSocketHandler upgrades /ws/admin connections. Browsers cannot set an
// Authorization header on a socket, so the token rides a query parameter.
func (h *DashboardHandler) WebSocketHandler(c *websocket.Conn) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		log.Println("dashboard ws: token parameter missing")
		c.Close()
		return
	}

	token, err := jwt.ParseWithClaims(tokenStr, &utils.Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		log.Println("dashboard ws: invalid token")
		c.Close()
		return
	}

	claims, ok := token.Claims.(*utils.Claims)
	if !ok || strings.ToUpper(claims.Role) != string(models.RoleAdmin) {
		log.Println("dashboard ws: admin role required")
		c.Close()
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   &realtime.WebSocketConn{Conn: c},
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer func() {
		h.Hub.UnregisterClient(client)
		log.Printf("dashboard ws: admin %s disconnected", userID)
	}()

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("dashboard ws: write error:", err)
				return
			}
		}
	}()

	// drain client frames to keep the connection alive
	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			break
		}
		if msgType, ok := payload["type"].(string); ok && msgType == "pong" {
			continue
		}
	}
}
