package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/taskbid/taskbid-api/internal/models"
)

// View builders shape response payloads per viewer role. Admins see bidder
// identity and the embedded lifecycle records; everyone else gets the public
// shape. Handlers never hand raw models to the JSON encoder.

func skillsView(t *models.Task) json.RawMessage {
	if len(t.Skills) == 0 {
		return json.RawMessage("[]")
	}
	return json.RawMessage(t.Skills)
}

func projectSummary(p *models.Project) fiber.Map {
	if p == nil {
		return nil
	}
	return fiber.Map{
		"id":   p.ID,
		"name": p.Name,
	}
}

func taskSummary(t *models.Task) fiber.Map {
	if t == nil {
		return nil
	}
	v := fiber.Map{
		"id":     t.ID,
		"name":   t.Name,
		"price":  t.Price,
		"status": t.Status,
	}
	if t.Project != nil {
		v["project"] = projectSummary(t.Project)
	}
	return v
}

func freelancerSummary(f *models.Freelancer) fiber.Map {
	if f == nil {
		return nil
	}
	v := fiber.Map{
		"id":        f.ID,
		"telephone": f.Telephone,
	}
	if f.User != nil {
		v["names"] = f.User.Names
		v["email"] = f.User.Email
	}
	return v
}

func paymentView(p *models.Payment) fiber.Map {
	if p == nil {
		return nil
	}
	return fiber.Map{
		"id":     p.ID,
		"amount": p.Amount,
		"status": p.Status,
	}
}

func taskView(t *models.Task, role models.Role) fiber.Map {
	v := fiber.Map{
		"id":          t.ID,
		"project_id":  t.ProjectID,
		"name":        t.Name,
		"description": t.Description,
		"price":       t.Price,
		"skills":      skillsView(t),
		"status":      t.Status,
		"created_at":  t.CreatedAt,
	}
	if t.Project != nil {
		v["project"] = projectSummary(t.Project)
	}
	if role == models.RoleAdmin {
		bids := make([]fiber.Map, 0, len(t.Bids))
		for i := range t.Bids {
			bids = append(bids, bidView(&t.Bids[i], role))
		}
		v["bids"] = bids
		v["bid_count"] = len(t.Bids)
		if t.Work != nil {
			v["work"] = workView(t.Work, role)
		}
	}
	return v
}

func bidView(b *models.Bid, role models.Role) fiber.Map {
	v := fiber.Map{
		"id":         b.ID,
		"task_id":    b.TaskID,
		"message":    b.Message,
		"status":     b.Status,
		"created_at": b.CreatedAt,
	}
	if b.Task != nil {
		v["task"] = taskSummary(b.Task)
	}
	if role == models.RoleAdmin {
		v["freelancer_id"] = b.FreelancerID
		if b.Freelancer != nil {
			v["freelancer"] = freelancerSummary(b.Freelancer)
		}
	}
	return v
}

func workView(w *models.Work, role models.Role) fiber.Map {
	v := fiber.Map{
		"id":             w.ID,
		"task_id":        w.TaskID,
		"completion_url": w.CompletionURL,
		"status":         w.Status,
		"start_date":     w.StartDate,
		"end_date":       w.EndDate,
	}
	if w.Task != nil {
		v["task"] = taskSummary(w.Task)
	}
	if w.Payment != nil {
		v["payment"] = paymentView(w.Payment)
	}
	if role == models.RoleAdmin {
		v["freelancer_id"] = w.FreelancerID
		if w.Freelancer != nil {
			v["freelancer"] = freelancerSummary(w.Freelancer)
		}
	}
	return v
}

func userView(u *models.User) fiber.Map {
	v := fiber.Map{
		"id":    u.ID,
		"names": u.Names,
		"email": u.Email,
		"role":  u.Role,
	}
	if u.Freelancer != nil {
		v["freelancer"] = fiber.Map{
			"id":        u.Freelancer.ID,
			"telephone": u.Freelancer.Telephone,
			"balance":   u.Freelancer.Balance,
		}
	}
	return v
}
