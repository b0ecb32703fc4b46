package handlers

import (
	"errors"
	"log"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/taskbid/taskbid-api/internal/models"
)

var validate = validator.New()

// FieldErrors maps a field name to its validation messages.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// checkStruct runs the validator tags on req and flattens the result.
func checkStruct(req interface{}) FieldErrors {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	errs := FieldErrors{}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		errs.Add("body", "invalid request body")
		return errs
	}
	for _, fe := range vErrs {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			errs.Add(field, field+" is required")
		case "email":
			errs.Add(field, field+" must be a valid email address")
		case "min":
			errs.Add(field, field+" must be at least "+fe.Param()+" characters")
		case "url":
			errs.Add(field, field+" must be a valid URL")
		case "gt":
			errs.Add(field, field+" must be greater than "+fe.Param())
		default:
			errs.Add(field, field+" is invalid")
		}
	}
	return errs
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation error",
		"errors":  errs,
	})
}

// respondErr maps service errors onto the JSON error envelope. *fiber.Error
// carries the intended status code; anything else is a 500.
func respondErr(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}
	log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
}

func pagination(c *fiber.Ctx) (page, limit, offset int) {
	page = c.QueryInt("currentPage", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", 10)
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}

func paginationMeta(total int64, page, limit int) fiber.Map {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return fiber.Map{
		"total":       total,
		"currentPage": page,
		"limit":       limit,
		"totalPages":  totalPages,
	}
}

func localRole(c *fiber.Ctx) models.Role {
	if v, ok := c.Locals("role").(string); ok {
		return models.Role(v)
	}
	return ""
}

func localUserID(c *fiber.Ctx) (uuid.UUID, error) {
	v, ok := c.Locals("userId").(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return id, nil
}

// localFreelancerID returns the freelancer profile id embedded in the token.
func localFreelancerID(c *fiber.Ctx) (uuid.UUID, error) {
	v, ok := c.Locals("freelancerId").(string)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "No freelancer profile for this account")
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "No freelancer profile for this account")
	}
	return id, nil
}

func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name+" parameter")
	}
	return id, nil
}
