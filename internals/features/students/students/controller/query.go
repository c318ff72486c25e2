package controller

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"schoolku_backend/internals/features/students/students/model"
	"schoolku_backend/internals/features/students/students/service"
	helper "schoolku_backend/internals/helpers"
)

// criteriaFromQuery reads ?q, ?class_id, ?status, ?gender, ?active_only and ?ids.
// List keys may repeat or be comma separated.
func criteriaFromQuery(c *fiber.Ctx) (service.Criteria, error) {
	var cr service.Criteria
	var err error

	cr.Query = strings.TrimSpace(c.Query("q"))
	if cr.ClassIDs, err = helper.ParseUUIDList(helper.QueryValues(c, "class_id")); err != nil {
		return cr, fiber.NewError(fiber.StatusBadRequest, "Invalid class_id")
	}
	if cr.IDs, err = helper.ParseUUIDList(helper.QueryValues(c, "ids")); err != nil {
		return cr, fiber.NewError(fiber.StatusBadRequest, "Invalid ids")
	}
	for _, s := range helper.SplitCSV(helper.QueryValues(c, "status")) {
		st, err := model.ParseStudentStatus(s)
		if err != nil {
			return cr, fiber.NewError(fiber.StatusBadRequest, "Invalid status: "+s)
		}
		cr.Statuses = append(cr.Statuses, st)
	}
	for _, s := range helper.SplitCSV(helper.QueryValues(c, "gender")) {
		g, err := model.ParseGender(s)
		if err != nil {
			return cr, fiber.NewError(fiber.StatusBadRequest, "Invalid gender: "+s)
		}
		cr.Genders = append(cr.Genders, g)
	}
	if v := strings.TrimSpace(c.Query("active_only")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cr, fiber.NewError(fiber.StatusBadRequest, "Invalid active_only")
		}
		cr.ActiveOnly = b
	}
	return cr, nil
}
