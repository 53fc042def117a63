package api

import (
	"time"

	"github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"

	"github.com/aliskhannn/plannerbot/internal/apperr"
	"github.com/aliskhannn/plannerbot/internal/domain/entities"
	"github.com/aliskhannn/plannerbot/internal/timeutil"
)

// taskView is the wire shape of one task in a plan response, grounded on
// original_source/src/api/webapp.py's _serialize_today.
type taskView struct {
	ID       int64   `json:"id"`
	Position int     `json:"position"`
	Text     string  `json:"text"`
	Status   *string `json:"status"`
	Comment  *string `json:"comment"`
}

type planView struct {
	Date   string     `json:"date"`
	Exists bool       `json:"exists"`
	PlanID int64      `json:"plan_id,omitempty"`
	Tasks  []taskView `json:"tasks"`
}

func serializePlan(today string, plan *entities.Plan) planView {
	if plan == nil || len(plan.Tasks) == 0 {
		return planView{Date: today, Exists: false, Tasks: []taskView{}}
	}
	views := make([]taskView, 0, len(plan.Tasks))
	for _, t := range plan.Tasks {
		v := taskView{ID: t.ID, Position: t.Position, Text: t.Text}
		if t.Status != nil {
			outcome := string(t.Status.Outcome)
			v.Status = &outcome
			if t.Status.Comment != "" {
				v.Comment = &t.Status.Comment
			}
		}
		views = append(views, v)
	}
	return planView{Date: plan.LocalDate, Exists: true, PlanID: plan.ID, Tasks: views}
}

func localToday(u *entities.User) (string, error) {
	zone, err := timeutil.LoadZone(u.Timezone)
	if err != nil {
		return "", err
	}
	_, _, today := timeutil.NowInZone(zone, time.Now())
	return today.String(), nil
}

func (s *Server) handleGetToday(c *fiber.Ctx) error {
	u := currentUser(c)
	today, err := localToday(u)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid timezone")
	}

	plan, err := s.plans.Today(c.UserContext(), u.ID, today)
	if err != nil {
		s.logger.Error("get today: load plan failed")
		return fiber.NewError(fiber.StatusInternalServerError, "could not load plan")
	}
	return c.JSON(serializePlan(today, plan))
}

type createTodayPlanRequest struct {
	Tasks []string `json:"tasks"`
}

func (r createTodayPlanRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Tasks, validation.Required),
	)
}

func (s *Server) handlePostTodayPlan(c *fiber.Ctx) error {
	u := currentUser(c)

	var req createTodayPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	today, err := localToday(u)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid timezone")
	}

	rawText := ""
	for i, t := range req.Tasks {
		if i > 0 {
			rawText += "\n"
		}
		rawText += t
	}

	plan, err := s.plans.SubmitPlan(c.UserContext(), u.ID, today, rawText)
	if err != nil {
		if apperr.Is(err, apperr.ErrInvalidInput) {
			return fiber.NewError(fiber.StatusBadRequest, "at least one task is required")
		}
		s.logger.Error("post today plan: submit failed")
		return fiber.NewError(fiber.StatusInternalServerError, "could not save plan")
	}

	return c.JSON(fiber.Map{"ok": true, "plan_id": plan.ID, "task_count": len(plan.Tasks)})
}

type taskStatusRequest struct {
	Status  *string `json:"status"`
	Comment *string `json:"comment"`
}

var validTaskStatuses = map[string]entities.TaskOutcome{
	"done":    entities.TaskDone,
	"partial": entities.TaskPartial,
	"failed":  entities.TaskFailed,
}

func (s *Server) handlePutTaskStatus(c *fiber.Ctx) error {
	u := currentUser(c)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid task id")
	}

	var req taskStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Status == nil && req.Comment == nil {
		return fiber.NewError(fiber.StatusBadRequest, "provide status or comment")
	}

	comment := ""
	if req.Comment != nil {
		comment = truncate(*req.Comment, 500)
	}

	outcome := entities.TaskPartial
	if req.Status != nil {
		o, ok := validTaskStatuses[*req.Status]
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status")
		}
		outcome = o
	}

	if err := s.plans.RecordTaskStatus(c.UserContext(), u.ID, int64(taskID), outcome, comment); err != nil {
		if apperr.Is(err, apperr.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "task not found")
		}
		s.logger.Error("put task status: record failed")
		return fiber.NewError(fiber.StatusInternalServerError, "could not update task")
	}

	return c.JSON(fiber.Map{"ok": true})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
