package audit

import (
	"strconv"
	"time"

	"foodcourt-dashboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

type LogResponse struct {
	ID          uint              `json:"id"`
	CreatedAt   string            `json:"created_at"`
	KiosID      *uint             `json:"kios_id"`
	UserID      uint              `json:"user_id"`
	UserName    string            `json:"user_name"`
	UserRole    models.UserRole   `json:"user_role"`
	EntityType  string            `json:"entity_type"`
	EntityID    uint              `json:"entity_id"`
	Action      models.ActionType `json:"action"`
	Description string            `json:"description"`
	RequestID   string            `json:"request_id,omitempty"`
}

func queryUint(c *fiber.Ctx, key string) (uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return uint(n), nil
}

// GET ?kios_id=&user_id=&entity_type=&entity_id=&limit=&offset=
func ListHandler(l Lister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q Query
		kiosID, err := queryUint(c, "kios_id")
		if err != nil {
			return err
		}
		if kiosID > 0 {
			q.KiosID = &kiosID
		}
		if q.UserID, err = queryUint(c, "user_id"); err != nil {
			return err
		}
		if q.EntityID, err = queryUint(c, "entity_id"); err != nil {
			return err
		}
		q.EntityType = c.Query("entity_type")
		q.Limit = c.QueryInt("limit", DefaultLimit)
		q.Offset = c.QueryInt("offset", 0)
		if q.Offset < 0 {
			q.Offset = 0
		}

		logs, total, err := l.List(c.UserContext(), q)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list activity")
		}

		resp := make([]LogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, LogResponse{
				ID:          log.ID,
				CreatedAt:   log.CreatedAt.Format(time.DateTime),
				KiosID:      log.KiosID,
				UserID:      log.UserID,
				UserName:    log.UserName,
				UserRole:    log.UserRole,
				EntityType:  log.EntityType,
				EntityID:    log.EntityID,
				Action:      log.Action,
				Description: log.Description,
				RequestID:   log.RequestID,
			})
		}
		return c.JSON(fiber.Map{"data": resp, "total": total})
	}
}
