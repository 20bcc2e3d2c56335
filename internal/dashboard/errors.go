package dashboard

import (
	"errors"

	"foodcourt-dashboard/internal/api"
	"foodcourt-dashboard/internal/auth"
	"foodcourt-dashboard/internal/cart"
	"foodcourt-dashboard/internal/logging"
	"foodcourt-dashboard/internal/orderflow"
	"foodcourt-dashboard/internal/session"
	"foodcourt-dashboard/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ErrorHandler turns every error a handler returns into a JSON body with an
// "error" field and the matching status.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			verrs validation.Errors
			te    *api.TransportError
			ae    *api.APIError
			fe    *fiber.Error
		)
		switch {
		case errors.As(err, &verrs):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "validation failed",
				"details": verrs,
			})

		case errors.Is(err, api.ErrUnauthorized):
			session.ClearCookies(c)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":    "session expired, sign in again",
				"redirect": auth.LoginRedirect(c.Path()),
			})

		case errors.As(err, &te):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":     "backend unreachable",
				"retryable": true,
			})

		case errors.As(err, &ae):
			msg := ae.Message
			if msg == "" {
				msg = "backend error"
			}
			return c.Status(ae.Status).JSON(fiber.Map{
				"error":     msg,
				"details":   ae.Details,
				"retryable": api.Retryable(ae),
			})

		case errors.Is(err, orderflow.ErrTerminal),
			errors.Is(err, orderflow.ErrInvalidTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})

		case errors.Is(err, orderflow.ErrUnknownStatus),
			errors.Is(err, orderflow.ErrInvalidPayment),
			errors.Is(err, cart.ErrMenuUnavailable),
			errors.Is(err, cart.ErrForeignMenu),
			errors.Is(err, cart.ErrUnknownMenu):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})

		case errors.As(err, &fe):
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		log.WithError(err).WithField("request_id", logging.RequestID(c)).Error("unexpected error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unexpected server error",
		})
	}
}
