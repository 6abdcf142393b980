package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"newsletter/subscription"
	"newsletter/utils"
)

type SubscriptionController struct {
	Service *subscription.Service
	Policy  subscription.Policy
	Logger  *logrus.Entry

	// IPHeaders are the proxy headers trusted for the client address.
	IPHeaders []string
}

func NewSubscriptionController(service *subscription.Service, policy subscription.Policy, ipHeaders []string, logger *logrus.Entry) *SubscriptionController {
	return &SubscriptionController{
		Service:   service,
		Policy:    policy,
		Logger:    logger,
		IPHeaders: ipHeaders,
	}
}

type subscribeRequest struct {
	Email string `json:"email" form:"email"`
}

// Subscribe handles the public signup form. Rejections are logged and
// recorded but the response follows the configured Policy.
func (sc *SubscriptionController) Subscribe(c *fiber.Ctx) error {
	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(subscription.Response{
			Message: "Email is required",
		})
	}

	ip := utils.ClientIP(c, sc.IPHeaders)
	result, err := sc.Service.Subscribe(c.UserContext(), subscription.Request{
		Email:     req.Email,
		IPAddress: ip,
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if errors.Is(err, subscription.ErrEmailRequired) {
		return c.Status(fiber.StatusBadRequest).JSON(subscription.Response{
			Message: "Email is required",
		})
	}
	if err != nil {
		utils.LogError("subscribe_failed", err, map[string]interface{}{
			"ip": ip,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(subscription.Response{
			Message: subscription.MessageGenericFailure,
		})
	}

	fields := logrus.Fields{
		"email":   result.Email,
		"ip":      ip,
		"outcome": result.Outcome,
	}
	if result.Accepted() {
		sc.Logger.WithFields(fields).WithField("score", result.Verdict.Score).Info("Subscription processed")
	} else {
		sc.Logger.WithFields(fields).WithField("reason", result.Reason).Warn("Subscription rejected")
	}

	return c.JSON(subscription.PublicResponse(result, sc.Policy))
}

type unsubscribeRequest struct {
	Email string `json:"email" query:"email" form:"email"`
	Token string `json:"token" query:"token" form:"token"`
}

// Unsubscribe accepts GET (link in a newsletter) and POST (the unsubscribe page).
func (sc *SubscriptionController) Unsubscribe(c *fiber.Ctx) error {
	var req unsubscribeRequest
	if c.Method() == fiber.MethodGet {
		if err := c.QueryParser(&req); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Email is required", nil)
		}
	} else if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Email is required", nil)
	}

	res, err := sc.Service.Unsubscribe(c.UserContext(), req.Email, req.Token)
	switch {
	case errors.Is(err, subscription.ErrEmailRequired):
		return unsubscribeReply(c, fiber.StatusBadRequest, false, "Email is required")
	case errors.Is(err, subscription.ErrInvalidUnsubscribeLink):
		return unsubscribeReply(c, fiber.StatusBadRequest, false, "Invalid unsubscribe link")
	case errors.Is(err, subscription.ErrInvalidEmail):
		return unsubscribeReply(c, fiber.StatusBadRequest, false, "Invalid email format")
	case err != nil:
		utils.LogError("unsubscribe_failed", err, nil)
		return unsubscribeReply(c, fiber.StatusInternalServerError, false, subscription.MessageGenericFailure)
	}

	if !res.Changed {
		return unsubscribeReply(c, fiber.StatusOK, true, subscription.MessageNotSubscribed)
	}
	sc.Logger.WithField("email", req.Email).Info("Subscriber unsubscribed")
	return unsubscribeReply(c, fiber.StatusOK, true, subscription.MessageUnsubscribed)
}

func unsubscribeReply(c *fiber.Ctx, status int, success bool, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": success,
		"message": message,
	})
}
