package controller

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"newsletter/recovery"
	"newsletter/store"
	"newsletter/utils"
	"newsletter/verifier"
)

const (
	defaultRejectedPageSize = 50
	maxRejectedPageSize     = 100
	whoisTimeout            = 10 * time.Second
)

// EmailValidator is satisfied by *verifier.Validator.
type EmailValidator interface {
	Validate(ctx context.Context, email string) (verifier.Verdict, error)
}

type AdminController struct {
	Store     *store.Store
	Recovery  *recovery.Service
	Validator EmailValidator
	Inspector verifier.Inspector
	Logger    *logrus.Entry
}

func NewAdminController(s *store.Store, rec *recovery.Service, validator EmailValidator, inspector verifier.Inspector, logger *logrus.Entry) *AdminController {
	return &AdminController{
		Store:     s,
		Recovery:  rec,
		Validator: validator,
		Inspector: inspector,
		Logger:    logger,
	}
}

func (ac *AdminController) Dashboard(c *fiber.Ctx) error {
	d, err := ac.Store.Dashboard(c.UserContext())
	if err != nil {
		return ac.internalError(c, "dashboard_failed", err)
	}
	return c.JSON(utils.SuccessResponse(d))
}

// ListRejected supports ?page, ?limit, ?reason (substring) and ?date (YYYY-MM-DD).
func (ac *AdminController) ListRejected(c *fiber.Ctx) error {
	page, limit := utils.ClampPage(c.QueryInt("page", 1), c.QueryInt("limit", defaultRejectedPageSize),
		defaultRejectedPageSize, maxRejectedPageSize)

	filter := store.RejectedFilter{
		Reason: c.Query("reason"),
		Page:   page,
		Limit:  limit,
	}
	if raw := c.Query("date"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "date must be YYYY-MM-DD", nil)
		}
		filter.Date = &day
	}

	rows, total, err := ac.Store.ListRejectedPage(c.UserContext(), filter)
	if err != nil {
		return ac.internalError(c, "list_rejected_failed", err)
	}
	return c.JSON(utils.NewPaginatedResponse(rows, total, page, limit))
}

func (ac *AdminController) RejectionStats(c *fiber.Ctx) error {
	stats, err := ac.Store.RejectionStats(c.UserContext())
	if err != nil {
		return ac.internalError(c, "rejection_stats_failed", err)
	}
	return c.JSON(utils.SuccessResponse(stats))
}

func (ac *AdminController) ClearRejected(c *fiber.Ctx) error {
	deleted, err := ac.Store.ClearRejected(c.UserContext())
	if err != nil {
		return ac.internalError(c, "clear_rejected_failed", err)
	}
	ac.audit(c, "rejected_cleared", logrus.Fields{"deleted": deleted})
	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": deleted}))
}

// ExportSubscribers streams active subscribers as CSV.
func (ac *AdminController) ExportSubscribers(c *fiber.Ctx) error {
	subs, err := ac.Store.ActiveSubscribers(c.UserContext())
	if err != nil {
		return ac.internalError(c, "export_failed", err)
	}

	filename := fmt.Sprintf("subscribers_%s.csv", time.Now().Format("2006-01-02_15-04-05"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+filename)
	c.Set(fiber.HeaderCacheControl, "no-cache")

	w := csv.NewWriter(c)
	_ = w.Write([]string{"Email", "Subscribed Date", "Validation Score", "IP Address", "Status"})
	for _, s := range subs {
		_ = w.Write([]string{
			s.Email,
			s.SubscribedAt.Format("2006-01-02 15:04:05"),
			strconv.Itoa(s.ValidationScore),
			s.IPAddress,
			s.Status,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return ac.internalError(c, "export_failed", err)
	}

	ac.audit(c, "subscribers_exported", logrus.Fields{"count": len(subs)})
	return nil
}

func (ac *AdminController) Revalidate(c *fiber.Ctx) error {
	rows, err := ac.Recovery.Revalidate(c.UserContext())
	if err != nil {
		return ac.internalError(c, "revalidate_failed", err)
	}

	recoverable := 0
	for _, r := range rows {
		if r.NowValid {
			recoverable++
		}
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"rows":        rows,
		"total":       len(rows),
		"recoverable": recoverable,
	}))
}

type recoverRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1"`
}

func (ac *AdminController) Recover(c *fiber.Ctx) error {
	var req recoverRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	result, err := ac.Recovery.RecoverByIDs(c.UserContext(), req.IDs)
	if err != nil {
		return ac.internalError(c, "recover_failed", err)
	}
	ac.audit(c, "emails_recovered", batchFields(result))
	return c.JSON(utils.SuccessResponse(result))
}

type recoverAllRequest struct {
	Confirm bool `json:"confirm"`
}

func (ac *AdminController) RecoverAll(c *fiber.Ctx) error {
	var req recoverAllRequest
	if err := c.BodyParser(&req); err != nil || !req.Confirm {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Recovering every rejected email requires {\"confirm\": true}", nil)
	}

	result, err := ac.Recovery.RecoverAll(c.UserContext())
	if err != nil {
		return ac.internalError(c, "recover_all_failed", err)
	}
	ac.audit(c, "all_emails_recovered", batchFields(result))
	return c.JSON(utils.SuccessResponse(result))
}

type emailRequest struct {
	Email string `json:"email" validate:"required"`
}

func (ac *AdminController) RecoverEmail(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	item, err := ac.Recovery.RecoverSingle(c.UserContext(), req.Email)
	if err != nil {
		return ac.internalError(c, "recover_email_failed", err)
	}
	if item.Outcome == recovery.OutcomeNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Email not found in rejected list",
			"data":    item,
		})
	}
	ac.audit(c, "email_recovered", logrus.Fields{"email": item.Email, "outcome": item.Outcome})
	return c.JSON(utils.SuccessResponse(item))
}

// ValidateEmail runs the validator without storing anything.
func (ac *AdminController) ValidateEmail(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	req.Email = verifier.NormalizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	verdict, err := ac.Validator.Validate(c.UserContext(), req.Email)
	if errors.Is(err, verifier.ErrResolverUnavailable) {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "DNS lookup unavailable", err)
	}
	if err != nil {
		return ac.internalError(c, "validate_failed", err)
	}
	return c.JSON(utils.SuccessResponse(verdict))
}

func (ac *AdminController) Whois(c *fiber.Ctx) error {
	domain := c.Query("domain")
	if domain == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "domain is required", nil)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), whoisTimeout)
	defer cancel()

	text, err := ac.Inspector.Whois(ctx, domain)
	if err != nil {
		ac.Logger.WithError(err).WithField("domain", domain).Warn("WHOIS lookup failed")
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "WHOIS lookup failed", err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"domain": domain,
		"whois":  text,
	}))
}

func (ac *AdminController) internalError(c *fiber.Ctx, errorType string, err error) error {
	utils.LogError(errorType, err, map[string]interface{}{
		"path": c.Path(),
	})
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error", nil)
}

func (ac *AdminController) audit(c *fiber.Ctx, event string, fields logrus.Fields) {
	entry := ac.Logger.WithFields(fields)
	if id, ok := c.Locals("adminID").(uint); ok {
		entry = entry.WithField("admin_id", id)
	}
	entry.Info(event)
}

func batchFields(r recovery.BatchResult) logrus.Fields {
	return logrus.Fields{
		"recovered":          r.Recovered,
		"already_subscribed": r.AlreadySubscribed,
		"failed":             r.Failed,
		"not_found":          r.NotFound,
	}
}
