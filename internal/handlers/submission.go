package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"engagement/internal/domain"
	"engagement/internal/mail"
	u "engagement/internal/utils"
)

const (
	msgMissingFields   = "Tous les champs sont obligatoires."
	msgFailure         = "Erreur lors du traitement de la demande."
	msgSent            = "PDF généré et envoyé avec succès !"
	msgAlreadySent     = "Ce PDF a déjà été envoyé."
	msgUnsupportedText = "Certains caractères ne peuvent pas être imprimés dans le PDF."

	mimePDF = "application/pdf"
)

// Composer renders the agreement of a submission.
type Composer interface {
	Compose(sub domain.Submission) ([]byte, error)
}

// Recorder keeps the outcome of each submission. *utils.Journal is the
// production implementation; a nil *utils.Journal records nothing.
type Recorder interface {
	Record(ctx context.Context, rec u.DeliveryRecord) error
}

// SubmissionService bundles configuration and collaborators of the
// submission endpoint. It keeps no per-request state.
type SubmissionService struct {
	Config   *u.Config
	Composer Composer
	Mailer   mail.Mailer
	Redis    *redis.Client
	Journal  Recorder
}

// NewSubmissionService creates a new SubmissionService instance. rdb and
// journal may be nil.
func NewSubmissionService(cfg u.Config, composer Composer, mailer mail.Mailer, rdb *redis.Client, journal Recorder) *SubmissionService {
	return &SubmissionService{
		Config:   &cfg,
		Composer: composer,
		Mailer:   mailer,
		Redis:    rdb,
		Journal:  journal,
	}
}

// HandleSubmit validates the form, composes the agreement, mails it and
// reports the outcome.
func (svc *SubmissionService) HandleSubmit(c *fiber.Ctx) error {
	sub, err := parseSubmission(c)
	if err != nil {
		var verr *domain.ValidationError
		fields := []string{}
		if errors.As(err, &verr) {
			fields = verr.Fields
		}
		u.Warn("Submission rejected", "path", c.Path(), "missing", fields, "request_id", requestID(c))
		return badRequest(c, msgMissingFields, fields)
	}

	key := submissionKey(sub)
	if !svc.claim(c, key) {
		return svc.duplicate(c, sub)
	}

	pdf, err := svc.Composer.Compose(sub)
	if err != nil {
		svc.release(c, key)
		return svc.fail(c, sub, "Agreement composition failed", err)
	}

	msg := mail.Message{To: sub.Email, Attachment: pdf, AttachmentName: svc.Config.Mail.AttachmentName}
	if err := svc.Mailer.Send(c.UserContext(), msg); err != nil {
		svc.release(c, key)
		return svc.fail(c, sub, "Agreement delivery failed", err)
	}

	svc.record(c, sub, u.DeliverySent, "")
	u.Info("Agreement delivered", "bytes", len(pdf), "request_id", requestID(c))

	if wantsPDF(c) {
		return sendPDF(c, sub, pdf)
	}
	return c.JSON(fiber.Map{
		"message":    msgSent,
		"filename":   sub.AttachmentName(),
		"request_id": requestID(c),
	})
}

// duplicate answers a submission whose twin was already mailed. Nothing is
// mailed again; a client asking for the PDF still gets it.
func (svc *SubmissionService) duplicate(c *fiber.Ctx, sub domain.Submission) error {
	if wantsPDF(c) {
		pdf, err := svc.Composer.Compose(sub)
		if err != nil {
			return svc.fail(c, sub, "Agreement composition failed", err)
		}
		u.Info("Duplicate submission skipped", "request_id", requestID(c))
		svc.record(c, sub, u.DeliveryDuplicate, "")
		return sendPDF(c, sub, pdf)
	}

	u.Info("Duplicate submission skipped", "request_id", requestID(c))
	svc.record(c, sub, u.DeliveryDuplicate, "")
	return c.JSON(fiber.Map{
		"message":    msgAlreadySent,
		"filename":   sub.AttachmentName(),
		"request_id": requestID(c),
		"duplicate":  true,
	})
}

// fail logs the cause and answers with the generic failure message; the
// cause itself is never shown to the user. Text the agreement cannot print
// is the member's to fix and gets a 400 naming the fields.
func (svc *SubmissionService) fail(c *fiber.Ctx, sub domain.Submission, what string, err error) error {
	kind := errorKind(err)
	svc.record(c, sub, u.DeliveryFailed, kind)

	var terr *domain.UnsupportedTextError
	if errors.As(err, &terr) {
		u.Warn("Submission rejected", "path", c.Path(), "unsupported", terr.Fields, "request_id", requestID(c))
		return badRequest(c, msgUnsupportedText, terr.Fields)
	}

	u.Error(what, "kind", kind, "error", err, "request_id", requestID(c))
	return fiber.NewError(fiber.StatusInternalServerError, msgFailure)
}

// errorKind names the failure class stored in the journal.
func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedText):
		return "unsupported_text"
	case errors.Is(err, domain.ErrAsset):
		return "asset"
	case errors.Is(err, domain.ErrDelivery):
		return "delivery"
	}
	return "internal"
}

func (svc *SubmissionService) record(c *fiber.Ctx, sub domain.Submission, status, reason string) {
	if svc.Journal == nil {
		return
	}
	rec := u.DeliveryRecord{RequestID: requestID(c), Recipient: sub.Email, Status: status, Reason: reason}
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()
	if err := svc.Journal.Record(ctx, rec); err != nil {
		u.Warn("Journal write failed", "error", err, "request_id", rec.RequestID)
	}
}

func badRequest(c *fiber.Ctx, msg string, fields []string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    fiber.StatusBadRequest,
			"message": msg,
			"fields":  fields,
		},
	})
}

func wantsPDF(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMEApplicationJSON, mimePDF) == mimePDF
}

func sendPDF(c *fiber.Ctx, sub domain.Submission, pdf []byte) error {
	c.Set(fiber.HeaderContentType, mimePDF)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+sub.AttachmentName()+`"`)
	return c.Send(pdf)
}

// parseSubmission decodes the JSON body. A malformed body is reported as
// if every field were missing.
func parseSubmission(c *fiber.Ctx) (domain.Submission, error) {
	var sub domain.Submission
	if err := json.Unmarshal(c.Body(), &sub); err != nil {
		return sub, (domain.Submission{}).Validate()
	}
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return sub, err
	}
	return sub, nil
}

func requestID(c *fiber.Ctx) string {
	if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
