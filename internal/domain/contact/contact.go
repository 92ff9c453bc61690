// Package contact handles contact and consultation requests.
package contact

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/form"
)

// ErrSubmissionFailed is returned when the contact endpoint rejects or
// cannot be reached.
var ErrSubmissionFailed = errors.New("contact submission failed")

// InquiryType classifies a contact request.
type InquiryType string

// Known inquiry types.
const (
	InquiryGeneral     InquiryType = "general"
	InquiryDistributor InquiryType = "distributor"
	InquirySupport     InquiryType = "support"
	InquiryBulkOrder   InquiryType = "bulk_order"
)

// Form is a contact submission.
type Form struct {
	Name        string      `json:"name" validate:"notblank"`
	Email       string      `json:"email" validate:"notblank,mailbox"`
	Phone       string      `json:"phone"`
	Company     string      `json:"company"`
	InquiryType InquiryType `json:"inquiryType" validate:"oneof=general distributor support bulk_order"`
	Subject     string      `json:"subject" validate:"notblank"`
	Message     string      `json:"message" validate:"notblank"`
}

var messages = form.Messages{
	"name":           "Name is required",
	"email.notblank": "Email is required",
	"email.mailbox":  "Please enter a valid email address",
	"inquiryType":    "Please choose an inquiry type",
	"subject":        "Subject is required",
	"message":        "Message is required",
}

// Clean trims the form, defaults the inquiry type to general and strips
// markup from the message.
func (f Form) Clean() Form {
	form.Trim(&f.Name, &f.Email, &f.Phone, &f.Company, &f.Subject, &f.Message)
	f.InquiryType = InquiryType(strings.ToLower(strings.TrimSpace(string(f.InquiryType))))
	if f.InquiryType == "" {
		f.InquiryType = InquiryGeneral
	}
	f.Phone = form.NormalizePhone(f.Phone, form.DefaultRegion)
	f.Subject = form.StripHTML(f.Subject)
	f.Message = form.StripHTML(f.Message)
	return f
}

// Gateway delivers a contact submission to the contact endpoint.
type Gateway interface {
	SubmitContact(ctx context.Context, f Form) error
}

// Notifier alerts staff about a new contact submission.
type Notifier interface {
	ContactReceived(ctx context.Context, f Form) error
}

// Service validates and submits contact forms.
type Service struct {
	gateway   Gateway
	notifier  Notifier
	validator *form.Validator
}

// NewService creates a contact Service. notifier may be nil.
func NewService(gateway Gateway, notifier Notifier, validator *form.Validator) *Service {
	return &Service{
		gateway:   gateway,
		notifier:  notifier,
		validator: validator,
	}
}

// Submit validates f and submits it once. Invalid forms return a
// *form.ValidationError; endpoint failures return ErrSubmissionFailed.
func (s *Service) Submit(ctx context.Context, f Form) error {
	f = f.Clean()
	if err := s.validator.Check(f, messages); err != nil {
		return err
	}

	lg := zctx.From(ctx).With(zap.String("inquiry_type", string(f.InquiryType)))
	if err := s.gateway.SubmitContact(ctx, f); err != nil {
		lg.Error("Submit contact failed", zap.Error(err))
		return errors.Wrap(ErrSubmissionFailed, err.Error())
	}
	lg.Info("Contact request submitted")

	if s.notifier != nil {
		if err := s.notifier.ContactReceived(ctx, f); err != nil {
			lg.Warn("Send contact notification failed", zap.Error(err))
		}
	}
	return nil
}
