package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/msp-registration/internal/auth"
	"github.com/gdg-garage/msp-registration/internal/models"
	"github.com/gdg-garage/msp-registration/internal/notifier"
	"github.com/gdg-garage/msp-registration/internal/store"
)

// timestampLayout matches the millisecond ISO-8601 form the browser form produces.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Submitter mirrors one registration to the remote store.
type Submitter interface {
	SaveRegistration(ctx context.Context, registration models.Registration) bool
}

type RegistrationHandler struct {
	store       *store.Store
	submitter   Submitter
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
	logger      *slog.Logger
	now         func() time.Time
}

func NewRegistrationHandler(st *store.Store, submitter Submitter, n notifier.Notifier, authHandler *auth.AuthHandler, logger *slog.Logger) *RegistrationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationHandler{
		store:       st,
		submitter:   submitter,
		notifier:    n,
		authHandler: authHandler,
		logger:      logger,
		now:         time.Now,
	}
}

type RegistrationRequest struct {
	Body struct {
		Name         string   `json:"name" doc:"Full name" minLength:"1"`
		Email        string   `json:"email" doc:"Contact email" minLength:"3"`
		Phone        *string  `json:"phone,omitempty" required:"false" doc:"Phone number"`
		Organization string   `json:"organization,omitempty" required:"false" doc:"Affiliation"`
		Role         string   `json:"role,omitempty" required:"false" doc:"Role or position"`
		Gender       string   `json:"gender,omitempty" required:"false"`
		Origin       string   `json:"origin,omitempty" required:"false" doc:"Country or region of origin"`
		Experience   string   `json:"experience,omitempty" required:"false" doc:"Experience level"`
		Interests    []string `json:"interests,omitempty" required:"false" doc:"Topics of interest"`
		Timestamp    string   `json:"timestamp,omitempty" required:"false" doc:"Capture instant (ISO-8601); set by the server when empty"`
	}
}

type RegistrationResponse struct {
	Body struct {
		Message string `json:"message"`
		Synced  bool   `json:"synced" doc:"Whether the registration also reached the hosted database"`
	}
}

// HandleRegister stores the registration locally, then mirrors it remotely on a
// best-effort basis. Only a local write failure fails the request.
func (h *RegistrationHandler) HandleRegister(ctx context.Context, input *RegistrationRequest) (*RegistrationResponse, error) {
	registration := models.Registration{
		Name:         input.Body.Name,
		Email:        input.Body.Email,
		Phone:        input.Body.Phone,
		Organization: input.Body.Organization,
		Role:         input.Body.Role,
		Gender:       input.Body.Gender,
		Origin:       input.Body.Origin,
		Experience:   input.Body.Experience,
		Interests:    input.Body.Interests,
		Timestamp:    input.Body.Timestamp,
	}
	if registration.Timestamp == "" {
		registration.Timestamp = h.now().UTC().Format(timestampLayout)
	}

	if err := registration.Validate(); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	if err := h.store.Append(ctx, registration); err != nil {
		h.logger.Error("Failed to save registration locally", "email", registration.Email, "error", err)
		return nil, huma.Error500InternalServerError("Failed to save registration")
	}

	synced := false
	if h.submitter != nil {
		synced = h.submitter.SaveRegistration(ctx, registration)
	}

	if h.notifier != nil {
		if err := h.notifier.NotifyRegistration(registration); err != nil {
			h.logger.Warn("Failed to send registration notification", "error", err)
		}
	}

	res := &RegistrationResponse{}
	res.Body.Message = "Registration saved"
	res.Body.Synced = synced
	return res, nil
}

type ListRegistrationsInput struct {
	auth.AuthInput
}

type ListRegistrationsOutput struct {
	Body []models.Registration
}

func (h *RegistrationHandler) HandleList(ctx context.Context, input *ListRegistrationsInput) (*ListRegistrationsOutput, error) {
	if err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	registrations, err := h.store.Load(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to read registrations: " + err.Error())
	}
	return &ListRegistrationsOutput{Body: registrations}, nil
}
