package rest

import (
	"context"
	"net/http"
	"time"

	"maternityCare/business/copywriter"
	"maternityCare/domain"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type CopyService interface {
	Compose(ctx context.Context, req copywriter.ComposeRequest) domain.Copy
}

type CopyHandler struct {
	copyService CopyService
	validate    *validator.Validate
	timeout     time.Duration
}

func NewCopyHandler(copyService CopyService) *CopyHandler {
	return &CopyHandler{
		copyService: copyService,
		validate:    validator.New(),
		timeout:     60 * time.Second,
	}
}

type ComposeCopyRequest struct {
	Template  string                 `json:"template" validate:"required"`
	Variables map[string]interface{} `json:"variables"`
	Rationale *domain.Rationale      `json:"rationale"`
	Tone      string                 `json:"tone" validate:"omitempty,oneof=warm motivating urgent"`
	MaxLength int                    `json:"maxLength" validate:"omitempty,min=20,max=2000"`
}

type copyBody struct {
	Text string `json:"text"`
	CTA  string `json:"cta,omitempty"`
}

type ComposeCopyResponse struct {
	Copy     copyBody `json:"copy"`
	Provider string   `json:"provider"`
	Fallback bool     `json:"fallback"`
}

func (h *CopyHandler) ComposeCopy(c echo.Context) error {
	var req ComposeCopyRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(err)
	}

	tone := domain.Tone(req.Tone)
	if tone == "" {
		tone = domain.ToneWarm
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	out := h.copyService.Compose(ctx, copywriter.ComposeRequest{
		Template:  req.Template,
		Variables: req.Variables,
		Rationale: req.Rationale,
		Tone:      tone,
		MaxLength: req.MaxLength,
	})

	return c.JSON(http.StatusOK, ComposeCopyResponse{
		Copy:     copyBody{Text: out.Text, CTA: out.CTA},
		Provider: out.Provider,
		Fallback: out.Fallback,
	})
}
