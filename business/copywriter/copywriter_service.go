package copywriter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"maternityCare/business/oracle"
	"maternityCare/domain"
	"maternityCare/pkg/logger"
	"maternityCare/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/valyala/fasttemplate"
)

const (
	ProviderTemplate = "template"
	DefaultMaxLength = 240
	ellipsis         = "…"
)

type ComposeRequest struct {
	Template  string
	Variables map[string]interface{}
	Rationale *domain.Rationale
	Tone      domain.Tone
	MaxLength int
}

type copyAnswer struct {
	Text string `json:"text" validate:"required"`
	CTA  string `json:"cta" validate:"omitempty,max=80"`
}

type copyService struct {
	chain            *oracle.Chain
	check            func(*copyAnswer) error
	defaultMaxLength int
}

func NewCopyService(chain *oracle.Chain, defaultMaxLength int) *copyService {
	if defaultMaxLength <= 0 {
		defaultMaxLength = DefaultMaxLength
	}
	structCheck := oracle.StructCheck[copyAnswer](validator.New())
	return &copyService{
		chain: chain,
		check: func(a *copyAnswer) error {
			if err := structCheck(a); err != nil {
				return err
			}
			if strings.TrimSpace(a.Text) == "" {
				return errors.New("validate: text is blank")
			}
			return nil
		},
		defaultMaxLength: defaultMaxLength,
	}
}

// Compose always returns copy. A template that needs no personalization is
// returned as is; otherwise the oracle chain rewrites it, and when every
// oracle fails the filled template is the answer.
func (s *copyService) Compose(ctx context.Context, req ComposeRequest) domain.Copy {
	maxLength := req.MaxLength
	if maxLength <= 0 {
		maxLength = s.defaultMaxLength
	}
	tone := req.Tone
	if !tone.Valid() {
		tone = domain.ToneWarm
	}

	filled := Fill(req.Template, req.Variables)

	if req.Rationale == nil && utf8.RuneCountInString(filled) <= maxLength {
		return s.done(domain.Copy{Text: filled, Provider: ProviderTemplate})
	}

	res, err := oracle.Run(ctx, s.chain, oracle.Request{
		System:      systemPrompt(tone, maxLength),
		Prompt:      userPrompt(filled, req.Rationale, maxLength),
		Temperature: 0.7,
		MaxTokens:   300,
	}, s.check)
	if err != nil {
		logger.Warn("copy oracles exhausted, using template", "stage", "compose_copy", "error", err)
		return s.done(domain.Copy{
			Text:     Cut(filled, maxLength),
			Provider: ProviderTemplate,
			Fallback: true,
		})
	}

	return s.done(domain.Copy{
		Text:     Truncate(strings.TrimSpace(res.Value.Text), maxLength),
		CTA:      strings.TrimSpace(res.Value.CTA),
		Provider: res.Provider,
	})
}

func (s *copyService) done(c domain.Copy) domain.Copy {
	metrics.CopyCompositions.WithLabelValues(c.Provider, strconv.FormatBool(c.Fallback)).Inc()
	return c
}

// Fill substitutes {{name}} placeholders. Unknown names render empty.
func Fill(template string, vars map[string]interface{}) string {
	return fasttemplate.ExecuteFuncString(template, "{{", "}}", func(w io.Writer, tag string) (int, error) {
		v, ok := vars[strings.TrimSpace(tag)]
		if !ok || v == nil {
			return 0, nil
		}
		return io.WriteString(w, fmt.Sprint(v))
	})
}

// Cut keeps the first max runes of s.
func Cut(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// Truncate cuts s to at most max runes, ending in an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := strings.TrimRightFunc(string(runes[:max-1]), func(r rune) bool { return r == ' ' })
	return cut + ellipsis
}

var toneGuide = map[domain.Tone]string{
	domain.ToneWarm:       "gentle, reassuring and validating, like a kind friend who is also a midwife",
	domain.ToneMotivating: "upbeat and encouraging, focused on one small achievable step",
	domain.ToneUrgent:     "calm but direct, making clear that reaching out now matters",
}

func systemPrompt(tone domain.Tone, maxLength int) string {
	return fmt.Sprintf(`You write short in-app messages for expecting and new parents.
Voice: %s.
Never diagnose, never shame, never mention scores or internal labels.
Keep "text" under %d characters. "cta" is an optional button label of at most 4 words.
Answer with a single JSON object: {"text": "...", "cta": "..."} and nothing else.`, toneGuide[tone], maxLength)
}

func userPrompt(filled string, rationale *domain.Rationale, maxLength int) string {
	var b strings.Builder
	b.WriteString("Rewrite this message for the person described below.\n")
	fmt.Fprintf(&b, "Message: %s\n", filled)
	fmt.Fprintf(&b, "Maximum length: %d characters\n", maxLength)
	if rationale != nil {
		raw, err := json.Marshal(rationale)
		if err == nil {
			fmt.Fprintf(&b, "Context: %s\n", raw)
		}
	}
	return b.String()
}
