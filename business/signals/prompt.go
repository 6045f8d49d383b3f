package signals

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"maternityCare/domain"
)

const systemPrompt = `You are a perinatal wellbeing analyst. You read a parent's recent app activity and chat and describe their current state.
Answer with a single JSON object and nothing else, exactly of the form:
{"tags": [<taxonomy codes>], "scores": {"stress": <0-100>, "sleep": <0-100>, "support": <0-100>, "mood": <0-100>}, "risk_level": <0-10>}
Use only tag codes from the taxonomy. Do not add fields.`

const rubric = `Scoring rubric (0-100):
- stress: 0 calm, 50 noticeably strained, 100 acute distress
- sleep: 0 no usable sleep, 50 fragmented, 100 well rested
- support: 0 entirely alone, 50 some help, 100 strong practical and emotional support
- mood: 0 very low, 50 neutral, 100 very positive
risk_level (0-10): 0-1 no concern, 2-4 mild, 5-7 elevated, 8-10 possible danger to self or baby.`

type promptInput struct {
	Profile domain.Profile
	Events  []domain.BehavioralEvent
	Chat    []domain.ChatTurn
	Now     time.Time
}

func buildPrompt(in promptInput) string {
	var b strings.Builder

	b.WriteString("Tag taxonomy:\n")
	for _, t := range domain.Taxonomy {
		fmt.Fprintf(&b, "- %s: %s\n", t.Code, t.Description)
	}
	b.WriteString("\n")
	b.WriteString(rubric)
	b.WriteString("\n\n")

	b.WriteString("Profile:\n")
	fmt.Fprintf(&b, "- stage: %s\n", orUnknown(in.Profile.Stage))
	if week := in.Profile.PregnancyWeek(in.Now); week > 0 {
		fmt.Fprintf(&b, "- pregnancy week: %d\n", week)
	}
	if age := in.Profile.BabyAgeWeeks(in.Now); age >= 0 {
		fmt.Fprintf(&b, "- baby age (weeks): %d\n", age)
	}
	fmt.Fprintf(&b, "- single parent: %t\n\n", in.Profile.SingleParent)

	fmt.Fprintf(&b, "Recent events (%d, newest first):\n", len(in.Events))
	for _, e := range in.Events {
		fmt.Fprintf(&b, "- %s %s %s\n", e.CreatedAt.UTC().Format(time.RFC3339), e.Kind, compactPayload(e.Payload))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Recent chat (%d turns, oldest first):\n", len(in.Chat))
	for _, turn := range in.Chat {
		fmt.Fprintf(&b, "- %s: %s\n", turn.Role, oneLine(turn.Content))
	}

	return b.String()
}

func compactPayload(raw []byte) string {
	if len(raw) == 0 {
		return "{}"
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "{}"
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(out)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
