package plan

import (
	_ "embed"
	"fmt"

	"maternityCare/domain"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

type Template struct {
	Text string `yaml:"text"`
	CTA  string `yaml:"cta"`
}

// Catalog maps item type and priority to a message template.
type Catalog map[domain.PlanItemType]map[string]Template

func LoadCatalog(raw []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse plan templates: %w", err)
	}

	for _, t := range []domain.PlanItemType{domain.PlanAlert, domain.PlanCheckIn, domain.PlanContent, domain.PlanHabit, domain.PlanClosure} {
		if _, ok := c[t]["default"]; !ok {
			return nil, fmt.Errorf("plan templates: missing default for %s", t)
		}
	}
	return c, nil
}

func DefaultCatalog() Catalog {
	c, err := LoadCatalog(defaultTemplates)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Catalog) Lookup(t domain.PlanItemType, p domain.Priority) Template {
	if tpl, ok := c[t][string(p)]; ok {
		return tpl
	}
	return c[t]["default"]
}
