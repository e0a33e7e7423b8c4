package advisor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
)

// Advisor turns security findings and cost roll-ups into actionable
// recommendations using a YAML rule pack.
type Advisor struct {
	rules  []Rule
	logger *slog.Logger
	newID  func() string
}

// Rule is a single recommendation rule.
type Rule struct {
	ID             string    `yaml:"id"`
	Match          RuleMatch `yaml:"match"`
	Title          string    `yaml:"title"`
	Recommendation string    `yaml:"recommendation"`
}

// RuleMatch defines optional matching attributes. All set attributes must
// hold for the rule to fire.
type RuleMatch struct {
	Severity        string   `yaml:"severity"`
	RuleContains    []string `yaml:"rule_contains"`
	ServiceCostOver float64  `yaml:"service_cost_over"`
	Service         string   `yaml:"service"`
}

// RuleConfigFile is the YAML root structure.
type RuleConfigFile struct {
	Rules []Rule `yaml:"rules"`
}

// New loads the rule pack from path. An empty or missing path yields a nil
// advisor, which advises nothing.
func New(path string, logger *slog.Logger) (*Advisor, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var cfg RuleConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{rules: cfg.Rules, logger: logger, newID: uuid.NewString}, nil
}

// Advise evaluates the rule pack against findings and per-service costs. A
// rule fires at most once, collecting every resource that matched it.
func (a *Advisor) Advise(findings []models.SecurityFinding, costs []models.CostByService) []models.Recommendation {
	if a == nil {
		return nil
	}

	var recs []models.Recommendation
	for _, rule := range a.rules {
		resources := matchingResources(rule.Match, findings)
		costHit := costMatches(rule.Match, costs)

		findingRuleSet := rule.Match.Severity != "" || len(rule.Match.RuleContains) > 0
		costRuleSet := rule.Match.ServiceCostOver > 0

		if findingRuleSet && len(resources) == 0 {
			continue
		}
		if costRuleSet && !costHit {
			continue
		}
		if !findingRuleSet && !costRuleSet {
			continue
		}

		severity := models.SeverityMedium
		if rule.Match.Severity != "" {
			severity = models.AlertSeverity(strings.ToLower(rule.Match.Severity))
		}
		recs = append(recs, models.Recommendation{
			ID:          a.newID(),
			Title:       rule.Title,
			Description: rule.Recommendation,
			Severity:    severity,
			ResourceIDs: resources,
		})
	}
	return recs
}

func matchingResources(match RuleMatch, findings []models.SecurityFinding) []string {
	seen := make(map[string]struct{})
	var resources []string
	for _, f := range findings {
		if match.Severity != "" && !strings.EqualFold(match.Severity, string(f.Severity)) {
			continue
		}
		if len(match.RuleContains) > 0 && !ruleContains(match.RuleContains, f.Rule) {
			continue
		}
		if f.ResourceID == "" {
			continue
		}
		if _, ok := seen[f.ResourceID]; ok {
			continue
		}
		seen[f.ResourceID] = struct{}{}
		resources = append(resources, f.ResourceID)
	}
	sort.Strings(resources)
	return resources
}

func ruleContains(keywords []string, ruleName string) bool {
	lower := strings.ToLower(ruleName)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func costMatches(match RuleMatch, costs []models.CostByService) bool {
	if match.ServiceCostOver <= 0 {
		return false
	}
	for _, c := range costs {
		if match.Service != "" && !strings.EqualFold(match.Service, c.Service) {
			continue
		}
		if c.Amount > match.ServiceCostOver {
			return true
		}
	}
	return false
}

// DescribeRules summarizes the loaded rule pack for startup logging.
func (a *Advisor) DescribeRules() string {
	if a == nil {
		return "no rule pack loaded"
	}
	return fmt.Sprintf("%d advisory rules loaded", len(a.rules))
}
