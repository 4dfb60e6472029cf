package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/querydesk/querydesk/internal/report"
)

// Report profile names
const (
	ProfileGeneral             = "general"
	ProfileTargetAchievement   = "target_achievement"
	ProfileClassification      = "classification"
	ProfileClassificationPivot = "classification_pivot"
)

// Profile pairs the extra prompt directives for a kind of question with the
// shaping rules applied to its result.
type Profile struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Directives  []string     `json:"directives"`
	Rules       report.Rules `json:"rules"`
	keywords    []string
}

var loanAmountColumns = []string{"loanamount", "loan_amount", "total_loan_amount", "amount"}

// DefaultProfiles returns the built-in profiles. pivotCategories fixes the
// classification columns of the pivot; nil keeps the discovered values.
func DefaultProfiles(pivotCategories []string) []Profile {
	return []Profile{
		{
			Name:        ProfileClassificationPivot,
			Description: "loan amount in crores per SPOC and classification",
			Directives: []string{
				"Return one row per SPOC and classification with columns aliased exactly `spoc_name`, `classification` and `loanamount`.",
				"`loanamount` is SUM(`loan`.`loan_amount`); reach `spoc_name` by joining `loan` to `institute` on `institute_id`.",
				"Do not pivot in SQL.",
			},
			Rules: report.Rules{
				Convert: &report.ConvertRule{Candidates: loanAmountColumns, As: "loanamount"},
				Pivot: &report.PivotRule{
					RowKey:     "spoc_name",
					ColumnKey:  "classification",
					Value:      "loanamount",
					Categories: pivotCategories,
					RowTotal:   true,
				},
				GrandTotal: &report.GrandTotalRule{},
			},
			keywords: []string{"pivot", "matrix", "cross tab", "crosstab", "breakdown", "classification wise", "classification-wise"},
		},
		{
			Name:        ProfileTargetAchievement,
			Description: "target versus achieved loan amount per SPOC",
			Directives: []string{
				"Return one row per SPOC with columns aliased exactly `spoc_name`, `Target` and `loanamount`.",
				"Take `Target` from the `target` table joined on `spoc_name`.",
				"`loanamount` is SUM(`loan`.`loan_amount`); reach `spoc_name` by joining `loan` to `institute` on `institute_id`.",
			},
			Rules: report.Rules{
				Convert:    &report.ConvertRule{Candidates: loanAmountColumns, As: "loanamount"},
				Group:      &report.GroupRule{Key: "spoc_name", Sum: []string{"loanamount"}, First: []string{"Target"}},
				GrandTotal: &report.GrandTotalRule{},
			},
			keywords: []string{"target", "achievement", "achieved", " vs ", "versus"},
		},
		{
			Name:        ProfileClassification,
			Description: "business counts per loan classification",
			Directives: []string{
				"Group by `classification` and alias the sum of `nb` as `nb`.",
			},
			Rules: report.Rules{
				Group:      &report.GroupRule{Key: "classification", Sum: []string{"nb"}},
				GrandTotal: &report.GrandTotalRule{},
			},
			keywords: []string{"classification", "category", "categories", " nb ", "number of business"},
		},
		{
			Name:        ProfileGeneral,
			Description: "any question; loan amounts in crores with a grand total",
			Directives: []string{
				"When you sum a loan amount, alias it as `loanamount`.",
			},
			Rules: report.Rules{
				Convert:    &report.ConvertRule{Candidates: loanAmountColumns},
				GrandTotal: &report.GrandTotalRule{},
			},
		},
	}
}

// RoutingResult contains profile routing info
type RoutingResult struct {
	Profile    Profile
	Confidence float64
	Scores     map[string]int
	Reasoning  string
}

// ProfileRouter routes natural language questions to a report profile
type ProfileRouter struct {
	profiles []Profile
	byName   map[string]int
}

func NewProfileRouter(profiles []Profile) *ProfileRouter {
	r := &ProfileRouter{profiles: profiles, byName: make(map[string]int, len(profiles))}
	for i, p := range profiles {
		r.byName[p.Name] = i
	}
	return r
}

// Profiles lists the configured profiles in routing priority order.
func (r *ProfileRouter) Profiles() []Profile {
	return r.profiles
}

// Profile looks up a profile by name.
func (r *ProfileRouter) Profile(name string) (Profile, bool) {
	i, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, false
	}
	return r.profiles[i], true
}

// Resolve honours an explicit profile name and otherwise routes by keywords.
func (r *ProfileRouter) Resolve(question string, explicit *string) (RoutingResult, error) {
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		p, ok := r.Profile(*explicit)
		if !ok {
			return RoutingResult{}, fmt.Errorf("unknown profile %q (available: %s)", *explicit, strings.Join(r.names(), ", "))
		}
		return RoutingResult{Profile: p, Confidence: 1, Reasoning: "profile requested explicitly"}, nil
	}
	return r.Route(question), nil
}

// Route scores every profile's keywords against the question. Ties go to the
// profile listed first; with no match the general profile is used.
func (r *ProfileRouter) Route(question string) RoutingResult {
	lower := " " + strings.ToLower(question) + " "

	scores := make(map[string]int, len(r.profiles))
	best, bestScore, total := -1, 0, 0
	for i, p := range r.profiles {
		score := 0
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		scores[p.Name] = score
		total += score
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 {
		p, _ := r.Profile(ProfileGeneral)
		return RoutingResult{
			Profile:    p,
			Confidence: 0.5,
			Scores:     scores,
			Reasoning:  "no profile keywords, defaulting to general",
		}
	}
	return RoutingResult{
		Profile:    r.profiles[best],
		Confidence: float64(bestScore) / float64(total),
		Scores:     scores,
		Reasoning:  fmt.Sprintf("question matches %d %s keyword(s)", bestScore, r.profiles[best].Name),
	}
}

func (r *ProfileRouter) names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
