package tools

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// CompanyResearcherTool fetches public information about a company from its
// website, so the candidate can prepare before an interview.
type CompanyResearcherTool struct{}

func (t *CompanyResearcherTool) Name() string { return "research_company" }

func (t *CompanyResearcherTool) Description() string {
	return "Research a company by fetching its website content. " +
		"Provide a company name or URL to get an overview of " +
		"what the company does, its mission, and key details."
}

func (t *CompanyResearcherTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Company name or website URL to research",
			},
		},
		"required": []string{"query"},
	}
}

// companyURL turns a company name or URL into a fetchable URL.
func companyURL(query string) string {
	if strings.HasPrefix(query, "http://") || strings.HasPrefix(query, "https://") {
		return query
	}
	clean := strings.ToLower(query)
	for _, drop := range []string{" ", ",", "."} {
		clean = strings.ReplaceAll(clean, drop, "")
	}
	return "https://www." + clean + ".com"
}

func (t *CompanyResearcherTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	query := argString(args, "query", "")
	if query == "" {
		return Fail("query is required")
	}

	u := companyURL(query)
	p, err := fetchPage(ctx, u, 5000)
	if err != nil && !strings.HasPrefix(query, "http") {
		// URL construction from the name failed; try the query as a host.
		p, err = fetchPage(ctx, "https://"+query, 5000)
	}
	if err != nil {
		return map[string]any{
			"success":       false,
			"error":         fmt.Sprintf("Could not fetch company information for: %s", query),
			"attempted_url": u,
		}
	}

	content := fmt.Sprintf("Title: %s\nDescription: %s\n\n%s", p.Title, p.Description, p.Content)
	return Ok(map[string]any{
		"url":     u,
		"content": content,
	})
}

// SalaryResearchTool estimates market compensation for a role by aggregating
// salary data from job postings that disclose it.
type SalaryResearchTool struct{}

// Experience level multipliers applied to the aggregated market averages.
var experienceMultipliers = map[string]float64{
	"junior": 0.75,
	"mid":    1.0,
	"senior": 1.25,
	"lead":   1.45,
}

func (t *SalaryResearchTool) Name() string { return "research_salary" }

func (t *SalaryResearchTool) Description() string {
	return "Research market salary data for a specific role, location, and " +
		"experience level. Pulls from job boards with salary information " +
		"to estimate competitive compensation ranges."
}

func (t *SalaryResearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"role_title": map[string]any{
				"type":        "string",
				"description": "The job title to research (e.g., 'Senior Backend Engineer')",
			},
			"location": map[string]any{
				"type":        "string",
				"description": "Target location or 'remote' (e.g., 'San Francisco', 'remote')",
				"default":     "remote",
			},
			"experience_level": map[string]any{
				"type":        "string",
				"description": "Experience level: junior, mid, senior, lead",
				"default":     "mid",
			},
		},
		"required": []string{"role_title"},
	}
}

func (t *SalaryResearchTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	role := argString(args, "role_title", "")
	if role == "" {
		return Fail("role_title is required")
	}
	location := argString(args, "location", "remote")
	experience := argString(args, "experience_level", "mid")

	var keywords []string
	for _, w := range strings.Fields(role) {
		if len(w) > 2 {
			keywords = append(keywords, w)
		}
	}

	postings := salaryPostings(ctx, keywords)

	var withSalary []jobPosting
	for _, p := range postings {
		if p.SalaryMin > 0 || p.SalaryMax > 0 {
			withSalary = append(withSalary, p)
		}
	}

	samples := make([]map[string]any, 0, 10)
	for _, p := range capPostings(postings, 10) {
		rangeText := "Salary not disclosed"
		if p.SalaryMin > 0 && p.SalaryMax > 0 {
			rangeText = fmt.Sprintf("$%.0f - $%.0f", p.SalaryMin, p.SalaryMax)
		}
		samples = append(samples, map[string]any{
			"title":        p.Title,
			"company":      p.Company,
			"salary_range": rangeText,
			"location":     p.Location,
		})
	}

	return Ok(map[string]any{
		"role":                 role,
		"location":             location,
		"experience_level":     experience,
		"estimate":             estimateSalaryRange(withSalary, experience),
		"sample_postings":      samples,
		"total_postings_found": len(postings),
		"postings_with_salary": len(withSalary),
	})
}

func capPostings(s []jobPosting, n int) []jobPosting {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// salaryPostings gathers matching postings from the job boards, keeping
// RemoteOK first since it is the source that discloses salaries.
func salaryPostings(ctx context.Context, keywords []string) []jobPosting {
	var out []jobPosting
	out = append(out, searchRemoteOK(ctx, keywords)...)
	out = append(out, searchArbeitnow(ctx, keywords)...)
	return out
}

func estimateSalaryRange(withSalary []jobPosting, experience string) map[string]any {
	var mins, maxs []float64
	for _, p := range withSalary {
		if p.SalaryMin > 0 {
			mins = append(mins, p.SalaryMin)
		}
		if p.SalaryMax > 0 {
			maxs = append(maxs, p.SalaryMax)
		}
	}
	if len(mins) == 0 && len(maxs) == 0 {
		return map[string]any{
			"estimated_min": nil,
			"estimated_max": nil,
			"data_points":   0,
			"confidence":    "low",
		}
	}

	mult, ok := experienceMultipliers[experience]
	if !ok {
		mult = 1.0
	}

	avgMin := mean(mins)
	if len(mins) == 0 {
		avgMin = minOf(maxs)
	}
	avgMax := mean(maxs)
	if len(maxs) == 0 {
		avgMax = maxOf(mins)
	}

	// Round to the nearest thousand.
	estMin := math.Round(avgMin*mult/1000) * 1000
	estMax := math.Round(avgMax*mult/1000) * 1000

	points := len(withSalary)
	confidence := "low"
	if points >= 10 {
		confidence = "high"
	} else if points >= 3 {
		confidence = "medium"
	}

	return map[string]any{
		"estimated_min": estMin,
		"estimated_max": estMax,
		"data_points":   points,
		"confidence":    confidence,
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func minOf(vals []float64) float64 {
	out := vals[0]
	for _, v := range vals[1:] {
		if v < out {
			out = v
		}
	}
	return out
}

func maxOf(vals []float64) float64 {
	out := vals[0]
	for _, v := range vals[1:] {
		if v > out {
			out = v
		}
	}
	return out
}
