package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Job board endpoints. Both are free APIs that need no authentication.
const (
	remoteOKURL  = "https://remoteok.com/api"
	arbeitnowURL = "https://www.arbeitnow.com/api/job-board-api"
)

// JobSearchTool searches remote tech job boards for openings matching a set
// of keywords, merging and deduplicating results across sources.
type JobSearchTool struct{}

func (t *JobSearchTool) Name() string { return "search_jobs" }

func (t *JobSearchTool) Description() string {
	return "Search for jobs matching given keywords and skills. " +
		"Use when user wants to find job openings, asks about available " +
		"positions, or wants to explore the job market. " +
		"Returns titles, companies, tags, and application URLs from multiple job boards."
}

func (t *JobSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"keywords": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Search keywords: role titles, skills, or technologies (e.g. ['python', 'backend', 'ai engineer'])",
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": "Maximum number of results to return",
				"default":     10,
			},
		},
		"required": []string{"keywords"},
	}
}

type jobPosting struct {
	Title     string   `json:"title"`
	Company   string   `json:"company"`
	Location  string   `json:"location"`
	Tags      []string `json:"tags"`
	URL       string   `json:"url"`
	Date      string   `json:"date"`
	Source    string   `json:"source"`
	SalaryMin float64  `json:"salary_min,omitempty"`
	SalaryMax float64  `json:"salary_max,omitempty"`
}

func (t *JobSearchTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	keywords := argStrings(args, "keywords")
	if len(keywords) == 0 {
		return Fail("keywords are required")
	}
	maxResults := argInt(args, "max_results", 10)

	var all []jobPosting
	all = append(all, searchRemoteOK(ctx, keywords)...)
	all = append(all, searchArbeitnow(ctx, keywords)...)

	// Dedupe by title + company across sources.
	seen := make(map[string]bool)
	var unique []jobPosting
	for _, job := range all {
		key := strings.ToLower(job.Title) + "|" + strings.ToLower(job.Company)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, job)
		}
	}

	results := unique
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	return Ok(map[string]any{
		"total_found":      len(unique),
		"returned":         len(results),
		"jobs":             results,
		"sources_searched": []string{"remoteok", "arbeitnow"},
	})
}

func matchesKeywords(searchable string, keywords []string) bool {
	searchable = strings.ToLower(searchable)
	for _, kw := range keywords {
		if strings.Contains(searchable, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func searchRemoteOK(ctx context.Context, keywords []string) []jobPosting {
	var data []map[string]any
	headers := map[string]string{"User-Agent": userAgent}
	if err := getJSON(ctx, remoteOKURL, nil, headers, &data); err != nil {
		return nil
	}
	// First element is API metadata.
	if len(data) < 2 {
		return nil
	}

	var matched []jobPosting
	for _, job := range data[1:] {
		position, _ := job["position"].(string)
		company, _ := job["company"].(string)
		description, _ := job["description"].(string)
		tags := anyStrings(job["tags"])

		searchable := position + " " + strings.Join(tags, " ") + " " + company + " " + description
		if !matchesKeywords(searchable, keywords) {
			continue
		}

		p := jobPosting{
			Title:    position,
			Company:  company,
			Location: "Remote",
			Tags:     tags,
			Source:   "RemoteOK",
		}
		p.URL, _ = job["url"].(string)
		p.Date, _ = job["date"].(string)
		p.SalaryMin, _ = job["salary_min"].(float64)
		p.SalaryMax, _ = job["salary_max"].(float64)
		matched = append(matched, p)
	}
	return matched
}

func searchArbeitnow(ctx context.Context, keywords []string) []jobPosting {
	var data struct {
		Data []map[string]any `json:"data"`
	}
	params := url.Values{"search": {strings.Join(keywords, "+")}}
	if err := getJSON(ctx, arbeitnowURL, params, nil, &data); err != nil {
		return nil
	}

	var matched []jobPosting
	for _, job := range data.Data {
		title, _ := job["title"].(string)
		description, _ := job["description"].(string)
		tags := anyStrings(job["tags"])

		searchable := title + " " + strings.Join(tags, " ") + " " + description
		if !matchesKeywords(searchable, keywords) {
			continue
		}

		p := jobPosting{
			Title:  title,
			Tags:   tags,
			Source: "Arbeitnow",
		}
		p.Company, _ = job["company_name"].(string)
		p.Location, _ = job["location"].(string)
		p.URL, _ = job["url"].(string)
		p.Date, _ = job["created_at"].(string)
		matched = append(matched, p)
	}
	return matched
}

func anyStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// WebFetchTool fetches and reads content from any URL the user shares:
// job postings, portfolios, articles, company pages.
type WebFetchTool struct{}

func (t *WebFetchTool) Name() string { return "fetch_url" }

func (t *WebFetchTool) Description() string {
	return "Fetch and read content from any URL the user shares. " +
		"Use this when the user pastes a link to a job posting, " +
		"article, portfolio, company page, or any other webpage. " +
		"Returns the page title, description, and main text content."
}

func (t *WebFetchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The full URL to fetch (must start with http:// or https://)",
			},
		},
		"required": []string{"url"},
	}
}

func (t *WebFetchTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	raw := argString(args, "url", "")
	if raw == "" {
		return Fail("url is required")
	}
	u := normalizeURL(raw)

	p, err := fetchPage(ctx, u, 6000)
	if err != nil {
		return Fail("Could not fetch content from: %s", u)
	}

	return Ok(map[string]any{
		"url":         u,
		"title":       p.Title,
		"description": p.Description,
		"content":     p.Content,
	})
}

// GitHubAnalyzerTool scans a GitHub profile's public repos to extract
// demonstrable skills: languages, frameworks, and project activity. Uses the
// public GitHub API, no auth required.
type GitHubAnalyzerTool struct{}

// Repo topic and name fragments mapped to framework names.
var frameworkIndicators = map[string]string{
	"react":      "React",
	"next":       "Next.js",
	"vue":        "Vue.js",
	"angular":    "Angular",
	"svelte":     "Svelte",
	"django":     "Django",
	"flask":      "Flask",
	"fastapi":    "FastAPI",
	"express":    "Express.js",
	"nestjs":     "NestJS",
	"spring":     "Spring Boot",
	"rails":      "Ruby on Rails",
	"laravel":    "Laravel",
	"tensorflow": "TensorFlow",
	"pytorch":    "PyTorch",
	"langchain":  "LangChain",
	"docker":     "Docker",
	"kubernetes": "Kubernetes",
	"terraform":  "Terraform",
	"prisma":     "Prisma",
	"tailwind":   "Tailwind CSS",
	"graphql":    "GraphQL",
}

func (t *GitHubAnalyzerTool) Name() string { return "analyze_github" }

func (t *GitHubAnalyzerTool) Description() string {
	return "Analyze a GitHub profile to extract demonstrable skills. " +
		"Scans public repositories to identify programming languages, " +
		"frameworks, contribution activity, and project complexity. " +
		"Useful for strengthening a resume with verified technical skills."
}

func (t *GitHubAnalyzerTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"username": map[string]any{
				"type":        "string",
				"description": "GitHub username to analyze",
			},
			"max_repos": map[string]any{
				"type":        "integer",
				"description": "Maximum number of repos to analyze",
				"default":     20,
			},
		},
		"required": []string{"username"},
	}
}

type githubRepo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Fork        bool     `json:"fork"`
	Topics      []string `json:"topics"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	UpdatedAt   string   `json:"updated_at"`
}

type repoSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Languages   []string `json:"languages"`
	Frameworks  []string `json:"frameworks"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Updated     string   `json:"updated"`
}

func (t *GitHubAnalyzerTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	username := argString(args, "username", "")
	if username == "" {
		return Fail("username is required")
	}
	maxRepos := argInt(args, "max_repos", 20)
	if maxRepos > 100 {
		maxRepos = 100
	}

	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	params := url.Values{
		"sort":      {"updated"},
		"direction": {"desc"},
		"per_page":  {fmt.Sprint(maxRepos)},
		"type":      {"owner"},
	}
	var repos []githubRepo
	reposURL := fmt.Sprintf("https://api.github.com/users/%s/repos", username)
	if err := getJSON(ctx, reposURL, params, headers, &repos); err != nil || len(repos) == 0 {
		return Fail("Could not fetch repos for '%s'. Check if the username exists and has public repos.", username)
	}

	langBytes := make(map[string]int)
	frameworkSet := make(map[string]bool)
	var summaries []repoSummary
	totalStars, totalForks := 0, 0

	for _, repo := range repos {
		if repo.Fork {
			continue
		}

		var languages map[string]int
		langURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/languages", username, repo.Name)
		if err := getJSON(ctx, langURL, nil, headers, &languages); err != nil {
			languages = nil
		}
		langNames := make([]string, 0, len(languages))
		for lang, count := range languages {
			langBytes[lang] += count
			langNames = append(langNames, lang)
		}

		frameworks := detectFrameworks(repo)
		for _, fw := range frameworks {
			frameworkSet[fw] = true
		}

		totalStars += repo.Stars
		totalForks += repo.Forks

		desc := repo.Description
		if desc == "" {
			desc = "No description"
		}
		summaries = append(summaries, repoSummary{
			Name:        repo.Name,
			Description: desc,
			Languages:   langNames,
			Frameworks:  frameworks,
			Stars:       repo.Stars,
			Forks:       repo.Forks,
			Updated:     repo.UpdatedAt,
		})
	}

	return Ok(map[string]any{
		"username":            username,
		"total_repos":         len(summaries),
		"total_stars":         totalStars,
		"total_forks":         totalForks,
		"primary_languages":   languageBreakdown(langBytes),
		"frameworks_detected": sortedKeys(frameworkSet),
		"top_repos":           topByStars(summaries, 5),
		"all_repos":           summaries,
	})
}

func detectFrameworks(repo githubRepo) []string {
	searchable := strings.ToLower(repo.Name + " " + repo.Description + " " + strings.Join(repo.Topics, " "))
	var out []string
	for indicator, framework := range frameworkIndicators {
		if strings.Contains(searchable, indicator) {
			out = append(out, framework)
		}
	}
	return out
}

func languageBreakdown(langBytes map[string]int) []map[string]any {
	type langCount struct {
		lang  string
		bytes int
	}
	var counts []langCount
	total := 0
	for lang, b := range langBytes {
		counts = append(counts, langCount{lang, b})
		total += b
	}
	sortSlice(counts, func(a, b langCount) bool { return a.bytes > b.bytes })
	if len(counts) > 10 {
		counts = counts[:10]
	}
	out := make([]map[string]any, 0, len(counts))
	for _, c := range counts {
		pct := 0.0
		if total > 0 {
			pct = float64(c.bytes) / float64(total) * 100
		}
		out = append(out, map[string]any{
			"language":   c.lang,
			"percentage": round1(pct),
		})
	}
	return out
}

func topByStars(summaries []repoSummary, n int) []repoSummary {
	sorted := make([]repoSummary, len(summaries))
	copy(sorted, summaries)
	sortSlice(sorted, func(a, b repoSummary) bool { return a.Stars > b.Stars })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
