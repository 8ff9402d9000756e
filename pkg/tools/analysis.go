package tools

import (
	"context"
	"regexp"
	"strings"
)

// JDParserTool extracts structured content from a job description given as
// raw text or a URL: the cleaned text plus sections keyed by their headers.
type JDParserTool struct{}

func (t *JDParserTool) Name() string { return "parse_job_description" }

func (t *JDParserTool) Description() string {
	return "Parse a job description from text or URL. Extracts role title, " +
		"company name, required skills, preferred skills, experience level, " +
		"responsibilities, and important keywords."
}

func (t *JDParserTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"source": map[string]any{
				"type":        "string",
				"description": "The job description text or a URL to fetch it from",
			},
			"is_url": map[string]any{
				"type":        "boolean",
				"description": "Whether the source is a URL to fetch",
				"default":     false,
			},
		},
		"required": []string{"source"},
	}
}

func (t *JDParserTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	source := argString(args, "source", "")
	if source == "" {
		return Fail("source is required")
	}

	text := source
	if argBool(args, "is_url", false) {
		p, err := fetchPage(ctx, normalizeURL(source), 8000)
		if err != nil {
			return Fail("Failed to fetch URL: %v", err)
		}
		text = p.Content
	}

	return Ok(map[string]any{
		"raw_text":   truncate(text, 4000),
		"sections":   splitSections(text, nil),
		"char_count": len(text),
	})
}

// splitSections splits text into sections keyed by header lines. A line is a
// header when it ends with a colon and is short, or when markers is non-nil
// and the lowercased line matches a marker.
func splitSections(text string, markers []string) map[string]string {
	markerSet := make(map[string]bool, len(markers))
	for _, m := range markers {
		markerSet[m] = true
	}

	sections := make(map[string]string)
	current := "overview"
	if markers != nil {
		current = "header"
	}
	var lines []string

	flush := func() {
		if len(lines) > 0 {
			sections[current] = strings.TrimSpace(strings.Join(lines, "\n"))
			lines = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		clean := strings.ToLower(strings.TrimRight(stripped, ": "))

		isHeader := false
		if markers != nil {
			isHeader = markerSet[clean]
		} else {
			isHeader = stripped != "" && len(stripped) < 80 && strings.HasSuffix(stripped, ":")
		}

		if isHeader {
			flush()
			current = clean
		} else {
			lines = append(lines, line)
		}
	}
	flush()
	return sections
}

// resumeSectionMarkers are the headers ResumeAnalyzerTool recognizes.
var resumeSectionMarkers = []string{
	"experience", "education", "skills", "projects",
	"certifications", "summary", "objective", "awards",
	"publications", "languages", "technical skills",
	"work experience", "professional experience",
}

// ResumeStore loads the user's stored resume text.
type ResumeStore interface {
	ResumeText(ctx context.Context, userID string) (string, error)
}

// ResumeAnalyzerTool reads the user's resume and structures its content so
// the agent can compare it against job requirements. The resume can be
// passed inline or loaded from the user's stored profile.
type ResumeAnalyzerTool struct {
	Store  ResumeStore
	UserID string
}

func (t *ResumeAnalyzerTool) Name() string { return "analyze_resume" }

func (t *ResumeAnalyzerTool) Description() string {
	return "Read the user's resume and extract its content for analysis. " +
		"Pass resume_text directly, or omit it to load the user's stored resume. " +
		"Returns the structured text content of the resume."
}

func (t *ResumeAnalyzerTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"resume_text": map[string]any{
				"type":        "string",
				"description": "The resume text to analyze. Omit to use the user's stored resume.",
			},
		},
		"required": []string{},
	}
}

func (t *ResumeAnalyzerTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	text := argString(args, "resume_text", "")
	if text == "" {
		if t.Store == nil || t.UserID == "" {
			return Fail("no resume text provided and no stored resume available")
		}
		stored, err := t.Store.ResumeText(ctx, t.UserID)
		if err != nil || strings.TrimSpace(stored) == "" {
			return Fail("no stored resume found for this user")
		}
		text = stored
	}

	if strings.TrimSpace(text) == "" {
		return Fail("resume is empty")
	}

	return Ok(map[string]any{
		"raw_text":   truncate(text, 4000),
		"sections":   splitSections(text, resumeSectionMarkers),
		"char_count": len(text),
	})
}

// Common aliases so "JS" matches "JavaScript", etc.
var skillAliases = map[string]string{
	"js":       "javascript",
	"ts":       "typescript",
	"py":       "python",
	"postgres": "postgresql",
	"k8s":      "kubernetes",
	"ml":       "machine learning",
	"ai":       "artificial intelligence",
	"react.js": "react",
	"node.js":  "node",
	"nodejs":   "node",
	"nextjs":   "next.js",
	"aws":      "amazon web services",
	"gcp":      "google cloud platform",
	"ci/cd":    "ci cd",
}

// SkillsMatcherTool compares required and preferred skills from a job
// description against a candidate's skills, tolerating naming variations.
type SkillsMatcherTool struct{}

func (t *SkillsMatcherTool) Name() string { return "match_skills" }

func (t *SkillsMatcherTool) Description() string {
	return "Compare required skills from a job description against skills " +
		"found in a resume. Returns matched skills, missing skills, " +
		"and a match score."
}

func (t *SkillsMatcherTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"required_skills": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Skills required by the job description",
			},
			"candidate_skills": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Skills the candidate has from their resume",
			},
			"preferred_skills": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Nice-to-have skills from the job description",
				"default":     []string{},
			},
		},
		"required": []string{"required_skills", "candidate_skills"},
	}
}

func normalizeSkill(skill string) string {
	lowered := strings.ToLower(strings.TrimSpace(skill))
	if alias, ok := skillAliases[lowered]; ok {
		return alias
	}
	return lowered
}

// skillMatches accepts exact and substring matches after normalization, so
// "python" matches "python 3".
func skillMatches(skill string, candidates []string) bool {
	normalized := normalizeSkill(skill)
	for _, c := range candidates {
		cn := normalizeSkill(c)
		if normalized == cn || strings.Contains(cn, normalized) || strings.Contains(normalized, cn) {
			return true
		}
	}
	return false
}

func (t *SkillsMatcherTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	required := argStrings(args, "required_skills")
	candidate := argStrings(args, "candidate_skills")
	preferred := argStrings(args, "preferred_skills")

	var matchedReq, missingReq []string
	for _, skill := range required {
		if skillMatches(skill, candidate) {
			matchedReq = append(matchedReq, skill)
		} else {
			missingReq = append(missingReq, skill)
		}
	}

	var matchedPref, missingPref []string
	for _, skill := range preferred {
		if skillMatches(skill, candidate) {
			matchedPref = append(matchedPref, skill)
		} else {
			missingPref = append(missingPref, skill)
		}
	}

	total := len(required) + len(preferred)
	matchScore := 0.0
	if total > 0 {
		matchScore = round1(float64(len(matchedReq)+len(matchedPref)) / float64(total) * 100)
	}
	requiredScore := 0.0
	if len(required) > 0 {
		requiredScore = round1(float64(len(matchedReq)) / float64(len(required)) * 100)
	}

	return Ok(map[string]any{
		"matched_required":   matchedReq,
		"missing_required":   missingReq,
		"matched_preferred":  matchedPref,
		"missing_preferred":  missingPref,
		"required_match_pct": requiredScore,
		"overall_match_pct":  matchScore,
	})
}

// ATSScorerTool evaluates a resume the way applicant tracking software would:
// keyword match rate, section completeness, formatting quality, and an
// overall compatibility score with suggestions.
type ATSScorerTool struct{}

// Sections ATS systems expect to find.
var atsExpectedSections = []string{
	"summary", "objective", "experience", "education",
	"skills", "technical skills", "projects",
}

// Formatting patterns ATS parsers choke on.
var atsFormattingPenalties = map[string]*regexp.Regexp{
	"tables":        regexp.MustCompile(`[|┌┐└┘├┤┬┴┼─│]`),
	"special_chars": regexp.MustCompile(`[★●◆►▪]`),
}

func (t *ATSScorerTool) Name() string { return "score_ats" }

func (t *ATSScorerTool) Description() string {
	return "Score a resume against ATS (Applicant Tracking System) criteria. " +
		"Checks keyword match rate against a job description, section " +
		"completeness, formatting quality, and returns an overall ATS " +
		"compatibility score with specific improvement suggestions."
}

func (t *ATSScorerTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"resume_text": map[string]any{
				"type":        "string",
				"description": "The full text of the resume",
			},
			"jd_keywords": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Keywords extracted from the job description",
			},
			"required_skills": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Required skills from the job description",
				"default":     []string{},
			},
		},
		"required": []string{"resume_text", "jd_keywords"},
	}
}

func (t *ATSScorerTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	resume := argString(args, "resume_text", "")
	keywords := argStrings(args, "jd_keywords")
	if resume == "" || len(keywords) == 0 {
		return Fail("resume_text and jd_keywords are required")
	}

	resumeLower := strings.ToLower(resume)

	var found, missing []string
	for _, kw := range keywords {
		if strings.Contains(resumeLower, strings.ToLower(kw)) {
			found = append(found, kw)
		} else {
			missing = append(missing, kw)
		}
	}
	matchRate := round1(float64(len(found)) / float64(len(keywords)) * 100)

	var foundSections, missingSections []string
	for _, section := range atsExpectedSections {
		if strings.Contains(resumeLower, section) {
			foundSections = append(foundSections, section)
		} else {
			missingSections = append(missingSections, section)
		}
	}
	sectionRate := float64(len(foundSections)) / float64(len(atsExpectedSections)) * 100

	var formattingIssues []string
	for issue, re := range atsFormattingPenalties {
		if re.MatchString(resume) {
			formattingIssues = append(formattingIssues, issue)
		}
	}
	formattingScore := 100.0 - float64(len(formattingIssues))*20

	// Keywords dominate because ATS filters are keyword filters.
	overall := int(matchRate*0.5 + sectionRate*0.3 + formattingScore*0.2)

	var grade string
	switch {
	case overall >= 80:
		grade = "STRONG"
	case overall >= 60:
		grade = "MODERATE"
	case overall >= 40:
		grade = "NEEDS WORK"
	default:
		grade = "HIGH RISK"
	}

	var suggestions []string
	if len(missing) > 0 {
		limit := len(missing)
		if limit > 8 {
			limit = 8
		}
		suggestions = append(suggestions, "Add missing keywords where truthful: "+strings.Join(missing[:limit], ", "))
	}
	for _, section := range missingSections {
		if section == "objective" || section == "technical skills" {
			continue
		}
		suggestions = append(suggestions, "Add a '"+section+"' section")
	}
	for _, issue := range formattingIssues {
		suggestions = append(suggestions, "Remove "+strings.ReplaceAll(issue, "_", " ")+"; ATS parsers misread them")
	}

	return Ok(map[string]any{
		"overall_score": overall,
		"grade":         grade,
		"keyword_analysis": map[string]any{
			"found_keywords":     found,
			"missing_keywords":   missing,
			"keyword_match_rate": matchRate,
		},
		"section_analysis": map[string]any{
			"found_sections":   foundSections,
			"missing_sections": missingSections,
		},
		"formatting_analysis": map[string]any{
			"issues": formattingIssues,
			"score":  formattingScore,
		},
		"suggestions": suggestions,
	})
}
