package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillsMatcher_ExactAndAliasMatches(t *testing.T) {
	tool := &SkillsMatcherTool{}

	result := tool.Execute(context.Background(), map[string]any{
		"required_skills":  []any{"JavaScript", "k8s", "Python"},
		"candidate_skills": []any{"JS", "Kubernetes", "Java"},
	})

	require.False(t, Failed(result))
	assert.ElementsMatch(t, []string{"JavaScript", "k8s"}, result["matched_required"])
	assert.ElementsMatch(t, []string{"Python"}, result["missing_required"])
	assert.InDelta(t, 66.7, result["required_match_pct"], 0.1)
}

func TestSkillsMatcher_SubstringMatches(t *testing.T) {
	tool := &SkillsMatcherTool{}

	result := tool.Execute(context.Background(), map[string]any{
		"required_skills":  []any{"python"},
		"candidate_skills": []any{"Python 3"},
	})

	assert.Len(t, result["matched_required"], 1)
	assert.Empty(t, result["missing_required"])
}

func TestSkillsMatcher_PreferredSkillsScored(t *testing.T) {
	tool := &SkillsMatcherTool{}

	result := tool.Execute(context.Background(), map[string]any{
		"required_skills":  []any{"go"},
		"candidate_skills": []any{"go", "terraform"},
		"preferred_skills": []any{"terraform", "rust"},
	})

	assert.ElementsMatch(t, []string{"terraform"}, result["matched_preferred"])
	assert.ElementsMatch(t, []string{"rust"}, result["missing_preferred"])
	assert.InDelta(t, 66.7, result["overall_match_pct"], 0.1)
	assert.InDelta(t, 100.0, result["required_match_pct"], 0.1)
}

func TestSkillsMatcher_NoSkills(t *testing.T) {
	tool := &SkillsMatcherTool{}

	result := tool.Execute(context.Background(), map[string]any{})

	require.False(t, Failed(result))
	assert.Equal(t, 0.0, result["overall_match_pct"])
}

func TestATSScorer_RequiresInput(t *testing.T) {
	tool := &ATSScorerTool{}

	result := tool.Execute(context.Background(), map[string]any{"resume_text": "text"})
	assert.True(t, Failed(result))

	result = tool.Execute(context.Background(), map[string]any{"jd_keywords": []any{"go"}})
	assert.True(t, Failed(result))
}

func TestATSScorer_StrongResume(t *testing.T) {
	tool := &ATSScorerTool{}
	resume := `Summary: Backend engineer.
Experience: built Go services with PostgreSQL and Kubernetes.
Education: BSc Computer Science.
Skills: Go, PostgreSQL, Kubernetes, Docker.
Projects: several open source tools.`

	result := tool.Execute(context.Background(), map[string]any{
		"resume_text": resume,
		"jd_keywords": []any{"go", "postgresql", "kubernetes", "docker"},
	})

	require.False(t, Failed(result))
	score, ok := result["overall_score"].(int)
	require.True(t, ok)
	assert.GreaterOrEqual(t, score, 80)
	assert.Equal(t, "STRONG", result["grade"])

	keywordAnalysis := result["keyword_analysis"].(map[string]any)
	assert.InDelta(t, 100.0, keywordAnalysis["keyword_match_rate"], 0.1)
}

func TestATSScorer_MissingKeywordsSuggested(t *testing.T) {
	tool := &ATSScorerTool{}

	result := tool.Execute(context.Background(), map[string]any{
		"resume_text": "I write software.",
		"jd_keywords": []any{"terraform", "aws"},
	})

	require.False(t, Failed(result))
	suggestions := result["suggestions"].([]string)
	require.NotEmpty(t, suggestions)
	assert.Contains(t, suggestions[0], "terraform")
	assert.Contains(t, suggestions[0], "aws")
}

func TestATSScorer_FormattingPenalties(t *testing.T) {
	tool := &ATSScorerTool{}

	result := tool.Execute(context.Background(), map[string]any{
		"resume_text": "Experience ★ built things | more | columns",
		"jd_keywords": []any{"go"},
	})

	formatting := result["formatting_analysis"].(map[string]any)
	issues := formatting["issues"].([]string)
	assert.ElementsMatch(t, []string{"tables", "special_chars"}, issues)
	assert.Equal(t, 60.0, formatting["score"])
}

func TestJDParser_RequiresSource(t *testing.T) {
	tool := &JDParserTool{}

	result := tool.Execute(context.Background(), map[string]any{})

	assert.True(t, Failed(result))
}

func TestJDParser_SplitsSectionsByHeaders(t *testing.T) {
	tool := &JDParserTool{}
	jd := `Backend Engineer at Acme.

Responsibilities:
Build APIs.
Own services end to end.

Requirements:
5 years of Go.
`

	result := tool.Execute(context.Background(), map[string]any{"source": jd})

	require.False(t, Failed(result))
	sections := result["sections"].(map[string]string)
	assert.Contains(t, sections["overview"], "Backend Engineer at Acme")
	assert.Contains(t, sections["responsibilities"], "Build APIs")
	assert.Contains(t, sections["requirements"], "5 years of Go")
}

func TestSplitSections_MarkerMode(t *testing.T) {
	text := `Jane Doe
jane@example.com

Experience
Built backend systems at Acme.

Skills
Go, PostgreSQL.`

	sections := splitSections(text, resumeSectionMarkers)

	assert.Contains(t, sections["header"], "Jane Doe")
	assert.Contains(t, sections["experience"], "Acme")
	assert.Contains(t, sections["skills"], "PostgreSQL")
}

// fakeResumeStore returns a canned resume for any user.
type fakeResumeStore struct {
	text string
	err  error
}

func (s *fakeResumeStore) ResumeText(context.Context, string) (string, error) {
	return s.text, s.err
}

func TestResumeAnalyzer_InlineText(t *testing.T) {
	tool := &ResumeAnalyzerTool{}

	result := tool.Execute(context.Background(), map[string]any{
		"resume_text": "Experience\nBuilt Go services.",
	})

	require.False(t, Failed(result))
	assert.Contains(t, result["raw_text"], "Built Go services")
}

func TestResumeAnalyzer_LoadsStoredResume(t *testing.T) {
	tool := &ResumeAnalyzerTool{
		Store:  &fakeResumeStore{text: "Skills\nGo, Postgres."},
		UserID: "user-1",
	}

	result := tool.Execute(context.Background(), map[string]any{})

	require.False(t, Failed(result))
	assert.Contains(t, result["raw_text"], "Go, Postgres")
}

func TestResumeAnalyzer_NoResumeAnywhere(t *testing.T) {
	tool := &ResumeAnalyzerTool{}
	result := tool.Execute(context.Background(), map[string]any{})
	assert.True(t, Failed(result))

	tool = &ResumeAnalyzerTool{Store: &fakeResumeStore{err: errors.New("db down")}, UserID: "user-1"}
	result = tool.Execute(context.Background(), map[string]any{})
	assert.True(t, Failed(result))
}

func TestJobSearch_RequiresKeywords(t *testing.T) {
	tool := &JobSearchTool{}

	result := tool.Execute(context.Background(), map[string]any{})

	assert.True(t, Failed(result))
	assert.Contains(t, result["error"], "keywords")
}

func TestMatchesKeywords(t *testing.T) {
	assert.True(t, matchesKeywords("Senior Go Engineer at Acme", []string{"go"}))
	assert.True(t, matchesKeywords("PYTHON developer", []string{"Python"}))
	assert.False(t, matchesKeywords("Frontend React role", []string{"go", "rust"}))
}

func TestDetectFrameworks(t *testing.T) {
	repo := githubRepo{
		Name:        "my-nextjs-shop",
		Description: "E-commerce with Prisma",
		Topics:      []string{"react", "tailwind"},
	}

	frameworks := detectFrameworks(repo)

	assert.Contains(t, frameworks, "Next.js")
	assert.Contains(t, frameworks, "Prisma")
	assert.Contains(t, frameworks, "React")
	assert.Contains(t, frameworks, "Tailwind CSS")
}
