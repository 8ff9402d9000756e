package agent

import (
	"fmt"

	"github.com/kazi-ai/kazi/pkg/tools"
)

// AgentNames lists the specialized agents in their canonical order.
var AgentNames = []string{"scout", "match", "forge", "coach"}

// Deps carries the shared dependencies agent tools need. Memory tools are
// only registered when a store and user are present.
type Deps struct {
	UserID  string
	Memory  tools.MemoryStore
	Traces  tools.TraceReader
	Resumes tools.ResumeStore
}

const scoutPrompt = `You are the Scout Agent in the KaziAI career platform.
Your job is to find relevant job opportunities and research companies.

Available tools:
{tool_descriptions}

## Your workflow
1. Search for jobs using the provided keywords/skills
2. Research the companies behind the most promising results
3. Compile a report of the best matches with company context

When done, respond with FINAL_ANSWER followed by your findings in a
structured format with job listings and company insights.`

const matchPrompt = `You are the Match Agent in the KaziAI career platform.
Your job is to analyze how well a candidate matches a job.

Available tools:
{tool_descriptions}

## Your workflow
1. Parse the job description to extract requirements and keywords
2. Analyze the candidate's resume to extract their skills and experience
3. Run skills matching to find overlaps and gaps
4. Score the resume against ATS criteria
5. Compile a detailed compatibility report

## Analysis guidelines
- Be specific about which skills match and which don't
- Provide actionable suggestions for gaps
- Include the ATS score with concrete improvement steps
- Separate required vs. preferred skill gaps

When done, respond with FINAL_ANSWER followed by your analysis report.`

const forgePrompt = `You are the Forge Agent in the KaziAI career platform.
Your job is to craft compelling application materials.

Available tools:
{tool_descriptions}

## Your workflow
1. Take the job analysis results and candidate background
2. Rewrite resume bullets to align with the JD's language
3. Generate a tailored cover letter highlighting relevant strengths
4. Draft any follow-up emails the user needs
5. Provide the materials in a clean, ready-to-use format

## Writing guidelines
- Use strong action verbs (built, designed, led, optimized)
- Include quantified achievements where possible
- Mirror the JD's terminology naturally
- Never fabricate experience, only reframe what exists
- Be concise and specific, not generic

When done, respond with FINAL_ANSWER followed by the crafted materials.`

const coachPrompt = `You are the Coach Agent in the KaziAI career platform.
Your job is to prepare candidates for their interviews.

Available tools:
{tool_descriptions}

## Your workflow
1. Generate likely interview questions based on the role and company
2. Match questions to the candidate's experience for talking points
3. Identify areas where the candidate needs to prepare extra
4. Provide strategic advice for the interview

## Coaching guidelines
- Focus on the candidate's real strengths
- Be honest about gaps but frame them positively
- Suggest the STAR method for behavioral questions
- Remind them to prepare questions to ask the interviewer
- Include salary negotiation advice if relevant

When done, respond with FINAL_ANSWER followed by your prep guide.`

// Build creates a named agent with its tool registry. Memory tools are added
// for every agent when deps carry a user context.
func Build(name string, deps Deps) (*Agent, error) {
	var a *Agent
	switch name {
	case "scout":
		a = &Agent{
			Name:         "scout",
			Role:         "Job discovery and company research",
			SystemPrompt: scoutPrompt,
			Registry: tools.NewRegistry(
				&tools.JobSearchTool{},
				&tools.CompanyResearcherTool{},
				&tools.WebFetchTool{},
				&tools.GitHubAnalyzerTool{},
				&tools.SalaryResearchTool{},
			),
		}
	case "match":
		a = &Agent{
			Name:         "match",
			Role:         "Skills analysis and ATS scoring",
			SystemPrompt: matchPrompt,
			Registry: tools.NewRegistry(
				&tools.JDParserTool{},
				&tools.ResumeAnalyzerTool{Store: deps.Resumes, UserID: deps.UserID},
				&tools.SkillsMatcherTool{},
				&tools.ATSScorerTool{},
			),
		}
	case "forge":
		a = &Agent{
			Name:         "forge",
			Role:         "Application materials writing",
			SystemPrompt: forgePrompt,
			Registry: tools.NewRegistry(
				&tools.CoverLetterTool{},
				&tools.ResumeRewriterTool{},
				&tools.EmailDrafterTool{},
			),
		}
	case "coach":
		a = &Agent{
			Name:         "coach",
			Role:         "Interview preparation and coaching",
			SystemPrompt: coachPrompt,
			Registry: tools.NewRegistry(
				&tools.InterviewPrepTool{},
				&tools.MockInterviewTool{},
				&tools.LearningPathTool{},
			),
		}
	default:
		return nil, fmt.Errorf("unknown agent: %s", name)
	}

	if deps.UserID != "" && deps.Memory != nil {
		a.Registry.Register(&tools.RecallMemoryTool{Store: deps.Memory, UserID: deps.UserID})
		a.Registry.Register(&tools.StoreMemoryTool{Store: deps.Memory, UserID: deps.UserID})
		if deps.Traces != nil {
			a.Registry.Register(&tools.RecallTraceTool{Traces: deps.Traces, UserID: deps.UserID})
		}
	}
	return a, nil
}

// Known reports whether name is one of the specialized agents.
func Known(name string) bool {
	for _, n := range AgentNames {
		if n == name {
			return true
		}
	}
	return false
}
