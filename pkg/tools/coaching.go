package tools

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
)

// InterviewPrepTool generates likely interview questions for a role, grouped
// by category, with suggested talking points drawn from the candidate's
// experience.
type InterviewPrepTool struct{}

var behavioralQuestions = []string{
	"Tell me about a time you had to deliver under a tight deadline.",
	"Describe a situation where you disagreed with a technical decision. How did you handle it?",
	"Give an example of a project that failed or had major setbacks. What did you learn?",
	"How do you prioritize when you have multiple competing deadlines?",
	"Tell me about a time you had to learn a new technology quickly.",
}

var situationalQuestions = []string{
	"If you joined and found the codebase had no tests, what would you do?",
	"How would you handle a situation where a stakeholder keeps changing requirements?",
	"If you discovered a critical security vulnerability the day before launch, what would you do?",
	"How would you onboard yourself in the first 30 days at %s?",
}

func (t *InterviewPrepTool) Name() string { return "prepare_interview" }

func (t *InterviewPrepTool) Description() string {
	return "Generate interview preparation questions and talking points. " +
		"Use when user asks for help preparing for an interview, wants " +
		"practice questions, or mentions an upcoming interview. " +
		"Produces technical, behavioral, and situational questions."
}

func (t *InterviewPrepTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"role_title": map[string]any{
				"type":        "string",
				"description": "The job title",
			},
			"company_name": map[string]any{
				"type":        "string",
				"description": "The company name",
			},
			"required_skills": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Required skills from the JD",
			},
			"responsibilities": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Key responsibilities from the JD",
			},
			"candidate_experiences": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Candidate's key experiences from resume",
			},
		},
		"required": []string{"role_title", "company_name", "required_skills", "responsibilities"},
	}
}

type prepQuestion struct {
	Question      string   `json:"question"`
	Category      string   `json:"category"`
	Focus         string   `json:"focus"`
	TalkingPoints []string `json:"talking_points"`
}

func (t *InterviewPrepTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	role := argString(args, "role_title", "")
	company := argString(args, "company_name", "")
	skills := argStrings(args, "required_skills")
	responsibilities := argStrings(args, "responsibilities")
	experiences := argStrings(args, "candidate_experiences")
	if role == "" || company == "" {
		return Fail("role_title and company_name are required")
	}

	var questions []prepQuestion
	for _, skill := range capSlice(skills, 5) {
		questions = append(questions, prepQuestion{
			Question: fmt.Sprintf("Describe your experience with %s. What's the most complex project you've used it on?", skill),
			Category: "technical",
			Focus:    skill,
		})
	}
	for _, resp := range capSlice(responsibilities, 3) {
		questions = append(questions, prepQuestion{
			Question: fmt.Sprintf("How would you approach: %s?", resp),
			Category: "technical",
			Focus:    resp,
		})
	}
	for _, q := range behavioralQuestions {
		questions = append(questions, prepQuestion{Question: q, Category: "behavioral", Focus: "soft skills"})
	}
	for _, q := range situationalQuestions {
		questions = append(questions, prepQuestion{
			Question: strings.ReplaceAll(q, "%s", company),
			Category: "situational",
			Focus:    "problem solving",
		})
	}
	questions = append(questions,
		prepQuestion{Question: fmt.Sprintf("Why are you interested in the %s role at %s?", role, company), Category: "role-specific", Focus: "motivation"},
		prepQuestion{Question: fmt.Sprintf("What do you know about %s and our mission?", company), Category: "role-specific", Focus: "research"},
		prepQuestion{Question: "Where do you see yourself in 2-3 years?", Category: "role-specific", Focus: "growth"},
		prepQuestion{Question: "What's your expected compensation?", Category: "role-specific", Focus: "negotiation"},
	)

	byCategory := make(map[string][]prepQuestion)
	for i := range questions {
		questions[i].TalkingPoints = talkingPoints(questions[i], experiences)
		byCategory[questions[i].Category] = append(byCategory[questions[i].Category], questions[i])
	}

	return Ok(map[string]any{
		"total_questions":       len(questions),
		"questions_by_category": byCategory,
		"all_questions":         questions,
	})
}

func talkingPoints(q prepQuestion, experiences []string) []string {
	var points []string
	focusWords := strings.Fields(strings.ToLower(q.Focus))
	for _, exp := range experiences {
		expLower := strings.ToLower(exp)
		for _, w := range focusWords {
			if len(w) > 3 && strings.Contains(expLower, w) {
				points = append(points, "Reference: "+exp)
				break
			}
		}
	}
	if len(points) == 0 {
		points = append(points, "Prepare a specific example from your experience")
	}
	return capSlice(points, 2)
}

// MockInterviewTool runs a mock interview session: generates role-specific
// questions, or evaluates a candidate's answer against the STAR method and
// returns actionable feedback.
type MockInterviewTool struct {
	// Rand lets tests pin question selection. Nil uses the package default.
	Rand *rand.Rand
}

var mockQuestionBank = map[string]map[string][]string{
	"behavioral": {
		"easy": {
			"Tell me about a project you're proud of. What was your role and what did you accomplish?",
			"Describe a time you had to learn something new quickly. How did you approach it?",
			"Tell me about a time you received constructive feedback. How did you respond?",
		},
		"medium": {
			"Describe a situation where you had to make a difficult technical decision with incomplete information. What was the outcome?",
			"Tell me about a time you disagreed with your team lead on an approach. How did you handle it?",
			"Give me an example of a time you had to balance speed with quality. What trade-offs did you make?",
		},
		"hard": {
			"Tell me about the most complex cross-team project you've led. How did you coordinate across teams and handle conflicting priorities?",
			"Describe a situation where a project you owned was failing. What did you do to turn it around?",
			"Tell me about a time you had to push back on a product requirement you believed was wrong. What happened?",
		},
	},
	"technical": {
		"easy": {
			"What's the difference between a SQL and NoSQL database? When would you choose each?",
			"Explain the concept of version control and why it's important in software development.",
		},
		"medium": {
			"Explain how you would handle error handling and logging in a production system.",
			"Describe your approach to writing testable code. What patterns do you follow?",
		},
		"hard": {
			"How would you debug a production issue where response times have increased 10x but CPU and memory look normal?",
			"Explain the CAP theorem and how it applies to a distributed system you've worked on.",
		},
	},
	"situational": {
		"easy": {
			"If a stakeholder asked you to skip code review to meet a deadline, what would you do?",
			"Your teammate's PR has been open for 3 days. How do you approach giving feedback?",
		},
		"medium": {
			"You discover a security vulnerability in production. The fix will take 2 days but you have a demo tomorrow. What do you do?",
			"Your team is split 50/50 on a technical approach. Both have valid trade-offs. How do you move forward?",
		},
		"hard": {
			"You've been asked to rewrite a legacy system that 5 teams depend on. How do you plan and execute this?",
			"A critical service your team owns goes down at 2 AM. Walk me through your incident response.",
		},
	},
	"system_design": {
		"easy": {
			"Design a URL shortener service. What components would you need?",
			"Design a simple task management API. What endpoints and data models would you use?",
		},
		"medium": {
			"Design a real-time chat application. How would you handle message delivery, storage, and presence?",
			"Design a job queue system that handles retries, dead letters, and priority ordering.",
		},
		"hard": {
			"Design a distributed rate limiter that works across multiple data centers.",
			"Design a news feed system similar to Twitter/X that handles 100M users with real-time updates.",
		},
	},
}

var questionTips = map[string]string{
	"behavioral":    "Use the STAR method: Situation, Task, Action, Result. Be specific with numbers and outcomes.",
	"technical":     "Think out loud. Start with high-level approach, then dive into details. It's OK to say 'I'd need to research that.'",
	"situational":   "Show your decision-making process. Explain trade-offs and how you'd communicate with stakeholders.",
	"system_design": "Start with requirements and constraints. Draw the high-level architecture first, then drill into components.",
}

func (t *MockInterviewTool) Name() string { return "mock_interview" }

func (t *MockInterviewTool) Description() string {
	return "Conduct a mock interview session. Can generate interview questions " +
		"for a specific role, or evaluate a candidate's answer to a question " +
		"using the STAR method and provide detailed feedback with suggestions."
}

func (t *MockInterviewTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mode": map[string]any{
				"type":        "string",
				"description": "Mode: 'generate_question' to get a new question, 'evaluate_answer' to critique an answer",
				"enum":        []string{"generate_question", "evaluate_answer"},
			},
			"role_title": map[string]any{
				"type":        "string",
				"description": "The job title for the mock interview",
			},
			"question_type": map[string]any{
				"type":        "string",
				"description": "Type of question: 'technical', 'behavioral', 'situational', 'system_design'",
				"default":     "behavioral",
			},
			"difficulty": map[string]any{
				"type":        "string",
				"description": "Difficulty level: 'easy', 'medium', 'hard'",
				"default":     "medium",
			},
			"question": map[string]any{
				"type":        "string",
				"description": "The interview question (required for evaluate_answer mode)",
				"default":     "",
			},
			"answer": map[string]any{
				"type":        "string",
				"description": "The candidate's answer to evaluate (required for evaluate_answer mode)",
				"default":     "",
			},
		},
		"required": []string{"mode", "role_title"},
	}
}

func (t *MockInterviewTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	mode := argString(args, "mode", "")
	role := argString(args, "role_title", "")
	if role == "" {
		return Fail("role_title is required")
	}

	switch mode {
	case "generate_question":
		qType := argString(args, "question_type", "behavioral")
		difficulty := argString(args, "difficulty", "medium")

		byDifficulty, ok := mockQuestionBank[qType]
		if !ok {
			qType = "behavioral"
			byDifficulty = mockQuestionBank[qType]
		}
		qList, ok := byDifficulty[difficulty]
		if !ok {
			difficulty = "medium"
			qList = byDifficulty[difficulty]
		}

		idx := 0
		if t.Rand != nil {
			idx = t.Rand.Intn(len(qList))
		} else {
			idx = rand.Intn(len(qList))
		}

		return Ok(map[string]any{
			"mode":       "generate_question",
			"question":   qList[idx],
			"type":       qType,
			"difficulty": difficulty,
			"tip":        questionTips[qType],
		})

	case "evaluate_answer":
		question := argString(args, "question", "")
		answer := argString(args, "answer", "")
		if question == "" || answer == "" {
			return Fail("Both question and answer are required for evaluation")
		}
		result := evaluateSTAR(answer)
		result["mode"] = "evaluate_answer"
		result["question"] = question
		return Ok(result)
	}

	return Fail("Unknown mode: %s", mode)
}

var starIndicators = map[string][]string{
	"situation": {"when", "while", "during", "at my", "at the", "in my role", "project", "team"},
	"task":      {"needed to", "had to", "responsible for", "goal was", "challenge was", "tasked with", "objective"},
	"action":    {"i built", "i created", "i designed", "i led", "i implemented", "i decided", "i proposed", "i wrote", "i developed", "i analyzed"},
	"result":    {"resulted in", "led to", "improved", "reduced", "increased", "saved", "achieved", "delivered", "%", "percent"},
}

func evaluateSTAR(answer string) map[string]any {
	answerLower := strings.ToLower(answer)
	wordCount := len(strings.Fields(answer))

	scores := make(map[string]bool, 4)
	for component, indicators := range starIndicators {
		for _, ind := range indicators {
			if strings.Contains(answerLower, ind) {
				scores[component] = true
				break
			}
		}
	}

	starCount := 0
	for _, hit := range scores {
		if hit {
			starCount++
		}
	}
	score := starCount * 100 / 4

	var strengths, improvements, feedback []string
	if scores["situation"] {
		strengths = append(strengths, "Good job setting the context with a specific situation")
	} else {
		improvements = append(improvements, "Start by describing the specific situation or context: where were you, what was happening?")
	}
	if scores["task"] {
		strengths = append(strengths, "Clearly articulated the task or challenge")
	} else {
		improvements = append(improvements, "Clarify what specifically you were responsible for or what the goal was")
	}
	if scores["action"] {
		strengths = append(strengths, "Described concrete actions you personally took")
	} else {
		improvements = append(improvements, "Focus on what YOU specifically did: use 'I' instead of 'we' and name concrete actions")
	}
	if scores["result"] {
		strengths = append(strengths, "Included results or outcomes")
	} else {
		improvements = append(improvements, "Always end with measurable results: numbers, percentages, or concrete outcomes")
	}

	if wordCount < 50 {
		improvements = append(improvements, fmt.Sprintf("Your answer is quite short (%d words). Aim for 100-200 words for a complete STAR response", wordCount))
	} else if wordCount > 300 {
		improvements = append(improvements, fmt.Sprintf("Your answer is quite long (%d words). Try to be more concise, aiming for 100-200 words", wordCount))
	}

	var rating string
	switch {
	case score >= 75:
		rating = "Strong"
		feedback = append(feedback, "This is a well-structured answer that covers the key STAR components.")
	case score >= 50:
		rating = "Good"
		feedback = append(feedback, "Solid foundation but could be strengthened with more specific details.")
	default:
		rating = "Needs Work"
		feedback = append(feedback, "Focus on structuring your answer using the STAR method for a more compelling response.")
	}

	return map[string]any{
		"score":          score,
		"rating":         rating,
		"star_breakdown": scores,
		"strengths":      strengths,
		"improvements":   improvements,
		"feedback":       feedback,
		"word_count":     wordCount,
	}
}

// LearningPathTool turns skill gaps into a prioritized study plan with
// resources, hour estimates and milestones per skill.
type LearningPathTool struct{}

var learningResources = map[string]map[string][]string{
	"python": {
		"beginner":     {"Python official tutorial (docs.python.org)", "Automate the Boring Stuff (free online)"},
		"intermediate": {"Fluent Python by Luciano Ramalho", "Python Cookbook by David Beazley"},
		"advanced":     {"CPython internals", "Build projects: CLI tools, web scrapers, API servers"},
	},
	"javascript": {
		"beginner":     {"MDN JavaScript Guide", "JavaScript.info"},
		"intermediate": {"You Don't Know JS series (free on GitHub)", "Eloquent JavaScript"},
		"advanced":     {"Build a framework from scratch", "Contribute to open source JS projects"},
	},
	"react": {
		"beginner":     {"Official React docs (react.dev)", "React Tutorial for Beginners (Scrimba, free)"},
		"intermediate": {"Build 3-5 projects with hooks, context, routing", "React Patterns by Kent C. Dodds"},
		"advanced":     {"Build a component library", "Study React source code", "Performance optimization"},
	},
	"typescript": {
		"beginner":     {"TypeScript Handbook (typescriptlang.org)", "Matt Pocock's Total TypeScript (free tier)"},
		"intermediate": {"Type challenges (github.com/type-challenges)", "Migrate a JS project to TS"},
		"advanced":     {"Build generic utility types", "Advanced type inference patterns"},
	},
	"sql": {
		"beginner":     {"SQLBolt interactive tutorial", "W3Schools SQL Tutorial"},
		"intermediate": {"PostgreSQL exercises (pgexercises.com)", "Database design and normalization"},
		"advanced":     {"Query optimization and EXPLAIN plans", "Build a data pipeline"},
	},
	"docker": {
		"beginner":     {"Docker Getting Started (docs.docker.com)", "Play with Docker (online sandbox)"},
		"intermediate": {"Docker Compose multi-service apps", "Dockerfile best practices"},
		"advanced":     {"Multi-stage builds", "Container orchestration with Kubernetes"},
	},
	"kubernetes": {
		"beginner":     {"Kubernetes official tutorials", "Minikube local setup"},
		"intermediate": {"Deploy a multi-service app on K8s", "Helm charts"},
		"advanced":     {"Custom operators", "Service mesh (Istio/Linkerd)"},
	},
	"aws": {
		"beginner":     {"AWS Free Tier exploration", "AWS Cloud Practitioner path"},
		"intermediate": {"AWS Solutions Architect Associate prep", "Build serverless apps (Lambda + API Gateway)"},
		"advanced":     {"Infrastructure as Code (CDK/Terraform)", "Multi-region architectures"},
	},
	"machine learning": {
		"beginner":     {"Andrew Ng's ML Specialization (Coursera)", "Fast.ai Practical Deep Learning"},
		"intermediate": {"Kaggle competitions", "Build end-to-end ML pipeline"},
		"advanced":     {"ML system design", "MLOps and model deployment"},
	},
	"system design": {
		"beginner":     {"System Design Primer (GitHub)", "Grokking System Design (Educative)"},
		"intermediate": {"Design real systems (URL shortener, chat app, etc.)", "Read engineering blogs"},
		"advanced":     {"Distributed systems papers", "Design systems at scale"},
	},
}

var relatedSkillGroups = [][]string{
	{"python", "django", "flask", "fastapi"},
	{"javascript", "typescript", "react", "vue", "angular", "node"},
	{"java", "spring", "kotlin"},
	{"aws", "gcp", "azure", "cloud"},
	{"docker", "kubernetes", "devops"},
	{"sql", "postgresql", "mysql", "mongodb", "database"},
	{"machine learning", "deep learning", "ai", "tensorflow", "pytorch"},
}

func (t *LearningPathTool) Name() string { return "generate_learning_path" }

func (t *LearningPathTool) Description() string {
	return "Generate a structured learning path based on skill gaps. " +
		"Creates a prioritized study plan with specific resources, " +
		"estimated timeframes, and milestones for each missing skill."
}

func (t *LearningPathTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"missing_skills": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Skills the candidate needs to learn (from gap analysis)",
			},
			"current_skills": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Skills the candidate already has (for context)",
				"default":     []string{},
			},
			"target_role": map[string]any{
				"type":        "string",
				"description": "The role the candidate is targeting",
				"default":     "",
			},
			"available_hours_per_week": map[string]any{
				"type":        "integer",
				"description": "Hours per week available for learning",
				"default":     10,
			},
		},
		"required": []string{"missing_skills"},
	}
}

func startingLevel(skill string, currentSkills []string) string {
	skillLower := strings.ToLower(skill)
	current := make(map[string]bool, len(currentSkills))
	for _, s := range currentSkills {
		current[strings.ToLower(s)] = true
	}
	for _, group := range relatedSkillGroups {
		inGroup := false
		for _, g := range group {
			if g == skillLower {
				inGroup = true
				break
			}
		}
		if !inGroup {
			continue
		}
		for _, g := range group {
			if current[g] {
				return "intermediate"
			}
		}
	}
	return "beginner"
}

func skillResources(skill, level string) []string {
	skillLower := strings.ToLower(skill)
	if levels, ok := learningResources[skillLower]; ok {
		return levels[level]
	}
	for key, levels := range learningResources {
		if strings.Contains(skillLower, key) || strings.Contains(key, skillLower) {
			return levels[level]
		}
	}
	return []string{
		fmt.Sprintf("Search '%s tutorial' on YouTube or Coursera", skill),
		fmt.Sprintf("Read official %s documentation", skill),
		fmt.Sprintf("Build a small project using %s", skill),
	}
}

var (
	complexSkills = []string{
		"kubernetes", "system design", "machine learning", "deep learning",
		"distributed systems", "aws", "gcp", "azure",
	}
	moderateSkills = []string{
		"react", "typescript", "docker", "sql", "graphql", "redux",
		"python", "java", "go", "rust",
	}
)

func estimateHours(skill, level string) int {
	skillLower := strings.ToLower(skill)
	containsAny := func(list []string) bool {
		for _, s := range list {
			if strings.Contains(skillLower, s) {
				return true
			}
		}
		return false
	}

	var base map[string]int
	switch {
	case containsAny(complexSkills):
		base = map[string]int{"beginner": 80, "intermediate": 50, "advanced": 100}
	case containsAny(moderateSkills):
		base = map[string]int{"beginner": 40, "intermediate": 25, "advanced": 60}
	default:
		base = map[string]int{"beginner": 20, "intermediate": 15, "advanced": 40}
	}
	if h, ok := base[level]; ok {
		return h
	}
	return 30
}

func (t *LearningPathTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	missing := argStrings(args, "missing_skills")
	if len(missing) == 0 {
		return Fail("missing_skills are required")
	}
	current := argStrings(args, "current_skills")
	targetRole := argString(args, "target_role", "")
	hoursPerWeek := argInt(args, "available_hours_per_week", 10)
	if hoursPerWeek < 1 {
		hoursPerWeek = 1
	}

	var paths []map[string]any
	totalHours := 0
	for i, skill := range missing {
		level := startingLevel(skill, current)
		hours := estimateHours(skill, level)
		weeks := (hours + hoursPerWeek - 1) / hoursPerWeek
		if weeks < 1 {
			weeks = 1
		}
		totalHours += hours

		paths = append(paths, map[string]any{
			"priority":        i + 1,
			"skill":           skill,
			"starting_level":  level,
			"estimated_hours": hours,
			"estimated_weeks": weeks,
			"resources":       skillResources(skill, level),
			"milestones": []string{
				fmt.Sprintf("Complete introductory material for %s", skill),
				fmt.Sprintf("Build a small project using %s", skill),
				fmt.Sprintf("Apply %s in a portfolio project or contribution", skill),
			},
		})
	}

	totalWeeks := (totalHours + hoursPerWeek - 1) / hoursPerWeek
	if totalWeeks < 1 {
		totalWeeks = 1
	}

	return Ok(map[string]any{
		"target_role":           targetRole,
		"total_skills_to_learn": len(paths),
		"total_estimated_hours": totalHours,
		"total_estimated_weeks": totalWeeks,
		"hours_per_week":        hoursPerWeek,
		"learning_paths":        paths,
	})
}
