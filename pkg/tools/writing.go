package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// CoverLetterTool produces a structured cover letter from job analysis
// results. The agent's reasoning supplies the inputs; this tool assembles
// them into a coherent letter without fabricating experience.
type CoverLetterTool struct{}

func (t *CoverLetterTool) Name() string { return "generate_cover_letter" }

func (t *CoverLetterTool) Description() string {
	return "Generate a tailored cover letter framework based on job analysis results. " +
		"Takes matched skills, missing skills, company context, and candidate " +
		"background to produce a structured cover letter."
}

func (t *CoverLetterTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"candidate_name": map[string]any{
				"type":        "string",
				"description": "The candidate's full name",
			},
			"company_name": map[string]any{
				"type":        "string",
				"description": "The company being applied to",
			},
			"role_title": map[string]any{
				"type":        "string",
				"description": "The job title being applied for",
			},
			"matched_skills": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Skills that match the job requirements",
			},
			"missing_skills": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Required skills the candidate lacks",
			},
			"key_experiences": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Relevant experiences to highlight",
			},
			"company_context": map[string]any{
				"type":        "string",
				"description": "Brief context about the company",
				"default":     "",
			},
		},
		"required": []string{
			"candidate_name", "company_name", "role_title",
			"matched_skills", "missing_skills", "key_experiences",
		},
	}
}

func (t *CoverLetterTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	name := argString(args, "candidate_name", "")
	company := argString(args, "company_name", "")
	role := argString(args, "role_title", "")
	if name == "" || company == "" || role == "" {
		return Fail("candidate_name, company_name and role_title are required")
	}
	matched := argStrings(args, "matched_skills")
	missing := argStrings(args, "missing_skills")
	experiences := argStrings(args, "key_experiences")
	companyCtx := argString(args, "company_context", "")

	var strengths []string
	for _, skill := range capSlice(matched, 5) {
		strengths = append(strengths, "Demonstrated proficiency in "+skill)
	}
	var growth []string
	for _, skill := range capSlice(missing, 3) {
		growth = append(growth, "Eager to deepen expertise in "+skill+", building on a strong foundation in related areas")
	}

	opening := fmt.Sprintf(
		"Dear Hiring Manager,\n\nI am writing to express my interest in the %s position at %s.",
		role, company)

	connection := fmt.Sprintf("I am excited about the opportunity to contribute to %s's mission.", company)
	if companyCtx != "" {
		connection = fmt.Sprintf("What draws me to %s is %s", company, companyCtx)
	}

	sections := []string{
		opening,
		connection,
		"My background aligns well with this role:\n" + bulletList(strengths),
		"Key experiences I would bring:\n" + bulletList(capSlice(experiences, 4)),
	}
	if len(growth) > 0 {
		sections = append(sections, "Areas where I am actively growing:\n"+bulletList(growth))
	}
	sections = append(sections, fmt.Sprintf(
		"\nI would welcome the opportunity to discuss how my skills "+
			"and experience can contribute to your team.\n\nBest regards,\n%s", name))

	return Ok(map[string]any{
		"cover_letter": strings.Join(sections, "\n\n"),
		"stats": map[string]any{
			"strengths_highlighted": len(strengths),
			"gaps_addressed":        len(growth),
			"experiences_included":  len(capSlice(experiences, 4)),
		},
	})
}

func bulletList(items []string) string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = "  - " + item
	}
	return strings.Join(out, "\n")
}

func capSlice(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// ResumeRewriterTool reframes existing resume bullets toward a target job
// description's language. It suggests, never fabricates.
type ResumeRewriterTool struct{}

var (
	weakPhrases = []string{
		"responsible for", "helped with", "worked on",
		"assisted in", "involved in", "participated in",
	}
	digitRe = regexp.MustCompile(`\d`)
)

func (t *ResumeRewriterTool) Name() string { return "rewrite_resume" }

func (t *ResumeRewriterTool) Description() string {
	return "Rewrite resume bullet points to better match a job description. " +
		"Takes the candidate's experience and the target JD keywords, " +
		"then produces reframed bullets that emphasize relevant skills " +
		"and use the JD's language. Does not fabricate experience."
}

func (t *ResumeRewriterTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"experience_bullets": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Original resume bullet points to rewrite",
			},
			"target_keywords": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Keywords from the target job description",
			},
			"role_title": map[string]any{
				"type":        "string",
				"description": "The job title being applied for",
			},
			"candidate_skills": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Skills the candidate actually has",
			},
		},
		"required": []string{
			"experience_bullets", "target_keywords", "role_title", "candidate_skills",
		},
	}
}

func relevantKeywords(bullet string, keywords []string) []string {
	bulletLower := strings.ToLower(bullet)
	var relevant []string
	for _, kw := range keywords {
		kwLower := strings.ToLower(kw)
		if strings.Contains(bulletLower, kwLower) {
			relevant = append(relevant, kw)
			continue
		}
		for _, w := range strings.Fields(kwLower) {
			if len(w) > 3 && strings.Contains(bulletLower, w) {
				relevant = append(relevant, kw)
				break
			}
		}
	}
	return relevant
}

func (t *ResumeRewriterTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	bullets := argStrings(args, "experience_bullets")
	keywords := argStrings(args, "target_keywords")
	role := argString(args, "role_title", "")
	if len(bullets) == 0 {
		return Fail("experience_bullets are required")
	}

	covered := make(map[string]bool)
	var rewritten []map[string]any
	for _, bullet := range bullets {
		relevant := relevantKeywords(bullet, keywords)
		bulletLower := strings.ToLower(bullet)

		var toAdd []string
		for _, kw := range relevant {
			covered[strings.ToLower(kw)] = true
			if !strings.Contains(bulletLower, strings.ToLower(kw)) {
				toAdd = append(toAdd, kw)
			}
		}

		var suggestions []string
		if len(toAdd) > 0 {
			suggestions = append(suggestions, "Incorporate keywords: "+strings.Join(toAdd, ", "))
		}
		for _, phrase := range weakPhrases {
			if strings.Contains(bulletLower, phrase) {
				suggestions = append(suggestions, fmt.Sprintf(
					"Replace '%s' with a strong action verb (built, designed, implemented, led, optimized)", phrase))
			}
		}
		if !digitRe.MatchString(bullet) {
			suggestions = append(suggestions,
				"Add quantified impact (e.g., 'processing 100k+ records', 'reduced load time by 40%')")
		}

		rewritten = append(rewritten, map[string]any{
			"original":                bullet,
			"relevant_keywords":       relevant,
			"suggestions":             suggestions,
			"keywords_to_incorporate": toAdd,
		})
	}

	var uncovered []string
	for _, kw := range keywords {
		if !covered[strings.ToLower(kw)] {
			uncovered = append(uncovered, kw)
		}
	}
	coverage := 0.0
	if len(keywords) > 0 {
		coverage = round1(float64(len(keywords)-len(uncovered)) / float64(len(keywords)) * 100)
	}

	return Ok(map[string]any{
		"target_role":        role,
		"rewritten_bullets":  rewritten,
		"uncovered_keywords": uncovered,
		"coverage_rate":      coverage,
	})
}

// EmailDrafterTool writes professional emails for the application process:
// thank-you notes, follow-ups, salary negotiation, and withdrawal.
type EmailDrafterTool struct{}

func (t *EmailDrafterTool) Name() string { return "draft_email" }

func (t *EmailDrafterTool) Description() string {
	return "Draft a professional follow-up email for the job application process. " +
		"Supports thank-you emails after interviews, follow-up emails for " +
		"pending decisions, and salary negotiation emails. Tailored to the " +
		"role, company, and specific conversation points."
}

func (t *EmailDrafterTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"email_type": map[string]any{
				"type":        "string",
				"description": "Type of email: 'thank_you', 'follow_up', 'negotiation', 'withdrawal'",
				"enum":        []string{"thank_you", "follow_up", "negotiation", "withdrawal"},
			},
			"role_title": map[string]any{
				"type":        "string",
				"description": "The job title being applied for",
			},
			"company_name": map[string]any{
				"type":        "string",
				"description": "The company name",
			},
			"interviewer_name": map[string]any{
				"type":        "string",
				"description": "Name of the interviewer or hiring manager",
				"default":     "",
			},
			"key_points": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Key discussion points or topics to reference",
				"default":     []string{},
			},
			"additional_context": map[string]any{
				"type":        "string",
				"description": "Any additional context (e.g., salary offer amount for negotiation)",
				"default":     "",
			},
		},
		"required": []string{"email_type", "role_title", "company_name"},
	}
}

func (t *EmailDrafterTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	emailType := argString(args, "email_type", "")
	role := argString(args, "role_title", "")
	company := argString(args, "company_name", "")
	if role == "" || company == "" {
		return Fail("role_title and company_name are required")
	}
	interviewer := argString(args, "interviewer_name", "")
	keyPoints := argStrings(args, "key_points")
	extra := argString(args, "additional_context", "")

	greeting := "Dear Hiring Team,"
	if interviewer != "" {
		greeting = "Dear " + interviewer + ","
	}

	var subject, body string
	switch emailType {
	case "thank_you":
		subject = fmt.Sprintf("Thank you - %s Interview at %s", role, company)
		points := ""
		if len(keyPoints) > 0 {
			points = "\n\nI particularly enjoyed our conversation about " +
				joinNatural(capSlice(keyPoints, 2)) +
				". It reinforced my enthusiasm for the opportunity and how my " +
				"experience aligns with the team's goals."
		}
		body = fmt.Sprintf(`%s

Thank you for taking the time to discuss the %s position at %s. I appreciated learning more about the team and the challenges you're tackling.%s

I'm excited about the possibility of contributing to %s and am confident that my skills and experience would be a strong fit for this role.

Please don't hesitate to reach out if you need any additional information. I look forward to hearing about the next steps.

Best regards`, greeting, role, company, points, company)

	case "follow_up":
		subject = fmt.Sprintf("Following up - %s Position at %s", role, company)
		body = fmt.Sprintf(`%s

I hope this message finds you well. I wanted to follow up on my application for the %s position at %s.

I remain very interested in this opportunity and would welcome any updates on the status of the hiring process. I'm happy to provide any additional information that might be helpful in your decision.

Thank you for your time and consideration.

Best regards`, greeting, role, company)

	case "negotiation":
		subject = fmt.Sprintf("Re: %s Offer - Compensation Discussion", role)
		justification := ""
		if len(keyPoints) > 0 {
			justification = "\n\nI base this on several factors:\n" + bulletList(keyPoints)
		}
		contextLine := ""
		if extra != "" {
			contextLine = "\n\n" + extra
		}
		body = fmt.Sprintf(`%s

Thank you for extending the offer for the %s position at %s. I'm excited about the opportunity to join the team.

After careful consideration, I'd like to discuss the compensation package. Based on my research of market rates for this role and the value I would bring to the team, I believe there is room to adjust the offer.%s%s

I'm enthusiastic about %s and confident we can find a package that works for both of us. I'd love to discuss this further at your convenience.

Best regards`, greeting, role, company, justification, contextLine, company)

	case "withdrawal":
		subject = fmt.Sprintf("Withdrawal - %s Application at %s", role, company)
		body = fmt.Sprintf(`%s

Thank you for considering me for the %s position at %s. After careful thought, I have decided to withdraw my application at this time.

This was not an easy decision, and I truly appreciate the time and consideration your team invested in the process. I have great respect for %s and the work you're doing.

I hope our paths may cross again in the future, and I wish you and the team continued success.

Best regards`, greeting, role, company, company)

	default:
		return Fail("Unknown email type: %s", emailType)
	}

	return Ok(map[string]any{
		"email_type": emailType,
		"subject":    subject,
		"body":       body,
		"tips":       emailTips[emailType],
	})
}

var emailTips = map[string][]string{
	"thank_you": {
		"Send within 24 hours of the interview",
		"Reference specific topics from the conversation",
		"Keep it concise: 3-4 short paragraphs max",
	},
	"follow_up": {
		"Wait at least a week after the expected decision date",
		"Keep the tone positive and patient",
		"Reaffirm your interest without being pushy",
	},
	"negotiation": {
		"Always negotiate; most employers expect it",
		"Lead with enthusiasm for the role, then discuss compensation",
		"Back up your ask with market data and your specific value",
		"Consider the full package: base, equity, benefits, flexibility",
	},
	"withdrawal": {
		"Be gracious and professional; you may want to work there later",
		"You don't need to explain your reasons in detail",
		"Send promptly so they can move forward with other candidates",
	},
}

func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}
