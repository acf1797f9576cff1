package review

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/paperlens/paperlens/internal/logger"
	"github.com/paperlens/paperlens/models"
)

const (
	// estimatedOutputTokens is the allowance added to the input estimate
	// when reserving rate-limiter budget for one reviewer call.
	estimatedOutputTokens = 2000

	citationInstruction = `IMPORTANT: For each comment, include specific citations from the paper.
Each citation quote must be an EXACT copy of words appearing in the paper text,
so the relevant passage can be highlighted in the rendered PDF.

The paper content is organized by page markers ("=== PAGE N ==="). Provide
comments and citations from across the ENTIRE paper, not just the opening
pages, and set each citation's page to the page number where the quote
appears.`

	repairInstruction = `Your previous response could not be parsed. Respond again with ONLY a
single JSON object matching the required schema: no prose, no code fences.`
)

// reviewerResponseSchema is the structured-output contract every persona
// shares: a summary plus comments carrying citations with page hints.
var reviewerResponseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"summary": map[string]any{
			"type": "string",
		},
		"comments": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":   map[string]any{"type": "string"},
					"content": map[string]any{"type": "string"},
					"severity": map[string]any{
						"type": "string",
						"enum": []string{"info", "warning", "error"},
					},
					"page": map[string]any{"type": "integer"},
					"citations": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"quote": map[string]any{"type": "string"},
								"page":  map[string]any{"type": "integer"},
							},
							"required":             []string{"quote", "page"},
							"additionalProperties": false,
						},
					},
				},
				"required":             []string{"title", "content", "severity", "page", "citations"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"summary", "comments"},
	"additionalProperties": false,
}

// Runner executes one reviewer persona against the paper text.
type Runner interface {
	Run(ctx context.Context, persona Persona, paperText string) models.ReviewerResult
}

// TaskRunner is the production Runner backed by the external reviewer model.
type TaskRunner struct {
	apiKey string
	log    logger.Logger
}

func NewTaskRunner(apiKey string, log logger.Logger) *TaskRunner {
	return &TaskRunner{apiKey: apiKey, log: log}
}

// Run sends one reviewer call and parses the structured result. A malformed
// response gets one stricter repair attempt; transient call failures retry
// inside RateLimitedCall. Run never returns an error: failures surface as a
// failed ReviewerResult so the caller can display partial reviews.
func (t *TaskRunner) Run(ctx context.Context, persona Persona, paperText string) models.ReviewerResult {
	result := models.ReviewerResult{
		Type:   persona.Type,
		Name:   persona.Name,
		Icon:   persona.Icon,
		Status: models.StatusPending,
	}

	prompt := buildPrompt(persona, paperText)
	estimatedTokens := len(prompt)/4 + estimatedOutputTokens

	output, err := RateLimitedCall(ctx, estimatedTokens, t.log, func(ctx context.Context) (string, error) {
		return t.complete(ctx, prompt)
	})
	if err != nil {
		t.log.Error("Reviewer %s call failed: %v", persona.Type, err)
		result.Status = models.StatusFailed
		result.Reason = failureReason(ctx, err)
		return result
	}

	summary, comments, parseErr := parseReviewerResponse(output)
	if parseErr != nil {
		t.log.Warn("Reviewer %s returned malformed output, attempting repair: %v", persona.Type, parseErr)
		output, err = RateLimitedCall(ctx, estimatedTokens, t.log, func(ctx context.Context) (string, error) {
			return t.complete(ctx, prompt+"\n\n"+repairInstruction)
		})
		if err == nil {
			summary, comments, parseErr = parseReviewerResponse(output)
		}
		if err != nil || parseErr != nil {
			t.log.Error("Reviewer %s failed after repair attempt", persona.Type)
			result.Status = models.StatusFailed
			result.Reason = "malformed output"
			return result
		}
	}

	for i := range comments {
		comments[i].ReviewerType = persona.Type
	}

	result.Status = models.StatusCompleted
	result.Summary = summary
	result.Comments = comments
	return result
}

// complete issues one structured-output call to the reviewer model.
func (t *TaskRunner) complete(ctx context.Context, prompt string) (string, error) {
	client := openai.NewClient(option.WithAPIKey(t.apiKey))
	response, err := client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ChatModelGPT5Mini,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(
					responses.ResponseInputMessageContentListParam{
						responses.ResponseInputContentParamOfInputText(prompt),
					},
					"user",
				),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema("reviewer_response", reviewerResponseSchema),
		},
	})
	if err != nil {
		return "", err
	}
	return response.OutputText(), nil
}

func buildPrompt(persona Persona, paperText string) string {
	var b strings.Builder
	b.WriteString(persona.Focus)
	b.WriteString("\n\n")
	b.WriteString(citationInstruction)
	b.WriteString("\n\nPaper content:\n")
	b.WriteString(paperText)
	return b.String()
}

// parseReviewerResponse parses the model output against the shared schema.
// Missing fields default to empty, unknown fields are ignored, and code
// fences are tolerated even though structured output should not emit them.
func parseReviewerResponse(output string) (string, []models.Comment, error) {
	var parsed struct {
		Summary  string `json:"summary"`
		Comments []struct {
			Title     string `json:"title"`
			Content   string `json:"content"`
			Severity  string `json:"severity"`
			Page      int    `json:"page"`
			Citations []struct {
				Quote string `json:"quote"`
				Page  int    `json:"page"`
			} `json:"citations"`
		} `json:"comments"`
	}

	if err := json.Unmarshal([]byte(stripFences(output)), &parsed); err != nil {
		return "", nil, err
	}

	comments := make([]models.Comment, 0, len(parsed.Comments))
	for _, c := range parsed.Comments {
		comment := models.Comment{
			Title:    c.Title,
			Content:  c.Content,
			Severity: normalizeSeverity(c.Severity),
			Page:     c.Page,
		}
		if comment.Title == "" {
			comment.Title = "Comment"
		}
		for _, cit := range c.Citations {
			if strings.TrimSpace(cit.Quote) == "" {
				continue
			}
			comment.Citations = append(comment.Citations, models.Citation{
				Quote:    cit.Quote,
				PageHint: cit.Page,
			})
		}
		comments = append(comments, comment)
	}

	return parsed.Summary, comments, nil
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[3:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func normalizeSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warning":
		return "warning"
	case "error":
		return "error"
	default:
		return "info"
	}
}

func failureReason(ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "timeout"
	}
	if isTransientError(err) {
		return "transient failure"
	}
	return "request failed"
}
