package matching

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/careerpilot-ai/careerpilot/internal/core"
	"github.com/careerpilot-ai/careerpilot/internal/models"
)

const explainSystemPrompt = "あなたは経験豊富なキャリアアドバイザーです。候補者のプロフィールと求人情報をもとに、" +
	"この求人が候補者に合う理由を2〜3文の日本語で簡潔に説明してください。記載された情報のみを根拠とし、推測で経験を補わないでください。"

// ExplanationFallback is returned whenever the language model cannot produce
// prose. Explanations are best effort and never fail a matching run.
const ExplanationFallback = "あなたのプロフィールとの類似度に基づいて選ばれた求人です。"

const defaultExplainTimeout = 15 * time.Second

// Explainer asks the LLM for a short prose rationale for one already-ranked
// match. It never returns an error; any failure degrades to the fallback.
type Explainer struct {
	llm     core.LLMProvider
	logger  *zap.Logger
	timeout time.Duration
}

func NewExplainer(llm core.LLMProvider, logger *zap.Logger) *Explainer {
	return &Explainer{llm: llm, logger: logger, timeout: defaultExplainTimeout}
}

func (x *Explainer) Explain(ctx context.Context, job *models.JobPosting, candidate *models.CandidateProfile, session *models.ConsultationSession) string {
	if x.llm == nil || job == nil {
		return ExplanationFallback
	}

	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	answer, err := x.llm.Generate(ctx, explainSystemPrompt, buildExplainPrompt(job, candidate, session))
	if err != nil || strings.TrimSpace(answer) == "" {
		x.logger.Warn("explanation degraded to fallback",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return ExplanationFallback
	}
	return strings.TrimSpace(answer)
}

func buildExplainPrompt(job *models.JobPosting, candidate *models.CandidateProfile, session *models.ConsultationSession) string {
	var b strings.Builder

	b.WriteString("求人情報:\n")
	if text, err := EncodeJob(job); err == nil {
		b.WriteString(text)
	} else {
		b.WriteString(fmt.Sprintf("%s / %s", job.CompanyName, job.JobTitle))
	}

	b.WriteString("\n\n候補者プロフィール:\n")
	if candidate != nil {
		if text, err := EncodeProfile(candidate.ProfileSummary, &candidate.Preferences); err == nil {
			b.WriteString(text)
		}
		if len(candidate.SkillsExtracted) > 0 {
			b.WriteString("\nスキル: " + strings.Join(candidate.SkillsExtracted, ", "))
		}
	}

	if session != nil && session.ChatSummary != "" {
		b.WriteString("\n\n相談内容の要約:\n" + session.ChatSummary)
	}

	return b.String()
}
