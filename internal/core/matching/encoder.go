package matching

import (
	"errors"
	"fmt"
	"strings"

	"github.com/careerpilot-ai/careerpilot/internal/models"
)

// ErrEncoding marks an entity that is missing the fields every embedding needs.
var ErrEncoding = errors.New("encoding: required fields missing")

// EncodeJob renders a job posting as the canonical text blob we embed.
// Output is newline-joined "label: value" lines in a fixed order so that the
// same posting always yields a byte-identical blob; embeddings stay
// reproducible and cacheable by content hash. Empty optional fields are
// omitted entirely rather than encoded as placeholder tokens.
func EncodeJob(job *models.JobPosting) (string, error) {
	if job == nil || job.CompanyName == "" || job.JobTitle == "" || job.Description == "" {
		return "", fmt.Errorf("job needs company_name, job_title and description: %w", ErrEncoding)
	}

	lines := make([]string, 0, 8)
	lines = append(lines,
		"会社名: "+job.CompanyName,
		"職種: "+job.JobTitle,
	)
	if job.Department != "" {
		lines = append(lines, "部署: "+job.Department)
	}
	lines = append(lines, "業務内容: "+job.Description)
	if job.Requirements != "" {
		lines = append(lines, "応募要件: "+job.Requirements)
	}
	if len(job.Skills) > 0 {
		lines = append(lines, "スキル: "+strings.Join(job.Skills, ", "))
	}
	if job.Location != "" {
		lines = append(lines, "勤務地: "+job.Location)
	}
	if job.EmploymentType != "" {
		lines = append(lines, "雇用形態: "+job.EmploymentType)
	}

	return strings.Join(lines, "\n"), nil
}

// EncodeProfile renders a candidate summary plus requirements the same way.
// Either part may be absent, but not both.
func EncodeProfile(summary string, reqs *models.Preferences) (string, error) {
	lines := make([]string, 0, 8)
	if summary != "" {
		lines = append(lines, "要約: "+summary)
	}
	if reqs != nil {
		if reqs.DesiredRole != "" {
			lines = append(lines, "希望職種: "+reqs.DesiredRole)
		}
		if reqs.Industry != "" {
			lines = append(lines, "希望業界: "+reqs.Industry)
		}
		if reqs.Location != "" {
			lines = append(lines, "希望勤務地: "+reqs.Location)
		}
		if reqs.SalaryExpectation != "" {
			lines = append(lines, "希望年収: "+reqs.SalaryExpectation)
		}
		if reqs.WorkStyle != "" {
			lines = append(lines, "働き方: "+reqs.WorkStyle)
		}
		if reqs.Concerns != "" {
			lines = append(lines, "懸念事項: "+reqs.Concerns)
		}
		if len(reqs.RequiredSkills) > 0 {
			lines = append(lines, "必須スキル: "+strings.Join(reqs.RequiredSkills, ", "))
		}
	}

	if len(lines) == 0 {
		return "", fmt.Errorf("profile needs a summary or requirements: %w", ErrEncoding)
	}
	return strings.Join(lines, "\n"), nil
}
