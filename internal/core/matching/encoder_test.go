package matching

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerpilot-ai/careerpilot/internal/models"
)

func fullJob() *models.JobPosting {
	return &models.JobPosting{
		ID:             "job-1",
		CompanyName:    "テック株式会社",
		JobTitle:       "バックエンドエンジニア",
		Department:     "プラットフォーム開発部",
		Description:    "求人検索基盤の開発",
		Requirements:   "Go での開発経験3年以上",
		Skills:         []string{"Go", "PostgreSQL", "AWS"},
		EmploymentType: "正社員",
		Location:       "東京",
	}
}

func TestEncodeJob_FixedLabelOrder(t *testing.T) {
	text, err := EncodeJob(fullJob())
	require.NoError(t, err)

	want := strings.Join([]string{
		"会社名: テック株式会社",
		"職種: バックエンドエンジニア",
		"部署: プラットフォーム開発部",
		"業務内容: 求人検索基盤の開発",
		"応募要件: Go での開発経験3年以上",
		"スキル: Go, PostgreSQL, AWS",
		"勤務地: 東京",
		"雇用形態: 正社員",
	}, "\n")
	assert.Equal(t, want, text)
}

func TestEncodeJob_Deterministic(t *testing.T) {
	job := fullJob()
	first, err := EncodeJob(job)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := EncodeJob(job)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEncodeJob_OmitsEmptyOptionalFields(t *testing.T) {
	job := &models.JobPosting{
		CompanyName: "Acme",
		JobTitle:    "SRE",
		Description: "インフラ運用",
	}
	text, err := EncodeJob(job)
	require.NoError(t, err)

	assert.Equal(t, "会社名: Acme\n職種: SRE\n業務内容: インフラ運用", text)
	assert.NotContains(t, text, "部署")
	assert.NotContains(t, text, "スキル")
	assert.NotContains(t, text, "null")
}

func TestEncodeJob_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		job  *models.JobPosting
	}{
		{"nil job", nil},
		{"no company", &models.JobPosting{JobTitle: "SRE", Description: "x"}},
		{"no title", &models.JobPosting{CompanyName: "Acme", Description: "x"}},
		{"no description", &models.JobPosting{CompanyName: "Acme", JobTitle: "SRE"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EncodeJob(tc.job)
			assert.ErrorIs(t, err, ErrEncoding)
		})
	}
}

func TestEncodeProfile(t *testing.T) {
	reqs := &models.Preferences{
		DesiredRole:       "バックエンドエンジニア",
		Location:          "大阪",
		SalaryExpectation: "600万円",
		RequiredSkills:    []string{"Go", "Kubernetes"},
	}
	text, err := EncodeProfile("Web開発5年の経験", reqs)
	require.NoError(t, err)

	want := strings.Join([]string{
		"要約: Web開発5年の経験",
		"希望職種: バックエンドエンジニア",
		"希望勤務地: 大阪",
		"希望年収: 600万円",
		"必須スキル: Go, Kubernetes",
	}, "\n")
	assert.Equal(t, want, text)
}

func TestEncodeProfile_SummaryOnly(t *testing.T) {
	text, err := EncodeProfile("経験の要約", nil)
	require.NoError(t, err)
	assert.Equal(t, "要約: 経験の要約", text)
}

func TestEncodeProfile_Empty(t *testing.T) {
	_, err := EncodeProfile("", &models.Preferences{})
	assert.ErrorIs(t, err, ErrEncoding)

	_, err = EncodeProfile("", nil)
	assert.ErrorIs(t, err, ErrEncoding)
}
