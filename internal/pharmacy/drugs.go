package pharmacy

import (
	"errors"
	"fmt"
	"strings"
)

type Drug struct {
	ID         string
	Name       string
	Ingredient string
	Kind       string
	Summary    string
	Dosage     string
	Cautions   []string
}

// Drugs is the reference list shown in the drugs section.
var Drugs = []Drug{
	{
		ID:         "finasteride",
		Name:       "피나스테리드 1mg",
		Ingredient: "finasteride",
		Kind:       "전문의약품",
		Summary:    "5알파 환원효소 억제제. 남성형 탈모의 진행을 늦춘다.",
		Dosage:     "1일 1회 1정",
		Cautions:   []string{"가임기 여성은 부서진 정제를 만지지 않는다", "효과 판단까지 3개월 이상 복용"},
	},
	{
		ID:         "dutasteride",
		Name:       "두타스테리드 0.5mg",
		Ingredient: "dutasteride",
		Kind:       "전문의약품",
		Summary:    "1형과 2형 5알파 환원효소를 모두 억제한다.",
		Dosage:     "1일 1회 1캡슐",
		Cautions:   []string{"캡슐을 씹거나 열지 않는다", "복용 중 헌혈 금지"},
	},
	{
		ID:         "minoxidil",
		Name:       "미녹시딜 5% 외용액",
		Ingredient: "minoxidil",
		Kind:       "일반의약품",
		Summary:    "두피 혈류를 늘려 모발 성장을 돕는 바르는 약.",
		Dosage:     "1일 2회 1mL 두피 도포",
		Cautions:   []string{"초기 일시적 탈락이 있을 수 있음", "두피 외 부위 도포 금지"},
	},
	{
		ID:         "biotin",
		Name:       "비오틴 복합제",
		Ingredient: "biotin",
		Kind:       "일반의약품",
		Summary:    "모발과 손톱 건강 보조.",
		Dosage:     "1일 1회 1정",
		Cautions:   []string{"갑상선 검사 전 복용 사실을 알린다"},
	},
}

func ValidateDrugs(drugs []Drug) error {
	seen := map[string]bool{}
	var errs []error
	for i, d := range drugs {
		if strings.TrimSpace(d.ID) == "" {
			errs = append(errs, fmt.Errorf("drug %d: missing id", i))
			continue
		}
		if seen[d.ID] {
			errs = append(errs, fmt.Errorf("drug %s: duplicate id", d.ID))
		}
		seen[d.ID] = true
		if strings.TrimSpace(d.Name) == "" {
			errs = append(errs, fmt.Errorf("drug %s: missing name", d.ID))
		}
	}
	return errors.Join(errs...)
}

func (d Drug) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", d.Name)
	fmt.Fprintf(&b, "- **성분**: %s\n- **구분**: %s\n- **용법**: %s\n\n", d.Ingredient, d.Kind, d.Dosage)
	b.WriteString(d.Summary)
	b.WriteString("\n")
	if len(d.Cautions) > 0 {
		b.WriteString("\n### 주의사항\n\n")
		for _, c := range d.Cautions {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}

func DrugsMarkdown(drugs []Drug) string {
	var b strings.Builder
	b.WriteString("# 탈모 치료제 안내\n\n")
	b.WriteString("| 이름 | 구분 | 용법 |\n|---|---|---|\n")
	for _, d := range drugs {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", d.Name, d.Kind, d.Dosage)
	}
	b.WriteString("\n> 복용 전 반드시 의사 또는 약사와 상담하세요.\n")
	return b.String()
}
