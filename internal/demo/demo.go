// Package demo holds the hand-authored first-run dataset.
package demo

import (
	"time"

	"github.com/buriosa/buriosa/internal/model"
)

type seedRepo struct {
	name string
	tag  string
}

type seedCommit struct {
	repo        int
	title       string
	body        string
	tags        []string
	daysAgo     int
	highlighted bool
}

var seedRepos = []seedRepo{
	{"Career / Projects", "resume · impact"},
	{"Baby / Growth", "milestones"},
	{"Investing / Journal", "복기 · 원칙"},
	{"Fitness / Cut", "diet · workout"},
	{"Music / Lyrics", "창작 · 작업물"},
	{"Ideas / Inbox", "brain dump"},
}

var seedCommits = []seedCommit{
	// Career
	{0, "Client meeting — scope finalized", "- Narrowed to 3 deliverables\n- Stakeholders aligned", []string{"meeting", "scope"}, 2, true},
	{0, "Resume v3 draft completed", "Added recent project impact metrics", []string{"resume"}, 5, false},
	{0, "Portfolio site deployed", "Vercel deployment successful", []string{"milestone", "deploy"}, 8, true},
	{0, "LinkedIn profile optimized", "", []string{"profile"}, 12, false},

	// Baby
	{1, "첫 뒤집기 성공! 🎉", "드디어 뒤집었다! 4개월 2주차", []string{"milestone", "성장"}, 1, true},
	{1, "이유식 첫 시도 (쌀미음)", "반응 좋음, 10ml 완료", []string{"이유식"}, 4, false},
	{1, "4개월 검진 완료", "키 65cm, 몸무게 7.2kg", []string{"검진", "기록"}, 10, false},

	// Investing
	{2, "NVDA 손절 — 원칙 복기", "-15% 도달, 손절 원칙 적용\n교훈: 진입 타이밍 재검토 필요", []string{"복기", "원칙"}, 3, true},
	{2, "포트폴리오 리밸런싱", "채권 비중 20% → 30%", []string{"리밸런싱"}, 7, false},
	{2, "배당주 스크리닝 완료", "후보 5개 선정: KO, JNJ, PG, VZ, T", []string{"리서치"}, 14, false},
	{2, "투자 원칙 v2 정리", "1. 손절선 -15%\n2. 분할매수 3회\n3. 섹터 분산", []string{"원칙"}, 20, true},

	// Fitness
	{3, "체중 70kg 돌파! 🔥", "시작 78kg → 현재 69.8kg\n8주간 -8.2kg 감량", []string{"milestone", "체중"}, 0, true},
	{3, "상체 루틴 변경", "푸시업 → 벤치프레스 전환", []string{"workout"}, 6, false},
	{3, "식단 기록 시작", "MyFitnessPal 연동 완료", []string{"diet"}, 15, false},

	// Music
	{4, "새 곡 데모 완성", "코드 진행: Am - F - C - G\n가사 1절 완료", []string{"demo", "작곡"}, 2, true},
	{4, "기타 녹음 테이크 3", "어쿠스틱 버전, 조금 더 다듬기 필요", []string{"녹음"}, 9, false},
	{4, "믹싱 피드백 반영", "보컬 볼륨 +2db, 리버브 줄임", []string{"mixing"}, 16, false},
	{4, "레퍼런스 곡 분석", "Coldplay - Yellow 구조 분석", []string{"리서치"}, 25, false},

	// Ideas
	{5, "앱 아이디어: 습관 자산화", "기록 → 커밋 → 릴리즈 개념\nBURIOSA 컨셉 정리", []string{"idea", "앱"}, 4, true},
	{5, "블로그 주제 리스트", "1. 비개발자 GitHub\n2. 기록의 복리\n3. 릴리즈 사고방식", []string{"블로그"}, 11, false},
	{5, "사이드 프로젝트 후보", "- 뉴스레터\n- 유튜브\n- 전자책", []string{"project"}, 18, false},
}

// Generate builds the seed repositories and commits relative to now.
// Commit times keep now's wall-clock time and step back whole calendar days.
func Generate(now time.Time, newID func() string) ([]model.Repository, []model.Commit) {
	repos := make([]model.Repository, len(seedRepos))
	for i, r := range seedRepos {
		repos[i] = model.Repository{
			ID:        newID(),
			Name:      r.name,
			Tag:       r.tag,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	commits := make([]model.Commit, len(seedCommits))
	for i, c := range seedCommits {
		repo := repos[c.repo]
		commits[i] = model.Commit{
			ID:            newID(),
			RepoID:        repo.ID,
			RepoName:      repo.Name,
			Title:         c.title,
			Body:          c.body,
			Tags:          append([]string{}, c.tags...),
			DateTime:      now.AddDate(0, 0, -c.daysAgo),
			IsHighlighted: c.highlighted,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}

	return repos, commits
}
