package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"pharmamap/internal/pharmacy"
	"pharmamap/internal/storage"
	"pharmamap/internal/viewstate"
)

const (
	// panelTitleRows is the top border plus the section title.
	panelTitleRows   = 2
	activityFirstRow = panelTitleRows
	drugModalMaxW    = 80
)

var activityIcons = map[storage.ActivityType]string{
	storage.ActivitySearch:       "⌕",
	storage.ActivityVisit:        "✚",
	storage.ActivityLocation:     "◎",
	storage.ActivitySubscription: "★",
}

func (m appModel) View() string {
	if m.quitting {
		return ""
	}
	width, height := m.scr.width, m.scr.height
	cols, rows := m.scr.mapArea()

	mapLines := fitBlock(m.mapView.Lines(m.theme.mapStyles()), cols, rows)
	body := mapLines
	if pw := m.scr.panelWidth(); pw > 0 {
		panelLines := strings.Split(m.renderPanel(pw, rows), "\n")
		panelLines = fitBlock(panelLines, pw, rows)
		body = make([]string, rows)
		for i := range body {
			body[i] = mapLines[i] + panelLines[i]
		}
	}

	lines := make([]string, 0, height)
	lines = append(lines, m.renderHeader(width))
	lines = append(lines, body...)
	lines = append(lines, m.renderFooter(width)...)
	screen := strings.Join(fitBlock(lines, width, height), "\n")

	if m.scr.popupVisible {
		x, y, w, h := m.scr.popupRect()
		screen = overlayAt(screen, m.renderPopup(w, h), x, y)
	}
	screen = m.overlayToasts(screen, width)

	switch {
	case m.consent.Asking():
		screen = overlayCentered(applyBackdrop(screen, width, height), m.renderConsent(), width, height)
	case m.modalKind != modalNone:
		screen = overlayCentered(applyBackdrop(screen, width, height), m.renderModal(width, height), width, height)
	}
	return screen
}

func (m appModel) renderHeader(width int) string {
	brand := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Brand)).Bold(true).Render("✚ pharmamap")
	parts := []string{
		formatVersionLabel(m.appVersion),
		pageLabel(m.router.Page()),
		fmt.Sprintf("반경 %dm", m.router.Radius()),
	}
	if m.router.Searching() {
		parts = append(parts, m.spinner.View()+" 검색 중")
	}
	rest := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.HeaderText)).Render(" " + strings.Join(parts, " | "))
	return clampStyled(brand+rest, width)
}

func (m appModel) renderFooter(width int) []string {
	var first string
	if m.inputMode != inputNone {
		first = m.input.View()
	} else {
		first = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.HelpText)).Render(m.help.View(m.keys))
	}
	status := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusText)).Render(clampStyled(m.statusLine(), width))
	// help may span several lines when expanded; keep the last one
	helpLines := strings.Split(first, "\n")
	return []string{clampStyled(helpLines[len(helpLines)-1], width), status}
}

func (m appModel) renderPanel(width, height int) string {
	sec := m.router.State().Panel
	inner := shrink(width, 4)
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Brand)).Bold(true).Render(sectionTitle(sec))

	var content []string
	switch sec {
	case viewstate.SectionList:
		content = strings.Split(m.table.render(inner, m.theme, m.now()), "\n")
		if m.table.filter != "" {
			title += lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.TextMuted)).Render("  필터: " + m.table.filter)
		}
	case viewstate.SectionDetail:
		content = strings.Split(m.viewport.View(), "\n")
	case viewstate.SectionDrugs:
		content = m.drugLines(inner)
	case viewstate.SectionActivity:
		content = m.activityLines(inner)
	case viewstate.SectionSubscribe:
		content = m.subscribeLines(inner)
	}
	all := append([]string{title}, content...)
	all = fitBlock(all, inner, shrink(height, 2))

	border := m.theme.PaneBorderInactive
	if !m.scr.panelInert {
		border = m.theme.PaneBorderActive
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1).
		Render(strings.Join(all, "\n"))
}

func sectionTitle(sec viewstate.Section) string {
	switch sec {
	case viewstate.SectionList:
		return "주변 약국"
	case viewstate.SectionDetail:
		return "약국 상세"
	case viewstate.SectionDrugs:
		return "탈모 치료제"
	case viewstate.SectionActivity:
		return "최근 활동"
	case viewstate.SectionSubscribe:
		return "구독"
	}
	return ""
}

func (m appModel) drugLines(width int) []string {
	lines := []string{}
	for i, d := range pharmacy.Drugs {
		line := fmt.Sprintf("%s  %s", d.Name, d.Kind)
		lines = append(lines, m.cursorRow(clampStyled(line, width-2), i == m.drugCursor, width))
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.TextMuted)).Render("  "+clampStyled(d.Summary, width-2)))
	}
	lines = append(lines, "", mutedHint(m.theme, "enter 상세 보기"))
	return lines
}

func (m appModel) activityLines(width int) []string {
	if m.scr.activityLoading {
		return []string{m.spinner.View() + " 불러오는 중..."}
	}
	if len(m.scr.activities) == 0 {
		return []string{mutedHint(m.theme, "활동 기록이 없습니다.")}
	}
	now := m.now()
	lines := make([]string, 0, len(m.scr.activities)+2)
	for i, a := range m.scr.activities {
		icon := activityIcons[a.Type]
		if icon == "" {
			icon = "•"
		}
		ago := pharmacy.TimeAgo(a.Timestamp, now)
		text := clampStyled(a.Text, width-ansi.StringWidth(ago)-5)
		lines = append(lines, m.cursorRow(fmt.Sprintf("%s %s  %s", icon, text, ago), i == m.activityCursor, width))
	}
	lines = append(lines, "", mutedHint(m.theme, "enter 다시 보기 | x 기록 삭제"))
	return lines
}

func (m appModel) subscribeLines(width int) []string {
	state := "구독하지 않음"
	action := "enter 구독하기"
	if m.scr.subscribed {
		state = "구독 중"
		action = "enter 구독 취소"
	}
	lines := []string{
		detailLine("상태", state, m.theme),
		detailLine("요금", m.cfg.Subscription.Price, m.theme),
		detailLine("혜택", m.cfg.Subscription.Trial, m.theme),
		"",
		"새로 문을 연 약국과 영업시간 변경 소식을 알려드립니다.",
		"",
		mutedHint(m.theme, action),
	}
	return wrapStyled(lines, width)
}

func (m appModel) cursorRow(text string, selected bool, width int) string {
	if !selected {
		return "  " + text
	}
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.SelectionFg)).
		Background(lipgloss.Color(m.theme.SelectionBg))
	return style.Render(clampStyled("> "+text, width))
}

// detailContent is the detail section body: the pharmacy followed by its
// comments, oldest first.
func (m appModel) detailContent(e pharmacy.Entity) string {
	now := m.now()
	h := pharmacy.ParseHours(e.Hours, now)
	hours := strings.TrimPrefix(h.Label(), "영업시간: ")
	if b := h.Badge(); b != "" {
		hours += " " + b
	}
	name := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.TextPrimary)).Bold(true).Render(e.Name)
	lines := []string{
		name,
		detailLine("주소", e.Address, m.theme),
		detailLine("전화", fallback(e.Phone, "정보 없음"), m.theme),
		detailLine("영업시간", hours, m.theme),
	}
	if e.DistanceM > 0 {
		lines = append(lines, detailLine("거리", pharmacy.FormatDistance(e.DistanceM), m.theme))
	}
	lines = append(lines,
		detailLine("카카오맵", e.KakaoLink(), m.theme),
		"",
		lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Brand)).Bold(true).Render(fmt.Sprintf("댓글 %d", len(m.comments))),
	)
	if len(m.comments) == 0 {
		lines = append(lines, mutedHint(m.theme, "첫 댓글을 남겨보세요. (c)"))
	}
	for _, c := range m.comments {
		lines = append(lines, detailLine(pharmacy.TimeAgo(c.Date, now), c.Text, m.theme))
	}
	return strings.Join(wrapStyled(lines, m.viewport.Width), "\n")
}

// detailLine renders "label: value" in the details colours.
func detailLine(label, value string, theme UITheme) string {
	labelStyled := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.DetailsLabel)).Render(label + ":")
	if strings.TrimSpace(value) == "" {
		return labelStyled
	}
	return labelStyled + " " + lipgloss.NewStyle().Foreground(lipgloss.Color(theme.DetailsValue)).Render(value)
}

func mutedHint(theme UITheme, s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.TextMuted)).Render(s)
}

func (m appModel) renderPopup(w, h int) string {
	e := m.scr.popupEntity
	inner := w - 4
	hours := pharmacy.ParseHours(e.Hours, m.now())
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.TextPrimary)).Bold(true).Render(e.Name)
	if b := hours.Badge(); b != "" {
		title += " " + lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Success)).Render(b)
	}
	lines := []string{
		title,
		detailLine("주소", e.Address, m.theme),
		detailLine("전화", fallback(e.Phone, "정보 없음"), m.theme),
		mutedHint(m.theme, hours.Label()),
	}
	if e.DistanceM > 0 {
		lines = append(lines, detailLine("거리", pharmacy.FormatDistance(e.DistanceM), m.theme))
	}
	lines = append(lines, mutedHint(m.theme, "d 상세 | y 링크 복사 | o 카카오맵 | n 네이버 | 아래로 끌어 닫기"))
	lines = fitBlock(wrapStyled(lines, inner), inner, shrink(h, 2))
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.PopupBorder)).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func (m appModel) overlayToasts(screen string, width int) string {
	for i, t := range m.toasts.Visible() {
		text := clampStyled(t.Text, width/2)
		box := lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.SelectionFg)).
			Background(m.theme.toastColor(t.Kind)).
			Padding(0, 1).
			Render(text)
		x := width - ansi.StringWidth(box) - 1
		screen = overlayAt(screen, box, x, headerRows+i)
	}
	return screen
}

func (m appModel) renderConsent() string {
	body := strings.Join([]string{
		lipgloss.NewStyle().Bold(true).Render("위치 정보 사용 동의"),
		"",
		"내 주변 약국을 찾기 위해 현재 위치를 사용합니다.",
		"위치 정보는 이 기기 밖으로 저장되지 않습니다.",
		"",
		"y 동의 | n 거부",
	}, "\n")
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(lipgloss.Color(m.theme.PopupBorder)).
		Padding(1, 2).
		Render(body)
}

func (m appModel) renderModal(width, height int) string {
	var title string
	var lines []string
	switch m.modalKind {
	case modalDrug:
		title = pharmacy.Drugs[m.drugCursor].Name
		lines = strings.Split(m.drugView.View(), "\n")
		lines = append(lines, mutedHint(m.theme, "↑/↓ 스크롤 | esc 닫기"))
	case modalSettings:
		title = "설정"
		w, _ := m.modalViewportSize()
		lines = fitAndWrapLines(m.settingsLines(), 20, w)
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(m.theme.PopupBorder)).
		Padding(0, 1).
		Render(title + "\n" + strings.Join(lines, "\n"))
}

func (m appModel) modalViewportSize() (int, int) {
	w := m.scr.width - 10
	if w > drugModalMaxW {
		w = drugModalMaxW
	}
	if w < 30 {
		w = 30
	}
	h := m.scr.height - 8
	if h < 5 {
		h = 5
	}
	return w, h
}

func (m *appModel) openDrugModal(i int) {
	m.modalKind = modalDrug
	w, h := m.modalViewportSize()
	m.drugView.Width, m.drugView.Height = w, h
	key := i*1000 + w
	out, ok := m.scr.drugsRendered[key]
	if !ok {
		out = renderMarkdown(pharmacy.Drugs[i].Markdown(), w)
		m.scr.drugsRendered[key] = out
	}
	m.drugView.SetContent(out)
	m.drugView.GotoTop()
}

func (m appModel) updateModal(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch m.modalKind {
	case modalSettings:
		return m.updateSettingsModal(msg.String())
	case modalDrug:
		switch msg.String() {
		case "esc", "q", "enter":
			m.closeModal()
			return m, nil
		}
		var cmd tea.Cmd
		m.drugView, cmd = m.drugView.Update(msg)
		return m, cmd
	}
	return m, nil
}

// clampStyled cuts a styled line to width cells.
func clampStyled(s string, width int) string {
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// wrapStyled wraps styled lines to width, keeping escape sequences intact.
func wrapStyled(lines []string, width int) []string {
	if width <= 0 {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, strings.Split(ansi.Wrap(l, width, " "), "\n")...)
	}
	return out
}
