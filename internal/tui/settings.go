package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type settingsStage int

const (
	settingsStageHome settingsStage = iota
	settingsStageLocalList
	settingsStageRemoteList
)

type settingsMode int

const (
	settingsModeApply settingsMode = iota
	settingsModeUninstall
	settingsModeInstall
)

var settingsHomeActions = []string{"테마 적용", "테마 삭제", "원격 테마 설치", "닫기"}

type settingsState struct {
	stage         settingsStage
	mode          settingsMode
	cursor        int
	homeCursor    int
	activeTheme   string
	currentSource string
	localThemes   []string
	remoteThemes  []ThemeOption
	status        string
}

type settingsLocalMsg struct {
	themes []string
	active string
	err    error
}

type settingsRemoteMsg struct {
	themes []ThemeOption
	source string
	err    error
}

type settingsInstallMsg struct {
	output string
	err    error
}

type settingsApplyMsg struct {
	theme  UITheme
	output string
	err    error
}

func (m *appModel) openSettingsModal() tea.Cmd {
	m.modalKind = modalSettings
	m.settings = settingsState{stage: settingsStageHome, status: "설정"}
	return m.settingsListLocalCmd()
}

func (m *appModel) closeModal() {
	m.modalKind = modalNone
	m.settings = settingsState{}
	m.resizeViewport()
}

func (m appModel) settingsListLocalCmd() tea.Cmd {
	fn := m.opts.Callbacks.ThemeListLocal
	if fn == nil {
		return func() tea.Msg { return settingsLocalMsg{err: fmt.Errorf("theme list unavailable")} }
	}
	return func() tea.Msg {
		themes, active, err := fn()
		return settingsLocalMsg{themes: themes, active: active, err: err}
	}
}

func (m appModel) settingsListRemoteCmd() tea.Cmd {
	fn := m.opts.Callbacks.ThemeListRemote
	if fn == nil {
		return func() tea.Msg { return settingsRemoteMsg{err: fmt.Errorf("remote theme list unavailable")} }
	}
	return func() tea.Msg {
		themes, source, err := fn()
		return settingsRemoteMsg{themes: themes, source: source, err: err}
	}
}

func (m appModel) updateSettingsResult(msg tea.Msg) (appModel, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsLocalMsg:
		if msg.err != nil {
			m.settings.status = "오류: " + msg.err.Error()
			return m, nil
		}
		m.settings.localThemes = msg.themes
		m.settings.activeTheme = msg.active
		if m.settings.cursor >= len(msg.themes) {
			m.settings.cursor = 0
		}
	case settingsRemoteMsg:
		if msg.err != nil {
			m.settings.status = "오류: " + msg.err.Error()
			return m, nil
		}
		m.settings.remoteThemes = msg.themes
		m.settings.currentSource = msg.source
	case settingsInstallMsg:
		if msg.err != nil {
			m.settings.status = "오류: " + msg.err.Error()
			return m, nil
		}
		m.settings.status = msg.output
		return m, m.settingsListLocalCmd()
	case settingsApplyMsg:
		if msg.err != nil {
			m.settings.status = "오류: " + msg.err.Error()
			return m, nil
		}
		m.theme = msg.theme.withDefaults()
		m.scr.drugsRendered = map[int]string{}
		m.settings.status = msg.output
		return m, m.settingsListLocalCmd()
	}
	return m, nil
}

func (m appModel) updateSettingsModal(key string) (appModel, tea.Cmd) {
	s := m.settings
	switch s.stage {
	case settingsStageHome:
		switch key {
		case "esc", "q":
			m.closeModal()
			return m, nil
		case "up", "k":
			if s.homeCursor > 0 {
				s.homeCursor--
			}
		case "down", "j":
			if s.homeCursor < len(settingsHomeActions)-1 {
				s.homeCursor++
			}
		case "enter":
			s.cursor = 0
			switch s.homeCursor {
			case 0:
				s.stage, s.mode = settingsStageLocalList, settingsModeApply
				m.settings = s
				return m, m.settingsListLocalCmd()
			case 1:
				s.stage, s.mode = settingsStageLocalList, settingsModeUninstall
				m.settings = s
				return m, m.settingsListLocalCmd()
			case 2:
				s.stage, s.mode = settingsStageRemoteList, settingsModeInstall
				m.settings = s
				return m, m.settingsListRemoteCmd()
			default:
				m.closeModal()
				return m, nil
			}
		}
	case settingsStageLocalList:
		switch key {
		case "esc":
			s.stage = settingsStageHome
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.localThemes)-1 {
				s.cursor++
			}
		case "enter":
			if len(s.localThemes) == 0 {
				break
			}
			id := s.localThemes[s.cursor]
			fn := m.opts.Callbacks.ThemeApply
			if s.mode == settingsModeUninstall {
				fn = m.opts.Callbacks.ThemeUninstall
			}
			if fn == nil {
				s.status = "오류: 사용할 수 없는 기능입니다"
				break
			}
			m.settings = s
			return m, func() tea.Msg {
				theme, out, err := fn(id)
				return settingsApplyMsg{theme: theme, output: out, err: err}
			}
		}
	case settingsStageRemoteList:
		switch key {
		case "esc":
			s.stage = settingsStageHome
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.remoteThemes)-1 {
				s.cursor++
			}
		case "enter":
			if len(s.remoteThemes) == 0 {
				break
			}
			fn := m.opts.Callbacks.ThemeInstall
			if fn == nil {
				s.status = "오류: 사용할 수 없는 기능입니다"
				break
			}
			id := s.remoteThemes[s.cursor].ID
			m.settings = s
			return m, func() tea.Msg {
				out, err := fn(id)
				return settingsInstallMsg{output: out, err: err}
			}
		}
	}
	m.settings = s
	return m, nil
}

func (m appModel) settingsLines() []string {
	s := m.settings
	var lines []string
	cursorLine := func(i, cursor int, text string) string {
		if i == cursor {
			return "> " + text
		}
		return "  " + text
	}
	switch s.stage {
	case settingsStageHome:
		lines = append(lines, "현재 테마: "+fallback(s.activeTheme, "default"), "")
		for i, a := range settingsHomeActions {
			lines = append(lines, cursorLine(i, s.homeCursor, a))
		}
	case settingsStageLocalList:
		label := "적용할 테마를 선택하세요"
		if s.mode == settingsModeUninstall {
			label = "삭제할 테마를 선택하세요"
		}
		lines = append(lines, label, "")
		if len(s.localThemes) == 0 {
			lines = append(lines, "(설치된 테마 없음)")
		}
		for i, id := range s.localThemes {
			text := id
			if id == s.activeTheme {
				text += " (사용 중)"
			}
			lines = append(lines, cursorLine(i, s.cursor, text))
		}
	case settingsStageRemoteList:
		lines = append(lines, "설치할 테마를 선택하세요", "출처: "+s.currentSource, "")
		if len(s.remoteThemes) == 0 {
			lines = append(lines, "(원격 테마 없음)")
		}
		for i, opt := range s.remoteThemes {
			lines = append(lines, cursorLine(i, s.cursor, fmt.Sprintf("%s - %s", opt.ID, opt.Name)))
		}
	}
	if strings.TrimSpace(s.status) != "" {
		lines = append(lines, "", "상태: "+s.status)
	}
	return lines
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
