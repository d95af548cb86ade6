package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"pharmamap/internal/router"
)

type keyMap struct {
	Quit      key.Binding
	Escape    key.Binding
	Help      key.Binding
	Map       key.Binding
	List      key.Binding
	Drugs     key.Binding
	Activity  key.Binding
	Subscribe key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Search    key.Binding
	Address   key.Binding
	Locate    key.Binding
	Enter     key.Binding
	Detail    key.Binding
	Comment   key.Binding
	Clear     key.Binding
	Sort      key.Binding
	Copy      key.Binding
	OpenKakao key.Binding
	OpenNaver key.Binding
	Settings  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Escape:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Map:       key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "map")),
		List:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "list")),
		Drugs:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "drugs")),
		Activity:  key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "activity")),
		Subscribe: key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "subscribe")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
		Search:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "search here")),
		Address:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "address")),
		Locate:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "my location")),
		Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Detail:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "detail")),
		Comment:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comment")),
		Clear:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear log")),
		Sort:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "sort")),
		Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link")),
		OpenKakao: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "kakao map")),
		OpenNaver: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "naver")),
		Settings:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Map, k.List, k.Drugs, k.Activity, k.Subscribe, k.Search, k.Locate, k.Escape, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Map, k.List, k.Drugs, k.Activity, k.Subscribe},
		{k.Up, k.Down, k.Left, k.Right, k.ZoomIn, k.ZoomOut},
		{k.Search, k.Address, k.Locate, k.Enter, k.Detail},
		{k.Comment, k.Clear, k.Sort, k.Copy, k.OpenKakao, k.OpenNaver},
		{k.Settings, k.Escape, k.Help, k.Quit},
	}
}

// pageFor maps the numeric menu keys to router pages.
func (k keyMap) pageFor(msg tea.KeyMsg) (router.Page, bool) {
	switch {
	case key.Matches(msg, k.Map):
		return router.PageMap, true
	case key.Matches(msg, k.List):
		return router.PageList, true
	case key.Matches(msg, k.Drugs):
		return router.PageDrugs, true
	case key.Matches(msg, k.Activity):
		return router.PageActivity, true
	case key.Matches(msg, k.Subscribe):
		return router.PageSubscribe, true
	}
	return "", false
}

func pageLabel(p router.Page) string {
	switch p {
	case router.PageList:
		return "약국 목록"
	case router.PageDrugs:
		return "탈모약 정보"
	case router.PageActivity:
		return "활동 기록"
	case router.PageSubscribe:
		return "구독"
	default:
		return "지도"
	}
}
