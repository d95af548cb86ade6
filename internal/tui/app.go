package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"pharmamap/internal/app"
	"pharmamap/internal/config"
	"pharmamap/internal/consent"
	"pharmamap/internal/debug"
	"pharmamap/internal/loop"
	"pharmamap/internal/mapview"
	"pharmamap/internal/markers"
	"pharmamap/internal/notify"
	"pharmamap/internal/panel"
	"pharmamap/internal/pharmacy"
	"pharmamap/internal/popup"
	"pharmamap/internal/router"
	"pharmamap/internal/storage"
	"pharmamap/internal/theme"
	"pharmamap/internal/viewstate"
)

// AppCallbacks are the operations the screen delegates to the caller.
// Any of them may be nil.
type AppCallbacks struct {
	Geocode         func(ctx context.Context, address string) (lat, lng float64, err error)
	ReloadConfig    func() (config.Config, error)
	ThemeListLocal  func() ([]string, string, error)
	ThemeListRemote func() ([]ThemeOption, string, error)
	ThemeInstall    func(id string) (string, error)
	ThemeApply      func(id string) (UITheme, string, error)
	ThemeUninstall  func(id string) (UITheme, string, error)
}

type Options struct {
	Config    config.Config
	Local     *storage.Local
	Searcher  router.Searcher
	Resolver  router.Resolver
	Locator   router.Locator
	Runner    app.CommandRunner
	Clipboard func(text string) error
	// Scheduler defaults to a bubbletea-backed one. Tests pass loop.Manual.
	Scheduler loop.Scheduler
	// ConfigChanged fires when the config file is edited.
	ConfigChanged <-chan struct{}
	Callbacks     AppCallbacks
	Theme         UITheme
	Version       string
	Now           func() time.Time
}

type inputMode int

const (
	inputNone inputMode = iota
	inputAddress
	inputComment
	inputFilter
)

type modalKind int

const (
	modalNone modalKind = iota
	modalDrug
	modalSettings
)

type appModel struct {
	opts    Options
	cfg     config.Config
	router  *router.Router
	mapView *mapview.View
	toasts  *notify.Queue
	consent *consent.Manager
	sched   loop.Scheduler
	scr     *screen
	now     func() time.Time

	keys      keyMap
	help      help.Model
	spinner   spinner.Model
	input     textinput.Model
	inputMode inputMode
	viewport  viewport.Model
	drugView  viewport.Model
	table     pharmacyTable
	theme     UITheme

	comments       []storage.Comment
	drugCursor     int
	activityCursor int
	modalKind      modalKind
	settings       settingsState
	dragging       bool
	appVersion     string
	quitting       bool
}

type configChangedMsg struct{}

// drainer is implemented by schedulers that hand work to bubbletea.
type drainer interface {
	Drain() tea.Cmd
}

func RunApp(opts Options) error {
	m := newAppModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

func newAppModel(opts Options) appModel {
	if opts.Scheduler == nil {
		opts.Scheduler = loop.NewTea()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Local == nil {
		opts.Local = storage.NewLocal(nil)
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Runner == nil {
		opts.Runner = app.ExecRunner{}
	}
	cfg := opts.Config
	config.EnsureDefaults(&cfg)

	mv := mapview.New(cfg.Map.CenterLat, cfg.Map.CenterLng, cfg.Map.Zoom, cfg.Map.CellPxW, cfg.Map.CellPxH)
	scr := newScreen(mv)
	local := opts.Local
	scr.fetchActivities = local.GetActivities
	scr.fetchSubscribed = local.IsSubscribed

	toasts := notify.NewQueue(opts.Scheduler)
	cm := consent.NewManager(local, toasts)
	reg := markers.NewRegistry(mv)
	store := viewstate.NewStore(reg)
	r := router.New(router.Options{
		Store:   store,
		Markers: reg,
		Panel: panel.New(panel.Options{
			Store:     store,
			Surface:   scr,
			Content:   scr,
			Map:       mv,
			Scheduler: opts.Scheduler,
		}),
		Popup: popup.New(popup.Options{
			Markers:    reg,
			View:       scr,
			Map:        mv,
			Activities: local,
			ShiftPx:    cfg.Map.PopupShiftPx,
		}),
		Map:         mv,
		Searcher:    opts.Searcher,
		Persistence: local,
		Consent:     cm,
		Notifier:    toasts,
		Layout:      scr,
		Locator:     opts.Locator,
		Resolver:    opts.Resolver,
		Scheduler:   opts.Scheduler,
		RadiusM:     cfg.Search.RadiusM,
		Timeout:     cfg.Kakao.Timeout,
	})

	in := textinput.New()
	in.CharLimit = 200
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return appModel{
		opts:       opts,
		cfg:        cfg,
		router:     r,
		mapView:    mv,
		toasts:     toasts,
		consent:    cm,
		sched:      opts.Scheduler,
		scr:        scr,
		now:        opts.Now,
		keys:       defaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
		input:      in,
		viewport:   viewport.New(60, 20),
		drugView:   viewport.New(60, 20),
		table:      newPharmacyTable(nil),
		theme:      opts.Theme.withDefaults(),
		appVersion: opts.Version,
	}
}

func (m appModel) Init() tea.Cmd {
	lat, lng := m.mapView.Center()
	_ = m.router.Navigate(router.Search{Lat: lat, Lng: lng})
	return m.batch(m.spinner.Tick, m.watchConfigCmd())
}

// batch appends whatever the scheduler queued during this update.
func (m appModel) batch(cmds ...tea.Cmd) tea.Cmd {
	if d, ok := m.sched.(drainer); ok {
		cmds = append(cmds, d.Drain())
	}
	return tea.Batch(cmds...)
}

func (m appModel) watchConfigCmd() tea.Cmd {
	ch := m.opts.ConfigChanged
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return configChangedMsg{}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.scr.width = msg.Width
		m.scr.height = msg.Height
		m.help.Width = msg.Width
		m.scr.RefreshLayout()
		m.table.setHeight(m.scr.bodyRows() - 3)
		m.resizeViewport()
		if m.router.State().Panel == viewstate.SectionDetail {
			m.refreshDetail()
		}
	case loop.RunMsg:
		loop.Run(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case configChangedMsg:
		m.reloadConfig()
		cmds = append(cmds, m.watchConfigCmd())
	case settingsLocalMsg, settingsRemoteMsg, settingsInstallMsg, settingsApplyMsg:
		var cmd tea.Cmd
		m, cmd = m.updateSettingsResult(msg)
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		m = m.handleMouse(msg)
	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)
	}
	if m.quitting {
		return m, tea.Quit
	}
	m.syncResults()
	return m, m.batch(cmds...)
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	s := msg.String()
	if s == "ctrl+c" {
		m.quitting = true
		return m, nil
	}

	// The consent prompt is modal and takes every key.
	if m.consent.Asking() {
		switch s {
		case "y", "enter":
			m.consent.Accept()
		case "n", "esc":
			m.consent.Decline()
		}
		return m, nil
	}
	if m.inputMode != inputNone {
		return m.updateInput(msg)
	}
	if m.modalKind != modalNone {
		return m.updateModal(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		m.navigate(router.Escape{})
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Settings):
		cmd := m.openSettingsModal()
		return m, cmd
	case key.Matches(msg, m.keys.Search):
		lat, lng := m.mapView.Center()
		m.navigate(router.Search{Lat: lat, Lng: lng})
		return m, nil
	case key.Matches(msg, m.keys.Address):
		cmd := m.startInput(inputAddress, "주소: ", "")
		return m, cmd
	case key.Matches(msg, m.keys.Locate):
		m.navigate(router.Locate{})
		return m, nil
	case key.Matches(msg, m.keys.ZoomIn):
		m.mapView.SetZoom(m.mapView.Zoom() - 1)
		return m, nil
	case key.Matches(msg, m.keys.ZoomOut):
		m.mapView.SetZoom(m.mapView.Zoom() + 1)
		return m, nil
	}
	if page, ok := m.keys.pageFor(msg); ok {
		m.navigate(router.Menu{Page: page})
		m.activityCursor = 0
		return m, nil
	}

	var handled bool
	var cmd tea.Cmd
	switch m.router.State().Panel {
	case viewstate.SectionList:
		m, handled = m.updateList(msg)
	case viewstate.SectionDetail:
		m, handled, cmd = m.updateDetail(msg)
	case viewstate.SectionDrugs:
		m, handled = m.updateDrugs(msg)
	case viewstate.SectionActivity:
		m, handled = m.updateActivity(msg)
	case viewstate.SectionSubscribe:
		m, handled = m.updateSubscribe(msg)
	}
	if handled {
		return m, cmd
	}
	if m.router.State().PopupOpen {
		if m, handled = m.updatePopup(msg); handled {
			return m, nil
		}
	}
	return m.updateMap(msg), nil
}

func (m appModel) updateList(msg tea.KeyMsg) (appModel, bool) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.table.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.table.moveCursor(1)
	case msg.String() == "pgup":
		m.table.pageMove(-1)
	case msg.String() == "pgdown":
		m.table.pageMove(1)
	case key.Matches(msg, m.keys.Sort):
		m.table.cycleSort()
	case msg.String() == "f":
		m.inputMode = inputFilter
		m.input.Prompt = "필터: "
		m.input.SetValue(m.table.filter)
		m.input.Focus()
	case key.Matches(msg, m.keys.Enter):
		if e, ok := m.table.current(); ok {
			m.navigate(router.ListItemClick{Entity: e})
		}
	case key.Matches(msg, m.keys.Detail):
		if e, ok := m.table.current(); ok {
			m.showDetail(e)
		}
	default:
		return m, false
	}
	return m, true
}

func (m appModel) updateDetail(msg tea.KeyMsg) (appModel, bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Comment):
		cmd := m.startInput(inputComment, "댓글: ", "")
		return m, true, cmd
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down), msg.String() == "pgup", msg.String() == "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, true, cmd
	}
	return m, false, nil
}

func (m appModel) updateDrugs(msg tea.KeyMsg) (appModel, bool) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.drugCursor = clampInt(m.drugCursor-1, 0, len(pharmacy.Drugs)-1)
	case key.Matches(msg, m.keys.Down):
		m.drugCursor = clampInt(m.drugCursor+1, 0, len(pharmacy.Drugs)-1)
	case key.Matches(msg, m.keys.Enter):
		m.openDrugModal(m.drugCursor)
	default:
		return m, false
	}
	return m, true
}

func (m appModel) updateActivity(msg tea.KeyMsg) (appModel, bool) {
	n := len(m.scr.activities)
	switch {
	case key.Matches(msg, m.keys.Up):
		if n > 0 {
			m.activityCursor = clampInt(m.activityCursor-1, 0, n-1)
		}
	case key.Matches(msg, m.keys.Down):
		if n > 0 {
			m.activityCursor = clampInt(m.activityCursor+1, 0, n-1)
		}
	case key.Matches(msg, m.keys.Enter):
		if m.activityCursor < n {
			m.navigate(router.ActivityReplay{Entry: m.scr.activities[m.activityCursor]})
		}
	case key.Matches(msg, m.keys.Clear):
		m.navigate(router.ClearActivities{})
		m.scr.RenderActivity()
		m.activityCursor = 0
	default:
		return m, false
	}
	return m, true
}

func (m appModel) updateSubscribe(msg tea.KeyMsg) (appModel, bool) {
	if !key.Matches(msg, m.keys.Enter) && msg.String() != " " {
		return m, false
	}
	m.navigate(router.Subscribe{On: !m.router.Subscribed()})
	m.scr.RenderSubscription()
	return m, true
}

func (m appModel) updatePopup(msg tea.KeyMsg) (appModel, bool) {
	e := m.scr.popupEntity
	switch {
	case key.Matches(msg, m.keys.Detail), key.Matches(msg, m.keys.Enter):
		m.showDetail(e)
	case key.Matches(msg, m.keys.Copy):
		if err := m.opts.Clipboard(e.KakaoLink()); err != nil {
			debug.Log("tui: clipboard: %v", err)
			m.toasts.Notify("클립보드를 사용할 수 없습니다.", notify.Error)
		} else {
			m.toasts.Notify("링크를 복사했습니다.", notify.Success)
		}
	case key.Matches(msg, m.keys.OpenKakao):
		m.openExternal(e.KakaoLink())
	case key.Matches(msg, m.keys.OpenNaver):
		m.openExternal(e.NaverLink())
	default:
		return m, false
	}
	return m, true
}

func (m appModel) updateMap(msg tea.KeyMsg) appModel {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.mapView.Move(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.mapView.Move(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.mapView.Move(-2, 0)
	case key.Matches(msg, m.keys.Right):
		m.mapView.Move(2, 0)
	case key.Matches(msg, m.keys.Sort):
		m.cycleMarker()
	}
	return m
}

// cycleMarker opens the popup on the marker after the highlighted one.
func (m appModel) cycleMarker() {
	reg := m.router.Markers()
	if reg.Len() == 0 {
		return
	}
	next := (reg.Highlighted() + 1) % reg.Len()
	if e, ok := reg.Entity(next); ok {
		m.navigate(router.MarkerClick{Index: next, Entity: e})
	}
}

func (m *appModel) showDetail(e pharmacy.Entity) {
	m.navigate(router.ShowDetail{Entity: e})
	m.refreshDetail()
}

func (m *appModel) refreshDetail() {
	d := m.router.Detail()
	m.comments = m.router.Comments(d.ID)
	m.viewport.SetContent(m.detailContent(d))
	m.viewport.GotoTop()
}

func (m *appModel) startInput(mode inputMode, prompt, value string) tea.Cmd {
	m.inputMode = mode
	m.input.Prompt = prompt
	m.input.Placeholder = ""
	switch mode {
	case inputAddress:
		m.input.Placeholder = "예: 서울 중구 세종대로 110"
	case inputComment:
		m.input.Placeholder = "약국에 대한 의견을 남겨주세요"
	}
	m.input.SetValue(value)
	return m.input.Focus()
}

func (m appModel) updateInput(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.inputMode == inputFilter {
			m.table.setFilter("")
		}
		m.stopInput()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode := m.inputMode
		m.stopInput()
		switch mode {
		case inputAddress:
			m.geocode(value)
		case inputComment:
			d := m.router.Detail()
			m.navigate(router.AddComment{EntityID: d.ID, Text: value})
			m.refreshDetail()
		case inputFilter:
			m.table.setFilter(value)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.inputMode == inputFilter {
		m.table.setFilter(m.input.Value())
	}
	return m, cmd
}

func (m *appModel) stopInput() {
	m.inputMode = inputNone
	m.input.Blur()
	m.input.SetValue("")
}

// geocode resolves an address off the loop and searches around it.
func (m appModel) geocode(address string) {
	if address == "" {
		m.toasts.Notify("주소를 입력해주세요.", notify.Warning)
		return
	}
	fn := m.opts.Callbacks.Geocode
	if fn == nil {
		m.toasts.Notify("주소 검색을 사용할 수 없습니다. API 키를 설정해주세요.", notify.Warning)
		return
	}
	r := m.router
	mv := m.mapView
	toasts := m.toasts
	timeout := m.cfg.Kakao.Timeout
	m.sched.Go(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		lat, lng, err := fn(ctx, address)
		return func() {
			if err != nil {
				debug.Log("tui: geocode %q: %v", address, err)
				toasts.Notify("주소를 찾을 수 없습니다.", notify.Error)
				return
			}
			mv.SetCenter(lat, lng)
			if err := r.Navigate(router.Search{Lat: lat, Lng: lng}); err != nil {
				debug.Log("tui: %v", err)
			}
		}
	})
}

func (m appModel) openExternal(url string) {
	runner := m.opts.Runner
	toasts := m.toasts
	m.sched.Go(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := app.OpenURL(ctx, runner, url)
		return func() {
			if err != nil {
				debug.Log("tui: %v", err)
				toasts.Notify("브라우저를 열 수 없습니다. y 로 링크를 복사하세요.", notify.Error)
			}
		}
	})
}

func (m appModel) navigate(in router.Intent) {
	if err := m.router.Navigate(in); err != nil {
		debug.Log("tui: %v", err)
	}
}

// syncResults pulls fresh search results into the list section.
func (m *appModel) syncResults() {
	results := m.router.Results()
	if !m.table.sameEntries(results) {
		m.table.replaceEntries(results)
	}
}

func (m *appModel) reloadConfig() {
	fn := m.opts.Callbacks.ReloadConfig
	if fn == nil {
		return
	}
	cfg, err := fn()
	if err != nil {
		debug.Log("tui: reload config: %v", err)
		m.toasts.Notify("설정 파일을 읽지 못했습니다.", notify.Error)
		return
	}
	m.cfg = cfg
	m.router.SetRadius(cfg.Search.RadiusM)
	if cfg.Debug {
		debug.SetEnabled(true)
	}
	p, _, err := theme.LoadActivePaletteHex(cfg)
	if err != nil {
		debug.Log("tui: theme %q: %v", cfg.Theme.Active, err)
	}
	m.theme = ThemeFromPalette(p).withDefaults()
	m.scr.drugsRendered = map[int]string{}
	m.toasts.Notify("설정을 다시 불러왔습니다.", notify.Info)
}

func (m appModel) handleMouse(msg tea.MouseMsg) appModel {
	if m.consent.Asking() || m.modalKind != modalNone || m.inputMode != inputNone {
		return m
	}
	_, cellH := m.mapView.CellSize()
	yPx := float64(msg.Y * cellH)

	if m.dragging && !m.router.State().PopupOpen {
		// the popup closed under the gesture
		m.dragging = false
	}
	if m.dragging {
		switch msg.Action {
		case tea.MouseActionMotion:
			m.navigate(router.DragMove{Y: yPx})
		case tea.MouseActionRelease:
			m.dragging = false
			m.navigate(router.DragEnd{})
		}
		return m
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.mapView.SetZoom(m.mapView.Zoom() - 1)
		return m
	case tea.MouseButtonWheelDown:
		m.mapView.SetZoom(m.mapView.Zoom() + 1)
		return m
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m
	}

	cols, rows := m.scr.mapArea()
	if msg.X >= cols {
		return m.clickPanel(msg.Y - headerRows)
	}
	if msg.Y < headerRows || msg.Y >= headerRows+rows {
		return m
	}
	if m.scr.popupVisible {
		x, y, w, h := m.scr.popupRect()
		if msg.X >= x && msg.X < x+w && msg.Y >= y && msg.Y < y+h {
			m.dragging = true
			m.navigate(router.DragStart{Y: yPx})
			return m
		}
	}
	handle, ok := m.mapView.HitTest(msg.X, msg.Y-headerRows)
	if !ok {
		return m
	}
	reg := m.router.Markers()
	idx := reg.IndexForHandle(handle)
	if e, ok := reg.Entity(idx); ok {
		m.navigate(router.MarkerClick{Index: idx, Entity: e})
	}
	return m
}

// clickPanel handles a click on row y of the panel box.
func (m appModel) clickPanel(y int) appModel {
	switch m.router.State().Panel {
	case viewstate.SectionList:
		// border, title, then the table header
		row, ok := m.table.rowAt(y - panelTitleRows - tableHeaderRows)
		if !ok {
			return m
		}
		m.table.cursor = row
		if e, ok := m.table.current(); ok {
			m.navigate(router.ListItemClick{Entity: e})
		}
	case viewstate.SectionActivity:
		i := y - activityFirstRow
		if i >= 0 && i < len(m.scr.activities) {
			m.activityCursor = i
			m.navigate(router.ActivityReplay{Entry: m.scr.activities[i]})
		}
	}
	return m
}

func (m *appModel) resizeViewport() {
	w := m.scr.panelWidthFor(true)
	m.viewport.Width = shrink(w, 4)
	m.viewport.Height = shrink(m.scr.bodyRows(), 2) - 1
	if m.modalKind == modalDrug {
		m.drugView.Width, m.drugView.Height = m.modalViewportSize()
	}
}

func (m appModel) statusLine() string {
	st := m.router.State()
	lat, lng := m.mapView.Center()
	return fmt.Sprintf("%.5f, %.5f | zoom %d | 반경 %dm | 약국 %d곳 | 선택 %d | pan %.0fpx",
		lat, lng, m.mapView.Zoom(), m.router.Radius(), m.router.Markers().Len(), st.Highlighted, st.PanOffsetPx)
}
