// Package router is the single entry point for every user and system
// event on the map screen. Each dispatch runs its controllers in a fixed
// order inside one view-state transaction.
package router

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"pharmamap/internal/debug"
	"pharmamap/internal/loop"
	"pharmamap/internal/markers"
	"pharmamap/internal/notify"
	"pharmamap/internal/panel"
	"pharmamap/internal/pharmacy"
	"pharmamap/internal/popup"
	"pharmamap/internal/storage"
	"pharmamap/internal/viewstate"
)

const (
	LayoutRefreshDelay = 300 * time.Millisecond
	LocateZoom         = 3
	DefaultRadiusM     = 1000
	DefaultTimeout     = 10 * time.Second
)

type Options struct {
	Store   *viewstate.Store
	Markers *markers.Registry
	Panel   *panel.Controller
	Popup   *popup.Controller

	Map         Map
	Searcher    Searcher
	Persistence Persistence
	Consent     Consent
	Notifier    notify.Notifier
	Layout      LayoutRefresher
	Locator     Locator
	Resolver    Resolver
	Scheduler   loop.Scheduler

	RadiusM int
	Timeout time.Duration
}

type Router struct {
	store   *viewstate.Store
	markers *markers.Registry
	panel   *panel.Controller
	popup   *popup.Controller

	mapView  Map
	searcher Searcher
	persist  Persistence
	consent  Consent
	notifier notify.Notifier
	layout   LayoutRefresher
	locator  Locator
	resolver Resolver
	sched    loop.Scheduler

	radiusM int
	timeout time.Duration

	page      Page
	searchSeq uint64
	searching bool
	results   []pharmacy.Entity
	detail    pharmacy.Entity
}

// New wires a router. Missing core pieces are created without surfaces so
// they track state but draw nothing.
func New(opts Options) *Router {
	if opts.Markers == nil {
		opts.Markers = markers.NewRegistry(nil)
	}
	if opts.Store == nil {
		opts.Store = viewstate.NewStore(opts.Markers)
	}
	if opts.Panel == nil {
		opts.Panel = panel.New(panel.Options{Store: opts.Store, Scheduler: opts.Scheduler})
	}
	if opts.Popup == nil {
		opts.Popup = popup.New(popup.Options{Markers: opts.Markers})
	}
	if opts.RadiusM <= 0 {
		opts.RadiusM = DefaultRadiusM
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Router{
		store:    opts.Store,
		markers:  opts.Markers,
		panel:    opts.Panel,
		popup:    opts.Popup,
		mapView:  opts.Map,
		searcher: opts.Searcher,
		persist:  opts.Persistence,
		consent:  opts.Consent,
		notifier: opts.Notifier,
		layout:   opts.Layout,
		locator:  opts.Locator,
		resolver: opts.Resolver,
		sched:    opts.Scheduler,
		radiusM:  opts.RadiusM,
		timeout:  opts.Timeout,
		page:     PageMap,
	}
}

// Navigate dispatches one intent. The returned error is a rejected
// view-state commit; it has already been logged.
func (r *Router) Navigate(in Intent) error {
	debug.Log("router: %T %+v", in, in)
	switch it := in.(type) {
	case Escape:
		return r.update(func(tx *viewstate.Txn) {
			if tx.View().PopupOpen {
				r.popup.Close(tx)
			}
			if tx.View().Panel != viewstate.SectionNone {
				r.panel.Close(tx)
				tx.AfterCommit(func() { r.page = PageMap })
			}
		})
	case Menu:
		return r.menu(it.Page)
	case MarkerClick:
		return r.update(func(tx *viewstate.Txn) {
			r.popup.Show(tx, it.Entity, it.Index)
		})
	case ListItemClick:
		return r.listItemClick(it.Entity)
	case ActivityReplay:
		return r.replay(it.Entry)
	case Locate:
		r.locate()
		return nil
	case Search:
		r.search(it.Lat, it.Lng)
		return nil
	case ShowDetail:
		r.detail = it.Entity
		return r.update(func(tx *viewstate.Txn) {
			if tx.View().Panel != viewstate.SectionNone {
				r.panel.SwitchSection(tx, viewstate.SectionDetail)
				return
			}
			r.panel.Open(tx, viewstate.SectionDetail)
		})
	case AddComment:
		r.addComment(it.EntityID, it.Text)
		return nil
	case Subscribe:
		r.subscribe(it.On)
		return nil
	case ClearActivities:
		if r.persist == nil {
			debug.Log("router: no persistence, clear ignored")
			return nil
		}
		r.persist.ClearActivities()
		r.notify("활동 기록이 삭제되었습니다.", notify.Info)
		return nil
	case DragStart:
		return r.update(func(tx *viewstate.Txn) { r.popup.DragStart(tx, it.Y) })
	case DragMove:
		r.popup.DragMove(it.Y)
		return nil
	case DragEnd:
		return r.update(func(tx *viewstate.Txn) { r.popup.DragEnd(tx) })
	default:
		debug.Log("router: unknown intent %T", in)
		return nil
	}
}

func (r *Router) update(fn func(tx *viewstate.Txn)) error {
	if err := r.store.Update(fn); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}

func (r *Router) menu(page Page) error {
	if page == PageMap {
		err := r.update(func(tx *viewstate.Txn) {
			r.popup.Close(tx)
			r.panel.Close(tx)
			tx.AfterCommit(func() { r.page = PageMap })
		})
		r.deferRun(LayoutRefreshDelay, func() {
			if r.layout != nil {
				r.layout.RefreshLayout()
			}
		})
		return err
	}
	sec, ok := page.Section()
	if !ok {
		debug.Log("router: unknown page %q", page)
		return nil
	}
	return r.update(func(tx *viewstate.Txn) {
		r.popup.Close(tx)
		r.panel.Open(tx, sec)
		tx.AfterCommit(func() { r.page = page })
	})
}

func (r *Router) listItemClick(e pharmacy.Entity) error {
	idx := r.markers.IndexOf(e.ID)
	return r.update(func(tx *viewstate.Txn) {
		if r.mapView != nil && e.HasPosition() {
			tx.AfterCommit(func() { r.mapView.SetCenter(e.Lat, e.Lng) })
		} else {
			debug.Log("router: cannot center on %s", e.ID)
		}
		r.popup.Show(tx, e, idx)
	})
}

func (r *Router) replay(entry storage.Activity) error {
	if entry.HasPosition {
		if r.mapView != nil {
			r.mapView.SetCenter(entry.Lat, entry.Lng)
		} else {
			debug.Log("router: no map, replay center skipped")
		}
	}
	if entry.EntityID == "" {
		return nil
	}
	e, ok := r.resolve(entry.EntityID)
	if !ok {
		debug.Log("router: replay entity %s not found", entry.EntityID)
		return nil
	}
	return r.update(func(tx *viewstate.Txn) {
		r.popup.Show(tx, e, -1)
	})
}

func (r *Router) resolve(id string) (pharmacy.Entity, bool) {
	for _, e := range r.results {
		if e.ID == id {
			return e, true
		}
	}
	if r.resolver != nil {
		return r.resolver.GetByID(id)
	}
	return pharmacy.Entity{}, false
}

func (r *Router) locate() {
	if r.consent == nil {
		debug.Log("router: no consent collaborator, locate ignored")
		return
	}
	if !r.consent.HasConsent() {
		r.consent.RequestConsent(func() {
			_ = r.Navigate(Locate{})
		})
		return
	}
	if r.locator == nil {
		debug.Log("router: no locator, locate ignored")
		return
	}
	locator := r.locator
	timeout := r.timeout
	r.goRun(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		lat, lng, err := locator.Locate(ctx)
		return func() { r.finishLocate(lat, lng, err) }
	})
}

func (r *Router) finishLocate(lat, lng float64, err error) {
	if err != nil {
		debug.Log("router: locate failed: %v", err)
		r.notify("위치 정보를 가져올 수 없습니다.", notify.Error)
		return
	}
	if r.mapView != nil {
		r.mapView.SetCenter(lat, lng)
		r.mapView.SetZoom(LocateZoom)
		r.mapView.SetSelfMarker(lat, lng)
	} else {
		debug.Log("router: no map, location not shown")
	}
	if r.persist != nil {
		r.persist.AddActivity(storage.Activity{
			Type:        storage.ActivityLocation,
			Text:        "내 위치로 이동",
			HasPosition: true,
			Lat:         lat,
			Lng:         lng,
		})
	}
	r.notify("현재 위치로 이동했습니다.", notify.Success)
	r.search(lat, lng)
}

// search starts a nearby lookup. Only the newest search may apply its
// results.
func (r *Router) search(lat, lng float64) {
	if r.searcher == nil {
		debug.Log("router: no searcher, search ignored")
		return
	}
	r.searchSeq++
	seq := r.searchSeq
	r.searching = true
	r.notify("주변 약국을 검색하는 중입니다...", notify.Info)

	searcher := r.searcher
	radius := r.radiusM
	timeout := r.timeout
	r.goRun(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		start := time.Now()
		found, err := searcher.SearchNearby(ctx, lat, lng, radius)
		debug.LogTiming("search", time.Since(start))
		return func() { r.finishSearch(seq, lat, lng, found, err) }
	})
}

func (r *Router) finishSearch(seq uint64, lat, lng float64, found []pharmacy.Entity, err error) {
	if seq != r.searchSeq {
		debug.Log("router: dropping stale search %d (current %d)", seq, r.searchSeq)
		return
	}
	r.searching = false
	if err != nil {
		debug.Log("router: search failed: %v", err)
		found = nil
	}
	r.results = found
	if cerr := r.update(func(tx *viewstate.Txn) {
		tx.SetHighlighted(-1)
		tx.AfterCommit(func() { r.markers.LoadMarkers(found) })
	}); cerr != nil {
		debug.Log("router: %v", cerr)
	}

	switch {
	case err != nil:
		r.notify(searchErrorMessage(err), notify.Error)
	case len(found) == 0:
		r.notify(fmt.Sprintf("검색된 약국이 없습니다. (반경 %dm)", r.radiusM), notify.Info)
	default:
		if r.persist != nil {
			r.persist.AddActivity(storage.Activity{
				Type:        storage.ActivitySearch,
				Text:        fmt.Sprintf("주변 약국 검색: %d곳", len(found)),
				HasPosition: true,
				Lat:         lat,
				Lng:         lng,
			})
		}
		r.notify("주변 약국 검색 완료", notify.Success)
	}
}

func searchErrorMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return "네트워크에 연결할 수 없습니다. 연결 상태를 확인해주세요."
	}
	return "주변 약국 검색 중 오류가 발생했습니다."
}

func (r *Router) addComment(entityID, text string) {
	if r.persist == nil {
		debug.Log("router: no persistence, comment dropped")
		return
	}
	if strings.TrimSpace(text) == "" {
		r.notify("댓글 내용을 입력해주세요.", notify.Warning)
		return
	}
	if r.persist.AddComment(entityID, text) {
		r.notify("댓글이 등록되었습니다.", notify.Success)
		return
	}
	r.notify("댓글을 저장하지 못했습니다.", notify.Error)
}

func (r *Router) subscribe(on bool) {
	if r.persist == nil {
		debug.Log("router: no persistence, subscription unchanged")
		return
	}
	r.persist.SetSubscribed(on)
	if on {
		r.persist.AddActivity(storage.Activity{Type: storage.ActivitySubscription, Text: "구독 시작"})
		r.notify("구독이 완료되었습니다. 감사합니다!", notify.Success)
		return
	}
	r.notify("구독이 취소되었습니다.", notify.Info)
}

func (r *Router) notify(msg string, kind notify.Kind) {
	if r.notifier == nil {
		debug.Log("router: %s: %s", kind, msg)
		return
	}
	r.notifier.Notify(msg, kind)
}

func (r *Router) goRun(work func() func()) {
	if r.sched == nil {
		if next := work(); next != nil {
			next()
		}
		return
	}
	r.sched.Go(work)
}

func (r *Router) deferRun(d time.Duration, fn func()) {
	if r.sched == nil {
		fn()
		return
	}
	r.sched.Defer(d, fn)
}

func (r *Router) State() viewstate.State     { return r.store.State() }
func (r *Router) Store() *viewstate.Store    { return r.store }
func (r *Router) Markers() *markers.Registry { return r.markers }
func (r *Router) Popup() *popup.Controller   { return r.popup }
func (r *Router) Page() Page                 { return r.page }
func (r *Router) Searching() bool            { return r.searching }
func (r *Router) Detail() pharmacy.Entity    { return r.detail }
func (r *Router) Results() []pharmacy.Entity { return append([]pharmacy.Entity(nil), r.results...) }
func (r *Router) Radius() int                { return r.radiusM }

// SetRadius changes the radius used by later searches. Non-positive values
// are ignored.
func (r *Router) SetRadius(m int) {
	if m > 0 {
		r.radiusM = m
	}
}

// Activities returns the stored log, newest first.
func (r *Router) Activities() []storage.Activity {
	if r.persist == nil {
		return nil
	}
	return r.persist.GetActivities()
}

func (r *Router) Comments(entityID string) []storage.Comment {
	if r.persist == nil {
		return nil
	}
	return r.persist.GetComments(entityID)
}

func (r *Router) Subscribed() bool {
	return r.persist != nil && r.persist.IsSubscribed()
}
