package viewstate

import "errors"

var ErrTxnDone = errors.New("transaction already committed")

// Txn stages changes for one dispatch. Controllers read the pending view
// and add to the patch; nothing is visible outside until Commit.
type Txn struct {
	store   *Store
	patch   Patch
	effects []func()
	done    bool
}

// View is the committed state with the staged changes applied.
func (t *Txn) View() State {
	return t.patch.Apply(t.store.State())
}

func (t *Txn) Patch() Patch {
	return t.patch
}

func (t *Txn) SetPanel(sec Section) {
	t.patch.Panel = &sec
}

// SetPopup opens the popup on entityID, or closes it when open is false.
func (t *Txn) SetPopup(open bool, entityID string) {
	if !open {
		entityID = ""
	}
	t.patch.PopupOpen = &open
	t.patch.PopupEntityID = &entityID
}

func (t *Txn) SetHighlighted(i int) {
	t.patch.Highlighted = &i
}

func (t *Txn) SetPanOffset(px float64) {
	t.patch.PanOffsetPx = &px
}

// AfterCommit queues a side effect on the outside world. Effects run in
// order once the patch is accepted and are dropped when it is rejected.
func (t *Txn) AfterCommit(fn func()) {
	if fn != nil {
		t.effects = append(t.effects, fn)
	}
}

func (t *Txn) Commit() error {
	if t.done {
		return ErrTxnDone
	}
	t.done = true
	effects := t.effects
	t.effects = nil
	if err := t.store.Commit(t.patch); err != nil {
		return err
	}
	for _, fn := range effects {
		fn()
	}
	return nil
}
