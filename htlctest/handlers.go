package htlctest

import "github.com/iov-one/htlc"

// Handler is a mock implementation of the htlc.Handler interface. Every
// method call is counted.
type Handler struct {
	checkCall   int
	CheckResult htlc.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult htlc.DeliverResult
	DeliverErr    error

	// Panic if set makes every call panic with its value.
	Panic interface{}
}

var _ htlc.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	h.checkCall++
	if h.Panic != nil {
		panic(h.Panic)
	}
	res := h.CheckResult
	return &res, h.CheckErr
}

func (h *Handler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	h.deliverCall++
	if h.Panic != nil {
		panic(h.Panic)
	}
	res := h.DeliverResult
	return &res, h.DeliverErr
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}

// WriteHandler writes the key, value pair and returns the error (may be
// nil). It can be used to test that failed transactions are rolled back.
type WriteHandler struct {
	Key   []byte
	Value []byte
	Err   error
}

var _ htlc.Handler = (*WriteHandler)(nil)

func (h *WriteHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	if err := db.Set(h.Key, h.Value); err != nil {
		return nil, err
	}
	return &htlc.CheckResult{}, h.Err
}

func (h *WriteHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	if err := db.Set(h.Key, h.Value); err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{}, h.Err
}
