package httpapi

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"

	"kabraji/internal/store"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.Wrap(store.ErrInvalidArgument, "x"), http.StatusBadRequest},
		{errors.Wrap(store.ErrEmptyCart, "x"), http.StatusBadRequest},
		{errors.Wrap(store.ErrIndexOutOfRange, "x"), http.StatusBadRequest},
		{errors.Wrap(store.ErrNotFound, "x"), http.StatusNotFound},
		{errors.Wrap(store.ErrDuplicateKey, "x"), http.StatusConflict},
		{errors.Wrap(store.ErrInsufficientStock, "x"), http.StatusConflict},
		{errors.Wrap(store.ErrPersistence, "x"), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
