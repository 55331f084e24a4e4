package like

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
)

func TestPhotoGone(t *testing.T) {
	if err := photoGone("recount", sql.ErrNoRows); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("no row: got %v", err)
	}
	if err := photoGone("add", &pq.Error{Code: "23503"}); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("fk violation: got %v", err)
	}
	if err := photoGone("add", &pq.Error{Code: "23505"}); errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("unique violation is not a missing photo")
	}
}
