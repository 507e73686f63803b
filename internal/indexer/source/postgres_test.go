package source

import (
	"errors"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
)

func TestDecodeFields(t *testing.T) {
	doc, err := DecodeFields([]byte(`{"title":"hello","body":"world"}`))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Fields["title"] != "hello" || doc.Fields["body"] != "world" {
		t.Fatalf("fields %v", doc.Fields)
	}

	doc, err = DecodeFields([]byte("null"))
	if err != nil || doc.Fields == nil || len(doc.Fields) != 0 {
		t.Fatalf("null fields: %+v, %v", doc, err)
	}

	for _, raw := range []string{`{"n":1}`, `[1,2]`, `{`} {
		if _, err := DecodeFields([]byte(raw)); !errors.Is(err, apperrors.ErrSerialization) {
			t.Errorf("DecodeFields(%s) error %v, want ErrSerialization", raw, err)
		}
	}
}
