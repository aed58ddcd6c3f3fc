package errutil

import (
	"errors"
	"testing"
)

var (
	err1 = errors.New("err1")
	err2 = errors.New("err2")
)

func TestMulti(t *testing.T) {
	if err := Multi(); err != nil {
		t.Errorf("Multi() -> %v, want nil", err)
	}
	if err := Multi(nil, nil); err != nil {
		t.Errorf("Multi(nil, nil) -> %v, want nil", err)
	}
	if err := Multi(nil, err1); err != err1 {
		t.Errorf("Multi(nil, err1) -> %v, want err1", err)
	}
	err := Multi(err1, err2)
	want := "multiple errors: err1; err2"
	if err.Error() != want {
		t.Errorf("Multi(err1, err2) -> %q, want %q", err.Error(), want)
	}
	flat := Multi(Multi(err1, err2), Multi(err1, err2))
	wantFlat := "multiple errors: err1; err2; err1; err2"
	if flat.Error() != wantFlat {
		t.Errorf("nested Multi -> %q, want %q", flat.Error(), wantFlat)
	}
}
