package errx

import (
	"errors"
	"fmt"
	"testing"
)

func TestE(t *testing.T) {
	t.Run("returns nil when error is nil", func(t *testing.T) {
		if got := E("op", NotFound, nil); got != nil {
			t.Errorf("E() with nil error = %v, want nil", got)
		}
	})

	t.Run("constructs Error with all fields", func(t *testing.T) {
		root := errors.New("root cause")
		err := E("store.FindByCode", NotFound, root)

		var e *Error
		if !errors.As(err, &e) {
			t.Fatal("expected error to be of type *errx.Error")
		}
		if e.Op != "store.FindByCode" {
			t.Errorf("Op = %q, want %q", e.Op, "store.FindByCode")
		}
		if e.Kind != NotFound {
			t.Errorf("Kind = %v, want %v", e.Kind, NotFound)
		}
		if !errors.Is(e.Err, root) {
			t.Errorf("Err = %v, want %v", e.Err, root)
		}
	})

	t.Run("preserves every kind", func(t *testing.T) {
		kinds := []Kind{Unknown, NotFound, Conflict, Invalid, Exhausted, Unavailable, Internal}
		for _, kind := range kinds {
			t.Run(kind.String(), func(t *testing.T) {
				if got := KindOf(E("operation", kind, errors.New("x"))); got != kind {
					t.Errorf("KindOf() = %v, want %v", got, kind)
				}
			})
		}
	})
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"nil inner error returns op", &Error{Op: "web.Resolve", Kind: NotFound}, "web.Resolve"},
		{"empty op returns inner message", &Error{Kind: Unknown, Err: errors.New("root cause")}, "root cause"},
		{"op and error", &Error{Op: "shortener.Resolve", Kind: NotFound, Err: errors.New("root cause")}, "shortener.Resolve: root cause"},
		{"both empty", &Error{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("keeps kind and replaces op", func(t *testing.T) {
		root := errors.New("connection refused")
		inner := E("store.TryInsert", Unavailable, root)
		outer := Wrap("shortener.Allocate", inner)

		if KindOf(outer) != Unavailable {
			t.Errorf("KindOf() = %v, want %v", KindOf(outer), Unavailable)
		}
		if OpOf(outer) != "shortener.Allocate" {
			t.Errorf("OpOf() = %q, want %q", OpOf(outer), "shortener.Allocate")
		}
		if !errors.Is(outer, root) {
			t.Error("errors.Is() failed to find root through Wrap")
		}
	})

	t.Run("plain error becomes Unknown", func(t *testing.T) {
		if got := KindOf(Wrap("op", errors.New("plain"))); got != Unknown {
			t.Errorf("KindOf() = %v, want %v", got, Unknown)
		}
	})

	t.Run("nil stays nil", func(t *testing.T) {
		if err := Wrap("op", nil); err != nil {
			t.Errorf("Wrap(nil) = %v, want nil", err)
		}
	})
}

func TestKindOf(t *testing.T) {
	t.Run("standard error is Unknown", func(t *testing.T) {
		if got := KindOf(errors.New("standard")); got != Unknown {
			t.Errorf("KindOf() = %v, want %v", got, Unknown)
		}
	})

	t.Run("nil is Unknown", func(t *testing.T) {
		if got := KindOf(nil); got != Unknown {
			t.Errorf("KindOf(nil) = %v, want %v", got, Unknown)
		}
	})

	t.Run("found through fmt.Errorf wrapping", func(t *testing.T) {
		err := fmt.Errorf("context: %w", E("store.TryInsert", Conflict, errors.New("dup")))
		if got := KindOf(err); got != Conflict {
			t.Errorf("KindOf() = %v, want %v", got, Conflict)
		}
	})

	t.Run("outermost kind wins", func(t *testing.T) {
		inner := E("store.TryInsert", Conflict, errors.New("dup"))
		outer := E("shortener.Allocate", Exhausted, inner)
		if got := KindOf(outer); got != Exhausted {
			t.Errorf("KindOf() = %v, want %v", got, Exhausted)
		}
	})
}

func TestOpOf(t *testing.T) {
	if got := OpOf(errors.New("standard")); got != "" {
		t.Errorf("OpOf() = %q, want empty", got)
	}
	if got := OpOf(nil); got != "" {
		t.Errorf("OpOf(nil) = %q, want empty", got)
	}

	root := errors.New("root")
	chain := E("web.Allocate", Unavailable, E("store.FindByURL", Unavailable, root))
	// errors.As finds the outermost match
	if got := OpOf(chain); got != "web.Allocate" {
		t.Errorf("OpOf() = %q, want %q", got, "web.Allocate")
	}
}

func TestIs(t *testing.T) {
	err := E("store.FindByCode", NotFound, errors.New("no rows"))

	if !Is(err, NotFound) {
		t.Error("Is(err, NotFound) = false, want true")
	}
	if Is(err, Unavailable) {
		t.Error("Is(err, Unavailable) = true, want false")
	}
	if Is(nil, Unknown) {
		t.Error("Is(nil, Unknown) = true, want false")
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Unknown, "Unknown"},
		{NotFound, "NotFound"},
		{Conflict, "Conflict"},
		{Invalid, "Invalid"},
		{Exhausted, "Exhausted"},
		{Unavailable, "Unavailable"},
		{Internal, "Internal"},
		{Kind(99), "Kind(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("Kind.String() = %q, want %q", got, tt.want)
			}
		})
	}
}
