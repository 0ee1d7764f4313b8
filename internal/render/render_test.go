package render

import (
	"context"
	"errors"
	"testing"
)

type stubRenderer struct {
	data  []byte
	err   error
	calls int
}

func (s *stubRenderer) Render(ctx context.Context, req Request) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func TestFallbackUsesPrimary(t *testing.T) {
	t.Parallel()

	primary := &stubRenderer{data: []byte("jpeg")}
	secondary := &stubRenderer{data: []byte("other")}
	f := NewFallback(primary, secondary)

	data, err := f.Render(context.Background(), Request{Source: "a.pdf"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if string(data) != "jpeg" {
		t.Errorf("Render = %q, want primary output", data)
	}
	if secondary.calls != 0 {
		t.Errorf("Secondary called %d times, want 0", secondary.calls)
	}
}

func TestFallbackChainsOnFailure(t *testing.T) {
	t.Parallel()

	primary := &stubRenderer{err: ErrCorrupt}
	secondary := &stubRenderer{data: []byte("rescued")}
	f := NewFallback(primary, secondary)

	data, err := f.Render(context.Background(), Request{Source: "a.pdf"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if string(data) != "rescued" {
		t.Errorf("Render = %q, want secondary output", data)
	}
}

func TestFallbackReturnsLastError(t *testing.T) {
	t.Parallel()

	f := NewFallback(
		&stubRenderer{err: ErrCorrupt},
		&stubRenderer{err: ErrUnsupported},
	)

	_, err := f.Render(context.Background(), Request{Source: "a.pdf"})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Render err = %v, want ErrUnsupported", err)
	}
}

func TestFallbackStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	primary := &stubRenderer{err: ErrTimeout}
	secondary := &stubRenderer{data: []byte("too late")}
	f := NewFallback(primary, secondary)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Render(ctx, Request{Source: "a.pdf"})
	if err == nil {
		t.Fatal("Render succeeded with cancelled context")
	}
	if secondary.calls != 0 {
		t.Errorf("Secondary called after cancellation: %d times", secondary.calls)
	}
}

func TestClassifyPopplerError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stderr string
		want   error
	}{
		{"page out of range", "Wrong page range given: the first page (7) can not be after the last page (3).", ErrNotFound},
		{"not a pdf", "Syntax Warning: May not be a PDF file (continuing anyway)\nSyntax Error: Couldn't find trailer dictionary", ErrCorrupt},
		{"encrypted", "Command Line Error: Incorrect password\nfile is encrypted", ErrUnsupported},
		{"unclassified", "something exploded", ErrCorrupt},
	}

	req := Request{Source: "a.pdf", Page: 0}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := classifyPopplerError(errors.New("exit status 1"), tt.stderr, req)
			if !errors.Is(err, tt.want) {
				t.Errorf("classifyPopplerError(%q) = %v, want %v", tt.stderr, err, tt.want)
			}
		})
	}
}

func TestVipsAngle(t *testing.T) {
	t.Parallel()

	for _, rot := range []int{0, 90, 180, 270} {
		if _, ok := vipsAngle(rot); !ok {
			t.Errorf("vipsAngle(%d) not supported", rot)
		}
	}
	if _, ok := vipsAngle(45); ok {
		t.Error("vipsAngle(45) accepted, want rejection")
	}
}

func TestPopplerRendererMissingFile(t *testing.T) {
	t.Parallel()

	p := NewPopplerRenderer()
	_, err := p.Render(context.Background(), Request{
		Source: "/nonexistent/file.pdf",
		Width:  160, Height: 220,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Render missing file err = %v, want ErrNotFound", err)
	}
}
