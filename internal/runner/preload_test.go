package runner

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"gwbench/internal/transport"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
)

func TestPreloadDeterministicKeysAndPayloads(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	conn := transport.NewMockConn(mockCtrl)
	var puts []transport.Request
	conn.EXPECT().Do(gomock.Any(), gomock.Any()).Times(5).DoAndReturn(
		func(_ context.Context, req transport.Request) (transport.Response, error) {
			puts = append(puts, req)
			return transport.Response{Status: http.StatusOK}, nil
		})

	cfg := DefaultConfig()
	cfg.Objects = 5
	cfg.ObjectBytes = 32

	var progress []int
	keys, err := Preload(context.Background(), conn, cfg, func(done, total int) {
		if total != 5 {
			t.Errorf("total %d, want 5", total)
		}
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatalf("preload: %v", err)
	}

	want := []string{"obj-000000", "obj-000001", "obj-000002", "obj-000003", "obj-000004"}
	if len(keys) != len(want) {
		t.Fatalf("keys %v", keys)
	}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("key %d = %s, want %s", i, keys[i], k)
		}
		req := puts[i]
		if req.Method != http.MethodPut || req.Path != "/prompt-cache/"+k {
			t.Errorf("request %d = %s %s", i, req.Method, req.Path)
		}
		if !bytes.Equal(req.Body, bytes.Repeat([]byte{byte(i)}, 32)) {
			t.Errorf("payload %d not all %d", i, i)
		}
	}
	if len(progress) != 5 || progress[4] != 5 {
		t.Errorf("progress %v", progress)
	}
}

func TestPreloadAbortsOnFirstFailure(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	conn := transport.NewMockConn(mockCtrl)
	gomock.InOrder(
		conn.EXPECT().Do(gomock.Any(), gomock.Any()).Return(transport.Response{Status: http.StatusOK}, nil),
		conn.EXPECT().Do(gomock.Any(), gomock.Any()).Return(transport.Response{Status: http.StatusServiceUnavailable}, nil),
	)

	cfg := DefaultConfig()
	cfg.Objects = 10
	cfg.ObjectBytes = 8

	_, err := Preload(context.Background(), conn, cfg, nil)
	if !errors.Is(err, ErrPreload) {
		t.Fatalf("got %v, want ErrPreload", err)
	}
}

func TestPreloadTransportError(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	conn := transport.NewMockConn(mockCtrl)
	conn.EXPECT().Do(gomock.Any(), gomock.Any()).Return(transport.Response{}, errors.New("connection reset"))

	cfg := DefaultConfig()
	cfg.Objects = 3
	_, err := Preload(context.Background(), conn, cfg, nil)
	if !errors.Is(err, ErrPreload) {
		t.Fatalf("got %v, want ErrPreload", err)
	}
}

func TestEnsureBucket(t *testing.T) {
	tests := []struct {
		status  int
		wantErr bool
	}{
		{http.StatusOK, false},
		{http.StatusNoContent, false},
		{http.StatusConflict, true},
		{http.StatusForbidden, true},
	}
	for _, tt := range tests {
		mockCtrl := gomock.NewController(t)
		conn := transport.NewMockConn(mockCtrl)
		conn.EXPECT().
			Do(gomock.Any(), transport.Request{Method: http.MethodPut, Path: "/b"}).
			Return(transport.Response{Status: tt.status}, nil)

		err := EnsureBucket(context.Background(), conn, "b")
		if tt.wantErr != (err != nil) {
			t.Errorf("status %d: err=%v", tt.status, err)
		}
		if err != nil && !errors.Is(err, ErrBucketCreate) {
			t.Errorf("status %d: want ErrBucketCreate, got %v", tt.status, err)
		}
		mockCtrl.Finish()
	}
}

func TestRandomPayload(t *testing.T) {
	a, err := Payload(1, 64, true)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Payload(1, 64, true)
	if len(a) != 64 || bytes.Equal(a, b) {
		t.Fatalf("random payloads should differ and have the requested size")
	}
}

func TestExistingKeys(t *testing.T) {
	keys := ExistingKeys(3)
	if len(keys) != 3 || keys[2] != "obj-000002" {
		t.Fatalf("got %v", keys)
	}
}
