package app

import (
	"net/http"
	"reflect"
	"testing"
)

func TestNewHTTPClient_TLSVerification(t *testing.T) {
	tests := []struct {
		name     string
		verify   bool
		wantSkip bool
	}{
		{"verification enabled", true, false},
		{"verification disabled", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok := newHTTPClient(tt.verify).Transport.(*http.Transport)
			if !ok {
				t.Fatalf("expected *http.Transport")
			}
			var skip bool
			if tr.TLSClientConfig != nil {
				skip = tr.TLSClientConfig.InsecureSkipVerify
			}
			if skip != tt.wantSkip {
				t.Fatalf("InsecureSkipVerify=%v, want %v", skip, tt.wantSkip)
			}
			if reflect.ValueOf(http.DefaultTransport).Pointer() == reflect.ValueOf(tr).Pointer() {
				t.Fatalf("transport should not be default")
			}
		})
	}
}
