package main

import "testing"

func TestRelayFromRoom(t *testing.T) {
	tests := []struct {
		room   string
		want   string
		wantOK bool
	}{
		{room: "ABC123"},
		{room: "#ABC123"},
		{room: "http://pong.example:8787/#ABC123", want: "http://pong.example:8787/", wantOK: true},
		{room: "https://pong.example/base?x=1#ABC123", want: "https://pong.example/base", wantOK: true},
		{room: "ftp://pong.example/#ABC123"},
		{room: "http:///#ABC123"},
	}

	for _, tt := range tests {
		got, ok := relayFromRoom(tt.room)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("relayFromRoom(%q) = %q, %v; expected %q, %v", tt.room, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/pong")
	if got := expandHome("~/.duopong/relay.db"); got != "/home/pong/.duopong/relay.db" {
		t.Errorf("expected home expansion, got %q", got)
	}
	if got := expandHome("/tmp/x.db"); got != "/tmp/x.db" {
		t.Errorf("expected absolute path unchanged, got %q", got)
	}
}
