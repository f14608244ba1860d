package messages

import (
	"bytes"
	"errors"
	"testing"

	"github.com/automoto/dragonsons/shared/netconfig"
)

func TestDecodeJSON(t *testing.T) {
	msg, err := DecodeJSON([]byte(`{"t":"move","vx":0.5,"vy":-1,"sig":"ab"}`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	mv, ok := msg.(Move)
	if !ok {
		t.Fatalf("got %T, want Move", msg)
	}
	if mv.VX != 0.5 || mv.VY != -1 || mv.Signature() != "ab" {
		t.Fatalf("decoded %+v", mv)
	}

	if _, err := DecodeJSON([]byte(`{"t":"teleport"}`)); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("unknown kind err = %v", err)
	}
	if _, err := DecodeJSON([]byte(`{"t":"move","vx":"fast"}`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("malformed err = %v", err)
	}
}

func TestEncodeJSON(t *testing.T) {
	out, err := EncodeJSON(Hello{ID: "p1", Element: netconfig.Fire, Room: "main", Token: "tok"})
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	want := `{"t":"hello","id":"p1","element":"fire","room":"main","token":"tok"}`
	if string(out) != want {
		t.Fatalf("got %s\nwant %s", out, want)
	}

	out, err = EncodeJSON(Pong{})
	if err != nil || string(out) != `{"t":"pong"}` {
		t.Fatalf("pong = %s, %v", out, err)
	}

	if _, err := EncodeJSON(struct{}{}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("unknown type err = %v", err)
	}
}

func TestCanonicalIgnoresSignature(t *testing.T) {
	a, err := Canonical(Attack{Target: "p2"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Canonical(Attack{Meta: Meta{Sig: "deadbeef"}, Target: "p2"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("canonical forms differ:\n%s\n%s", a, b)
	}
	c, _ := Canonical(Attack{Target: "p3"})
	if bytes.Equal(a, c) {
		t.Fatal("different payloads share a canonical form")
	}
	d, _ := Canonical(UseItem{ItemID: "p2"})
	if bytes.Equal(a, d) {
		t.Fatal("canonical form does not bind the message kind")
	}
}
