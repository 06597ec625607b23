package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("north roof\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Section?", &out)
	if err != nil || got != "north roof" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Section?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetMultiline_DoubleEnter(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("panel is shaded after 3pm\ncheck west corner\n\n\n"))
	var out bytes.Buffer
	got, err := GetMultiline(in, "Enter note", &out)
	if err != nil {
		t.Fatal(err)
	}
	want := "panel is shaded after 3pm\ncheck west corner"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGetSecret_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetSecret("Enter access code", &out)
	if err == nil {
		t.Fatal("expected error")
	}
}
