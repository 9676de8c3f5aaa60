package validation

import (
	"bytes"
	"mime/multipart"
	"strings"
	"testing"
)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(content)
	mw.Close()

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

var (
	pngHead  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	movHead  = []byte("\x00\x00\x00\x14ftypqt  \x00\x00\x02\x00qt  ")
	textBody = []byte("hello world")
)

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content []byte
		sets    []FileConstraints
		wantErr bool
	}{
		{"png image", "cover.png", pngHead, []FileConstraints{ImageConstraints}, false},
		{"png with wrong extension", "cover.pdf", pngHead, []FileConstraints{ImageConstraints}, true},
		{"text as image", "cover.png", textBody, []FileConstraints{ImageConstraints}, true},
		{"quicktime clip", "clip.mov", movHead, []FileConstraints{ImageConstraints, VideoConstraints}, false},
		{"quicktime as image only", "clip.mov", movHead, []FileConstraints{ImageConstraints}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(fileHeader(t, tt.file, tt.content), tt.sets...)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("kurz"); err == nil {
		t.Error("short password accepted")
	}
	if err := ValidatePassword(strings.Repeat("a", 73)); err == nil {
		t.Error("73 byte password accepted")
	}
	if err := ValidatePassword("zwölfzeichen"); err != nil {
		t.Errorf("valid password rejected: %v", err)
	}
}

func TestValidateEmailAndURL(t *testing.T) {
	if err := ValidateEmail("studio@tonbandleipzig.de"); err != nil {
		t.Error(err)
	}
	for _, bad := range []string{"", "kein-at", "Name <a@b.de>"} {
		if ValidateEmail(bad) == nil {
			t.Errorf("ValidateEmail(%q) = nil", bad)
		}
	}

	if err := ValidateURL("https://tonbandleipzig.de/a.jpg"); err != nil {
		t.Error(err)
	}
	for _, bad := range []string{"ftp://x/a", "/relative.jpg", "https://"} {
		if ValidateURL(bad) == nil {
			t.Errorf("ValidateURL(%q) = nil", bad)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	if ValidateUsername("  ") == nil {
		t.Error("blank username accepted")
	}
	if ValidateUsername("Tina\x00") == nil {
		t.Error("control character accepted")
	}
	if err := ValidateUsername("Jörg"); err != nil {
		t.Error(err)
	}
}
