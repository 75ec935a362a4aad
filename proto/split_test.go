package proto

import (
	"strings"
	"testing"
)

func TestSplitPRIVMSGUnderLimit(t *testing.T) {
	chunks := SplitPRIVMSG("#dev", strings.Repeat("a", 1000), false)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	var rebuilt strings.Builder
	for _, c := range chunks {
		rebuilt.WriteString(c)
		line := "PRIVMSG #dev :" + c
		if len(line)+2 > 512 {
			t.Fatalf("chunk too long once framed: %d", len(line)+2)
		}
	}
	if rebuilt.String() != strings.Repeat("a", 1000) {
		t.Fatal("chunks do not reconstruct original text")
	}
}

func TestSplitPRIVMSGUTF8Boundary(t *testing.T) {
	text := strings.Repeat("é", 300) // 2 bytes each in UTF-8
	chunks := SplitPRIVMSG("#dev", text, false)
	var rebuilt strings.Builder
	for _, c := range chunks {
		rebuilt.WriteString(c)
	}
	if rebuilt.String() != text {
		t.Fatal("utf8 chunks do not reconstruct original text")
	}
}

func TestSplitPRIVMSGShort(t *testing.T) {
	chunks := SplitPRIVMSG("#dev", "hi", false)
	if len(chunks) != 1 || chunks[0] != "hi" {
		t.Fatalf("unexpected split: %v", chunks)
	}
}
