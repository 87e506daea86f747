package main

import "testing"

func TestClassifyInputYouTube(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		wantID  string
		wantURL string
	}{
		{
			name:    "watch URL",
			text:    "check this out https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantID:  "dQw4w9WgXcQ",
			wantURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:    "short link",
			text:    "https://youtu.be/dQw4w9WgXcQ and some text after",
			wantID:  "dQw4w9WgXcQ",
			wantURL: "https://youtu.be/dQw4w9WgXcQ",
		},
		{
			name:    "shorts URL",
			text:    "youtube.com/shorts/abcdefghijk",
			wantID:  "abcdefghijk",
			wantURL: "youtube.com/shorts/abcdefghijk",
		},
		{
			name:    "embed URL",
			text:    "https://www.youtube.com/embed/dQw4w9WgXcQ",
			wantID:  "dQw4w9WgXcQ",
			wantURL: "https://www.youtube.com/embed/dQw4w9WgXcQ",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cls := ClassifyInput(tc.text, false, "")
			if cls.Kind != ClassYouTube {
				t.Fatalf("kind = %v, want youtube", cls.Kind)
			}
			if cls.VideoID != tc.wantID {
				t.Errorf("video id = %q, want %q", cls.VideoID, tc.wantID)
			}
			if cls.URL != tc.wantURL {
				t.Errorf("url = %q, want %q", cls.URL, tc.wantURL)
			}
			if cls.Raw != tc.wantURL {
				t.Errorf("raw = %q, want %q", cls.Raw, tc.wantURL)
			}
		})
	}
}

func TestClassifyInputWrongIDLengthFallsToLink(t *testing.T) {
	// 12-character id is not a video match; the URL still counts as a link
	cls := ClassifyInput("https://youtu.be/dQw4w9WgXcQ2", false, "")
	if cls.Kind != ClassLink {
		t.Fatalf("kind = %v, want link", cls.Kind)
	}
	if cls.URL != "https://youtu.be/dQw4w9WgXcQ2" {
		t.Errorf("url = %q", cls.URL)
	}

	// Short id too
	cls = ClassifyInput("https://youtu.be/short", false, "")
	if cls.Kind != ClassLink {
		t.Fatalf("kind = %v, want link", cls.Kind)
	}
}

func TestClassifyInputFirstLink(t *testing.T) {
	cls := ClassifyInput("see https://example.com/a and https://example.com/b", false, "")
	if cls.Kind != ClassLink {
		t.Fatalf("kind = %v, want link", cls.Kind)
	}
	if cls.URL != "https://example.com/a" {
		t.Errorf("url = %q, want first link", cls.URL)
	}
}

func TestClassifyInputYouTubeBeatsLink(t *testing.T) {
	// A video match later in the text still wins over an earlier plain link
	cls := ClassifyInput("https://example.com then https://youtu.be/dQw4w9WgXcQ", false, "")
	if cls.Kind != ClassYouTube {
		t.Fatalf("kind = %v, want youtube", cls.Kind)
	}
}

func TestClassifyInputNone(t *testing.T) {
	cls := ClassifyInput("just plain text, no links here", false, "")
	if cls.Kind != ClassNone {
		t.Fatalf("kind = %v, want none", cls.Kind)
	}
}

func TestClassifyInputGifLock(t *testing.T) {
	gif := "https://media2.giphy.com/media/abc/giphy.webp"

	// A selected GIF suppresses all detection, even a video link
	cls := ClassifyInput("https://youtu.be/dQw4w9WgXcQ", false, gif)
	if cls.Kind != ClassGifLocked {
		t.Fatalf("kind = %v, want gif-locked", cls.Kind)
	}
	if cls.Raw != gif {
		t.Errorf("raw = %q, want current embed", cls.Raw)
	}
}

func TestClassifyInputLineBreak(t *testing.T) {
	cls := ClassifyInput("https://youtu.be/dQw4w9WgXcQ\n", true, "")
	if cls.Kind != ClassNone {
		t.Fatalf("kind = %v, want none on line break", cls.Kind)
	}
	if !cls.LineBreak {
		t.Error("LineBreak not set")
	}

	// GIF lock survives a line break
	gif := "https://i.giphy.com/media/abc/giphy.webp"
	cls = ClassifyInput("anything\n", true, gif)
	if cls.Kind != ClassGifLocked {
		t.Fatalf("kind = %v, want gif-locked", cls.Kind)
	}
}

func TestIsGifEmbed(t *testing.T) {
	valid := []string{
		"https://media.giphy.com/media/x/giphy.gif",
		"https://media3.giphy.com/media/x/giphy.webp",
		"https://i.giphy.com/x.gif",
		"http://GIPHY.com/x",
	}
	for _, u := range valid {
		if !IsGifEmbed(u) {
			t.Errorf("IsGifEmbed(%q) = false, want true", u)
		}
	}

	invalid := []string{
		"",
		"https://example.com/giphy.com/x.gif",
		"https://notgiphy.com/x.gif",
		"https://youtu.be/dQw4w9WgXcQ",
	}
	for _, u := range invalid {
		if IsGifEmbed(u) {
			t.Errorf("IsGifEmbed(%q) = true, want false", u)
		}
	}
}

func TestIsYouTubeEmbed(t *testing.T) {
	id, ok := IsYouTubeEmbed("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if !ok || id != "dQw4w9WgXcQ" {
		t.Errorf("got (%q, %v), want (dQw4w9WgXcQ, true)", id, ok)
	}

	if _, ok := IsYouTubeEmbed("https://example.com"); ok {
		t.Error("plain link reported as video embed")
	}
	if _, ok := IsYouTubeEmbed(""); ok {
		t.Error("empty embed reported as video embed")
	}
}

func TestMentionTerm(t *testing.T) {
	cases := []struct {
		token    string
		wantTerm string
		wantOK   bool
	}{
		{"@alice", "alice", true},
		{"@abc", "abc", true},
		{"@ab", "", false}, // needs more than two characters
		{"@", "", false},
		{"alice", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		term, ok := MentionTerm(tc.token)
		if term != tc.wantTerm || ok != tc.wantOK {
			t.Errorf("MentionTerm(%q) = (%q, %v), want (%q, %v)", tc.token, term, ok, tc.wantTerm, tc.wantOK)
		}
	}
}
