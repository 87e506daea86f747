package main

import (
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"composer-server/internal/types"
)

func TestClassifyResourceGif(t *testing.T) {
	state := &types.ComposerState{
		Embed: "https://media2.giphy.com/media/abc/giphy.webp",
	}
	res := classifyResource(state)
	gif, ok := res.(GifResource)
	if !ok {
		t.Fatalf("resource = %T, want GifResource", res)
	}
	if gif.ID != state.Embed {
		t.Errorf("gif id = %q, want embed URL", gif.ID)
	}
}

func TestClassifyResourceVideo(t *testing.T) {
	state := &types.ComposerState{
		Embed: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Panel: types.PreviewPanel{
			Visible:  true,
			Title:    "Never Gonna Give You Up",
			Provider: "Youtube",
			Image:    "https://img.youtube.com/vi/dQw4w9WgXcQ/default.jpg",
		},
	}
	res := classifyResource(state)
	video, ok := res.(VideoResource)
	if !ok {
		t.Fatalf("resource = %T, want VideoResource", res)
	}
	if video.ID != "dQw4w9WgXcQ" {
		t.Errorf("video id = %q", video.ID)
	}
	if video.Title != "Never Gonna Give You Up" {
		t.Errorf("title = %q", video.Title)
	}
}

func TestClassifyResourceContent(t *testing.T) {
	state := &types.ComposerState{
		Embed: "https://example.com/article",
		Panel: types.PreviewPanel{
			Visible:     true,
			Title:       "An Article",
			Provider:    "https://example.com/article",
			Description: "Some summary",
			Image:       "https://example.com/img.png",
		},
	}
	res := classifyResource(state)
	content, ok := res.(ContentResource)
	if !ok {
		t.Fatalf("resource = %T, want ContentResource", res)
	}
	if content.URL != state.Embed {
		t.Errorf("url = %q", content.URL)
	}
	if content.Provider != state.Panel.Provider {
		t.Errorf("provider = %q", content.Provider)
	}
}

func TestClassifyResourceEmpty(t *testing.T) {
	if res := classifyResource(&types.ComposerState{}); res != nil {
		t.Fatalf("resource = %v, want nil for empty embed", res)
	}
}

// parseSubmission reads a built multipart body back into a field map
func parseSubmission(t *testing.T, body []byte, contentType string) map[string]string {
	t.Helper()

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("bad content type: %v", err)
	}
	reader := multipart.NewReader(strings.NewReader(string(body)), params["boundary"])

	fields := make(map[string]string)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading part: %v", err)
		}
		value, err := io.ReadAll(part)
		if err != nil {
			t.Fatalf("reading part body: %v", err)
		}
		fields[part.FormName()] = string(value)
	}
	return fields
}

func TestBuildSubmissionBaseFields(t *testing.T) {
	state := &types.ComposerState{Text: "hello world"}
	req := SubmitRequest{
		Page:      "https://gitcoin.co/townsquare",
		Ask:       "false",
		What:      "status_update",
		Tab:       "all",
		CSRFToken: "tok123",
	}

	body, contentType, err := buildSubmission(state, "hello world", req)
	if err != nil {
		t.Fatalf("buildSubmission: %v", err)
	}
	fields := parseSubmission(t, body, contentType)

	want := map[string]string{
		"ask":                 "false",
		"data":                "hello world",
		"what":                "status_update",
		"tab":                 "all",
		"csrfmiddlewaretoken": "tok123",
	}
	for name, value := range want {
		if fields[name] != value {
			t.Errorf("field %s = %q, want %q", name, fields[name], value)
		}
	}
	if _, present := fields["has_video"]; present {
		t.Error("has_video present without video decoration")
	}
	if _, present := fields["resource"]; present {
		t.Error("resource present without embed")
	}
	if _, present := fields["option0"]; present {
		t.Error("option0 present without poll")
	}
}

func TestBuildSubmissionVideoAndPoll(t *testing.T) {
	state := &types.ComposerState{
		Text:  "poll time",
		Video: &types.VideoDecoration{Gfx: 2},
		Poll:  &types.PollOptions{Options: [5]string{"yes", "", "no", "", ""}},
	}

	body, contentType, err := buildSubmission(state, "poll time", SubmitRequest{})
	if err != nil {
		t.Fatalf("buildSubmission: %v", err)
	}
	fields := parseSubmission(t, body, contentType)

	if fields["has_video"] != "true" {
		t.Errorf("has_video = %q", fields["has_video"])
	}
	if fields["video_gfx"] != "2" {
		t.Errorf("video_gfx = %q", fields["video_gfx"])
	}

	// Poll answers compact: empty slots are skipped and the rest renumber
	if fields["option0"] != "yes" {
		t.Errorf("option0 = %q", fields["option0"])
	}
	if fields["option1"] != "no" {
		t.Errorf("option1 = %q", fields["option1"])
	}
	if _, present := fields["option2"]; present {
		t.Error("option2 present, want only two options")
	}
}

func TestBuildSubmissionGifResource(t *testing.T) {
	gif := "https://media.giphy.com/media/abc/giphy.webp"
	state := &types.ComposerState{
		Text:     "look at this",
		Embed:    gif,
		GifPanel: types.GifPanel{Visible: true, URL: gif},
	}

	body, contentType, err := buildSubmission(state, "look at this", SubmitRequest{})
	if err != nil {
		t.Fatalf("buildSubmission: %v", err)
	}
	fields := parseSubmission(t, body, contentType)

	if fields["resource"] != "gif" {
		t.Errorf("resource = %q", fields["resource"])
	}
	if fields["resourceProvider"] != "giphy" {
		t.Errorf("resourceProvider = %q", fields["resourceProvider"])
	}
	if fields["resourceId"] != gif {
		t.Errorf("resourceId = %q", fields["resourceId"])
	}
	// The GIF shape has no panel text fields
	if _, present := fields["title"]; present {
		t.Error("title present on gif resource")
	}
}

func TestBuildSubmissionVideoResource(t *testing.T) {
	state := &types.ComposerState{
		Text:  "watch",
		Embed: "https://youtu.be/dQw4w9WgXcQ",
		Panel: types.PreviewPanel{
			Visible:     true,
			Title:       "A Video",
			Provider:    "Youtube",
			Description: "desc",
			Image:       "https://img.youtube.com/vi/dQw4w9WgXcQ/default.jpg",
		},
	}

	body, contentType, err := buildSubmission(state, "watch", SubmitRequest{})
	if err != nil {
		t.Fatalf("buildSubmission: %v", err)
	}
	fields := parseSubmission(t, body, contentType)

	if fields["resource"] != "video" {
		t.Errorf("resource = %q", fields["resource"])
	}
	if fields["resourceProvider"] != "youtube" {
		t.Errorf("resourceProvider = %q", fields["resourceProvider"])
	}
	if fields["resourceId"] != "dQw4w9WgXcQ" {
		t.Errorf("resourceId = %q", fields["resourceId"])
	}
	if fields["title"] != "A Video" {
		t.Errorf("title = %q", fields["title"])
	}
	if fields["image"] != "https://img.youtube.com/vi/dQw4w9WgXcQ/default.jpg" {
		t.Errorf("image = %q", fields["image"])
	}
}
