package support

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/gif"
	"net/http"
	"strings"

	"github.com/MeKo-Tech/imgmerge/internal/pdf"
	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"
)

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (testCtx *TestContext) theExportServerIsRunning() error {
	return testCtx.createTestHTTPServer(10)
}

func (testCtx *TestContext) theExportServerIsRunningWithLimit(mb int) error {
	return testCtx.createTestHTTPServer(int64(mb))
}

func (testCtx *TestContext) iGET(path string) error {
	url, err := testCtx.serverURL(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return testCtx.doRequest(req)
}

func (testCtx *TestContext) postForm(path, fileField string, files []string, fields map[string][]string) error {
	url, err := testCtx.serverURL(path)
	if err != nil {
		return err
	}
	body, contentType, err := testCtx.multipartBody(fileField, files, fields)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return testCtx.doRequest(req)
}

func (testCtx *TestContext) iExportImages(files, format string) error {
	return testCtx.postForm("/export", "images", splitList(files), map[string][]string{"format": {format}})
}

func (testCtx *TestContext) iExportImagesWithRotations(files, format, rotations string) error {
	return testCtx.postForm("/export", "images", splitList(files), map[string][]string{
		"format":    {format},
		"rotations": {rotations},
	})
}

func (testCtx *TestContext) iPreviewImage(file string, rotation int) error {
	return testCtx.postForm("/preview", "image", []string{file}, map[string][]string{
		"rotation": {fmt.Sprint(rotation)},
	})
}

func (testCtx *TestContext) iExportOverWebSocket(files, format string) error {
	return testCtx.runWebSocketExport(splitList(files), format)
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastHTTPStatusCode != status {
		return fmt.Errorf("response status is %d, want %d\nBody: %s",
			testCtx.LastHTTPStatusCode, status, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, want string) error {
	if got := testCtx.LastHTTPHeaders.Get(name); got != want {
		return fmt.Errorf("header %s is %q, want %q", name, got, want)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBeSet(name string) error {
	if testCtx.LastHTTPHeaders.Get(name) == "" {
		return fmt.Errorf("header %s is not set", name)
	}
	return nil
}

func (testCtx *TestContext) theResponseJSONFieldShouldBe(field, want string) error {
	var doc map[string]any
	if err := json.Unmarshal(testCtx.LastHTTPResponse, &doc); err != nil {
		return fmt.Errorf("response is not a JSON object: %w\nBody: %s", err, testCtx.LastHTTPResponse)
	}
	return checkJSONField(doc, field, want)
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !bytes.Contains(testCtx.LastHTTPResponse, []byte(text)) {
		return fmt.Errorf("response does not contain %q\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldBeGIF(frames int) error {
	g, err := gif.DecodeAll(bytes.NewReader(testCtx.LastHTTPResponse))
	if err != nil {
		return fmt.Errorf("response is not a GIF: %w", err)
	}
	if len(g.Image) != frames {
		return fmt.Errorf("GIF has %d frames, want %d", len(g.Image), frames)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldBePDF(pages int) error {
	got, err := pdf.PageCount(bytes.NewReader(testCtx.LastHTTPResponse), "")
	if err != nil {
		return fmt.Errorf("response is not a PDF: %w", err)
	}
	if got != pages {
		return fmt.Errorf("PDF has %d pages, want %d", got, pages)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldBeImage(width, height int) error {
	img, err := imaging.Decode(bytes.NewReader(testCtx.LastHTTPResponse))
	if err != nil {
		return fmt.Errorf("response is not an image: %w", err)
	}
	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("image is %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}
	return nil
}

func (testCtx *TestContext) theWebSocketShouldReportStatus(status string) error {
	msgs := testCtx.HTTPTestServer.WSMessages
	if len(msgs) == 0 {
		return fmt.Errorf("no websocket messages received")
	}
	if last := msgs[len(msgs)-1]; last.Status != status {
		return fmt.Errorf("last websocket status is %q (%s), want %q", last.Status, last.Error, status)
	}
	return nil
}

func (testCtx *TestContext) theWebSocketShouldReportProgressFor(total int) error {
	for _, msg := range testCtx.HTTPTestServer.WSMessages {
		if msg.Status == "processing" && msg.Total == total && msg.Current == total {
			return nil
		}
	}
	return fmt.Errorf("no progress message reached %d/%d", total, total)
}

func (testCtx *TestContext) theWebSocketErrorTypeShouldBe(errorType string) error {
	msgs := testCtx.HTTPTestServer.WSMessages
	if len(msgs) == 0 {
		return fmt.Errorf("no websocket messages received")
	}
	if last := msgs[len(msgs)-1]; last.ErrorType != errorType {
		return fmt.Errorf("websocket error type is %q, want %q", last.ErrorType, errorType)
	}
	return nil
}

func (testCtx *TestContext) theWebSocketResultShouldBeGIF(frames int) error {
	msgs := testCtx.HTTPTestServer.WSMessages
	if len(msgs) == 0 || msgs[len(msgs)-1].Result == nil {
		return fmt.Errorf("no websocket result received")
	}
	testCtx.LastHTTPResponse = msgs[len(msgs)-1].Result.Data
	return testCtx.theResponseShouldBeGIF(frames)
}

// RegisterServerSteps registers HTTP and WebSocket steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the export server is running$`, testCtx.theExportServerIsRunning)
	sc.Step(`^the export server is running with a (\d+) MB upload limit$`, testCtx.theExportServerIsRunningWithLimit)

	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I export "([^"]*)" as "([^"]*)" over HTTP$`, testCtx.iExportImages)
	sc.Step(`^I export "([^"]*)" as "([^"]*)" with rotations "([^"]*)" over HTTP$`, testCtx.iExportImagesWithRotations)
	sc.Step(`^I request a preview of "([^"]*)" rotated (\d+) degrees$`, testCtx.iPreviewImage)
	sc.Step(`^I export "([^"]*)" as "([^"]*)" over WebSocket$`, testCtx.iExportOverWebSocket)

	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response header "([^"]*)" should be set$`, testCtx.theResponseHeaderShouldBeSet)
	sc.Step(`^the response JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseJSONFieldShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response should be a GIF with (\d+) frames?$`, testCtx.theResponseShouldBeGIF)
	sc.Step(`^the response should be a PDF with (\d+) pages?$`, testCtx.theResponseShouldBePDF)
	sc.Step(`^the response should be a (\d+)x(\d+) image$`, testCtx.theResponseShouldBeImage)

	sc.Step(`^the WebSocket should report "([^"]*)"$`, testCtx.theWebSocketShouldReportStatus)
	sc.Step(`^the WebSocket should report progress for (\d+) images$`, testCtx.theWebSocketShouldReportProgressFor)
	sc.Step(`^the WebSocket error type should be "([^"]*)"$`, testCtx.theWebSocketErrorTypeShouldBe)
	sc.Step(`^the WebSocket result should be a GIF with (\d+) frames?$`, testCtx.theWebSocketResultShouldBeGIF)
}
