package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/jackzampolin/darkroom/internal/api"
	"github.com/jackzampolin/darkroom/internal/providers"
	"github.com/jackzampolin/darkroom/internal/server/endpoints"
	"github.com/jackzampolin/darkroom/internal/store"
)

// testPNG encodes a real PNG so upload and export paths both accept it.
func testPNG(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x * 5), B: uint8(y * 5), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestShootAPIFlow(t *testing.T) {
	srv, cfg := startTestServer(t)
	srv.Registry().Register("mock", providers.NewMockGenerator())

	ctx := context.Background()
	client := api.NewClient(cfg.URL())

	var shoot store.Shoot
	if err := client.Post(ctx, "/api/shoots", endpoints.CreateShootRequest{Label: "spring lookbook"}, &shoot); err != nil {
		t.Fatalf("create shoot: %v", err)
	}
	if shoot.ID == "" || shoot.Label != "spring lookbook" {
		t.Fatalf("created shoot = %+v", shoot)
	}

	var frameA, frameB store.Frame
	if err := client.Post(ctx, "/api/shoots/"+shoot.ID+"/frames",
		endpoints.AddFrameRequest{Params: store.Params{"style": "portrait", "subject": "a dancer"}}, &frameA); err != nil {
		t.Fatalf("add frame: %v", err)
	}
	if err := client.Post(ctx, "/api/shoots/"+shoot.ID+"/frames",
		endpoints.AddFrameRequest{Params: store.Params{"style": "product", "subject": "a watch"}}, &frameB); err != nil {
		t.Fatalf("add frame: %v", err)
	}

	t.Run("frames_listed_most_recent_first", func(t *testing.T) {
		var got store.Shoot
		if err := client.Get(ctx, "/api/shoots/"+shoot.ID, &got); err != nil {
			t.Fatalf("get shoot: %v", err)
		}
		if len(got.Frames) != 2 {
			t.Fatalf("frames = %d, want 2", len(got.Frames))
		}
		if got.Frames[0].ID != frameB.ID || got.Frames[1].ID != frameA.ID {
			t.Errorf("frame order = [%s %s], want newest first", got.Frames[0].ID, got.Frames[1].ID)
		}
	})

	var snap store.Snapshot
	t.Run("upload_snapshot", func(t *testing.T) {
		payload := testPNG(t, 10)
		path := "/api/shoots/" + shoot.ID + "/frames/" + frameA.ID + "/snapshots"
		if err := client.PostRaw(ctx, path, "image/png", payload, &snap); err != nil {
			t.Fatalf("upload snapshot: %v", err)
		}
		if snap.StorageRef == "" {
			t.Error("snapshot has no storage ref")
		}
	})

	t.Run("short_payload_rejected", func(t *testing.T) {
		path := "/api/shoots/" + shoot.ID + "/frames/" + frameA.ID + "/snapshots"
		err := client.PostRaw(ctx, path, "image/png", []byte("tiny"), nil)
		if err == nil || !strings.Contains(err.Error(), "400") {
			t.Errorf("short payload error = %v, want 400", err)
		}
	})

	t.Run("download_image", func(t *testing.T) {
		data, contentType, err := client.GetRaw(ctx, "/api/shoots/"+shoot.ID+"/images/"+snap.ID)
		if err != nil {
			t.Fatalf("download image: %v", err)
		}
		if contentType != "image/png" {
			t.Errorf("content type = %q, want image/png", contentType)
		}
		if !bytes.Equal(data, testPNG(t, 10)) {
			t.Error("downloaded payload differs from upload")
		}
	})

	t.Run("generate_snapshot", func(t *testing.T) {
		var resp endpoints.GenerateResponse
		path := "/api/shoots/" + shoot.ID + "/frames/" + frameB.ID + "/generate"
		if err := client.Post(ctx, path, endpoints.GenerateRequest{Provider: "mock"}, &resp); err != nil {
			t.Fatalf("generate: %v", err)
		}
		if resp.Snapshot == nil || resp.Snapshot.ID == "" {
			t.Fatal("no snapshot in generate response")
		}
		if resp.Style != "product" {
			t.Errorf("resolved style = %q, want product", resp.Style)
		}
		if !strings.Contains(resp.Prompt, "a watch") {
			t.Errorf("prompt missing frame subject: %q", resp.Prompt)
		}
	})

	t.Run("generate_unknown_provider", func(t *testing.T) {
		path := "/api/shoots/" + shoot.ID + "/frames/" + frameB.ID + "/generate"
		err := client.Post(ctx, path, endpoints.GenerateRequest{Provider: "nope"}, nil)
		if err == nil || !strings.Contains(err.Error(), "400") {
			t.Errorf("unknown provider error = %v, want 400", err)
		}
	})

	t.Run("list_shoots", func(t *testing.T) {
		var resp endpoints.ListShootsResponse
		if err := client.Get(ctx, "/api/shoots", &resp); err != nil {
			t.Fatalf("list shoots: %v", err)
		}
		if resp.Total != 1 || len(resp.Shoots) != 1 {
			t.Fatalf("list = %+v, want one shoot", resp)
		}
		entry := resp.Shoots[0]
		if entry.FrameCount != 2 || entry.SnapshotCount != 2 {
			t.Errorf("counts = %d frames / %d snapshots, want 2/2", entry.FrameCount, entry.SnapshotCount)
		}
	})

	t.Run("update_label", func(t *testing.T) {
		label := "summer lookbook"
		var got store.Shoot
		if err := client.Patch(ctx, "/api/shoots/"+shoot.ID, endpoints.UpdateShootRequest{Label: &label}, &got); err != nil {
			t.Fatalf("patch shoot: %v", err)
		}
		if got.Label != label {
			t.Errorf("label = %q, want %q", got.Label, label)
		}
		if got.ID != shoot.ID || !got.CreatedAt.Equal(shoot.CreatedAt) {
			t.Error("immutable fields changed by patch")
		}
	})

	t.Run("export_contact_sheet", func(t *testing.T) {
		// frameA holds the one uploaded PNG; drop the mock-generated
		// snapshot first since its payload is not a decodable image.
		var got store.Shoot
		if err := client.Get(ctx, "/api/shoots/"+shoot.ID, &got); err != nil {
			t.Fatal(err)
		}
		for _, f := range got.Frames {
			if f.ID != frameB.ID {
				continue
			}
			for _, s := range f.Snapshots {
				if err := client.Delete(ctx, "/api/shoots/"+shoot.ID+"/frames/"+f.ID+"/snapshots/"+s.ID); err != nil {
					t.Fatal(err)
				}
			}
		}

		var resp endpoints.ExportResponse
		if err := client.Post(ctx, "/api/shoots/"+shoot.ID+"/export", nil, &resp); err != nil {
			t.Fatalf("export: %v", err)
		}
		if resp.Images != 1 {
			t.Errorf("exported images = %d, want 1", resp.Images)
		}
		if _, err := os.Stat(resp.Path); err != nil {
			t.Errorf("export file missing: %v", err)
		}
	})

	t.Run("delete_frame", func(t *testing.T) {
		if err := client.Delete(ctx, "/api/shoots/"+shoot.ID+"/frames/"+frameB.ID); err != nil {
			t.Fatalf("delete frame: %v", err)
		}
		var got store.Shoot
		if err := client.Get(ctx, "/api/shoots/"+shoot.ID, &got); err != nil {
			t.Fatal(err)
		}
		if len(got.Frames) != 1 || got.Frames[0].ID != frameA.ID {
			t.Errorf("frames after delete = %+v", got.Frames)
		}
	})

	t.Run("delete_shoot_cascades", func(t *testing.T) {
		if err := client.Delete(ctx, "/api/shoots/"+shoot.ID); err != nil {
			t.Fatalf("delete shoot: %v", err)
		}
		err := client.Get(ctx, "/api/shoots/"+shoot.ID, &store.Shoot{})
		if err == nil || !strings.Contains(err.Error(), "404") {
			t.Errorf("get after delete = %v, want 404", err)
		}
		_, _, err = client.GetRaw(ctx, "/api/shoots/"+shoot.ID+"/images/"+snap.ID)
		if err == nil || !strings.Contains(err.Error(), "404") {
			t.Errorf("image after delete = %v, want 404", err)
		}
	})
}

func TestStylesEndpoint(t *testing.T) {
	_, cfg := startTestServer(t)
	client := api.NewClient(cfg.URL())

	var resp endpoints.ListStylesResponse
	if err := client.Get(context.Background(), "/api/styles", &resp); err != nil {
		t.Fatalf("list styles: %v", err)
	}
	if resp.Total < 4 {
		t.Errorf("styles = %d, want at least 4", resp.Total)
	}
	seen := map[string]bool{}
	for _, s := range resp.Styles {
		seen[s.Key] = true
	}
	for _, want := range []string{"portrait", "food", "product", "generic"} {
		if !seen[want] {
			t.Errorf("style %q missing from listing", want)
		}
	}
}
