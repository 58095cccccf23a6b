// 指示: miu200521358
package io_motion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/miu200521358/mu_vrm_retarget/internal/testglb"
	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_common"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
)

// writeAnimationGLB は Hips の移動・回転と拡縮・ウェイトを持つテスト用GLBを書き込む。
func writeAnimationGLB(t *testing.T, path string) {
	t.Helper()
	bin := testglb.Float32Bytes(
		// times
		0, 1.5,
		// translation
		0, 100, 0, 10, 100, 0,
		// rotation
		0, 0, 0, 1, 0, 0.7071068, 0, 0.7071068,
	)
	testglb.Write(t, path, map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"nodes": []any{
			map[string]any{"name": "mixamorig:Hips"},
		},
		"buffers": []any{map[string]any{"byteLength": len(bin)}},
		"bufferViews": []any{
			map[string]any{"buffer": 0, "byteOffset": 0, "byteLength": 8},
			map[string]any{"buffer": 0, "byteOffset": 8, "byteLength": 24},
			map[string]any{"buffer": 0, "byteOffset": 32, "byteLength": 32},
		},
		"accessors": []any{
			map[string]any{"bufferView": 0, "componentType": 5126, "count": 2, "type": "SCALAR"},
			map[string]any{"bufferView": 1, "componentType": 5126, "count": 2, "type": "VEC3"},
			map[string]any{"bufferView": 2, "componentType": 5126, "count": 2, "type": "VEC4"},
		},
		"animations": []any{
			map[string]any{
				"name": "Dance",
				"samplers": []any{
					map[string]any{"input": 0, "output": 1},
					map[string]any{"input": 0, "output": 2},
				},
				"channels": []any{
					map[string]any{"sampler": 0, "target": map[string]any{"node": 0, "path": "translation"}},
					map[string]any{"sampler": 1, "target": map[string]any{"node": 0, "path": "rotation"}},
					map[string]any{"sampler": 1, "target": map[string]any{"path": "rotation"}},
				},
			},
		},
	}, bin)
}

func TestMotionRepositoryCanLoad(t *testing.T) {
	repository := NewMotionRepository()
	for _, path := range []string{"a.glb", "a.GLTF", "a.json"} {
		if !repository.CanLoad(path) {
			t.Fatalf("expected %s to be loadable", path)
		}
	}
	if repository.CanLoad("a.fbx") {
		t.Fatalf("expected a.fbx to be not loadable")
	}
}

func TestMotionRepositoryLoadReturnsExtInvalid(t *testing.T) {
	_, err := NewMotionRepository().Load("dance.fbx")
	if io_common.ExtractErrorID(err) != "14102" {
		t.Fatalf("expected error id 14102, got %v", err)
	}
}

func TestMotionRepositoryLoadGltfAnimation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dance.glb")
	writeAnimationGLB(t, path)

	clip, err := NewMotionRepository().Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if clip.Name != "Dance" {
		t.Fatalf("expected clip name Dance, got %s", clip.Name)
	}
	if clip.Duration != 1.5 {
		t.Fatalf("expected duration 1.5, got %f", clip.Duration)
	}
	if len(clip.Tracks) != 2 {
		t.Fatalf("expected 2 tracks (untargeted channel skipped), got %d", len(clip.Tracks))
	}
	position := clip.Tracks[0]
	if position.Name != "mixamorig:Hips.position" || position.Property != motion.TRACK_PROPERTY_POSITION {
		t.Fatalf("unexpected position track: %s %s", position.Name, position.Property)
	}
	if position.Values[3] != 10 || position.Values[4] != 100 {
		t.Fatalf("unexpected position values: %v", position.Values)
	}
	rotation := clip.Tracks[1]
	if rotation.Property != motion.TRACK_PROPERTY_QUATERNION || rotation.SampleCount() != 2 {
		t.Fatalf("unexpected rotation track: %s samples=%d", rotation.Property, rotation.SampleCount())
	}
}

func TestMotionRepositoryLoadSelectsAnimationByName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dance.glb")
	writeAnimationGLB(t, path)

	repository := NewMotionRepository()
	repository.AnimationName = "Walk"
	_, err := repository.Load(path)
	if io_common.ExtractErrorID(err) != "14104" {
		t.Fatalf("expected error id 14104, got %v", err)
	}
}

func TestCubicSplineKeyValues(t *testing.T) {
	values := []float64{
		9, 9, 9, 1, 2, 3, 8, 8, 8,
		9, 9, 9, 4, 5, 6, 8, 8, 8,
	}
	got := cubicSplineKeyValues(values, 3)
	want := []float64{1, 2, 3, 4, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value mismatch at %d: got=%v want=%v", i, got[i], want[i])
		}
	}
}

func TestDecodeThreeClipResolvesNegativeDuration(t *testing.T) {
	clip, err := DecodeThreeClip([]byte(`{
		"name": "FBXDance",
		"duration": -1,
		"tracks": [
			{"name": "mixamorigHips.position", "type": "vector", "times": [0, 2.5], "values": [0, 1, 0, 0, 2, 0]},
			{"name": "mixamorigSpine.quaternion", "type": "quaternion", "times": [0], "values": [0, 0, 0, 1]}
		]
	}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if clip.Duration != 2.5 {
		t.Fatalf("expected duration 2.5, got %f", clip.Duration)
	}
	if clip.Tracks[1].Property != motion.TRACK_PROPERTY_QUATERNION {
		t.Fatalf("unexpected property: %s", clip.Tracks[1].Property)
	}
}

func TestDecodeThreeClipRequiresTracks(t *testing.T) {
	if _, err := DecodeThreeClip([]byte(`{"name": "x"}`)); err == nil {
		t.Fatalf("expected error to be not nil")
	}
	if _, err := DecodeThreeClip([]byte(`{`)); io_common.ExtractErrorID(err) != "14103" {
		t.Fatalf("expected error id 14103, got %v", err)
	}
}

func TestThreeClipWriterSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	clip := motion.NewClip("FBXDance", 1.0, []*motion.Track{
		motion.NewTrack("J_Bip_C_Hips.position", []float64{0, 1}, []float64{0, 1, 0, 0, 1.1, 0}),
		motion.NewTrack("J_Bip_C_Hips.quaternion", []float64{0, 1}, []float64{0, 0, 0, 1, 0, 0, 0, 1}),
	})

	if err := NewThreeClipWriter().Save(path, clip); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	text := string(b)
	if !strings.Contains(text, `"type": "vector"`) || !strings.Contains(text, `"type": "quaternion"`) {
		t.Fatalf("track types missing: %s", text)
	}
	if !strings.Contains(text, `"blendMode": 2500`) {
		t.Fatalf("blend mode missing: %s", text)
	}

	loaded, err := NewMotionRepository().Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Name != "FBXDance" || len(loaded.Tracks) != 2 || loaded.Duration != 1.0 {
		t.Fatalf("unexpected loaded clip: %+v", loaded)
	}
}

func TestThreeClipWriterRejectsNonJSON(t *testing.T) {
	err := NewThreeClipWriter().Save(filepath.Join(t.TempDir(), "out.txt"), motion.NewClip("x", 0, nil))
	if io_common.ExtractErrorID(err) != "14102" {
		t.Fatalf("expected error id 14102, got %v", err)
	}
}
